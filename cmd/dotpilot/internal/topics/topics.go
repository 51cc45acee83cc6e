// Package topics serves the long-form help articles embedded in the
// binary, rendered with glamour for terminal display.
package topics

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed docs/*.md
var docs embed.FS

// List returns the available topic names in sorted order
func List() []string {
	entries, err := fs.ReadDir(docs, "docs")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// Render returns a topic rendered for the terminal. Rendering failures
// fall back to the raw markdown so help is never unavailable.
func Render(name string) (string, error) {
	raw, err := docs.ReadFile("docs/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("no help topic %q (available: %s)", name, strings.Join(List(), ", "))
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return string(raw), nil
	}

	out, err := renderer.Render(string(raw))
	if err != nil {
		return string(raw), nil
	}
	return out, nil
}
