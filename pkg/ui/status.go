package ui

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/dotpilot-sh/dotpilot/pkg/linker"
)

// Status classifies a line in status output
type Status string

const (
	StatusLinked  Status = "linked"  // symlink in place and correct
	StatusPending Status = "pending" // setup would create the link
	StatusBlocked Status = "blocked" // foreign content occupies the target
	StatusError   Status = "error"   // source missing or link broken
)

// StatusStyle returns the pterm style for a status badge
func StatusStyle(status Status) *pterm.Style {
	switch status {
	case StatusLinked:
		return pterm.NewStyle(pterm.FgGreen)
	case StatusPending:
		return pterm.NewStyle(pterm.FgYellow)
	case StatusBlocked:
		return pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	case StatusError:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// Classify maps a linker status onto a display status and message
func Classify(s linker.SpecStatus) (Status, string) {
	if s.SourceMissing {
		return StatusError, fmt.Sprintf("source missing: %s", s.Spec.Source)
	}
	switch s.State {
	case linker.TargetLinked:
		return StatusLinked, fmt.Sprintf("linked to %s", s.Spec.Source)
	case linker.TargetWrongLink:
		return StatusBlocked, fmt.Sprintf("links elsewhere: %s", s.LinkDest)
	case linker.TargetForeignFile:
		return StatusBlocked, "existing file in the way (setup will back it up)"
	case linker.TargetForeignDir:
		return StatusBlocked, "existing directory in the way (setup will back it up)"
	default:
		return StatusPending, "not linked yet"
	}
}

// RenderSpecStatus renders one link's status line
func RenderSpecStatus(s linker.SpecStatus) string {
	status, msg := Classify(s)
	badge := StatusStyle(status).Sprint(fmt.Sprintf("%-8s", status))
	return fmt.Sprintf("    %s %-20s %s", badge, s.Spec.Name, msg)
}

// RenderToolStatus renders a tool header plus all its link lines
func RenderToolStatus(tool string, specs []linker.SpecStatus) string {
	var b strings.Builder
	b.WriteString(tool + ":\n")
	for _, s := range specs {
		b.WriteString(RenderSpecStatus(s) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// AggregateToolStatus reduces a tool's link statuses to one badge
func AggregateToolStatus(specs []linker.SpecStatus) Status {
	if len(specs) == 0 {
		return StatusPending
	}

	allLinked := true
	for _, s := range specs {
		status, _ := Classify(s)
		switch status {
		case StatusError:
			return StatusError
		case StatusLinked:
		default:
			allLinked = false
		}
	}
	if allLinked {
		return StatusLinked
	}
	return StatusPending
}
