// Package ui renders dotpilot's terminal output: styled messages,
// status lines, and interactive prompts. Color is enabled only when
// writing to a real terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/dotpilot-sh/dotpilot/pkg/ui/styles"
)

// Printer writes styled output to one stream
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer for w, enabling color when w is a
// terminal that supports it.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) &&
			termenv.NewOutput(f).Profile != termenv.Ascii
	}
	return &Printer{out: w, color: color}
}

// NewPlainPrinter creates a printer that never emits color
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) styled(style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = styles.GetStyle(style).Render(msg)
	}
	fmt.Fprintln(p.out, msg)
}

// Header prints a section header
func (p *Printer) Header(format string, args ...any) {
	p.styled("Header", format, args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	p.styled("Success", "✓ "+format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	p.styled("Error", "✗ "+format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.styled("Warning", "! "+format, args...)
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	p.styled("Info", format, args...)
}

// Muted prints de-emphasized detail text
func (p *Printer) Muted(format string, args ...any) {
	p.styled("Muted", format, args...)
}

// Plain prints without styling
func (p *Printer) Plain(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Confirm asks a yes/no question on the terminal. Non-interactive
// streams get the default answer, so scripted runs never hang.
func (p *Printer) Confirm(prompt string, defaultYes bool) bool {
	f, ok := p.out.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return defaultYes
	}

	result, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(defaultYes).
		Show(prompt)
	if err != nil {
		return defaultYes
	}
	return result
}
