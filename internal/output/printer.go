// ABOUTME: Colored terminal output for CLI commands.
// ABOUTME: Falls back to bracketed plain-text markers when colors are off.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/2389-research/mirrorview/internal/models"
)

// ColorMode represents color output mode
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses "auto", "always", or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to color output. Auto honors NO_COLOR and
// TERM=dumb, then whether stdout is a terminal.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return !color.NoColor
}

// Printer writes formatted messages. Info and results go to out, warnings
// and errors to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// NewPrinter creates a printer on stdout/stderr.
func NewPrinter(mode ColorMode, quiet bool) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, ResolveColors(mode), quiet)
}

// NewPrinterWithWriters creates a printer on explicit writers.
func NewPrinterWithWriters(out, errOut io.Writer, useColors, quiet bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors, quiet: quiet}
}

// Out returns the writer used for regular output.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) colored(w io.Writer, c *color.Color, format string, args ...any) {
	if p.useColors {
		c.EnableColor()
		_, _ = c.Fprintf(w, format, args...)
		return
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	p.colored(p.out, color.New(color.FgCyan), format+"\n", args...)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		p.colored(p.out, color.New(color.FgGreen), "✓ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

// Warning prints a warning.
func (p *Printer) Warning(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		p.colored(p.err, color.New(color.FgYellow), "⚠ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error. Errors are printed even in quiet mode.
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		p.colored(p.err, color.New(color.FgRed), "✗ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Print prints a plain line. Print is not suppressed by quiet since it
// carries command results.
func (p *Printer) Print(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// StatusBadge renders a probe status.
func (p *Printer) StatusBadge(status models.ProbeStatus) string {
	if !p.useColors {
		return fmt.Sprintf("[%s]", status)
	}
	var c *color.Color
	switch status {
	case models.StatusFast:
		c = color.New(color.FgGreen)
	case models.StatusNormal:
		c = color.New(color.FgYellow)
	case models.StatusSlow:
		c = color.New(color.FgHiRed)
	default:
		c = color.New(color.FgRed)
	}
	c.EnableColor()
	return c.Sprint("● " + string(status))
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if !p.useColors {
		return text
	}
	c := color.New(color.Bold)
	c.EnableColor()
	return c.Sprint(text)
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	if !p.useColors {
		return text
	}
	c := color.New(color.Faint)
	c.EnableColor()
	return c.Sprint(text)
}
