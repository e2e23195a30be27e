package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer writes status lines and tables to a terminal, colored when
// enabled
type Printer struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	failure *color.Color
	info    *color.Color
	header  *color.Color
	muted   *color.Color
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer, useColor bool) *Printer {
	p := &Printer{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgCyan),
		header:  color.New(color.Bold, color.Underline),
		muted:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.success, p.warning, p.failure, p.info, p.header, p.muted} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Writer returns the underlying output
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Success prints a confirmation that an operation completed
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success, "✓", format, args...)
}

// Warning prints a non-fatal problem
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.warning, "!", format, args...)
}

// Error prints a failure
func (p *Printer) Error(format string, args ...any) {
	p.line(p.failure, "✗", format, args...)
}

// Info prints an informational line
func (p *Printer) Info(format string, args ...any) {
	p.line(p.info, "•", format, args...)
}

// Header prints a section title
func (p *Printer) Header(format string, args ...any) {
	_, _ = p.header.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprintln(p.out)
}

// Field prints an aligned "label: value" pair. Empty values are shown as a
// dash.
func (p *Printer) Field(label, value string) {
	if value == "" {
		value = p.muted.Sprint("-")
	}
	_, _ = fmt.Fprintf(p.out, "  %-16s %s\n", label+":", value)
}

// Println writes plain text
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Printf writes plain formatted text
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) line(c *color.Color, symbol, format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", c.Sprint(symbol), fmt.Sprintf(format, args...))
}
