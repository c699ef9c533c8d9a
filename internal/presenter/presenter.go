// Package presenter writes user-facing CLI output: labelled status lines with
// color support and a quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Detail(message string)
	Highlight(s string) string
	Println(message string)
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto lets fatih/color detect terminal support.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables colored output.
	ColorNever
)

var (
	infoLabel    = color.New(color.FgBlue)
	successLabel = color.New(color.FgGreen)
	warningLabel = color.New(color.FgYellow)
	errorLabel   = color.New(color.FgRed)
	dim          = color.New(color.Faint)
	highlight    = color.New(color.FgCyan)
)

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	p := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
	}

	return p
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILL_LINKER_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error writes "[ERROR] ..." to the error output. It is printed even in
// quiet mode.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	if context != "" {
		fmt.Fprintf(p.errorOutput, "%s %s: %v\n", errorLabel.Sprint("[ERROR]"), context, err)
	} else {
		fmt.Fprintf(p.errorOutput, "%s %v\n", errorLabel.Sprint("[ERROR]"), err)
	}
}

func (p *TerminalPresenter) Success(message string) {
	p.line(successLabel, "[SUCCESS]", message)
}

func (p *TerminalPresenter) Warning(message string) {
	p.line(warningLabel, "[WARNING]", message)
}

func (p *TerminalPresenter) Info(message string) {
	p.line(infoLabel, "[INFO]", message)
}

// Detail prints a dimmed, indented line, used for paths under a status line.
func (p *TerminalPresenter) Detail(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "  %s\n", dim.Sprint(message))
}

// Highlight colors s for inline emphasis.
func (p *TerminalPresenter) Highlight(s string) string {
	return highlight.Sprint(s)
}

// Println writes message unchanged. Machine-readable output (JSON) goes
// through here and ignores quiet mode.
func (p *TerminalPresenter) Println(message string) {
	fmt.Fprintln(p.output, message)
}

func (p *TerminalPresenter) line(c *color.Color, label, message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s %s\n", c.Sprint(label), message)
}

// Writer returns the standard output writer, for tables.
func (p *TerminalPresenter) Writer() io.Writer {
	return p.output
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}
