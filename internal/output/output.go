package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/firebird-suite/wren/internal/engine"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verboseMode bool

	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetVerbose enables or disables verbose output for debugging.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// IsVerbose reports whether verbose output is enabled.
func IsVerbose() bool {
	return verboseMode
}

// SetWriter redirects all output and returns the previous writer.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func emit(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a success message with 🔥 emoji and green color.
//
// Example:
//
//	output.Success("Generated 12 files in sandwich-resources")
func Success(msg string) {
	emit(successStyle.Render("🔥 " + msg))
}

// Error prints an error message with ❌ emoji and red color.
func Error(msg string) {
	emit(errorStyle.Render("❌ " + msg))
}

// Warning prints a warning with ⚠️ emoji and yellow color.
// Use this for problems that did not stop the operation.
func Warning(msg string) {
	emit(warningStyle.Render("⚠️  " + msg))
}

// Info prints an informational message with ℹ️ emoji and cyan color.
func Info(msg string) {
	emit(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented step message in gray.
//
// Example:
//
//	output.Step("Locales: en-us, fr-fr")
func Step(msg string) {
	emit(stepStyle.Render("   " + msg))
}

// Verbose prints a debug message with 🔍 emoji only if verbose mode is enabled.
// Multi-line messages keep their layout.
func Verbose(msg string) {
	if !verboseMode {
		return
	}
	if strings.Contains(msg, "\n") {
		emit(stepStyle.Render("🔍") + "\n" + msg)
		return
	}
	emit(stepStyle.Render("🔍 " + msg))
}

// Reporter prints engine feedback and keeps count of warnings and errors.
type Reporter struct {
	mu       sync.Mutex
	warnings int
	errors   int
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Feedback routes one feedback line: messages are steps, info is verbose
// only, warnings and errors are always shown.
func (r *Reporter) Feedback(severity engine.Severity, msg string) {
	switch severity {
	case engine.SeverityMessage:
		Step(msg)
	case engine.SeverityInfo:
		Verbose(msg)
	case engine.SeverityWarning:
		r.mu.Lock()
		r.warnings++
		r.mu.Unlock()
		Warning(msg)
	default:
		r.mu.Lock()
		r.errors++
		r.mu.Unlock()
		Error(msg)
	}
}

// Errors is the number of errors reported so far.
func (r *Reporter) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// Warnings is the number of warnings reported so far.
func (r *Reporter) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// Reset clears the counters, for example between watch-mode runs.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings, r.errors = 0, 0
}
