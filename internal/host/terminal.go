package host

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalOptions configures a TerminalUI.
type TerminalOptions struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Verbose     bool
	Interactive func() bool
}

// TerminalUI renders host output to a terminal or plain streams.
type TerminalUI struct {
	in          io.Reader
	out         io.Writer
	err         io.Writer
	interactive func() bool
	logger      *log.Logger
	warn        *color.Color
	fail        *color.Color

	mu           sync.Mutex
	progressLine bool
}

// NewTerminalUI constructs a TerminalUI. Nil streams default to the process streams.
func NewTerminalUI(opts TerminalOptions) *TerminalUI {
	ui := &TerminalUI{
		in:          opts.In,
		out:         opts.Out,
		err:         opts.Err,
		interactive: opts.Interactive,
		warn:        color.New(color.FgYellow),
		fail:        color.New(color.FgRed),
	}
	if ui.in == nil {
		ui.in = os.Stdin
	}
	if ui.out == nil {
		ui.out = os.Stdout
	}
	if ui.err == nil {
		ui.err = os.Stderr
	}
	if ui.interactive == nil {
		ui.interactive = IsInteractive
	}
	ui.logger = log.NewWithOptions(ui.err, log.Options{Prefix: "pmc"})
	if opts.Verbose {
		ui.logger.SetLevel(log.DebugLevel)
	} else {
		ui.logger.SetLevel(log.WarnLevel)
	}
	return ui
}

// WriteDebug writes a debug line when verbose output is enabled.
func (ui *TerminalUI) WriteDebug(message string) {
	ui.clearProgress()
	ui.logger.Debug(message)
}

// WriteVerbose writes a verbose line when verbose output is enabled.
func (ui *TerminalUI) WriteVerbose(message string) {
	ui.clearProgress()
	ui.logger.Info(message)
}

// WriteInfo writes a plain line to stdout.
func (ui *TerminalUI) WriteInfo(message string) {
	ui.clearProgress()
	_, _ = fmt.Fprintln(ui.out, message)
}

// WriteWarning writes a yellow warning line to stderr.
func (ui *TerminalUI) WriteWarning(message string) {
	ui.clearProgress()
	_, _ = ui.warn.Fprintln(ui.err, "WARNING: "+message)
}

// WriteError writes a red error line to stderr.
func (ui *TerminalUI) WriteError(message string) {
	ui.clearProgress()
	_, _ = ui.fail.Fprintln(ui.err, "ERROR: "+message)
}

// WriteProgress renders a progress record. Interactive terminals redraw one line in place.
func (ui *TerminalUI) WriteProgress(record ProgressRecord) {
	line := formatProgress(record)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if !ui.interactive() {
		_, _ = fmt.Fprintln(ui.err, line)
		return
	}
	_, _ = fmt.Fprint(ui.err, "\r\x1b[2K"+line)
	ui.progressLine = !record.Completed
	if record.Completed {
		_, _ = fmt.Fprintln(ui.err)
	}
}

func (ui *TerminalUI) clearProgress() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.progressLine {
		_, _ = fmt.Fprint(ui.err, "\r\x1b[2K")
		ui.progressLine = false
	}
}

func formatProgress(record ProgressRecord) string {
	var b strings.Builder
	b.WriteString(record.Activity)
	if record.Operation != "" && record.Operation != record.Activity {
		b.WriteString(": ")
		b.WriteString(record.Operation)
	}
	if record.PercentComplete >= 0 {
		fmt.Fprintf(&b, " (%d%%)", record.PercentComplete)
	}
	return b.String()
}
