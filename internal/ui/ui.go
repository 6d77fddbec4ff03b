// Package ui provides stderr-based output for synapse: a Printer for run
// progress and diagnostics, and a consideration-queue renderer.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/synapse/internal/ansi"
)

// Printer writes human-oriented progress output to stderr. Structured
// output (trace events, the ledger) goes elsewhere; the Printer is only
// for eyes. Quiet suppresses everything except errors; NoColor strips
// styling.
type Printer struct {
	Quiet   bool
	NoColor bool
}

func New() *Printer {
	return &Printer{}
}

// paint applies SGR codes unless color is disabled.
func (p *Printer) paint(s string, codes ...string) string {
	if p.NoColor {
		return s
	}
	return ansi.Paint(s, codes...)
}

func (p *Printer) Banner() {
	if p.Quiet {
		return
	}
	fmt.Fprintln(os.Stderr, p.paint("  ╔══════════════════════════════════════╗", ansi.Bold, ansi.Cyan))
	fmt.Fprintln(os.Stderr, p.paint("  ║", ansi.Bold, ansi.Cyan)+p.paint("   SYNAPSE  ", ansi.Bold)+p.paint("condition-driven scheduler", ansi.Dim)+p.paint("║", ansi.Bold, ansi.Cyan))
	fmt.Fprintln(os.Stderr, p.paint("  ╚══════════════════════════════════════╝", ansi.Bold, ansi.Cyan))
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) RunStart(network string, mechanisms int) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n",
		p.paint("◆ run", ansi.Cyan),
		network,
		p.paint(fmt.Sprintf("(%d mechanisms)", mechanisms), ansi.Dim))
}

// TimeStep prints one fired set. Stalled time-steps show as a dimmed dash.
func (p *Printer) TimeStep(seq int, fired []string) {
	if p.Quiet {
		return
	}
	if len(fired) == 0 {
		fmt.Fprintf(os.Stderr, "  %s %s\n",
			p.paint(fmt.Sprintf("%4d", seq), ansi.Dim),
			p.paint("—", ansi.Dim))
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		p.paint(fmt.Sprintf("%4d", seq), ansi.Dim),
		p.paint(strings.Join(fired, "  "), ansi.Blue, ansi.Bold))
}

func (p *Printer) RunDone(timeSteps int) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n",
		p.paint("✓ trial complete", ansi.Green, ansi.Bold),
		p.paint(fmt.Sprintf("(%d time-steps)", timeSteps), ansi.Dim))
}

func (p *Printer) Warning(msg string) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", p.paint("⚠", ansi.Yellow, ansi.Bold), msg)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s\n", p.paint("error: ", ansi.Red, ansi.Bold), msg)
}

func (p *Printer) Info(msg string) {
	if p.Quiet {
		return
	}
	fmt.Fprintln(os.Stderr, p.paint(msg, ansi.Dim))
}

// ValidateResult summarizes a model validation outcome.
func (p *Printer) ValidateResult(name string, mechanisms, layers int, errMsgs []string) {
	if len(errMsgs) == 0 {
		fmt.Fprintf(os.Stderr, "%s — %d mechanism(s), %d layer(s), no errors\n",
			p.paint(fmt.Sprintf("✓ network %q", name), ansi.Green, ansi.Bold), mechanisms, layers)
		return
	}
	fmt.Fprintf(os.Stderr, "%s — %d error(s)\n",
		p.paint(fmt.Sprintf("✗ network %q", name), ansi.Red, ansi.Bold), len(errMsgs))
	for _, msg := range errMsgs {
		fmt.Fprintf(os.Stderr, "  %s %s\n", p.paint("✗", ansi.Red), msg)
	}
}

// Watching prints the watch-mode prompt.
func (p *Printer) Watching(path string) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n",
		p.paint("◉ watching", ansi.Magenta, ansi.Bold),
		path,
		p.paint("(ctrl-c to stop)", ansi.Dim))
}
