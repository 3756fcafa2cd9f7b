// Package ui formats session messages for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// Printer writes styled lines to out
type Printer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

// NewPrinter creates a printer. Markdown rendering is only enabled when out
// is a terminal.
func NewPrinter(out io.Writer) *Printer {
	p := &Printer{out: out}
	if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		); err == nil {
			p.markdown = r
		}
	}
	return p
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Warnf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, warningStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Infof(format string, args ...interface{}) {
	fmt.Fprintln(p.out, dimStyle.Render(fmt.Sprintf(format, args...)))
}

// Suggestion announces a suggested command
func (p *Printer) Suggestion(command string) {
	fmt.Fprintf(p.out, "%s %s\n", dimStyle.Render("Suggested:"), suggestionStyle.Render(command))
}

// Explanation prints the collaborator's explanation, rendered as markdown
// when possible
func (p *Printer) Explanation(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if p.markdown != nil {
		if rendered, err := p.markdown.Render(text); err == nil {
			fmt.Fprint(p.out, rendered)
			return
		}
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(p.out, dimStyle.Render("  "+line))
	}
}
