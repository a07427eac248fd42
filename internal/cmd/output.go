package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

// styles decorates headers when writing to a terminal. Piped output stays
// plain so scripts see exactly the documented text.
type styles struct {
	enabled bool
	header  lipgloss.Style
	member  lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	return &styles{
		enabled: isTerminal(w),
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		member:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// Header renders a section header such as "📊 Team Status: web".
func (s *styles) Header(text string) string { return s.render(s.header, text) }

// Member renders a per-member header line.
func (s *styles) Member(text string) string { return s.render(s.member, text) }

// Muted renders rules and secondary detail.
func (s *styles) Muted(text string) string { return s.render(s.muted, text) }

// Warn renders warnings.
func (s *styles) Warn(text string) string { return s.render(s.warn, text) }

// iconError overrides the icon an error is printed with.
type iconError struct {
	err  error
	icon string
}

func (e *iconError) Error() string { return e.err.Error() }
func (e *iconError) Unwrap() error { return e.err }

func withIcon(err error, icon string) error {
	if err == nil {
		return nil
	}
	return &iconError{err: err, icon: icon}
}

// PrintError writes err the way every command reports failures: an icon
// and the message, then one indented line per remediation hint.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	icon := "❌"
	var ie *iconError
	if errors.As(err, &ie) {
		icon = ie.icon
	}
	fmt.Fprintf(w, "%s %s\n", icon, err.Error())

	for _, hint := range errors.Hints(err) {
		fmt.Fprintf(w, "   %s\n", hint)
	}

	var nf *errors.NotFoundError
	if errors.As(err, &nf) && len(nf.Alternatives) > 0 {
		fmt.Fprintf(w, "   Available %ss:\n", nf.ResourceType)
		for _, alt := range nf.Alternatives {
			fmt.Fprintf(w, "   - %s\n", alt)
		}
	}
}

// warnf prints a non-fatal warning line.
func (a *app) warnf(format string, args ...any) {
	fmt.Fprintln(a.out, a.style.Warn(fmt.Sprintf("⚠️  "+format, args...)))
}
