package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/diagnostics"
	"github.com/funvibe/vellum/internal/modfile"
	"github.com/funvibe/vellum/internal/modules"
	"github.com/funvibe/vellum/internal/token"
)

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBold   = "\033[1m"
	ansiReset  = "\033[0m"
)

// Reporter prints diagnostics as file:line:col: severity[code]: message.
type Reporter struct {
	Out   io.Writer
	Color bool
	// lines caches one index per source file.
	lines map[string]*token.LineIndex
}

func NewReporter(out io.Writer, color bool) *Reporter {
	return &Reporter{Out: out, Color: color, lines: make(map[string]*token.LineIndex)}
}

// useColor resolves a colour mode against the writer diagnostics go to.
func useColor(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) position(file string, source []byte, offset int) token.Position {
	li, ok := r.lines[file]
	if !ok {
		li = token.NewLineIndex(source)
		r.lines[file] = li
	}
	return li.Position(offset)
}

func (r *Reporter) severity(label, colour string) string {
	if !r.Color {
		return label
	}
	return colour + ansiBold + label + ansiReset
}

// Warning prints one warning found in source.
func (r *Reporter) Warning(w diagnostics.Warning, source []byte) {
	pos := r.position(w.File, source, w.Span.Start)
	fmt.Fprintf(r.Out, "%s:%s: %s[%s]: %s\n",
		w.File, pos, r.severity("warning", ansiYellow), w.Kind, w.Message())
}

// Error prints err with the most precise location it carries.
func (r *Reporter) Error(err error) {
	label := r.severity("error", ansiRed)

	var merr *modules.ModuleError
	var derr *diagnostics.DiagnosticError
	if errors.As(err, &merr) && errors.As(err, &derr) {
		pos := r.position(merr.Path, merr.Source, derr.Span.Start)
		msg := derr.Message
		if hint := derr.Situation.String(); hint != "" {
			msg += " (" + hint + ")"
		}
		fmt.Fprintf(r.Out, "%s:%s: %s[%s]: %s\n", merr.Path, pos, label, derr.Code, msg)
		if derr.HasRelated {
			rel := r.position(merr.Path, merr.Source, derr.Related.Start)
			fmt.Fprintf(r.Out, "%s:%s: note: related location\n", merr.Path, rel)
		}
		if len(derr.Names) > 0 {
			fmt.Fprintf(r.Out, "  candidates: %v\n", derr.Names)
		}
		return
	}

	var serr *modfile.SyntaxError
	if errors.As(err, &serr) {
		fmt.Fprintf(r.Out, "%s:%s: %s: %s\n", serr.File, serr.Pos, label, serr.Msg)
		return
	}
	fmt.Fprintf(r.Out, "%s: %v\n", label, err)
}
