// printer.go -- the formatting sink a Worker writes into
//
// (c) 2022- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package rgx

import (
	"fmt"
	"io"

	"github.com/opencoff/rgx/types"
)

// PrinterSink is the formatting target a Worker writes
// already-formatted bytes into. In both search drivers it is backed
// by a buffer checked out from BufWriter; the types driver writes
// directly to Args.Stdout. Color and other
// terminal-capability decisions belong to the concrete
// implementation, not to this interface.
type PrinterSink interface {
	io.Writer

	// Path emits the path header for the file about to be
	// searched. Implementations typically emit this lazily, on
	// the first match.
	Path(path string)

	// FileSeparator emits sep between two files' output and
	// returns the receiver, so callers can chain it into a single
	// statement the way the teacher's own builder-style APIs do.
	FileSeparator(sep []byte) PrinterSink

	// TypeDef emits one file-type registry entry for --type-list.
	TypeDef(def types.TypeDef)
}

// TextPrinter is the default PrinterSink: plain, optionally
// colorized line-oriented text, matching rg's classic (non-JSON)
// output mode.
type TextPrinter struct {
	w         io.Writer
	Color     bool
	pathShown bool
}

// NewTextPrinter returns a PrinterSink that writes formatted results
// into w. color enables ANSI highlighting of the path header; the
// caller decides this once, up front (typically via
// term.IsTerminal), per spec.md S6's "Honours the ambient terminal"
// requirement.
func NewTextPrinter(w io.Writer, color bool) *TextPrinter {
	return &TextPrinter{w: w, Color: color}
}

func (p *TextPrinter) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *TextPrinter) Path(path string) {
	if p.pathShown {
		return
	}
	p.pathShown = true
	if p.Color {
		fmt.Fprintf(p.w, "\x1b[35m%s\x1b[0m\n", path)
	} else {
		fmt.Fprintf(p.w, "%s\n", path)
	}
}

func (p *TextPrinter) FileSeparator(sep []byte) PrinterSink {
	p.w.Write(sep)
	p.pathShown = false
	return p
}

func (p *TextPrinter) TypeDef(def types.TypeDef) {
	fmt.Fprintf(p.w, "%s: %s\n", def.Name, joinGlobs(def.Globs))
}

func joinGlobs(globs []string) string {
	out := ""
	for i, g := range globs {
		if i > 0 {
			out += ", "
		}
		out += g
	}
	return out
}
