package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/pborges/logsim/internal/parse"
)

var (
	errorStyle = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	errorColor = pterm.FgRed
	infoColor  = pterm.FgLightGreen
)

const (
	bannerLength = 50
	tabWidth     = 4
)

// Printer renders diagnostics as the offending line with a caret under the
// faulty column.
type Printer struct {
	File  string // shown in the banner
	w     io.Writer
	color bool
	count int
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// Count returns how many diagnostics have been printed.
func (p *Printer) Count() int { return p.count }

func (p *Printer) Report(d parse.Diagnostic) {
	p.count++
	p.banner(d)
	fmt.Fprintln(p.w, d.Message)
	if d.Source == "" && d.Pos.Line == 0 {
		return
	}

	num := strconv.Itoa(d.Pos.Line)
	fmt.Fprintf(p.w, "%s |  %s\n", p.paint(infoColor, num), expandTabs(d.Source))
	caret := strings.Repeat(" ", caretOffset(d.Source, d.Pos.Column))
	fmt.Fprintf(p.w, "%s |  %s%s\n", strings.Repeat(" ", len(num)), caret, p.paint(errorColor, "^"))
}

func (p *Printer) banner(d parse.Diagnostic) {
	kind := d.Code.Kind().String() + " Error"
	where := d.Pos.String()
	if p.File != "" {
		where = p.File + ":" + where
	}
	dashes := bannerLength - len(kind) - len(where) - 5
	if dashes < 2 {
		dashes = 2
	}

	fmt.Fprint(p.w, "\n-- ")
	if p.color {
		fmt.Fprint(p.w, errorStyle.Sprint(kind))
	} else {
		fmt.Fprint(p.w, kind)
	}
	fmt.Fprintf(p.w, " %s %s\n", strings.Repeat("-", dashes), p.paint(infoColor, where))
}

// Summary prints the per-section error totals.
func (p *Printer) Summary(counts [3]int) {
	total := counts[0] + counts[1] + counts[2]
	line := fmt.Sprintf("%d errors (DEVICES %d, CONNECTIONS %d, MONITORS %d)", total, counts[0], counts[1], counts[2])
	if total == 0 {
		fmt.Fprintln(p.w, p.paint(infoColor, line))
		return
	}
	fmt.Fprintln(p.w, p.paint(errorColor, line))
}

func (p *Printer) paint(c pterm.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// caretOffset converts a 1-based column into a display offset.
func caretOffset(src string, col int) int {
	off, i := 0, 1
	for _, r := range src {
		if i >= col {
			break
		}
		if r == '\t' {
			off += tabWidth
		} else {
			off++
		}
		i++
	}
	if i < col {
		off += col - i
	}
	return off
}
