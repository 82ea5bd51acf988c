package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pborges/logsim/internal/parse"
	"github.com/pborges/logsim/internal/scanner"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.File = "adder.def"
	p.Report(parse.Diagnostic{
		Code:    parse.AlreadyAssigned,
		Section: parse.SectionDevices,
		Pos:     scanner.Position{Line: 3, Column: 3},
		Source:  "  A = XOR;",
		Message: parse.AlreadyAssigned.Message(parse.SectionDevices),
	})

	want := "\n-- Semantic Error " + strings.Repeat("-", 18) + " adder.def:3:3\n" +
		"Semantic Error: Already Been Assigned, in DEVICES\n" +
		"3 |    A = XOR;\n" +
		"  |    ^\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 1, p.Count())
}

func TestCaretOffset(t *testing.T) {
	assert.Equal(t, 0, caretOffset("A = B;", 1))
	assert.Equal(t, 4, caretOffset("A = B;", 5))
	assert.Equal(t, 5, caretOffset("\tA;", 3))
	assert.Equal(t, 8, caretOffset("DEVICES:", 9))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Summary([3]int{1, 2, 0})
	assert.Equal(t, "3 errors (DEVICES 1, CONNECTIONS 2, MONITORS 0)\n", buf.String())
}
