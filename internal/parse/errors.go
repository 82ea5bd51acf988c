package parse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pborges/logsim/internal/scanner"
)

// Section indexes the per-section error counters.
type Section int

const (
	SectionDevices Section = iota
	SectionConnections
	SectionMonitors
	numSections
)

func (s Section) String() string {
	switch s {
	case SectionDevices:
		return "DEVICES"
	case SectionConnections:
		return "CONNECTIONS"
	case SectionMonitors:
		return "MONITORS"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Kind separates grammar violations from well-formed but meaningless input.
type Kind int

const (
	Syntax Kind = iota
	Semantic
)

func (k Kind) String() string {
	if k == Semantic {
		return "Semantic"
	}
	return "Syntax"
}

// Code identifies one entry of the fault catalogue. Syntax codes are 1-8,
// semantic codes 101-110.
type Code int

const (
	CharNotSupported Code = 1 + iota
	DigitStartsName
	MultipleAssignments
	InvalidParameter
	UnexpectedEOF
	InvalidSymbol
	UnexpectedKeyword
	InvalidPunct
)

const (
	InputNotAssigned Code = 101 + iota
	InputToSwitchAssigned
	ClockPeriodZero
	ReferencedBeforeAssigned
	AlreadyAssigned
	DeviceNameI
	MonitorOnInput
	DeviceNotExist
	PinNotExist
	ParameterNotAllowed
)

type entry struct {
	name string
	text string
}

var catalogue = map[Code]entry{
	CharNotSupported:    {"CharNotSupported", "Character Not Supported"},
	DigitStartsName:     {"DigitStartsName", "Name Cannot Start With A Digit"},
	MultipleAssignments: {"MultipleAssignments", "One Name for Multiple Devices"},
	InvalidParameter:    {"InvalidParameter", "Invalid Parameter Value"},
	UnexpectedEOF:       {"UnexpectedEOF", "Unexpected EOF Encountered"},
	InvalidSymbol:       {"InvalidSymbol", "Invalid Symbol"},
	UnexpectedKeyword:   {"UnexpectedKeyword", "Unexpected Keyword encountered"},
	InvalidPunct:        {"InvalidPunct", "Punctuation not valid"},

	InputNotAssigned:         {"InputNotAssigned", "Input to Device Left Unassigned"},
	InputToSwitchAssigned:    {"InputToSwitchAssigned", "Input Not Allowed"},
	ClockPeriodZero:          {"ClockPeriodZero", "Clock Period Cannot be Zero"},
	ReferencedBeforeAssigned: {"ReferencedBeforeAssigned", "Referenced Before Assigned"},
	AlreadyAssigned:          {"AlreadyAssigned", "Already Been Assigned"},
	DeviceNameI:              {"DeviceNameI", "Device Name Cannot Be 'I'"},
	MonitorOnInput:           {"MonitorOnInput", "Monitor Placed On An Input"},
	DeviceNotExist:           {"DeviceNotExist", "Device Does Not Exist"},
	PinNotExist:              {"PinNotExist", "Pin Does Not Exist"},
	ParameterNotAllowed:      {"ParameterNotAllowed", "Parameter Not Allowed"},
}

func (c Code) Kind() Kind {
	if c > 100 {
		return Semantic
	}
	return Syntax
}

func (c Code) String() string {
	if e, ok := catalogue[c]; ok {
		return e.name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Message renders the catalogue text for a fault raised in section s.
func (c Code) Message(s Section) string {
	text := fmt.Sprintf("Unknown Error %d", int(c))
	if e, ok := catalogue[c]; ok {
		text = e.text
	}
	return fmt.Sprintf("%s Error: %s, in %s", c.Kind(), text, s)
}

// Diagnostic is one recorded fault.
type Diagnostic struct {
	Code    Code
	Section Section
	Pos     scanner.Position
	Source  string // the offending source line
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// Reporter receives every diagnostic as it is recorded.
type Reporter interface {
	Report(d Diagnostic)
}

type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// ErrorHandler counts and reports faults per section.
type ErrorHandler struct {
	counts   [numSections]int
	diags    []Diagnostic
	reporter Reporter
	logger   *slog.Logger
}

func newErrorHandler(r Reporter, l *slog.Logger) *ErrorHandler {
	if l == nil {
		l = discardLogger()
	}
	return &ErrorHandler{reporter: r, logger: l}
}

// Log records a fault in section s at pos. source is the offending line.
func (h *ErrorHandler) Log(code Code, s Section, pos scanner.Position, source string) Diagnostic {
	if s < 0 || s >= numSections {
		panic(fmt.Sprintf("parse: invalid section %d", int(s)))
	}
	h.counts[s]++
	d := Diagnostic{
		Code:    code,
		Section: s,
		Pos:     pos,
		Source:  source,
		Message: code.Message(s),
	}
	h.diags = append(h.diags, d)
	h.logger.Debug("definition fault",
		"section", s.String(),
		"code", code.String(),
		"kind", code.Kind().String(),
		"line", pos.Line,
		"column", pos.Column)
	if h.reporter != nil {
		h.reporter.Report(d)
	}
	return d
}

func (h *ErrorHandler) Total() int {
	total := 0
	for _, n := range h.counts {
		total += n
	}
	return total
}

// Count returns the number of faults recorded in section s.
func (h *ErrorHandler) Count(s Section) int {
	if s < 0 || s >= numSections {
		return 0
	}
	return h.counts[s]
}

func (h *ErrorHandler) Counts() [3]int { return h.counts }

func (h *ErrorHandler) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(h.diags))
	copy(out, h.diags)
	return out
}

var (
	ErrInvalidDefinition = errors.New("invalid circuit definition")
	ErrAlreadyParsed     = errors.New("parser already used")
	ErrBuild             = errors.New("circuit build failed")
)

// Failure reports a parse that recorded at least one fault.
type Failure struct {
	Counts [3]int
}

func (f *Failure) Total() int { return f.Counts[0] + f.Counts[1] + f.Counts[2] }

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %d errors (DEVICES %d, CONNECTIONS %d, MONITORS %d)",
		ErrInvalidDefinition, f.Total(), f.Counts[0], f.Counts[1], f.Counts[2])
}

func (f *Failure) Unwrap() error { return ErrInvalidDefinition }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
