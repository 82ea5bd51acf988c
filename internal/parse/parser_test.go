package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pborges/logsim/internal/logic"
	"github.com/pborges/logsim/internal/scanner"
	"github.com/pborges/logsim/internal/testutil"
)

func newParser(src string, b Builder, opts ...Option) *Parser {
	s := scanner.New([]byte(src), scanner.DefaultVocabulary())
	return New(s, b, opts...)
}

func codes(p *Parser) []Code {
	var out []Code
	for _, d := range p.Errors().Diagnostics() {
		out = append(out, d.Code)
	}
	return out
}

func TestValidDeviceAddsOneEntry(t *testing.T) {
	rec := &testutil.Recorder{}
	p := newParser("DEVICES: A = SWITCH[1]; CONNECTIONS: MONITORS: A;", rec)
	require.NoError(t, p.ParseNetwork())

	assert.Zero(t, p.Errors().Total())
	require.Len(t, p.Devices(), 1)
	assert.Equal(t, DeviceDef{Name: "A", Index: 0, Type: logic.SWITCH, Param: 1, Line: 1, Column: 10}, p.Devices()[0])
	assert.Equal(t, []string{"device A SWITCH 1", "monitor A"}, rec.Calls)
}

func TestRedeclarationKeepsFirst(t *testing.T) {
	rec := &testutil.Recorder{}
	src := "DEVICES:\n  A = SWITCH[1];\n  A = XOR;\nCONNECTIONS:\nMONITORS: A;\n"
	p := newParser(src, rec)
	err := p.ParseNetwork()

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, [3]int{1, 0, 0}, failure.Counts)
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	diags := p.Errors().Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, AlreadyAssigned, diags[0].Code)
	assert.Equal(t, scanner.Position{Line: 3, Column: 3}, diags[0].Pos)
	assert.Equal(t, "  A = XOR;", diags[0].Source)
	assert.Equal(t, "Semantic Error: Already Been Assigned, in DEVICES", diags[0].Message)

	d, ok := p.Device("A")
	require.True(t, ok)
	assert.Equal(t, logic.SWITCH, d.Type)
	assert.Len(t, p.Devices(), 1)
	assert.Empty(t, rec.Calls)
}

func TestParameterOutOfRangeIsRolledBack(t *testing.T) {
	p := newParser("DEVICES: A = SWITCH[2]; B = SWITCH[0]; CONNECTIONS: MONITORS: B;", nil)
	require.Error(t, p.ParseNetwork())

	assert.Equal(t, []Code{ParameterNotAllowed}, codes(p))
	_, ok := p.Device("A")
	assert.False(t, ok)
	_, ok = p.Device("B")
	assert.True(t, ok)
	assert.Equal(t, 1, p.Errors().Count(SectionDevices))
}

func TestOutOfRangePinLeavesInputUnassigned(t *testing.T) {
	p := newParser("DEVICES: A = SWITCH[0]; B = AND[2]; CONNECTIONS: A > B.I9; MONITORS: B;", nil)
	require.Error(t, p.ParseNetwork())

	assert.Equal(t, []Code{InputNotAssigned}, codes(p))
	assert.Equal(t, 1, p.Errors().Count(SectionConnections))
	assert.Len(t, p.Connections(), 1)
}

func TestMissingEqualsRecovers(t *testing.T) {
	p := newParser("DEVICES: A SWITCH[0]; B = SWITCH[1]; CONNECTIONS: MONITORS: B;", nil)
	require.Error(t, p.ParseNetwork())

	assert.Equal(t, []Code{InvalidPunct}, codes(p))
	_, ok := p.Device("B")
	assert.True(t, ok)
	_, ok = p.Device("A")
	assert.False(t, ok)
}

func TestBuilderCallsInFileOrder(t *testing.T) {
	rec := &testutil.Recorder{}
	src := `
DEVICES:
    S1 = SWITCH[1];
    G = NAND[2];
    D = DTYPE;
CONNECTIONS:
    S1 > G.I1;
    S1 > G.I2;
    G > D.DATA;
    S1 > D.CLK;
    D.QBAR > D.SET;
    D.Q > D.CLEAR;
MONITORS:
    G, S1, D.QBAR;
`
	p := newParser(src, rec)
	require.NoError(t, p.ParseNetwork())
	assert.Equal(t, []string{
		"device S1 SWITCH 1",
		"device G NAND 2",
		"device D DTYPE 0",
		"connection S1 > G.I1",
		"connection S1 > G.I2",
		"connection G > D.DATA",
		"connection S1 > D.CLK",
		"connection D.QBAR > D.SET",
		"connection D.Q > D.CLEAR",
		"monitor G",
		"monitor S1",
		"monitor D.QBAR",
	}, rec.Calls)
}

func TestEOFAfterHeaderIsUnrecoverable(t *testing.T) {
	rec := &testutil.Recorder{}
	p := newParser("DEVICES:", rec)
	err := p.ParseNetwork()

	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.Equal(t, []Code{UnexpectedEOF}, codes(p))
	assert.Empty(t, rec.Calls)
}

func TestLexicalErrorIsFatal(t *testing.T) {
	rec := &testutil.Recorder{}
	p := newParser("DEVICES: A = SWITCH[1] $; CONNECTIONS: MONITORS: A;", rec)
	err := p.ParseNetwork()

	var lexErr *scanner.Error
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, '$', lexErr.Char)
	assert.Equal(t, []Code{CharNotSupported}, codes(p))
	assert.Empty(t, rec.Calls)
}

func TestParseNetworkOnlyOnce(t *testing.T) {
	p := newParser("DEVICES: A = SWITCH[1]; CONNECTIONS: MONITORS: A;", nil)
	require.NoError(t, p.ParseNetwork())
	assert.ErrorIs(t, p.ParseNetwork(), ErrAlreadyParsed)
}

func TestBuildErrorsAreJoined(t *testing.T) {
	boom := errors.New("boom")
	rec := &testutil.Recorder{Fail: map[string]error{"device A SWITCH 1": boom}}
	p := newParser("DEVICES: A = SWITCH[1]; B = RC; CONNECTIONS: MONITORS: A, B;", rec)
	err := p.ParseNetwork()

	assert.ErrorIs(t, err, ErrBuild)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, p.Errors().Total())
	assert.Len(t, rec.Calls, 4)
}

func TestRCParameterDefaults(t *testing.T) {
	p := newParser("DEVICES: R = RC; P = RC[5]; CONNECTIONS: MONITORS: R, P;", nil)
	require.NoError(t, p.ParseNetwork())

	r, _ := p.Device("R")
	assert.Equal(t, logic.DefaultRCPeriod, r.Param)
	q, _ := p.Device("P")
	assert.Equal(t, 5, q.Param)
}

func TestBareDTYPEMonitorWatchesQ(t *testing.T) {
	src := "DEVICES: S = SWITCH[0]; D = DTYPE; CONNECTIONS: S > D.DATA; S > D.CLK; S > D.SET; S > D.CLEAR; MONITORS: D;"
	p := newParser(src, nil)
	require.NoError(t, p.ParseNetwork())
	require.Len(t, p.Monitors(), 1)
	assert.Equal(t, "D.Q", p.Monitors()[0].Point.String())
}

func TestFaults(t *testing.T) {
	const devs = "DEVICES: A = SWITCH[0]; G = AND[1]; D = DTYPE; "
	const conns = "CONNECTIONS: A > G.I1; A > D.DATA; A > D.CLK; A > D.SET; A > D.CLEAR; "

	cases := []struct {
		name string
		src  string
		want []Code
	}{
		{"DeviceNamedI", "DEVICES: I = SWITCH[0]; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{DeviceNameI}},
		{"DigitStartsName", "DEVICES: 1A = XOR; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{DigitStartsName}},
		{"RepeatedInStatement", "DEVICES: A, A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{MultipleAssignments}},
		{"ClockZero", "DEVICES: C = CLOCK[0]; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{ClockPeriodZero}},
		{"ClockTooLarge", "DEVICES: C = CLOCK[17]; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{ParameterNotAllowed}},
		{"XORParameter", "DEVICES: X = XOR[2]; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{ParameterNotAllowed}},
		{"InvalidParameter", "DEVICES: G = AND[Z]; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{InvalidParameter}},
		{"MissingParameter", "DEVICES: G = AND; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{InvalidPunct}},
		{"UnknownType", "DEVICES: G = BUFFER; A = SWITCH[0]; CONNECTIONS: MONITORS: A;", []Code{InvalidSymbol}},
		{"EmptyDevices", "DEVICES: CONNECTIONS:", []Code{UnexpectedKeyword}},
		{"MissingSemicolonBeforeSection", "DEVICES: A = SWITCH[0] CONNECTIONS: MONITORS: A;", []Code{InvalidPunct, UnexpectedKeyword}},
		{"DevicesHeaderWithoutColon", "DEVICES A = SWITCH[0]; CONNECTIONS:", []Code{InvalidPunct}},
		{"MisspelledDevicesHeader", "DEVICE: A = SWITCH[0]; CONNECTIONS:", []Code{InvalidSymbol}},
		{"DevicesHeaderFaultAtEOF", "DEVICES A = SWITCH[0];", []Code{InvalidPunct, UnexpectedEOF}},
		{"ConnectionsHeaderWithoutColon", devs + "CONNECTIONS A > G.I1; MONITORS: A;", []Code{InvalidPunct, InputNotAssigned, InputNotAssigned}},
		{"ConnectionsHeaderFaultAtEOF", "DEVICES: A = SWITCH[0]; CONNECTIONS A > A;", []Code{InvalidPunct, UnexpectedEOF}},
		{"InputToSwitch", devs + conns + "A > A.I1; MONITORS: A;", []Code{InputToSwitchAssigned}},
		{"UndefinedOutput", devs + conns + "Z > G.I1; MONITORS: A;", []Code{ReferencedBeforeAssigned}},
		{"UndefinedInput", devs + conns + "A > Z.I1; MONITORS: A;", []Code{ReferencedBeforeAssigned}},
		{"DuplicateInput", devs + conns + "A > G.I1; MONITORS: A;", []Code{AlreadyAssigned}},
		{"GateNamedPin", devs + conns + "A > G.DATA; MONITORS: A;", []Code{PinNotExist}},
		{"GateBadPinName", devs + conns + "A > G.X1; MONITORS: A;", []Code{InvalidSymbol}},
		{"DTYPEGatePin", devs + conns + "A > D.I1; MONITORS: A;", []Code{PinNotExist}},
		{"DTYPEOutputWithoutPin", devs + conns + "D > G.I1; MONITORS: A;", []Code{InvalidPunct}},
		{"DTYPEOutputInputPin", devs + conns + "D.CLK > G.I1; MONITORS: A;", []Code{PinNotExist}},
		{"GateOutputPin", devs + conns + "G.Q > G.I1; MONITORS: A;", []Code{PinNotExist}},
		{"MissingInput", devs + "CONNECTIONS: A > D.DATA; A > D.CLK; A > D.SET; A > D.CLEAR; MONITORS: A;", []Code{InputNotAssigned}},
		{"ConnectionsErrorSkipsToMonitors", devs + conns + "A G.I1 MONITORS: A;", []Code{InvalidPunct, UnexpectedKeyword}},
		{"MonitorUndefined", devs + conns + "MONITORS: Y;", []Code{DeviceNotExist}},
		{"MonitorOnInputPin", devs + conns + "MONITORS: G.I1;", []Code{MonitorOnInput}},
		{"MonitorOnDTYPEInput", devs + conns + "MONITORS: D.CLK;", []Code{MonitorOnInput}},
		{"MonitorQOnGate", devs + conns + "MONITORS: G.Q;", []Code{PinNotExist}},
		{"DuplicateMonitor", devs + conns + "MONITORS: A, G, A;", []Code{AlreadyAssigned}},
		{"DuplicateBareDTYPEMonitor", devs + conns + "MONITORS: D, D.Q;", []Code{AlreadyAssigned}},
		{"TrailingAfterMonitors", devs + conns + "MONITORS: A; G", []Code{InvalidSymbol}},
		{"MonitorsWithoutSemicolon", devs + conns + "MONITORS: A", []Code{UnexpectedEOF}},
		{"EveryBadMonitorReported", devs + conns + "MONITORS: A.Q, G.I1, Y;", []Code{PinNotExist, MonitorOnInput, DeviceNotExist}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &testutil.Recorder{}
			p := newParser(tc.src, rec)
			err := p.ParseNetwork()
			assert.ErrorIs(t, err, ErrInvalidDefinition)
			assert.Equal(t, tc.want, codes(p))
			assert.Empty(t, rec.Calls)
		})
	}
}

func TestMonitorFaultRecoversToEnd(t *testing.T) {
	p := newParser("DEVICES: A = SWITCH[0]; CONNECTIONS: MONITORS: A.I1;", nil)
	err := p.ParseNetwork()

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, [3]int{0, 0, 1}, failure.Counts)
	assert.Empty(t, p.Monitors())
}

func TestReporterSeesEveryDiagnostic(t *testing.T) {
	var got []Diagnostic
	p := newParser("DEVICES: A = SWITCH[2]; B = AND[2]; CONNECTIONS: MONITORS: B;", nil,
		WithReporter(ReporterFunc(func(d Diagnostic) { got = append(got, d) })))
	require.Error(t, p.ParseNetwork())
	assert.Equal(t, p.Errors().Diagnostics(), got)
	require.Len(t, got, 2)
	assert.Equal(t, ParameterNotAllowed, got[0].Code)
	assert.Equal(t, InputNotAssigned, got[1].Code)
	assert.Equal(t, SectionConnections, got[1].Section)
	assert.Equal(t, scanner.Position{Line: 1, Column: 25}, got[1].Pos)
}

func TestMissingTerminatorKeepsDeclaration(t *testing.T) {
	src := "DEVICES:\n A = SWITCH[0]\n B = SWITCH[1];\n G = AND[2];\nCONNECTIONS:\n A > G.I1;\n B > G.I2;\nMONITORS: A, G;"
	p := newParser(src, nil)
	err := p.ParseNetwork()

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []Code{InvalidPunct, ReferencedBeforeAssigned, InputNotAssigned}, codes(p))
	assert.Equal(t, [3]int{1, 2, 0}, failure.Counts)

	_, ok := p.Device("A")
	assert.True(t, ok)
	_, ok = p.Device("B")
	assert.False(t, ok)
	assert.Len(t, p.Monitors(), 2)
}

func TestHeaderFaultResults(t *testing.T) {
	p := newParser("DEVICES A = SWITCH[0];", nil)
	p.scanner.Reset()
	p.read()

	assert.Equal(t, Recoverable, p.parseDevices())
	assert.Equal(t, Unrecoverable, p.skipToNextBlock("CONNECTIONS", "MONITORS"))
	assert.Equal(t, []Code{InvalidPunct, UnexpectedEOF}, codes(p))
}

func TestMonitorListResumesAfterBadEntry(t *testing.T) {
	src := "DEVICES: A = SWITCH[0]; G = AND[1]; CONNECTIONS: A > G.I1; MONITORS: A.Q, G, Y;"
	p := newParser(src, nil)
	require.Error(t, p.ParseNetwork())

	assert.Equal(t, []Code{PinNotExist, DeviceNotExist}, codes(p))
	require.Len(t, p.Monitors(), 1)
	assert.Equal(t, "G", p.Monitors()[0].Point.String())
}

func TestDiagnosticQuotesOffendingLine(t *testing.T) {
	src := "DEVICES:\n  A = SWITCH[0];\n  G = AND[2];\nCONNECTIONS:\n  A > G.I1;\nMONITORS: A;\n"
	p := newParser(src, nil)
	require.Error(t, p.ParseNetwork())

	got := p.Errors().Diagnostics()
	require.Len(t, got, 1)
	assert.Equal(t, InputNotAssigned, got[0].Code)
	assert.Equal(t, "  G = AND[2];", got[0].Source)
}
