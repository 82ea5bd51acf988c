package parse

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pborges/logsim/internal/logic"
	"github.com/pborges/logsim/internal/scanner"
)

// Parser analyses one circuit definition. Construct a new Parser for every
// source; ParseNetwork may only be called once.
type Parser struct {
	scanner  *scanner.Scanner
	builder  Builder
	logger   *slog.Logger
	reporter Reporter
	errs     *ErrorHandler

	tok     scanner.Token
	fatal   error
	section Section
	parsed  bool

	devices     []DeviceDef
	deviceIndex map[string]int
	connections []ConnectionDef
	monitors    []MonitorDef
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithReporter receives each diagnostic as it is recorded.
func WithReporter(r Reporter) Option {
	return func(p *Parser) { p.reporter = r }
}

// New returns a parser reading from s. b may be nil, in which case the
// definition is only checked.
func New(s *scanner.Scanner, b Builder, opts ...Option) *Parser {
	p := &Parser{
		scanner:     s,
		builder:     b,
		logger:      discardLogger(),
		deviceIndex: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.errs = newErrorHandler(p.reporter, p.logger)
	return p
}

func (p *Parser) Errors() *ErrorHandler { return p.errs }

func (p *Parser) Devices() []DeviceDef         { return slices.Clone(p.devices) }
func (p *Parser) Connections() []ConnectionDef { return slices.Clone(p.connections) }
func (p *Parser) Monitors() []MonitorDef       { return slices.Clone(p.monitors) }

// Device looks up a committed device declaration by name.
func (p *Parser) Device(name string) (DeviceDef, bool) {
	i, ok := p.deviceIndex[name]
	if !ok {
		return DeviceDef{}, false
	}
	return p.devices[i], true
}

// ParseNetwork parses the whole definition and, only if no fault was
// recorded, hands the definitions to the builder. It returns the lexical
// error, a *Failure, or a build error.
func (p *Parser) ParseNetwork() error {
	if p.parsed {
		return ErrAlreadyParsed
	}
	p.parsed = true
	p.section = SectionDevices
	p.scanner.Reset()
	p.read()

	ok := p.parseNetwork()
	if p.fatal != nil {
		return p.fatal
	}
	if !ok || p.errs.Total() > 0 {
		return &Failure{Counts: p.errs.Counts()}
	}
	p.logger.Debug("definition parsed",
		"devices", len(p.devices),
		"connections", len(p.connections),
		"monitors", len(p.monitors))
	return p.build()
}

func (p *Parser) parseNetwork() bool {
	switch p.parseDevices() {
	case Unrecoverable:
		return false
	case Recoverable:
		if p.skipToNextBlock("CONNECTIONS", "MONITORS") != Success {
			return false
		}
	}

	switch p.parseConnections() {
	case Unrecoverable:
		return false
	case Recoverable:
		if p.skipToNextBlock("MONITORS") != Success {
			return false
		}
	}

	p.checkInputCount()

	if p.atEOF() {
		return true
	}
	return p.parseMonitors() != Unrecoverable
}

func (p *Parser) build() error {
	if p.builder == nil {
		return nil
	}
	var errs []error
	for _, d := range p.devices {
		if err := p.builder.CreateDevice(d.Name, d.Type, d.Param); err != nil {
			p.logger.Error("create device", "device", d.Name, "line", d.Line, "error", err)
			errs = append(errs, fmt.Errorf("line %d: device %s: %w", d.Line, d.Name, err))
		}
	}
	for _, c := range p.connections {
		if err := p.builder.CreateConnection(c.Out, c.In); err != nil {
			p.logger.Error("create connection", "out", c.Out.String(), "in", c.In.String(), "line", c.Line, "error", err)
			errs = append(errs, fmt.Errorf("line %d: connection %s > %s: %w", c.Line, c.Out, c.In, err))
		}
	}
	for _, m := range p.monitors {
		if err := p.builder.CreateMonitor(m.Point); err != nil {
			p.logger.Error("create monitor", "point", m.Point.String(), "line", m.Line, "error", err)
			errs = append(errs, fmt.Errorf("line %d: monitor %s: %w", m.Line, m.Point, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrBuild, errors.Join(errs...))
	}
	return nil
}

// Token handling

// read fetches the next token. A lexical fault is fatal: it is recorded and
// the current token becomes end of input.
func (p *Parser) read() bool {
	tok, err := p.scanner.Next()
	if err != nil {
		p.fatal = err
		p.errs.Log(CharNotSupported, p.section, tok.Pos(), p.scanner.Line(tok.LineStart))
		tok.Kind, tok.ID = scanner.EOF, scanner.EOFID
		p.tok = tok
		return false
	}
	p.tok = tok
	return true
}

func (p *Parser) advance() bool {
	if p.fatal != nil || p.tok.Kind == scanner.EOF {
		return false
	}
	return p.read()
}

func (p *Parser) next() Result {
	if !p.advance() {
		return p.unexpectedEOF()
	}
	return Success
}

func (p *Parser) text() string { return p.scanner.Decode(p.tok) }

func (p *Parser) atEOF() bool { return p.tok.Kind == scanner.EOF }

func (p *Parser) isPunct(s string) bool {
	return p.tok.Kind == scanner.Punct && p.text() == s
}

func (p *Parser) isKeyword(s string) bool {
	return p.tok.Kind == scanner.Keyword && p.text() == s
}

func (p *Parser) isAnyKeyword(keywords ...string) bool {
	if p.tok.Kind != scanner.Keyword {
		return false
	}
	return slices.Contains(keywords, p.text())
}

// atSectionEnd reports whether the current token opens a later section.
func (p *Parser) atSectionEnd() bool {
	return p.isAnyKeyword("CONNECTIONS", "MONITORS")
}

// Fault recording

func (p *Parser) fault(code Code) {
	p.faultAt(code, p.tok)
}

// faultAt records a fault against an earlier token, quoting its line.
func (p *Parser) faultAt(code Code, tok scanner.Token) {
	p.errs.Log(code, p.section, tok.Pos(), p.scanner.Line(tok.LineStart))
}

func (p *Parser) fail(code Code) Result {
	p.fault(code)
	return Recoverable
}

// unexpectedEOF records the end of input unless a lexical fault already
// ended it.
func (p *Parser) unexpectedEOF() Result {
	if p.fatal == nil {
		p.fault(UnexpectedEOF)
	}
	return Unrecoverable
}

func (p *Parser) expectPunct(s string) Result {
	switch {
	case p.isPunct(s):
		return Success
	case p.atEOF():
		return p.unexpectedEOF()
	default:
		return p.fail(InvalidPunct)
	}
}

// Recovery

// skipToNextStatement advances to the next ';'. It fails softly when a later
// section keyword turns up first, and hard at end of input.
func (p *Parser) skipToNextStatement() Result {
	for {
		switch {
		case p.isPunct(";"):
			return Success
		case p.atSectionEnd():
			return p.fail(UnexpectedKeyword)
		case p.atEOF():
			return p.unexpectedEOF()
		}
		p.advance()
	}
}

// recoverStatement skips past the rest of a failed statement.
func (p *Parser) recoverStatement() Result {
	if res := p.skipToNextStatement(); res != Success {
		return res
	}
	return p.next()
}

// skipToNextBlock advances to one of the given section keywords.
func (p *Parser) skipToNextBlock(keywords ...string) Result {
	for !p.isAnyKeyword(keywords...) {
		if p.atEOF() {
			return p.unexpectedEOF()
		}
		p.advance()
	}
	return Success
}

// sectionHeader parses `keyword ":"`.
func (p *Parser) sectionHeader(keyword string) Result {
	if !p.isKeyword(keyword) {
		if p.atEOF() {
			return p.unexpectedEOF()
		}
		return p.fail(InvalidSymbol)
	}
	if res := p.next(); res != Success {
		return res
	}
	if res := p.expectPunct(":"); res != Success {
		return res
	}
	return p.next()
}

// DEVICES

// parseDevices parses `"DEVICES" ":" device_def { device_def }`.
func (p *Parser) parseDevices() Result {
	p.section = SectionDevices
	if res := p.sectionHeader("DEVICES"); res != Success {
		return res
	}
	if p.atSectionEnd() {
		return p.fail(UnexpectedKeyword)
	}
	for !p.atSectionEnd() {
		switch p.deviceDef() {
		case Unrecoverable:
			return Unrecoverable
		case Recoverable:
			if res := p.recoverStatement(); res != Success {
				return res
			}
		}
	}
	return Success
}

type pendingName struct {
	name string
	tok  scanner.Token
	skip bool
}

// deviceDef parses `device_name {"," device_name} "=" device_type ";"`.
// Names are held in a pending list and committed once the type has parsed,
// so a missing terminator does not lose the declaration.
func (p *Parser) deviceDef() Result {
	pending, res := p.deviceNames()
	if res != Success {
		return res
	}
	if res := p.next(); res != Success {
		return res
	}
	typ, param, res := p.deviceType()
	if res != Success {
		return res
	}
	p.commit(pending, typ, param)
	if res := p.expectPunct(";"); res != Success {
		return res
	}
	return p.next()
}

func (p *Parser) commit(pending []pendingName, typ logic.DeviceType, param int) {
	for _, n := range pending {
		if n.skip {
			continue
		}
		p.deviceIndex[n.name] = len(p.devices)
		p.devices = append(p.devices, DeviceDef{
			Name:   n.name,
			Index:  len(p.devices),
			Type:   typ,
			Param:  param,
			Line:   n.tok.Line,
			Column: n.tok.Column,

			lineStart: n.tok.LineStart,
		})
	}
}

// deviceNames parses the name list up to and including the '='.
func (p *Parser) deviceNames() ([]pendingName, Result) {
	var pending []pendingName
	for {
		n, res := p.deviceName(pending)
		if res != Success {
			return nil, res
		}
		pending = append(pending, n)
		if res := p.next(); res != Success {
			return nil, res
		}
		switch {
		case p.isPunct(","):
			if res := p.next(); res != Success {
				return nil, res
			}
		case p.isPunct("="):
			return pending, Success
		case p.atEOF():
			return nil, p.unexpectedEOF()
		default:
			return nil, p.fail(InvalidPunct)
		}
	}
}

func (p *Parser) deviceName(pending []pendingName) (pendingName, Result) {
	n := pendingName{tok: p.tok}
	switch {
	case p.tok.Kind == scanner.Name:
	case p.isKeyword("I"):
		p.fault(DeviceNameI)
		n.name, n.skip = "I", true
		return n, Success
	case p.tok.Kind == scanner.Number:
		return n, p.fail(DigitStartsName)
	case p.atEOF():
		return n, p.unexpectedEOF()
	default:
		return n, p.fail(InvalidSymbol)
	}

	n.name = p.text()
	if _, ok := p.deviceIndex[n.name]; ok {
		// The first declaration wins.
		p.fault(AlreadyAssigned)
		n.skip = true
		return n, Success
	}
	for _, q := range pending {
		if q.name == n.name {
			p.fault(MultipleAssignments)
			n.skip = true
			break
		}
	}
	return n, Success
}

// deviceType parses the type and its optional "[n]" parameter, leaving the
// cursor on the token after it.
func (p *Parser) deviceType() (logic.DeviceType, int, Result) {
	if p.tok.Kind != scanner.DeviceType {
		if p.atEOF() {
			return 0, 0, p.unexpectedEOF()
		}
		return 0, 0, p.fail(InvalidSymbol)
	}
	typ, err := logic.ParseDeviceType(p.text())
	if err != nil {
		return 0, 0, p.fail(InvalidSymbol)
	}
	if res := p.next(); res != Success {
		return 0, 0, res
	}

	if !p.isPunct("[") {
		if typ.TakesParameter() && !typ.ParameterOptional() {
			return 0, 0, p.expectPunct("[")
		}
		param := 0
		if typ == logic.RC {
			param = logic.DefaultRCPeriod
		}
		return typ, param, Success
	}
	if !typ.TakesParameter() {
		return 0, 0, p.fail(ParameterNotAllowed)
	}

	if res := p.next(); res != Success {
		return 0, 0, res
	}
	if p.tok.Kind != scanner.Number {
		if p.atEOF() {
			return 0, 0, p.unexpectedEOF()
		}
		return 0, 0, p.fail(InvalidParameter)
	}
	param, paramTok := p.tok.ID, p.tok
	if res := p.next(); res != Success {
		return 0, 0, res
	}
	if res := p.expectPunct("]"); res != Success {
		return 0, 0, res
	}
	if res := p.next(); res != Success {
		return 0, 0, res
	}

	switch typ.CheckParameter(param) {
	case logic.ParamClockZero:
		p.faultAt(ClockPeriodZero, paramTok)
		return 0, 0, Recoverable
	case logic.ParamNotAllowed:
		p.faultAt(ParameterNotAllowed, paramTok)
		return 0, 0, Recoverable
	}
	return typ, param, Success
}

// CONNECTIONS

// parseConnections parses `"CONNECTIONS" ":" { connection_def }`.
func (p *Parser) parseConnections() Result {
	p.section = SectionConnections
	if res := p.sectionHeader("CONNECTIONS"); res != Success {
		return res
	}
	for !p.atEOF() && !p.isKeyword("MONITORS") {
		switch p.connectionDef() {
		case Unrecoverable:
			return Unrecoverable
		case Recoverable:
			if res := p.recoverStatement(); res != Success {
				return res
			}
		}
	}
	return Success
}

// connectionDef parses `out_port ">" in_port ";"`.
func (p *Parser) connectionDef() Result {
	pos := p.tok.Pos()
	out, res := p.outPort()
	if res != Success {
		return res
	}
	if res := p.expectPunct(">"); res != Success {
		return res
	}
	if res := p.next(); res != Success {
		return res
	}
	inTok := p.tok
	in, res := p.inPort()
	if res != Success {
		return res
	}
	if res := p.expectPunct(";"); res != Success {
		return res
	}

	duplicate := false
	for _, c := range p.connections {
		if c.In == in {
			duplicate = true
			break
		}
	}
	if duplicate {
		p.faultAt(AlreadyAssigned, inTok)
	} else {
		p.connections = append(p.connections, ConnectionDef{Out: out, In: in, Line: pos.Line, Column: pos.Column})
	}
	return p.next()
}

// deviceRef resolves the current NAME against the device table, recording
// missing when it is not declared.
func (p *Parser) deviceRef(missing Code) (DeviceDef, Result) {
	switch {
	case p.tok.Kind == scanner.Name:
	case p.atEOF():
		return DeviceDef{}, p.unexpectedEOF()
	default:
		return DeviceDef{}, p.fail(InvalidSymbol)
	}
	d, ok := p.Device(p.text())
	if !ok {
		return DeviceDef{}, p.fail(missing)
	}
	return d, Success
}

// outPort parses `device_name ["." ("Q"|"QBAR")]`. The suffix is required
// on DTYPE devices and refused on everything else.
func (p *Parser) outPort() (logic.Port, Result) {
	dev, res := p.deviceRef(ReferencedBeforeAssigned)
	if res != Success {
		return logic.Port{}, res
	}
	port := logic.Port{Device: dev.Name}
	if res := p.next(); res != Success {
		return port, res
	}

	if dev.Type == logic.DTYPE {
		if res := p.expectPunct("."); res != Success {
			return port, res
		}
		if res := p.next(); res != Success {
			return port, res
		}
		pin, res := p.outputPin()
		if res != Success {
			return port, res
		}
		port.Pin = pin
		return port, p.next()
	}

	if !p.isPunct(".") {
		return port, Success
	}
	if res := p.next(); res != Success {
		return port, res
	}
	if p.tok.Kind == scanner.Keyword || p.tok.Kind == scanner.Name {
		return port, p.fail(PinNotExist)
	}
	if p.atEOF() {
		return port, p.unexpectedEOF()
	}
	return port, p.fail(InvalidSymbol)
}

// outputPin parses Q or QBAR.
func (p *Parser) outputPin() (logic.Pin, Result) {
	switch {
	case p.isKeyword("Q"):
		return logic.Pin{Kind: logic.PinQ}, Success
	case p.isKeyword("QBAR"):
		return logic.Pin{Kind: logic.PinQBar}, Success
	case p.tok.Kind == scanner.Keyword || p.tok.Kind == scanner.Name:
		return logic.Pin{}, p.fail(PinNotExist)
	case p.atEOF():
		return logic.Pin{}, p.unexpectedEOF()
	default:
		return logic.Pin{}, p.fail(InvalidSymbol)
	}
}

// inPort parses `device_name "." pin`.
func (p *Parser) inPort() (logic.Port, Result) {
	dev, res := p.deviceRef(ReferencedBeforeAssigned)
	if res != Success {
		return logic.Port{}, res
	}
	port := logic.Port{Device: dev.Name}
	if res := p.next(); res != Success {
		return port, res
	}
	if res := p.expectPunct("."); res != Success {
		return port, res
	}
	if res := p.next(); res != Success {
		return port, res
	}
	if dev.Type.IsSource() {
		return port, p.fail(InputToSwitchAssigned)
	}
	pin, res := p.inputPin(dev)
	if res != Success {
		return port, res
	}
	port.Pin = pin
	return port, p.next()
}

// inputPin parses DATA, CLK, SET or CLEAR on a DTYPE and "I<n>" on gates.
// Pin numbers are range checked by checkInputCount.
func (p *Parser) inputPin(dev DeviceDef) (logic.Pin, Result) {
	if p.atEOF() {
		return logic.Pin{}, p.unexpectedEOF()
	}
	if dev.Type == logic.DTYPE {
		if p.tok.Kind == scanner.Keyword {
			if pin, err := logic.ParsePin(p.text()); err == nil && pin.IsInput() {
				return pin, Success
			}
			return logic.Pin{}, p.fail(PinNotExist)
		}
		if p.tok.Kind == scanner.Name {
			return logic.Pin{}, p.fail(PinNotExist)
		}
		return logic.Pin{}, p.fail(InvalidSymbol)
	}

	switch {
	case p.tok.Kind == scanner.Name:
		if n, ok := logic.ParseInputPin(p.text()); ok {
			return logic.InputPin(n), Success
		}
		return logic.Pin{}, p.fail(InvalidSymbol)
	case p.isKeyword("I"):
		return logic.Pin{}, p.fail(InvalidSymbol)
	case p.tok.Kind == scanner.Keyword:
		return logic.Pin{}, p.fail(PinNotExist)
	default:
		return logic.Pin{}, p.fail(InvalidSymbol)
	}
}

// checkInputCount requires every input pin of every device to be the target
// of exactly one connection.
func (p *Parser) checkInputCount() {
	type usage struct {
		total int
		pins  map[logic.Pin]bool
	}
	used := make(map[string]*usage)
	for _, c := range p.connections {
		u, ok := used[c.In.Device]
		if !ok {
			u = &usage{pins: make(map[logic.Pin]bool)}
			used[c.In.Device] = u
		}
		u.total++
		u.pins[c.In.Pin] = true
	}

	for _, d := range p.devices {
		want := logic.InputPins(d.Type, d.Param)
		if len(want) == 0 {
			continue
		}
		u := used[d.Name]
		complete := u != nil && u.total == len(want)
		for _, pin := range want {
			if !complete {
				break
			}
			complete = u.pins[pin]
		}
		if !complete {
			pos := scanner.Position{Line: d.Line, Column: d.Column}
			p.errs.Log(InputNotAssigned, SectionConnections, pos, p.scanner.Line(d.lineStart))
		}
	}
}

// MONITORS

// parseMonitors parses `"MONITORS" ":" monitor_def {"," monitor_def} ";"`,
// which must be the last thing in the file.
func (p *Parser) parseMonitors() Result {
	p.section = SectionMonitors
	if res := p.sectionHeader("MONITORS"); res != Success {
		return res
	}
	res := p.monitorList()
	if res == Unrecoverable {
		return res
	}
	if !p.atEOF() {
		return p.fail(InvalidSymbol)
	}
	return res
}

// monitorList resumes at the next ',' after a bad entry so the points that
// follow are still checked.
func (p *Parser) monitorList() Result {
	res := Success
	for {
		switch r := p.monitorDef(); r {
		case Unrecoverable:
			return r
		case Recoverable:
			res = Recoverable
			if r := p.skipToListSeparator(); r != Success {
				return r
			}
		}
		switch {
		case p.isPunct(","):
			if r := p.next(); r != Success {
				return r
			}
		case p.isPunct(";"):
			if r := p.next(); r != Success {
				return r
			}
			return res
		case p.atEOF():
			return p.unexpectedEOF()
		default:
			p.fault(InvalidPunct)
			if r := p.recoverStatement(); r != Success {
				return r
			}
			return Recoverable
		}
	}
}

func (p *Parser) skipToListSeparator() Result {
	for !p.isPunct(",") && !p.isPunct(";") {
		if p.atEOF() {
			return p.unexpectedEOF()
		}
		p.advance()
	}
	return Success
}

// monitorDef parses `device_name ["." ("Q"|"QBAR")]`. A bare DTYPE
// monitors Q.
func (p *Parser) monitorDef() Result {
	start := p.tok
	dev, res := p.deviceRef(DeviceNotExist)
	if res != Success {
		return res
	}
	point := logic.Port{Device: dev.Name}
	if res := p.next(); res != Success {
		return res
	}
	if p.isPunct(".") {
		if res := p.next(); res != Success {
			return res
		}
		pin, res := p.monitorPin(dev)
		if res != Success {
			return res
		}
		point.Pin = pin
		if res := p.next(); res != Success {
			return res
		}
	} else if dev.Type == logic.DTYPE {
		point.Pin = logic.Pin{Kind: logic.PinQ}
	}

	for _, m := range p.monitors {
		if m.Point == point {
			p.faultAt(AlreadyAssigned, start)
			return Success
		}
	}
	p.monitors = append(p.monitors, MonitorDef{Point: point, Line: start.Line, Column: start.Column})
	return Success
}

func (p *Parser) monitorPin(dev DeviceDef) (logic.Pin, Result) {
	if p.atEOF() {
		return logic.Pin{}, p.unexpectedEOF()
	}
	var (
		pin logic.Pin
		ok  bool
	)
	switch p.tok.Kind {
	case scanner.Keyword:
		var err error
		pin, err = logic.ParsePin(p.text())
		ok = err == nil
	case scanner.Name:
		var n int
		n, ok = logic.ParseInputPin(p.text())
		pin = logic.InputPin(n)
	}
	switch {
	case !ok:
		return logic.Pin{}, p.fail(InvalidSymbol)
	case pin.IsInput():
		return logic.Pin{}, p.fail(MonitorOnInput)
	case dev.Type != logic.DTYPE:
		return logic.Pin{}, p.fail(PinNotExist)
	}
	return pin, Success
}
