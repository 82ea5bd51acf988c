package circuit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/pborges/logsim/internal/logic"
)

var (
	ErrDevicePresent    = errors.New("device already present")
	ErrBadParameter     = errors.New("parameter out of range")
	ErrDeviceAbsent     = errors.New("device not found")
	ErrOutputNotFound   = errors.New("output pin not found")
	ErrInputNotFound    = errors.New("input pin not found")
	ErrInputConnected   = errors.New("input already connected")
	ErrMonitorPresent   = errors.New("monitor already present")
	ErrNotOutput        = errors.New("monitor point is not an output")
	ErrInputUnconnected = errors.New("input left unconnected")
)

// Device is one element of a built network.
type Device struct {
	Name    string
	Type    logic.DeviceType
	Param   int
	Inputs  []Input
	Outputs []logic.Pin
}

// Input is an input pin and the output driving it, if any.
type Input struct {
	Pin    logic.Pin
	Source *logic.Port
}

// Output returns true if the device has pin p as an output.
func (d *Device) Output(p logic.Pin) bool {
	return slices.Contains(d.Outputs, p)
}

func (d *Device) input(p logic.Pin) *Input {
	for i := range d.Inputs {
		if d.Inputs[i].Pin == p {
			return &d.Inputs[i]
		}
	}
	return nil
}

type Connection struct {
	Out logic.Port
	In  logic.Port
}

// Network is the circuit model a definition builds into. The zero value is
// not usable; call NewNetwork.
type Network struct {
	devices     []*Device
	byName      map[string]*Device
	connections []Connection
	monitors    []logic.Port
	logger      *slog.Logger
}

type Option func(*Network)

func WithLogger(l *slog.Logger) Option {
	return func(n *Network) { n.logger = l }
}

func NewNetwork(opts ...Option) *Network {
	n := &Network{byName: make(map[string]*Device)}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return n
}

// CreateDevice adds a device and allocates its pins.
func (n *Network) CreateDevice(name string, t logic.DeviceType, param int) error {
	if _, ok := n.byName[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDevicePresent)
	}
	if t.TakesParameter() && t.CheckParameter(param) != logic.ParamOK {
		return fmt.Errorf("%s %s[%d]: %w", name, t, param, ErrBadParameter)
	}
	if !t.TakesParameter() && param != 0 {
		return fmt.Errorf("%s %s[%d]: %w", name, t, param, ErrBadParameter)
	}

	d := &Device{
		Name:    name,
		Type:    t,
		Param:   param,
		Outputs: logic.OutputPins(t),
	}
	for _, p := range logic.InputPins(t, param) {
		d.Inputs = append(d.Inputs, Input{Pin: p})
	}
	n.devices = append(n.devices, d)
	n.byName[name] = d
	n.logger.Debug("device created", "device", name, "type", t.String(), "param", param)
	return nil
}

// CreateConnection drives input in from output out.
func (n *Network) CreateConnection(out, in logic.Port) error {
	src, ok := n.byName[out.Device]
	if !ok {
		return fmt.Errorf("%s: %w", out.Device, ErrDeviceAbsent)
	}
	dst, ok := n.byName[in.Device]
	if !ok {
		return fmt.Errorf("%s: %w", in.Device, ErrDeviceAbsent)
	}
	if !src.Output(out.Pin) {
		return fmt.Errorf("%s: %w", out, ErrOutputNotFound)
	}
	input := dst.input(in.Pin)
	if input == nil {
		return fmt.Errorf("%s: %w", in, ErrInputNotFound)
	}
	if input.Source != nil {
		return fmt.Errorf("%s driven by %s: %w", in, input.Source, ErrInputConnected)
	}
	driver := out
	input.Source = &driver
	n.connections = append(n.connections, Connection{Out: out, In: in})
	n.logger.Debug("connection created", "out", out.String(), "in", in.String())
	return nil
}

// CreateMonitor watches an output. A DTYPE named without a pin watches Q.
func (n *Network) CreateMonitor(p logic.Port) error {
	d, ok := n.byName[p.Device]
	if !ok {
		return fmt.Errorf("%s: %w", p.Device, ErrDeviceAbsent)
	}
	if d.Type == logic.DTYPE && p.Pin.Kind == logic.PinNone {
		p.Pin = logic.Pin{Kind: logic.PinQ}
	}
	if !d.Output(p.Pin) {
		return fmt.Errorf("%s: %w", p, ErrNotOutput)
	}
	if slices.Contains(n.monitors, p) {
		return fmt.Errorf("%s: %w", p, ErrMonitorPresent)
	}
	n.monitors = append(n.monitors, p)
	n.logger.Debug("monitor created", "point", p.String())
	return nil
}

// Check reports the first input pin with no driver.
func (n *Network) Check() error {
	for _, d := range n.devices {
		for _, in := range d.Inputs {
			if in.Source == nil {
				return fmt.Errorf("%s: %w", logic.Port{Device: d.Name, Pin: in.Pin}, ErrInputUnconnected)
			}
		}
	}
	return nil
}

func (n *Network) Devices() []*Device { return slices.Clone(n.devices) }

func (n *Network) Device(name string) (*Device, bool) {
	d, ok := n.byName[name]
	return d, ok
}

func (n *Network) Connections() []Connection { return slices.Clone(n.connections) }

func (n *Network) Monitors() []logic.Port { return slices.Clone(n.monitors) }
