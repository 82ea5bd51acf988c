package logic

import (
	"fmt"
	"strconv"
	"strings"
)

type PinKind int

const (
	PinNone PinKind = iota // the single unnamed output of a gate or source
	PinQ
	PinQBar
	PinData
	PinClk
	PinSet
	PinClear
	PinInput // numbered gate input, I1..In
)

// Pin selects a terminal on a device. Index is only used by PinInput.
type Pin struct {
	Kind  PinKind
	Index int
}

func InputPin(n int) Pin { return Pin{Kind: PinInput, Index: n} }

var pinNames = map[PinKind]string{
	PinNone:  "",
	PinQ:     "Q",
	PinQBar:  "QBAR",
	PinData:  "DATA",
	PinClk:   "CLK",
	PinSet:   "SET",
	PinClear: "CLEAR",
}

func (p Pin) String() string {
	if p.Kind == PinInput {
		return "I" + strconv.Itoa(p.Index)
	}
	return pinNames[p.Kind]
}

// ParsePin accepts the named DTYPE pins and "I<n>".
func ParsePin(s string) (Pin, error) {
	for k, name := range pinNames {
		if k != PinNone && name == s {
			return Pin{Kind: k}, nil
		}
	}
	if n, ok := ParseInputPin(s); ok {
		return InputPin(n), nil
	}
	return Pin{}, fmt.Errorf("invalid pin %q", s)
}

// ParseInputPin parses "I" immediately followed by decimal digits.
func ParseInputPin(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, "I")
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p Pin) IsOutput() bool {
	return p.Kind == PinNone || p.Kind == PinQ || p.Kind == PinQBar
}

func (p Pin) IsInput() bool { return !p.IsOutput() }

// Port names one pin of one device.
type Port struct {
	Device string
	Pin    Pin
}

func (p Port) String() string {
	if p.Pin.Kind == PinNone {
		return p.Device
	}
	return p.Device + "." + p.Pin.String()
}

// ParsePort parses "DEV" or "DEV.PIN".
func ParsePort(s string) (Port, error) {
	dev, pin, found := strings.Cut(s, ".")
	if dev == "" {
		return Port{}, fmt.Errorf("invalid port %q", s)
	}
	if !found {
		return Port{Device: dev}, nil
	}
	p, err := ParsePin(pin)
	if err != nil {
		return Port{}, err
	}
	return Port{Device: dev, Pin: p}, nil
}
