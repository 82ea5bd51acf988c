package logic

import "fmt"

// DeviceType is one of the closed set of device kinds a definition may name.
type DeviceType int

const (
	AND DeviceType = iota
	OR
	NAND
	NOR
	XOR
	CLOCK
	SWITCH
	DTYPE
	RC
)

// MaxParameter bounds every parameter except SWITCH's.
const MaxParameter = 16

// DefaultRCPeriod is used when an RC device is declared without a parameter.
const DefaultRCPeriod = 1

var deviceTypeNames = map[DeviceType]string{
	AND:    "AND",
	OR:     "OR",
	NAND:   "NAND",
	NOR:    "NOR",
	XOR:    "XOR",
	CLOCK:  "CLOCK",
	SWITCH: "SWITCH",
	DTYPE:  "DTYPE",
	RC:     "RC",
}

func (t DeviceType) String() string {
	if s, ok := deviceTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DeviceType(%d)", int(t))
}

func ParseDeviceType(s string) (DeviceType, error) {
	for t, name := range deviceTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown device type %q", s)
}

// TakesParameter reports whether a "[n]" suffix may follow the type.
func (t DeviceType) TakesParameter() bool {
	switch t {
	case AND, OR, NAND, NOR, CLOCK, SWITCH, RC:
		return true
	}
	return false
}

// ParameterOptional reports whether the "[n]" suffix may be omitted.
func (t DeviceType) ParameterOptional() bool { return t == RC }

// IsSource reports whether the device has no inputs.
func (t DeviceType) IsSource() bool {
	switch t {
	case CLOCK, SWITCH, RC:
		return true
	}
	return false
}

// ParamFault describes why a parameter was rejected.
type ParamFault int

const (
	ParamOK ParamFault = iota
	ParamNotAllowed
	ParamClockZero
)

// CheckParameter validates a declared parameter against the type's bounds.
func (t DeviceType) CheckParameter(n int) ParamFault {
	switch t {
	case SWITCH:
		if n != 0 && n != 1 {
			return ParamNotAllowed
		}
	case CLOCK:
		if n == 0 {
			return ParamClockZero
		}
		if n < 0 || n > MaxParameter {
			return ParamNotAllowed
		}
	case AND, OR, NAND, NOR, RC:
		if n < 1 || n > MaxParameter {
			return ParamNotAllowed
		}
	default:
		return ParamNotAllowed
	}
	return ParamOK
}

// Inputs returns how many input pins a device of this type has.
func (t DeviceType) Inputs(param int) int {
	switch t {
	case AND, OR, NAND, NOR:
		return param
	case XOR:
		return 2
	case DTYPE:
		return 4
	}
	return 0
}

// InputPins lists the input pins of a device, in pin order.
func InputPins(t DeviceType, param int) []Pin {
	if t == DTYPE {
		return []Pin{{Kind: PinData}, {Kind: PinClk}, {Kind: PinSet}, {Kind: PinClear}}
	}
	n := t.Inputs(param)
	pins := make([]Pin, 0, n)
	for i := 1; i <= n; i++ {
		pins = append(pins, InputPin(i))
	}
	return pins
}

// OutputPins lists the output pins of a device.
func OutputPins(t DeviceType) []Pin {
	if t == DTYPE {
		return []Pin{{Kind: PinQ}, {Kind: PinQBar}}
	}
	return []Pin{{}}
}
