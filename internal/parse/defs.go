package parse

import "github.com/pborges/logsim/internal/logic"

// Result is the outcome of every parsing routine.
type Result int

const (
	// Success: the construct was recognised and the cursor is past it.
	Success Result = iota
	// Recoverable: a fault was recorded; the caller must resynchronise.
	Recoverable
	// Unrecoverable: the input ended inside a construct.
	Unrecoverable
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Recoverable:
		return "recoverable"
	case Unrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// DeviceDef is one committed device declaration.
type DeviceDef struct {
	Name   string
	Index  int // creation order
	Type   logic.DeviceType
	Param  int
	Line   int
	Column int

	lineStart int // offset of the declaring line
}

type ConnectionDef struct {
	Out    logic.Port
	In     logic.Port
	Line   int
	Column int
}

type MonitorDef struct {
	Point  logic.Port
	Line   int
	Column int
}

// Builder materialises a parsed definition. It is only called after a parse
// that recorded no faults.
type Builder interface {
	CreateDevice(name string, t logic.DeviceType, param int) error
	CreateConnection(out, in logic.Port) error
	CreateMonitor(point logic.Port) error
}
