package testutil

import (
	"fmt"

	"github.com/pborges/logsim/internal/logic"
)

// Recorder is a circuit builder that remembers every call in order.
type Recorder struct {
	Calls []string
	// Fail, when set, is returned for any call whose record it matches.
	Fail map[string]error
}

func (r *Recorder) record(call string) error {
	r.Calls = append(r.Calls, call)
	return r.Fail[call]
}

func (r *Recorder) CreateDevice(name string, t logic.DeviceType, param int) error {
	return r.record(fmt.Sprintf("device %s %s %d", name, t, param))
}

func (r *Recorder) CreateConnection(out, in logic.Port) error {
	return r.record(fmt.Sprintf("connection %s > %s", out, in))
}

func (r *Recorder) CreateMonitor(p logic.Port) error {
	return r.record(fmt.Sprintf("monitor %s", p))
}
