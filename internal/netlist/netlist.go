package netlist

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pborges/logsim/internal/circuit"
)

type Config struct {
	Header []string
}

// Write renders a built network as a text netlist.
func Write(cfg Config, n *circuit.Network) string {
	var buf strings.Builder
	for _, line := range cfg.Header {
		buf.WriteString("# ")
		buf.WriteString(strings.TrimRight(line, "\n"))
		buf.WriteByte('\n')
	}

	devices := n.Devices()
	for _, d := range devices {
		if d.Type.TakesParameter() {
			fmt.Fprintf(&buf, "*D %s %s %d\n", d.Name, d.Type, d.Param)
		} else {
			fmt.Fprintf(&buf, "*D %s %s\n", d.Name, d.Type)
		}
	}
	conns := n.Connections()
	for _, c := range conns {
		fmt.Fprintf(&buf, "*C %s > %s\n", c.Out, c.In)
	}
	monitors := n.Monitors()
	for _, m := range monitors {
		fmt.Fprintf(&buf, "*M %s\n", m)
	}
	fmt.Fprintf(&buf, "*N %d %d %d\n", len(devices), len(conns), len(monitors))
	return buf.String()
}

type document struct {
	Devices     []deviceDoc     `yaml:"devices"`
	Connections []connectionDoc `yaml:"connections"`
	Monitors    []string        `yaml:"monitors"`
}

type deviceDoc struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Param *int   `yaml:"param,omitempty"`
}

type connectionDoc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// MarshalYAML renders a built network as a YAML document.
func MarshalYAML(n *circuit.Network) ([]byte, error) {
	doc := document{
		Devices:     []deviceDoc{},
		Connections: []connectionDoc{},
		Monitors:    []string{},
	}
	for _, d := range n.Devices() {
		dd := deviceDoc{Name: d.Name, Type: d.Type.String()}
		if d.Type.TakesParameter() {
			param := d.Param
			dd.Param = &param
		}
		doc.Devices = append(doc.Devices, dd)
	}
	for _, c := range n.Connections() {
		doc.Connections = append(doc.Connections, connectionDoc{From: c.Out.String(), To: c.In.String()})
	}
	for _, m := range n.Monitors() {
		doc.Monitors = append(doc.Monitors, m.String())
	}
	return yaml.Marshal(doc)
}
