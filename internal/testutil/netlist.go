package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pborges/logsim/internal/logic"
)

// Netlist is the structural content of a text netlist.
type Netlist struct {
	Devices     []string // "NAME TYPE [PARAM]"
	Connections []string // "OUT > IN"
	Monitors    []string
	Summary     [3]int
}

func ParseNetlist(data []byte) (Netlist, error) {
	var n Netlist
	haveSummary := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "*D "):
			fields := strings.Fields(line[3:])
			if len(fields) < 2 || len(fields) > 3 {
				return n, fmt.Errorf("line %d: invalid D record: %q", lineNo, line)
			}
			n.Devices = append(n.Devices, strings.Join(fields, " "))
		case strings.HasPrefix(line, "*C "):
			out, in, ok := strings.Cut(line[3:], ">")
			if !ok {
				return n, fmt.Errorf("line %d: invalid C record: %q", lineNo, line)
			}
			from, err := port(lineNo, out)
			if err != nil {
				return n, err
			}
			to, err := port(lineNo, in)
			if err != nil {
				return n, err
			}
			n.Connections = append(n.Connections, from+" > "+to)
		case strings.HasPrefix(line, "*M "):
			point, err := port(lineNo, line[3:])
			if err != nil {
				return n, err
			}
			n.Monitors = append(n.Monitors, point)
		case strings.HasPrefix(line, "*N "):
			fields := strings.Fields(line[3:])
			if len(fields) != 3 {
				return n, fmt.Errorf("line %d: invalid N record: %q", lineNo, line)
			}
			for i, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					return n, fmt.Errorf("line %d: %w", lineNo, err)
				}
				n.Summary[i] = v
			}
			haveSummary = true
		default:
			return n, fmt.Errorf("line %d: unknown record: %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	if !haveSummary {
		return n, fmt.Errorf("missing N record")
	}
	counts := [3]int{len(n.Devices), len(n.Connections), len(n.Monitors)}
	if counts != n.Summary {
		return n, fmt.Errorf("N record %v does not match contents %v", n.Summary, counts)
	}
	return n, nil
}

// port checks a DEV or DEV.PIN field and returns it in canonical form.
func port(lineNo int, field string) (string, error) {
	p, err := logic.ParsePort(strings.TrimSpace(field))
	if err != nil {
		return "", fmt.Errorf("line %d: %w", lineNo, err)
	}
	return p.String(), nil
}

// CompareNetlist returns a human-readable diff, or "" when got matches want.
func CompareNetlist(got, want Netlist) string {
	var buf bytes.Buffer
	compareRecords(&buf, "device", got.Devices, want.Devices)
	compareRecords(&buf, "connection", got.Connections, want.Connections)
	compareRecords(&buf, "monitor", got.Monitors, want.Monitors)
	return buf.String()
}

func compareRecords(buf *bytes.Buffer, kind string, got, want []string) {
	if len(got) != len(want) {
		fmt.Fprintf(buf, "%s count mismatch: got %d want %d\n", kind, len(got), len(want))
	}
	for i := 0; i < len(got) && i < len(want); i++ {
		if got[i] != want[i] {
			fmt.Fprintf(buf, "  %s[%d]: got %q want %q\n", kind, i, got[i], want[i])
		}
	}
}
