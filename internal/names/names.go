package names

// Table interns identifier strings. Ids are dense, start at 0 and never change.
type Table struct {
	names []string
	index map[string]int
}

// New returns a table pre-seeded with the given names, in order.
func New(seed ...string) *Table {
	t := &Table{index: make(map[string]int, len(seed))}
	for _, s := range seed {
		t.Lookup(s)
	}
	return t
}

// Lookup returns the id for name, adding it if it was not present.
func (t *Table) Lookup(name string) int {
	if id, ok := t.index[name]; ok {
		return id
	}
	id := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = id
	return id
}

// Query returns the id for name without adding it.
func (t *Table) Query(name string) (int, bool) {
	id, ok := t.index[name]
	return id, ok
}

// Name returns the string for id.
func (t *Table) Name(id int) (string, bool) {
	if id < 0 || id >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

func (t *Table) Len() int { return len(t.names) }

// Section keywords come first so their ids are 0, 1 and 2.
var keywords = []string{
	"DEVICES", "CONNECTIONS", "MONITORS",
	"DATA", "CLK", "SET", "CLEAR", "Q", "QBAR", "I",
}

var deviceTypes = []string{
	"CLOCK", "SWITCH", "AND", "NAND", "OR", "NOR", "XOR", "DTYPE", "RC",
}

var punctuation = []string{",", ".", ":", ";", ">", "[", "]", "="}

func Keywords() *Table    { return New(keywords...) }
func DeviceTypes() *Table { return New(deviceTypes...) }
func Punctuation() *Table { return New(punctuation...) }
