package cluster

import (
	"strings"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// NatMap is the address-translation table handed to the system under
// test: each entry maps a cluster-internal `host:port` authority to the
// `host:port` the host can actually reach. Entries keep insertion order
// so the rendered file is deterministic.
type NatMap struct {
	entries map[string]string
	keys    []string
}

func NewNatMap() *NatMap {
	return &NatMap{entries: make(map[string]string)}
}

// Add registers one translation. Internal authorities are unique; adding
// a duplicate key is a programming error and fails.
func (m *NatMap) Add(internal, external string) error {
	if _, exists := m.entries[internal]; exists {
		return models.NewBaseError("duplicate address-translation entry for %q", internal).
			WithComponent("Cluster")
	}
	m.entries[internal] = external
	m.keys = append(m.keys, internal)
	return nil
}

// Lookup resolves an internal authority.
func (m *NatMap) Lookup(internal string) (string, bool) {
	external, ok := m.entries[internal]
	return external, ok
}

func (m *NatMap) Len() int {
	return len(m.keys)
}

// Render produces the exchange form, one `internal=external` line per
// entry in insertion order.
func (m *NatMap) Render() string {
	var b strings.Builder
	for _, key := range m.keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(m.entries[key])
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseNatMap reads the rendered form back. Blank lines are ignored; a
// line without `=` is malformed.
func ParseNatMap(text string) (*NatMap, error) {
	m := NewNatMap()
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		internal, external, found := strings.Cut(line, "=")
		if !found || internal == "" {
			return nil, models.NewBaseError("address-translation line %d is malformed: %q", i+1, line).
				WithComponent("Cluster")
		}
		if err := m.Add(internal, external); err != nil {
			return nil, err
		}
	}
	return m, nil
}
