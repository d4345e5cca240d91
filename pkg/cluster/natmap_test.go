//go:build unit || !integration

package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNatMapRenderAndParse(t *testing.T) {
	m := NewNatMap()
	require.NoError(t, m.Add("bigtop1.vagrant:50070", "localhost:51070"))
	require.NoError(t, m.Add("bigtop1.vagrant:50075", "localhost:51075"))
	require.NoError(t, m.Add("bigtop2.vagrant:50075", "localhost:52075"))

	rendered := m.Render()
	require.Equal(t,
		"bigtop1.vagrant:50070=localhost:51070\n"+
			"bigtop1.vagrant:50075=localhost:51075\n"+
			"bigtop2.vagrant:50075=localhost:52075\n",
		rendered, "entries render in insertion order")

	parsed, err := ParseNatMap(rendered)
	require.NoError(t, err)
	require.Equal(t, 3, parsed.Len())

	external, ok := parsed.Lookup("bigtop1.vagrant:50070")
	require.True(t, ok)
	require.Equal(t, "localhost:51070", external)

	_, ok = parsed.Lookup("bigtop9.vagrant:50075")
	require.False(t, ok)
}

func TestNatMapDuplicateKey(t *testing.T) {
	m := NewNatMap()
	require.NoError(t, m.Add("node1:50070", "localhost:50070"))
	require.Error(t, m.Add("node1:50070", "localhost:60070"))
	require.Equal(t, 1, m.Len())
}

func TestParseNatMapMalformed(t *testing.T) {
	_, err := ParseNatMap("node1:50070=localhost:51070\njunk-line\n")
	require.Error(t, err)

	_, err = ParseNatMap("=localhost:51070\n")
	require.Error(t, err)
}

func TestParseNatMapSkipsBlankLines(t *testing.T) {
	parsed, err := ParseNatMap("\nnode1:50070=localhost:51070\n\n")
	require.NoError(t, err)
	require.Equal(t, 1, parsed.Len())
}
