//go:build unit || !integration

package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvvy/webhdfs-itt/pkg/logger"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

func TestResolveTopology(t *testing.T) {
	logger.ConfigureTestLogging(t)
	p := newFakeProvisioner()

	topology, err := ResolveTopology(context.Background(), p, 3, 50070, 50075)
	require.NoError(t, err)

	require.Equal(t, "localhost:51070", topology.EntryPoint, "entry point is the coordinator's external address")
	require.Equal(t, 4, topology.NatMap.Len(), "one coordinator entry plus one data entry per node")

	require.Equal(t,
		"node1:50070=localhost:51070\n"+
			"node1:50075=localhost:51075\n"+
			"node2:50075=localhost:52075\n"+
			"node3:50075=localhost:53075\n",
		topology.NatMap.Render())
}

func TestResolveTopologySingleNode(t *testing.T) {
	logger.ConfigureTestLogging(t)
	p := newFakeProvisioner()

	topology, err := ResolveTopology(context.Background(), p, 1, 50070, 50075)
	require.NoError(t, err)
	require.Equal(t, 2, topology.NatMap.Len())
}

func TestResolveTopologyPortNotExposed(t *testing.T) {
	logger.ConfigureTestLogging(t)

	t.Run("CoordinatorPort", func(t *testing.T) {
		p := newFakeProvisioner()
		p.unexposed[50070] = true

		_, err := ResolveTopology(context.Background(), p, 3, 50070, 50075)
		require.Error(t, err)
		require.True(t, models.IsErrorWithCode(err, models.PortNotExposed))
	})

	t.Run("DataPort", func(t *testing.T) {
		p := newFakeProvisioner()
		p.unexposed[50075] = true

		_, err := ResolveTopology(context.Background(), p, 3, 50070, 50075)
		require.Error(t, err)
		require.True(t, models.IsErrorWithCode(err, models.PortNotExposed))
	})
}
