package cluster

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Topology is the addressing picture of a running cluster: the full
// translation table plus the entry point the system under test dials
// first.
type Topology struct {
	NatMap     *NatMap
	EntryPoint string
}

// ResolveTopology builds the translation table for a cluster of the given
// size. Every node contributes a data-port entry; node 1 additionally
// contributes the coordinator entry, whose external address becomes the
// entry point. Any port the back end cannot expose aborts resolution,
// so a partial table is never returned.
func ResolveTopology(ctx context.Context, p Provisioner, nodes, coordinatorPort, dataPort int) (Topology, error) {
	natmap := NewNatMap()
	var entryPoint string

	for ordinal := 1; ordinal <= nodes; ordinal++ {
		hostname := p.HostnameOf(ordinal)

		if ordinal == 1 {
			external, err := p.HostAddressOf(ctx, ordinal, coordinatorPort)
			if err != nil {
				return Topology{}, errors.Wrapf(err, "resolving coordinator address of node %d", ordinal)
			}
			if err := natmap.Add(authority(hostname, coordinatorPort), external); err != nil {
				return Topology{}, err
			}
			entryPoint = external
		}

		external, err := p.HostAddressOf(ctx, ordinal, dataPort)
		if err != nil {
			return Topology{}, errors.Wrapf(err, "resolving data address of node %d", ordinal)
		}
		if err := natmap.Add(authority(hostname, dataPort), external); err != nil {
			return Topology{}, err
		}
	}

	log.Ctx(ctx).Debug().
		Int("nodes", nodes).
		Int("entries", natmap.Len()).
		Str("entrypoint", entryPoint).
		Msg("resolved cluster topology")

	return Topology{NatMap: natmap, EntryPoint: entryPoint}, nil
}

func authority(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
