// Package cluster provisions and addresses the multi-node filesystem
// cluster a test run executes against. Two back ends are supported: a
// docker compose stack where every node is a container on this host, and
// a vagrant setup of Bigtop-style virtual machines with statically
// forwarded ports. Both are driven through the same Provisioner interface
// and produce the same topology artifacts: an address-translation table
// and the cluster entry point.
package cluster

import (
	"context"
	"io"
	"path/filepath"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/docker"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// Provisioner is the single seam between the orchestrator and a concrete
// cluster back end. Ordinals are 1-based; ordinal 1 is the node hosting
// the coordinator service.
type Provisioner interface {
	// Up brings the cluster to a running state, waiting until the nodes
	// accept commands.
	Up(ctx context.Context) error

	// Down stops the cluster and releases what Up allocated.
	Down(ctx context.Context) error

	// Exec runs cmd on the given node and returns its stdout. A non-zero
	// exit fails with ExternalCommandFailed carrying the stderr tail.
	Exec(ctx context.Context, ordinal int, cmd []string) (string, error)

	// ExecInput is Exec with the process stdin fed from the reader.
	ExecInput(ctx context.Context, ordinal int, stdin io.Reader, cmd []string) (string, error)

	// HostnameOf returns the cluster-internal hostname of a node, the name
	// services announce to each other.
	HostnameOf(ordinal int) string

	// HostAddressOf translates a node's internal port to a host-reachable
	// host:port. A port the back end does not expose fails with
	// PortNotExposed.
	HostAddressOf(ctx context.Context, ordinal int, port int) (string, error)
}

// New selects the back end named by the configuration. The compose back
// end generates its compose file below workdir unless the configuration
// points at an existing one.
func New(ctx context.Context, cfg types.ClusterConfig, workdir string) (Provisioner, error) {
	switch cfg.Backend {
	case types.BackendCompose:
		composeFile := cfg.ComposeFile
		if composeFile == "" {
			generated, err := EnsureComposeFile(cfg, filepath.Join(workdir, "docker-compose.yaml"))
			if err != nil {
				return nil, err
			}
			composeFile = generated
		}
		client, err := docker.NewClient()
		if err != nil {
			return nil, err
		}
		return NewCompose(client, composeFile, cfg.Project), nil
	case types.BackendVagrant:
		return NewVagrant(cfg), nil
	default:
		return nil, models.NewBaseError("unknown cluster backend %q", cfg.Backend).
			WithComponent("Cluster").
			WithHint("supported backends are compose and vagrant")
	}
}
