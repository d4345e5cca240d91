package cluster

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// Vagrant drives a Bigtop-style set of virtual machines through the
// vagrant CLI. Port exposure is static: the Vagrantfile forwards each
// internal port shifted by a fixed amount per node ordinal, so node 1
// exposes 50070 as 51070, node 2 as 52070, and so on. Only ports listed
// in the configuration are forwarded at all.
type Vagrant struct {
	dir             string
	hostnamePattern string
	portShift       int
	forwarded       map[int]struct{}
}

func NewVagrant(cfg types.ClusterConfig) *Vagrant {
	forwarded := make(map[int]struct{}, len(cfg.ForwardedPorts))
	for _, port := range cfg.ForwardedPorts {
		forwarded[port] = struct{}{}
	}
	return &Vagrant{
		dir:             cfg.VagrantDir,
		hostnamePattern: cfg.HostnamePattern,
		portShift:       cfg.PortShift,
		forwarded:       forwarded,
	}
}

func (v *Vagrant) Up(ctx context.Context) error {
	_, err := runCommand(ctx, v.dir, nil, "vagrant", "up")
	return err
}

func (v *Vagrant) Down(ctx context.Context) error {
	_, err := runCommand(ctx, v.dir, nil, "vagrant", "halt")
	return err
}

func (v *Vagrant) Exec(ctx context.Context, ordinal int, cmd []string) (string, error) {
	return v.ExecInput(ctx, ordinal, nil, cmd)
}

func (v *Vagrant) ExecInput(ctx context.Context, ordinal int, stdin io.Reader, cmd []string) (string, error) {
	return runCommand(ctx, v.dir, stdin, "vagrant", "ssh", v.machineName(ordinal), "-c", shellquote.Join(cmd...))
}

func (v *Vagrant) HostnameOf(ordinal int) string {
	return fmt.Sprintf(v.hostnamePattern, ordinal)
}

// machineName is the Vagrantfile machine identifier, the first label of
// the node hostname (`bigtop1` for `bigtop1.vagrant`).
func (v *Vagrant) machineName(ordinal int) string {
	hostname := v.HostnameOf(ordinal)
	if name, _, found := strings.Cut(hostname, "."); found {
		return name
	}
	return hostname
}

func (v *Vagrant) HostAddressOf(_ context.Context, ordinal int, port int) (string, error) {
	if _, ok := v.forwarded[port]; !ok {
		return "", models.NewBaseError("port %d of %s is not forwarded to the host", port, v.HostnameOf(ordinal)).
			WithCode(models.PortNotExposed).
			WithComponent("Cluster").
			WithHint("list the port under cluster.forwardedPorts and in the Vagrantfile")
	}
	return fmt.Sprintf("localhost:%d", port+v.portShift*ordinal), nil
}

var _ Provisioner = (*Vagrant)(nil)
