package cluster

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/docker"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// Compose drives a docker compose stack of cluster nodes. Services are
// named node1..nodeN; their containers are located through the standard
// compose labels and addressed through the ports docker published for
// them, so the translation table always reflects the live stack.
type Compose struct {
	client  *docker.Client
	file    string
	project string
}

func NewCompose(client *docker.Client, file, project string) *Compose {
	return &Compose{client: client, file: file, project: project}
}

// ServiceName returns the compose service name of a node.
func ServiceName(ordinal int) string {
	return fmt.Sprintf("node%d", ordinal)
}

func (c *Compose) Up(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("file", c.file).Str("project", c.project).Msg("starting compose stack")
	_, err := runCommand(ctx, "", nil, "docker", "compose", "-f", c.file, "-p", c.project, "up", "-d", "--wait")
	return err
}

func (c *Compose) Down(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("project", c.project).Msg("stopping compose stack")
	_, err := runCommand(ctx, "", nil, "docker", "compose", "-f", c.file, "-p", c.project, "down", "-v", "--remove-orphans")
	return err
}

func (c *Compose) Exec(ctx context.Context, ordinal int, cmd []string) (string, error) {
	return c.ExecInput(ctx, ordinal, nil, cmd)
}

func (c *Compose) ExecInput(ctx context.Context, ordinal int, stdin io.Reader, cmd []string) (string, error) {
	containerID, err := c.container(ctx, ordinal)
	if err != nil {
		return "", err
	}

	stdout, stderr, exitCode, err := c.client.Exec(ctx, containerID, stdin, cmd)
	if err != nil {
		return "", err
	}
	if exitCode != 0 {
		return "", models.NewBaseError("%s on %s exited with status %d", strings.Join(cmd, " "), ServiceName(ordinal), exitCode).
			WithCode(models.ExternalCommandFailed).
			WithComponent("Cluster").
			WithDetail("stderr", tail(stderr, stderrTailLimit))
	}
	return stdout, nil
}

func (c *Compose) HostnameOf(ordinal int) string {
	return ServiceName(ordinal)
}

func (c *Compose) HostAddressOf(ctx context.Context, ordinal int, port int) (string, error) {
	containerID, err := c.container(ctx, ordinal)
	if err != nil {
		return "", err
	}

	address, published, err := c.client.PublishedPort(ctx, containerID, port)
	if err != nil {
		return "", err
	}
	if !published {
		return "", models.NewBaseError("port %d of %s is not published to the host", port, ServiceName(ordinal)).
			WithCode(models.PortNotExposed).
			WithComponent("Cluster").
			WithHint("add the port to the service's ports section in the compose file")
	}
	return address, nil
}

func (c *Compose) container(ctx context.Context, ordinal int) (string, error) {
	return c.client.FindComposeContainer(ctx, c.project, ServiceName(ordinal))
}

var _ Provisioner = (*Compose)(nil)
