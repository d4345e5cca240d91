// Package docker wraps the docker SDK with the few operations the compose
// cluster back end needs: locating compose service containers, reading
// their published ports and running commands inside them.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
)

const (
	composeProjectLabel = "com.docker.compose.project"
	composeServiceLabel = "com.docker.compose.service"

	execPollInterval = 100 * time.Millisecond
)

type Client struct {
	sdk *dockerclient.Client
}

func NewClient() (*Client, error) {
	sdk, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "creating docker client")
	}
	return &Client{sdk: sdk}, nil
}

func (c *Client) Close() error {
	return c.sdk.Close()
}

// FindComposeContainer resolves the container backing a compose service,
// identified by the standard compose labels.
func (c *Client) FindComposeContainer(ctx context.Context, project, service string) (string, error) {
	containers, err := c.sdk.ContainerList(ctx, types.ContainerListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", composeProjectLabel, project)),
			filters.Arg("label", fmt.Sprintf("%s=%s", composeServiceLabel, service)),
		),
	})
	if err != nil {
		return "", errors.Wrap(err, "listing containers")
	}
	if len(containers) == 0 {
		return "", errors.Errorf("no container for compose service %s in project %s", service, project)
	}
	return containers[0].ID, nil
}

// PublishedPort returns the host address a container port is published
// on, or ok=false when the port has no host binding. Wildcard bind
// addresses are reported as localhost.
func (c *Client) PublishedPort(ctx context.Context, containerID string, internalPort int) (string, bool, error) {
	state, err := c.sdk.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", false, errors.Wrap(err, "inspecting container")
	}

	bindings := state.NetworkSettings.Ports[nat.Port(fmt.Sprintf("%d/tcp", internalPort))]
	if len(bindings) == 0 {
		return "", false, nil
	}

	host := bindings[0].HostIP
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, bindings[0].HostPort), true, nil
}

// Exec runs cmd inside a container and returns its demuxed stdout and
// stderr together with the exit code. stdin may be nil.
func (c *Client) Exec(ctx context.Context, containerID string, stdin io.Reader, cmd []string) (string, string, int, error) {
	created, err := c.sdk.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  stdin != nil,
	})
	if err != nil {
		return "", "", 0, errors.Wrap(err, "creating exec")
	}

	attach, err := c.sdk.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{})
	if err != nil {
		return "", "", 0, errors.Wrap(err, "attaching to exec")
	}
	defer attach.Close()

	inputDone := make(chan error, 1)
	if stdin != nil {
		go func() {
			_, copyErr := io.Copy(attach.Conn, stdin)
			if closeErr := attach.CloseWrite(); copyErr == nil {
				copyErr = closeErr
			}
			inputDone <- copyErr
		}()
	} else {
		inputDone <- nil
	}

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return "", "", 0, errors.Wrap(err, "reading exec output")
	}
	if err := <-inputDone; err != nil {
		return "", "", 0, errors.Wrap(err, "streaming exec stdin")
	}

	exitCode, err := c.waitExec(ctx, created.ID)
	if err != nil {
		return "", "", 0, err
	}
	return stdout.String(), stderr.String(), exitCode, nil
}

// waitExec polls until the exec process has terminated. Output streams
// close slightly before the exit code is recorded, hence the loop.
func (c *Client) waitExec(ctx context.Context, execID string) (int, error) {
	for {
		inspect, err := c.sdk.ContainerExecInspect(ctx, execID)
		if err != nil {
			return 0, errors.Wrap(err, "inspecting exec")
		}
		if !inspect.Running {
			return inspect.ExitCode, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(execPollInterval):
		}
	}
}
