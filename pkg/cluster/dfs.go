package cluster

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// coordinatorOrdinal is the node filesystem commands are issued on.
const coordinatorOrdinal = 1

// DFS runs filesystem commands against the cluster through the
// provisioner's exec channel, always under the configured user identity.
// It exists so the orchestrator can seed and inspect remote state without
// speaking the storage protocol itself; that protocol is exactly what the
// system under test is being tested on.
type DFS struct {
	provisioner Provisioner
	user        string
}

func NewDFS(p Provisioner, user string) *DFS {
	return &DFS{provisioner: p, user: user}
}

func (d *DFS) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := append([]string{"env", "HADOOP_USER_NAME=" + d.user, "hdfs", "dfs"}, args...)
	if stdin != nil {
		return d.provisioner.ExecInput(ctx, coordinatorOrdinal, stdin, cmd)
	}
	return d.provisioner.Exec(ctx, coordinatorOrdinal, cmd)
}

// MkdirP creates a remote directory and its parents.
func (d *DFS) MkdirP(ctx context.Context, path string) error {
	_, err := d.run(ctx, nil, "-mkdir", "-p", path)
	return err
}

// Put streams local content to a remote file, overwriting any previous
// one. The content never touches the node's disk on the way in.
func (d *DFS) Put(ctx context.Context, content io.Reader, path string) error {
	log.Ctx(ctx).Info().Str("path", path).Msg("uploading to cluster")
	_, err := d.run(ctx, content, "-put", "-f", "-", path)
	return err
}

// Rm removes a remote file. Absent files are not an error.
func (d *DFS) Rm(ctx context.Context, path string) error {
	_, err := d.run(ctx, nil, "-rm", "-f", "-skipTrash", path)
	return err
}

// RmR removes a remote directory tree. An absent tree is not an error.
func (d *DFS) RmR(ctx context.Context, path string) error {
	_, err := d.run(ctx, nil, "-rm", "-r", "-f", "-skipTrash", path)
	return err
}

// Checksum reports the cluster's own checksum of a remote file.
func (d *DFS) Checksum(ctx context.Context, path string) (models.Checksum, error) {
	out, err := d.run(ctx, nil, "-checksum", path)
	if err != nil {
		return models.Checksum{}, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			return models.ParseChecksumLine(line)
		}
	}
	return models.Checksum{}, models.NewBaseError("checksum of %s produced no output", path).
		WithCode(models.ExternalCommandFailed).
		WithComponent("Cluster")
}
