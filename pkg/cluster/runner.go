package cluster

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

const stderrTailLimit = 2048

// runCommand shells out to an external tool, returning its stdout. Exit
// codes other than zero fail with ExternalCommandFailed carrying the tail
// of stderr. stdin may be nil.
func runCommand(ctx context.Context, dir string, stdin io.Reader, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Ctx(ctx).Debug().
		Str("command", name).
		Strs("args", args).
		Msg("running external command")

	if err := cmd.Run(); err != nil {
		return "", models.NewBaseError("%s %s: %s", name, strings.Join(args, " "), err).
			WithCode(models.ExternalCommandFailed).
			WithComponent("Cluster").
			WithDetail("stderr", tail(stderr.String(), stderrTailLimit))
	}
	return stdout.String(), nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
