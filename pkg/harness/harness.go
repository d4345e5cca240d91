// Package harness drives one integration-test run through its phases:
// prepare the inputs and the cluster, stage volatile fixtures, hand off to
// the system under test, validate what it produced, clean up. The
// controller is strictly sequential; every phase is a blocking series of
// file operations and external commands. A failed phase leaves all
// artifacts in place for diagnosis, and recovery is always an explicit
// cleanup invocation, never automatic.
package harness

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/cluster"
	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/logger"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// State is where a run currently stands. Transitions only move forward;
// StateFailed is terminal and only the cleanup phases will run from it.
type State string

const (
	StateUninitialized State = "Uninitialized"
	StatePrepared      State = "Prepared"
	StateInputReady    State = "InputReady"
	StateExecuted      State = "Executed"
	StateValidated     State = "Validated"
	StateCleanedUp     State = "CleanedUp"
	StateFailed        State = "Failed"
)

// Exchange record files, all directly below the working directory. The
// system under test parses these, so names and formats are a contract.
// Single-value files carry no trailing newline because consumers use the
// raw file contents as the value.
const (
	FileEntryPoint   = "entrypoint"
	FileNatMap       = "natmap"
	FileSource       = "source"
	FileTarget       = "target"
	FileSize         = "size"
	FileReadProgram  = "program"
	FileWriteProgram = "wprogram"
	FileUser         = "user"
	FileManifest     = "manifest"
	FileWriteDigest  = "write-digest"
	FileMarker       = "prepared"

	// OutputDir receives the system under test's read outputs; ChunksDir
	// holds the materialized write chunks.
	OutputDir = "out"
	ChunksDir = "chunks"

	// remoteVolatileDir is the fixture directory the system under test's
	// removal operations expect to find, relative to the remote test dir.
	remoteVolatileDir = "volatile"

	// remoteTargetSuffix derives the write-target name from the uploaded
	// source name.
	remoteTargetSuffix = ".w"
)

// exchangeFields lists every single-file artifact prepare creates, in the
// order cleanup removes them.
var exchangeFields = []string{
	FileEntryPoint,
	FileNatMap,
	FileSource,
	FileTarget,
	FileSize,
	FileReadProgram,
	FileWriteProgram,
	FileUser,
	FileManifest,
	FileWriteDigest,
	FileMarker,
}

// SourceFetcher is the slice of pkg/source the controller depends on.
type SourceFetcher interface {
	Materialize(ctx context.Context) (path string, downloaded bool, err error)
	Release() error
}

// Harness owns one run against one working directory. Concurrent runs
// against the same directory are undefined; serializing them is the
// caller's job.
type Harness struct {
	cfg   types.Config
	prov  cluster.Provisioner
	dfs   *cluster.DFS
	src   SourceFetcher
	state State
	runID string
}

func New(cfg types.Config, prov cluster.Provisioner, src SourceFetcher) *Harness {
	return &Harness{
		cfg:   cfg,
		prov:  prov,
		dfs:   cluster.NewDFS(prov, cfg.Remote.User),
		src:   src,
		state: StateUninitialized,
		runID: uuid.NewString(),
	}
}

func (h *Harness) State() State {
	return h.state
}

func (h *Harness) RunID() string {
	return h.runID
}

// enter guards the transition into a phase and stamps the context logger
// with the run and phase. Cleanup phases pass recovery=true: they are the
// explicit way out of StateFailed, everything else refuses to run after a
// failure.
func (h *Harness) enter(ctx context.Context, phase string, recovery bool) (context.Context, error) {
	if h.state == StateFailed && !recovery {
		return ctx, models.NewBaseError("run is in state %s", h.state).
			WithHint("inspect the working directory, then run cleanup-all before retrying")
	}
	return h.phaseCtx(ctx, phase), nil
}

func (h *Harness) phaseCtx(ctx context.Context, phase string) context.Context {
	ctx = logger.ContextWithRunIDLogger(ctx, h.runID)
	lg := log.Ctx(ctx).With().Str("phase", phase).Logger()
	return lg.WithContext(ctx)
}

// finish records the transition's outcome: forward on success, StateFailed
// on error. The error passes through untouched.
func (h *Harness) finish(err error, to State) error {
	if err != nil {
		h.state = StateFailed
		return err
	}
	h.state = to
	return nil
}

func (h *Harness) workpath(name string) string {
	return filepath.Join(h.cfg.Workdir, name)
}

func (h *Harness) remoteSource() string {
	return path.Join(h.cfg.Remote.Dir, h.cfg.Source.File)
}

func (h *Harness) remoteTarget() string {
	return h.remoteSource() + remoteTargetSuffix
}

func (h *Harness) remoteVolatile() string {
	return path.Join(h.cfg.Remote.Dir, remoteVolatileDir)
}

func (h *Harness) markerExists() bool {
	_, err := os.Stat(h.workpath(FileMarker))
	return err == nil
}

func (h *Harness) writeField(name, value string) error {
	if err := os.WriteFile(h.workpath(name), []byte(value), 0644); err != nil { //nolint:gosec
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}

func (h *Harness) readField(name string) (string, error) {
	raw, err := os.ReadFile(h.workpath(name))
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", name)
	}
	return strings.TrimSpace(string(raw)), nil
}
