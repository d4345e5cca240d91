package harness

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/oracle"
	"github.com/vvvy/webhdfs-itt/pkg/verify"
)

// CreateVolatileInput stages the remote fixtures the system under test
// expects to exist before it runs: the volatile directory its removal
// operations act on, plus proactive deletion of any stale write target a
// previous run left behind, so leftovers cannot cause false negatives.
func (h *Harness) CreateVolatileInput(ctx context.Context) error {
	ctx, err := h.enter(ctx, "create-volatile-input", false)
	if err != nil {
		return err
	}
	return h.finish(h.createVolatileInput(ctx), StateInputReady)
}

func (h *Harness) createVolatileInput(ctx context.Context) error {
	if err := h.dfs.Rm(ctx, h.remoteTarget()); err != nil {
		return err
	}
	return h.dfs.MkdirP(ctx, h.remoteVolatile())
}

// InvokeSUT hands the prepared run to the system under test. The
// orchestrator contributes nothing beyond the exchange record on disk and
// the process environment; the exit code is the only signal back.
func (h *Harness) InvokeSUT(ctx context.Context) error {
	ctx, err := h.enter(ctx, "execute", false)
	if err != nil {
		return err
	}
	return h.finish(h.invokeSUT(ctx), StateExecuted)
}

func (h *Harness) invokeSUT(ctx context.Context) error {
	argv := h.cfg.SUT.Command
	if len(argv) == 0 {
		return models.NewBaseError("sut.command is not configured").
			WithHint("set sut.command to the argv that runs the system under test")
	}

	env := os.Environ()
	if h.cfg.SUT.EnvFile != "" {
		extra, err := godotenv.Read(h.cfg.SUT.EnvFile)
		if err != nil {
			return errors.Wrapf(err, "reading sut env file %s", h.cfg.SUT.EnvFile)
		}
		for k, v := range extra {
			env = append(env, k+"="+v)
		}
	}

	dir := h.cfg.SUT.Dir
	if dir == "" {
		dir = h.cfg.Workdir
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Ctx(ctx).Info().
		Strs("command", argv).
		Str("dir", dir).
		Msg("handing off to the system under test")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return models.NewBaseError("system under test exited with status %d", exitErr.ExitCode()).
				WithCode(models.ExternalCommandFailed).
				WithComponent("SUT")
		}
		return models.NewBaseError("starting system under test: %s", err).
			WithCode(models.ExternalCommandFailed).
			WithComponent("SUT")
	}
	return nil
}

// Validate checks every read output against the manifest and the write
// target against the baseline digest. Both sides always run to completion
// so one defect cannot mask another. After a fully successful validation
// the oracle files and the remote write target are consumed: manifest,
// outputs, and target are removed; everything stays put on failure.
func (h *Harness) Validate(ctx context.Context) ([]verify.ReadResult, error) {
	ctx, err := h.enter(ctx, "validate", false)
	if err != nil {
		return nil, err
	}
	results, err := h.validate(ctx)
	return results, h.finish(err, StateValidated)
}

func (h *Harness) validate(ctx context.Context) ([]verify.ReadResult, error) {
	manifest, err := oracle.LoadManifest(h.workpath(FileManifest))
	if err != nil {
		return nil, err
	}
	results, readErr := verify.Read(h.cfg.Workdir, manifest)

	baselineText, err := h.readField(FileWriteDigest)
	if err != nil {
		return results, err
	}
	baseline, err := models.ParseChecksumRecord(baselineText)
	if err != nil {
		return results, err
	}
	target, err := h.readField(FileTarget)
	if err != nil {
		return results, err
	}
	actual, writeErr := verify.Write(ctx, h.dfs, target, baseline)

	if readErr != nil || writeErr != nil {
		errs := new(multierror.Error)
		errs = multierror.Append(errs, readErr, writeErr)
		return results, errs.ErrorOrNil()
	}

	log.Ctx(ctx).Info().
		Int("reads", len(results)).
		Str("writeDigest", actual.Sum).
		Msg("validation passed")

	if err := h.dfs.Rm(ctx, target); err != nil {
		return results, err
	}
	if err := os.Remove(h.workpath(FileManifest)); err != nil {
		return results, errors.Wrap(err, "removing manifest")
	}
	for _, entry := range manifest.Entries {
		if err := os.Remove(h.workpath(filepath.FromSlash(entry.Path))); err != nil {
			return results, errors.Wrapf(err, "removing verified output %s", entry.Path)
		}
	}
	return results, nil
}

// CleanupOutput discards the run's outputs on both sides: the remote write
// target and the local output directory. Both steps tolerate the artifact
// being gone already.
func (h *Harness) CleanupOutput(ctx context.Context) error {
	ctx, err := h.enter(ctx, "cleanup-output", true)
	if err != nil {
		return err
	}
	return h.finish(h.cleanupOutput(ctx), StateCleanedUp)
}

func (h *Harness) cleanupOutput(ctx context.Context) error {
	errs := new(multierror.Error)
	errs = multierror.Append(errs, h.dfs.Rm(ctx, h.remoteTarget()))
	if err := os.RemoveAll(h.workpath(OutputDir)); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, "removing output directory"))
	}
	return errs.ErrorOrNil()
}

// CleanupAll tears down everything a run may have left behind in any
// partial state: remote artifacts, the exchange record, oracle files,
// chunks, the marker and a downloaded reference file. The sweep keeps
// going past individual failures and reports them all at once.
func (h *Harness) CleanupAll(ctx context.Context) error {
	ctx, err := h.enter(ctx, "cleanup-all", true)
	if err != nil {
		return err
	}
	return h.finish(h.cleanupAll(ctx), StateCleanedUp)
}

func (h *Harness) cleanupAll(ctx context.Context) error {
	errs := new(multierror.Error)

	errs = multierror.Append(errs, h.dfs.Rm(ctx, h.remoteTarget()))
	errs = multierror.Append(errs, h.dfs.Rm(ctx, h.remoteSource()))
	errs = multierror.Append(errs, h.dfs.RmR(ctx, h.remoteVolatile()))

	for _, dir := range []string{OutputDir, ChunksDir} {
		if err := os.RemoveAll(h.workpath(dir)); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "removing %s", dir))
		}
	}
	for _, name := range exchangeFields {
		if err := os.Remove(h.workpath(name)); err != nil && !os.IsNotExist(err) {
			errs = multierror.Append(errs, errors.Wrapf(err, "removing %s", name))
		}
	}

	errs = multierror.Append(errs, h.src.Release())

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Msg("all run artifacts removed")
	return nil
}

// Run drives the whole pipeline in order: prepare, stage volatile input,
// hand off, validate, discard outputs. It stops at the first failed phase,
// leaving artifacts in place; a failure is never followed by cleanup.
func (h *Harness) Run(ctx context.Context, force bool) ([]verify.ReadResult, error) {
	if err := h.Prepare(ctx, force); err != nil {
		return nil, err
	}
	if err := h.CreateVolatileInput(ctx); err != nil {
		return nil, err
	}
	if err := h.InvokeSUT(ctx); err != nil {
		return nil, err
	}
	results, err := h.Validate(ctx)
	if err != nil {
		return results, err
	}
	return results, h.CleanupOutput(ctx)
}
