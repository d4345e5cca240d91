package harness

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/cluster"
	"github.com/vvvy/webhdfs-itt/pkg/oracle"
	"github.com/vvvy/webhdfs-itt/pkg/script"
)

// Prepare takes the run from nothing to fully staged: reference file
// materialized, programs compiled, oracle files built, chunks cut, cluster
// addressed and seeded, exchange record written, marker set. A marker from
// an earlier invocation short-circuits the whole phase unless force is
// set, so re-running prepare performs no second upload.
func (h *Harness) Prepare(ctx context.Context, force bool) error {
	ctx, err := h.enter(ctx, "prepare", false)
	if err != nil {
		return err
	}
	return h.finish(h.prepare(ctx, force), StatePrepared)
}

func (h *Harness) prepare(ctx context.Context, force bool) error {
	if h.markerExists() && !force {
		log.Ctx(ctx).Info().Msg("working directory already prepared, nothing to do")
		return nil
	}

	if err := os.MkdirAll(h.cfg.Workdir, 0755); err != nil { //nolint:gosec
		return errors.Wrap(err, "creating working directory")
	}

	refPath, _, err := h.src.Materialize(ctx)
	if err != nil {
		return err
	}
	info, err := os.Stat(refPath)
	if err != nil {
		return errors.Wrap(err, "sizing reference file")
	}
	total := info.Size()
	log.Ctx(ctx).Info().
		Str("file", refPath).
		Str("size", datasize.ByteSize(total).HumanReadable()).
		Msg("reference file ready")

	readProgram, err := script.CompileRead(h.cfg.Scripts.Read, total)
	if err != nil {
		return err
	}
	writeProgram, err := script.CompileWrite(h.cfg.Scripts.Write, total)
	if err != nil {
		return err
	}

	// Oracle files are built before anything touches the cluster: a broken
	// program must fail here, not after an upload.
	manifest, err := oracle.BuildManifest(refPath, readProgram)
	if err != nil {
		return err
	}
	chunkPaths, err := oracle.MaterializeChunks(refPath, writeProgram, h.cfg.Workdir)
	if err != nil {
		return err
	}

	if _, err := h.resolveTopology(ctx); err != nil {
		return err
	}

	if err := h.dfs.MkdirP(ctx, h.cfg.Remote.Dir); err != nil {
		return err
	}
	ref, err := os.Open(refPath)
	if err != nil {
		return errors.Wrap(err, "opening reference file for upload")
	}
	err = h.dfs.Put(ctx, ref, h.remoteSource())
	ref.Close()
	if err != nil {
		return err
	}
	// The baseline digest is captured only after the upload completes so
	// it describes exactly the bytes the cluster stores.
	baseline, err := h.dfs.Checksum(ctx, h.remoteSource())
	if err != nil {
		return err
	}

	if err := manifest.Save(h.workpath(FileManifest)); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value string
	}{
		{FileSource, h.remoteSource()},
		{FileTarget, h.remoteTarget()},
		{FileSize, strconv.FormatInt(total, 10)},
		{FileReadProgram, readProgram.Render()},
		{FileWriteProgram, strings.Join(chunkPaths, " ")},
		{FileUser, h.cfg.Remote.User},
		{FileWriteDigest, baseline.Record()},
	}
	for _, field := range fields {
		if err := h.writeField(field.name, field.value); err != nil {
			return err
		}
	}

	if err := h.writeField(FileMarker, ""); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Int("reads", len(manifest.Entries)).
		Int("chunks", len(chunkPaths)).
		Msg("run prepared")
	return nil
}

// PrepareClusterOnly refreshes just the addressing artifacts (entry point
// and translation table), for reruns against a cluster whose host ports
// moved. It leaves the run state alone.
func (h *Harness) PrepareClusterOnly(ctx context.Context) error {
	_, err := h.resolveTopology(h.phaseCtx(ctx, "prepare-cluster-only"))
	return err
}

func (h *Harness) resolveTopology(ctx context.Context) (cluster.Topology, error) {
	topology, err := cluster.ResolveTopology(ctx, h.prov,
		h.cfg.Cluster.Nodes, h.cfg.Cluster.NamenodePort, h.cfg.Cluster.DatanodePort)
	if err != nil {
		return cluster.Topology{}, err
	}

	if err := os.MkdirAll(h.cfg.Workdir, 0755); err != nil { //nolint:gosec
		return cluster.Topology{}, errors.Wrap(err, "creating working directory")
	}
	if err := h.writeField(FileEntryPoint, topology.EntryPoint); err != nil {
		return cluster.Topology{}, err
	}
	if err := h.writeField(FileNatMap, topology.NatMap.Render()); err != nil {
		return cluster.Topology{}, err
	}
	return topology, nil
}
