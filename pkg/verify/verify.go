// Package verify checks a completed run: every read output against the
// digest manifest, and the uploaded target against the baseline cluster
// checksum. All entries are always checked; failures are aggregated and
// reported together rather than aborting at the first mismatch.
package verify

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/oracle"
)

// ReadResult is the outcome for a single manifest entry.
type ReadResult struct {
	Path     string
	Expected string
	Actual   string
	Match    bool
}

// Read digests every output file named by the manifest below workdir and
// compares it against the expected digest. The returned results cover all
// entries in manifest order. When any entry is missing or mismatched the
// error is a ReadVerificationFailed carrying every offence.
func Read(workdir string, manifest oracle.Manifest) ([]ReadResult, error) {
	errs := new(multierror.Error)
	results := make([]ReadResult, 0, len(manifest.Entries))
	for _, entry := range manifest.Entries {
		actual, err := oracle.DigestFile(filepath.Join(workdir, filepath.FromSlash(entry.Path)))
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "output %s", entry.Path))
			results = append(results, ReadResult{Path: entry.Path, Expected: entry.Digest})
			continue
		}
		match := actual == entry.Digest
		if !match {
			errs = multierror.Append(errs, errors.Errorf("output %s: digest %s, want %s", entry.Path, actual, entry.Digest))
		}
		results = append(results, ReadResult{Path: entry.Path, Expected: entry.Digest, Actual: actual, Match: match})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return results, models.NewBaseError("read verification failed: %s", err).
			WithCode(models.ReadVerificationFailed).
			WithComponent("Validator").
			WithDetail("failed", strconv.Itoa(len(errs.Errors))).
			WithDetail("checked", strconv.Itoa(len(manifest.Entries)))
	}
	return results, nil
}

// RemoteChecksummer reports the cluster-side checksum of a remote path.
type RemoteChecksummer interface {
	Checksum(ctx context.Context, path string) (models.Checksum, error)
}

// Write fetches the cluster checksum of the uploaded target and compares
// it structurally against the baseline captured at prepare time. The
// actual checksum is returned either way so callers can report it.
func Write(ctx context.Context, remote RemoteChecksummer, target string, baseline models.Checksum) (models.Checksum, error) {
	actual, err := remote.Checksum(ctx, target)
	if err != nil {
		return models.Checksum{}, errors.Wrapf(err, "fetching cluster checksum of %s", target)
	}
	if !actual.Equal(baseline) {
		return actual, models.NewBaseError("write verification failed: target %s has checksum %q, baseline is %q", target, actual.Record(), baseline.Record()).
			WithCode(models.WriteVerificationFailed).
			WithComponent("Validator").
			WithHint("the system under test did not reassemble the chunks into an identical file")
	}
	return actual, nil
}
