// Package source materializes the reference file a run digests, splits and
// uploads. The file can come from an earlier run's working directory, from a
// path the user already has on disk, or over HTTP.
package source

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

const (
	// markerSuffix tags a workdir reference file that Materialize fetched
	// itself, so Release never deletes a copy the user supplied.
	markerSuffix = ".downloaded"

	downloadRetryMax = 4
)

type Fetcher struct {
	workdir string
	cfg     types.SourceConfig
	client  *retryablehttp.Client
}

func NewFetcher(workdir string, cfg types.SourceConfig) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = downloadRetryMax
	client.Logger = retryLogger{}
	return &Fetcher{
		workdir: workdir,
		cfg:     cfg,
		client:  client,
	}
}

// Materialize returns the local path of the reference file, preferring an
// existing working directory copy, then a configured local path used in
// place, then a download. downloaded reports whether the returned file was
// fetched over HTTP by this or an earlier run, which is what Release keys on.
func (f *Fetcher) Materialize(ctx context.Context) (path string, downloaded bool, err error) {
	dest := filepath.Join(f.workdir, f.cfg.File)

	if _, statErr := os.Stat(dest); statErr == nil {
		log.Ctx(ctx).Debug().Str("path", dest).Msg("reusing reference file")
		return dest, f.markerExists(dest), nil
	} else if !os.IsNotExist(statErr) {
		return "", false, errors.Wrapf(statErr, "checking reference file %s", dest)
	}

	if f.cfg.Path != "" {
		if _, statErr := os.Stat(f.cfg.Path); statErr != nil {
			return "", false, models.NewBaseError(
				"configured reference file %s is not readable", f.cfg.Path).
				WithCode(models.SourceUnavailable).
				WithHint("check source.path or clear it to download instead")
		}
		log.Ctx(ctx).Debug().Str("path", f.cfg.Path).Msg("using reference file in place")
		return f.cfg.Path, false, nil
	}

	if f.cfg.URL == "" {
		return "", false, models.NewBaseError(
			"no reference source: %s does not exist and neither source.path nor source.url is set", dest).
			WithCode(models.SourceUnavailable)
	}

	if err := f.download(ctx, dest); err != nil {
		return "", false, err
	}
	return dest, true, nil
}

func (f *Fetcher) download(ctx context.Context, dest string) error {
	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return models.NewBaseError("source URL %q does not parse: %s", f.cfg.URL, err).
			WithCode(models.SourceUnavailable)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return errors.Wrap(err, "building download request")
	}

	log.Ctx(ctx).Info().Str("url", f.cfg.URL).Msg("downloading reference file")
	resp, err := f.client.Do(req)
	if err != nil {
		return models.NewBaseError("downloading %s: %s", f.cfg.URL, err).
			WithCode(models.SourceUnavailable).
			WithHint("place the reference file in the working directory to skip the download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NewBaseError("downloading %s: unexpected status %s", f.cfg.URL, resp.Status).
			WithCode(models.SourceUnavailable).
			WithDetail("status", resp.Status)
	}

	// The stock datasets are published gzipped; unpack in flight so the
	// workdir copy is the bytes the run digests.
	var body io.Reader = resp.Body
	if strings.HasSuffix(u.Path, ".gz") {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return models.NewBaseError("decompressing %s: %s", f.cfg.URL, gzErr).
				WithCode(models.SourceUnavailable)
		}
		defer gz.Close()
		body = gz
	}

	if err := os.MkdirAll(f.workdir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "creating working directory %s", f.workdir)
	}

	tmp, err := os.CreateTemp(f.workdir, ".fetch-*")
	if err != nil {
		return errors.Wrap(err, "creating download temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return models.NewBaseError("downloading %s: %s", f.cfg.URL, err).
			WithCode(models.SourceUnavailable)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "flushing download")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing download")
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return errors.Wrapf(err, "moving download into place at %s", dest)
	}
	if err := os.WriteFile(dest+markerSuffix, nil, os.FileMode(0o644)); err != nil {
		return errors.Wrap(err, "writing download marker")
	}

	log.Ctx(ctx).Info().
		Str("path", dest).
		Str("size", datasize.ByteSize(n).HumanReadable()).
		Msg("reference file ready")
	return nil
}

// Release deletes the workdir reference file if Materialize downloaded it.
// Files the user placed themselves, and in-place source.path files, are
// never touched.
func (f *Fetcher) Release() error {
	dest := filepath.Join(f.workdir, f.cfg.File)
	if !f.markerExists(dest) {
		return nil
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing downloaded reference file %s", dest)
	}
	if err := os.Remove(dest + markerSuffix); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing download marker")
	}
	return nil
}

func (f *Fetcher) markerExists(dest string) bool {
	_, err := os.Stat(dest + markerSuffix)
	return err == nil
}

// retryLogger routes retryablehttp's chatter to zerolog at debug.
type retryLogger struct{}

func (retryLogger) Printf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}
