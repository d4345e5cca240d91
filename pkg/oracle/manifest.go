package oracle

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// Entry pairs one read-output path with the digest its content must have.
type Entry struct {
	Path   string
	Digest string
}

// Manifest is the read-path oracle: the ordered list of output files the
// system under test must produce, each with the expected content digest.
type Manifest struct {
	Entries []Entry
}

// Save writes the manifest in md5sum text form, one `<digest>  <path>`
// line per entry, preserving program order.
func (m Manifest) Save(path string) error {
	var b strings.Builder
	for _, entry := range m.Entries {
		fmt.Fprintf(&b, "%s  %s\n", entry.Digest, entry.Path)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, "saving manifest")
	}
	return nil
}

// LoadManifest reads a manifest previously written by Save.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "loading manifest")
	}

	var manifest Manifest
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Manifest{}, models.NewBaseError("manifest %s line %d is malformed: %q", path, i+1, line).
				WithComponent("Oracle")
		}
		manifest.Entries = append(manifest.Entries, Entry{Digest: fields[0], Path: fields[1]})
	}
	return manifest, nil
}
