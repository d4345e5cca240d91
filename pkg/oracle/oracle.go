// Package oracle derives the expected outcomes of a test run from the
// local reference file: a digest manifest for the read path and the chunk
// files the write path will upload. Both walk the reference file with the
// same cursor semantics the system under test applies remotely.
package oracle

import (
	"crypto/md5" //nolint:gosec // content fingerprinting, not security
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/script"
)

// BuildManifest replays the compiled read program against the reference
// file: a seek sets the cursor, a read digests exactly its resolved length
// starting at the cursor and then advances it. Any read whose range would
// cross the end of the file fails with ReadPastEndOfFile before a single
// byte is digested, so broken programs never reach the cluster.
func BuildManifest(refPath string, program script.ReadProgram) (Manifest, error) {
	f, err := os.Open(refPath)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "opening reference file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Manifest{}, errors.Wrap(err, "sizing reference file")
	}
	size := info.Size()

	var manifest Manifest
	var cursor int64
	for _, instr := range program.Instructions {
		switch instr.Kind {
		case script.Seek:
			cursor = instr.Arg
		case script.Read:
			if cursor+instr.Arg > size {
				return Manifest{}, models.NewBaseError(
					"read %d of %d bytes at offset %d crosses the end of the %d-byte reference file",
					instr.Seq, instr.Arg, cursor, size).
					WithCode(models.ReadPastEndOfFile).
					WithComponent("Oracle").
					WithDetail("output", instr.Out)
			}
			digest, err := digestSection(f, cursor, instr.Arg)
			if err != nil {
				return Manifest{}, errors.Wrapf(err, "digesting read %d", instr.Seq)
			}
			manifest.Entries = append(manifest.Entries, Entry{Path: instr.Out, Digest: digest})
			cursor += instr.Arg
		}
	}
	return manifest, nil
}

// MaterializeChunks extracts every chunk of the compiled write program
// into its file below dir, creating the chunk directory as needed.
// Zero-length chunks become empty files. It returns the
// working-directory relative chunk paths in split-point order.
func MaterializeChunks(refPath string, program script.WriteProgram, dir string) ([]string, error) {
	f, err := os.Open(refPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening reference file")
	}
	defer f.Close()

	chunks := program.Chunks()
	paths := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		target := filepath.Join(dir, filepath.FromSlash(chunk.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil { //nolint:gosec
			return nil, errors.Wrap(err, "creating chunk directory")
		}
		if err := extractSection(f, chunk.Start, chunk.End-chunk.Start, target); err != nil {
			return nil, errors.Wrapf(err, "materializing chunk %s", chunk.Path)
		}
		paths = append(paths, chunk.Path)
	}
	return paths, nil
}

// DigestFile returns the hex digest of a whole file, in the same form the
// manifest stores.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file for digest")
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "digesting file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestSection(f *os.File, offset, length int64) (string, error) {
	h := md5.New() //nolint:gosec
	n, err := io.Copy(h, io.NewSectionReader(f, offset, length))
	if err != nil {
		return "", err
	}
	if n != length {
		return "", errors.Errorf("short read: %d of %d bytes", n, length)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func extractSection(f *os.File, offset, length int64, target string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.NewSectionReader(f, offset, length))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n != length {
		return errors.Errorf("short copy: %d of %d bytes", n, length)
	}
	return nil
}
