package models

import (
	"fmt"
	"strings"
)

// Checksum is the structured form of one `hdfs dfs -checksum` report line.
// Comparisons are structural: two checksums match when both the algorithm
// name and the digest match, regardless of which path produced them.
type Checksum struct {
	// Path inside the remote filesystem the checksum was computed for.
	// Informational only; not part of equality.
	Path string

	// Algorithm as reported by the cluster, e.g. "MD5-of-0MD5-of-512CRC32C".
	Algorithm string

	// Sum is the hex-encoded digest.
	Sum string
}

// ParseChecksumLine parses the whitespace-separated
// `<path> <algorithm> <hex>` line emitted by `hdfs dfs -checksum`.
func ParseChecksumLine(line string) (Checksum, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 {
		return Checksum{}, NewBaseError("malformed checksum line %q: want 3 fields, got %d", line, len(fields)).
			WithCode(ExternalCommandFailed).
			WithComponent("Cluster")
	}
	return Checksum{Path: fields[0], Algorithm: fields[1], Sum: fields[2]}, nil
}

// ParseChecksumRecord parses the stored `<algorithm> <hex>` form produced
// by Checksum.Record.
func ParseChecksumRecord(text string) (Checksum, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		return Checksum{}, NewBaseError("malformed checksum record %q: want 2 fields, got %d", text, len(fields))
	}
	return Checksum{Algorithm: fields[0], Sum: fields[1]}, nil
}

// Record renders the path-free persistent form, `<algorithm> <hex>`.
func (c Checksum) Record() string {
	return fmt.Sprintf("%s %s", c.Algorithm, c.Sum)
}

// Equal reports whether two checksums agree on algorithm and digest.
func (c Checksum) Equal(other Checksum) bool {
	return c.Algorithm == other.Algorithm && c.Sum == other.Sum
}

func (c Checksum) String() string {
	return c.Record()
}
