//go:build unit || !integration

package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/oracle"
	"github.com/vvvy/webhdfs-itt/pkg/script"
)

type VerifyReadTestSuite struct {
	suite.Suite
	workdir  string
	manifest oracle.Manifest
	content  []byte
}

func (suite *VerifyReadTestSuite) SetupTest() {
	suite.workdir = suite.T().TempDir()
	suite.content = make([]byte, 500)
	for i := range suite.content {
		suite.content[i] = byte(3 * i)
	}
	refPath := filepath.Join(suite.workdir, "reference")
	require.NoError(suite.T(), os.WriteFile(refPath, suite.content, 0644))

	program, err := script.CompileRead("r:100 s:0 r:50 r:100", int64(len(suite.content)))
	require.NoError(suite.T(), err)
	suite.manifest, err = oracle.BuildManifest(refPath, program)
	require.NoError(suite.T(), err)
}

// writeOutput places output data where the system under test would.
func (suite *VerifyReadTestSuite) writeOutput(path string, data []byte) {
	full := filepath.Join(suite.workdir, filepath.FromSlash(path))
	require.NoError(suite.T(), os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(suite.T(), os.WriteFile(full, data, 0644))
}

func (suite *VerifyReadTestSuite) writeCorrectOutputs() {
	suite.writeOutput("out/r0", suite.content[0:100])
	suite.writeOutput("out/r1", suite.content[0:50])
	suite.writeOutput("out/r2", suite.content[50:150])
}

func (suite *VerifyReadTestSuite) TestAllOutputsCorrect() {
	suite.writeCorrectOutputs()

	results, err := Read(suite.workdir, suite.manifest)
	suite.NoError(err)
	suite.Require().Len(results, 3)
	for _, r := range results {
		suite.True(r.Match, "output %s should match", r.Path)
		suite.Equal(r.Expected, r.Actual)
	}
}

func (suite *VerifyReadTestSuite) TestCorruptOutput() {
	suite.writeCorrectOutputs()
	suite.writeOutput("out/r1", []byte("corrupted"))

	results, err := Read(suite.workdir, suite.manifest)
	suite.Error(err)
	suite.True(models.IsErrorWithCode(err, models.ReadVerificationFailed))
	suite.Contains(err.Error(), "out/r1")

	suite.Require().Len(results, 3, "every entry is checked even after a failure")
	suite.True(results[0].Match)
	suite.False(results[1].Match)
	suite.True(results[2].Match)
}

func (suite *VerifyReadTestSuite) TestMissingOutput() {
	suite.writeCorrectOutputs()
	require.NoError(suite.T(), os.Remove(filepath.Join(suite.workdir, "out", "r2")))

	results, err := Read(suite.workdir, suite.manifest)
	suite.Error(err)
	suite.True(models.IsErrorWithCode(err, models.ReadVerificationFailed))
	suite.Len(results, 3)
	suite.Empty(results[2].Actual)
}

func (suite *VerifyReadTestSuite) TestMultipleFailuresAllReported() {
	suite.writeCorrectOutputs()
	suite.writeOutput("out/r0", []byte("bad"))
	suite.writeOutput("out/r2", []byte("also bad"))

	var baseErr *models.BaseError
	_, err := Read(suite.workdir, suite.manifest)
	suite.Require().Error(err)
	suite.Require().ErrorAs(err, &baseErr)
	suite.Equal("2", baseErr.Details()["failed"])
	suite.Equal("3", baseErr.Details()["checked"])
	suite.Contains(err.Error(), "out/r0")
	suite.Contains(err.Error(), "out/r2")
}

func TestVerifyReadTestSuite(t *testing.T) {
	suite.Run(t, new(VerifyReadTestSuite))
}

type stubChecksummer struct {
	checksum models.Checksum
	err      error
	lastPath string
}

func (s *stubChecksummer) Checksum(_ context.Context, path string) (models.Checksum, error) {
	s.lastPath = path
	return s.checksum, s.err
}

func TestVerifyWrite(t *testing.T) {
	ctx := context.Background()
	baseline := models.Checksum{Algorithm: "MD5-of-0MD5-of-512CRC32C", Sum: "00000200ab"}

	t.Run("Match", func(t *testing.T) {
		remote := &stubChecksummer{checksum: models.Checksum{Path: "/itt/target", Algorithm: baseline.Algorithm, Sum: baseline.Sum}}
		actual, err := Write(ctx, remote, "/itt/target", baseline)
		require.NoError(t, err)
		require.Equal(t, "/itt/target", remote.lastPath)
		require.True(t, actual.Equal(baseline))
	})

	t.Run("DigestMismatch", func(t *testing.T) {
		remote := &stubChecksummer{checksum: models.Checksum{Algorithm: baseline.Algorithm, Sum: "ffff"}}
		actual, err := Write(ctx, remote, "/itt/target", baseline)
		require.Error(t, err)
		require.True(t, models.IsErrorWithCode(err, models.WriteVerificationFailed))
		require.Contains(t, err.Error(), baseline.Record())
		require.Contains(t, err.Error(), actual.Record())
	})

	t.Run("AlgorithmMismatch", func(t *testing.T) {
		remote := &stubChecksummer{checksum: models.Checksum{Algorithm: "MD5-of-0MD5-of-256CRC32C", Sum: baseline.Sum}}
		_, err := Write(ctx, remote, "/itt/target", baseline)
		require.Error(t, err)
		require.True(t, models.IsErrorWithCode(err, models.WriteVerificationFailed))
	})

	t.Run("ClusterFailure", func(t *testing.T) {
		remote := &stubChecksummer{err: models.NewBaseError("exec failed").WithCode(models.ExternalCommandFailed)}
		_, err := Write(ctx, remote, "/itt/target", baseline)
		require.Error(t, err)
		require.True(t, models.IsErrorWithCode(err, models.ExternalCommandFailed))
	})
}
