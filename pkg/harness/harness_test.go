//go:build unit || !integration

package harness

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vvvy/webhdfs-itt/pkg/cluster"
	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/logger"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// canned cluster checksum reply, shaped like hdfs dfs -checksum output
const (
	fakeChecksumAlgorithm = "MD5-of-0MD5-of-512CRC32C"
	fakeChecksumSum       = "000002000000000000000000729a3eb1ba577e1a2a2e4dca978ddcc1"
)

// fakeBackend records every cluster command and serves canned replies:
// uploads are captured, checksum queries answer with a fixed record unless
// a per-path override is set.
type fakeBackend struct {
	execCalls [][]string
	uploads   map[string]string
	checksums map[string]string
	unexposed map[int]bool
	failOn    string
	failErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		uploads:   map[string]string{},
		checksums: map[string]string{},
		unexposed: map[int]bool{},
	}
}

func (f *fakeBackend) Up(context.Context) error   { return nil }
func (f *fakeBackend) Down(context.Context) error { return nil }

func (f *fakeBackend) Exec(_ context.Context, _ int, cmd []string) (string, error) {
	return f.record(nil, cmd)
}

func (f *fakeBackend) ExecInput(_ context.Context, _ int, stdin io.Reader, cmd []string) (string, error) {
	return f.record(stdin, cmd)
}

func (f *fakeBackend) record(stdin io.Reader, cmd []string) (string, error) {
	f.execCalls = append(f.execCalls, cmd)
	joined := strings.Join(cmd, " ")
	if f.failOn != "" && strings.Contains(joined, f.failOn) {
		return "", f.failErr
	}
	path := cmd[len(cmd)-1]
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		f.uploads[path] = string(data)
	}
	if strings.Contains(joined, "-checksum") {
		if line, ok := f.checksums[path]; ok {
			return line, nil
		}
		return fmt.Sprintf("%s\t%s\t%s", path, fakeChecksumAlgorithm, fakeChecksumSum), nil
	}
	return "", nil
}

func (f *fakeBackend) HostnameOf(ordinal int) string {
	return fmt.Sprintf("node%d", ordinal)
}

func (f *fakeBackend) HostAddressOf(_ context.Context, ordinal int, port int) (string, error) {
	if f.unexposed[port] {
		return "", models.NewBaseError("port %d not exposed", port).
			WithCode(models.PortNotExposed)
	}
	return fmt.Sprintf("localhost:%d", port+1000*ordinal), nil
}

func (f *fakeBackend) countCalls(substr string) int {
	n := 0
	for _, cmd := range f.execCalls {
		if strings.Contains(strings.Join(cmd, " "), substr) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) callIndex(substr string) int {
	for i, cmd := range f.execCalls {
		if strings.Contains(strings.Join(cmd, " "), substr) {
			return i
		}
	}
	return -1
}

// countCallsSuffix counts commands ending exactly in suffix, so a path
// assertion cannot also match its ".w" sibling.
func (f *fakeBackend) countCallsSuffix(suffix string) int {
	n := 0
	for _, cmd := range f.execCalls {
		if strings.HasSuffix(strings.Join(cmd, " "), suffix) {
			n++
		}
	}
	return n
}

var _ cluster.Provisioner = (*fakeBackend)(nil)

type fakeSource struct {
	path         string
	downloaded   bool
	err          error
	materialized int
	released     int
}

func (f *fakeSource) Materialize(context.Context) (string, bool, error) {
	f.materialized++
	if f.err != nil {
		return "", false, f.err
	}
	return f.path, f.downloaded, nil
}

func (f *fakeSource) Release() error {
	f.released++
	return nil
}

type HarnessTestSuite struct {
	suite.Suite
	ctx     context.Context
	workdir string
	content []byte
	backend *fakeBackend
	source  *fakeSource
	cfg     types.Config
}

func (suite *HarnessTestSuite) SetupTest() {
	logger.ConfigureTestLogging(suite.T())
	suite.ctx = context.Background()
	suite.workdir = suite.T().TempDir()

	suite.content = make([]byte, 1000)
	for i := range suite.content {
		suite.content[i] = byte(3*i + 11)
	}
	refPath := filepath.Join(suite.T().TempDir(), "ref.bin")
	require.NoError(suite.T(), os.WriteFile(refPath, suite.content, 0644))

	suite.backend = newFakeBackend()
	suite.source = &fakeSource{path: refPath}
	suite.cfg = types.Config{
		Workdir: suite.workdir,
		Source:  types.SourceConfig{File: "ref.bin"},
		Remote:  types.RemoteConfig{Dir: "/itt", User: "root"},
		Cluster: types.ClusterConfig{
			Backend:      types.BackendCompose,
			Nodes:        3,
			NamenodePort: 50070,
			DatanodePort: 50075,
		},
		Scripts: types.ScriptsConfig{Read: "r:100 s:0 r:50", Write: "0 10% 50% 70%"},
		SUT:     types.SUTConfig{Command: []string{"true"}},
	}
}

func (suite *HarnessTestSuite) newHarness() *Harness {
	return New(suite.cfg, suite.backend, suite.source)
}

func (suite *HarnessTestSuite) field(name string) string {
	raw, err := os.ReadFile(filepath.Join(suite.workdir, name))
	require.NoError(suite.T(), err)
	return string(raw)
}

func (suite *HarnessTestSuite) digest(from, to int) string {
	sum := md5.Sum(suite.content[from:to]) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func (suite *HarnessTestSuite) writeOutput(name string, content []byte) {
	path := filepath.Join(suite.workdir, OutputDir, name)
	require.NoError(suite.T(), os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(suite.T(), os.WriteFile(path, content, 0644))
}

func (suite *HarnessTestSuite) TestPrepareStagesEverything() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.Equal(StatePrepared, h.State())

	suite.Equal("localhost:51070", suite.field(FileEntryPoint))
	suite.Equal("/itt/ref.bin", suite.field(FileSource))
	suite.Equal("/itt/ref.bin.w", suite.field(FileTarget))
	suite.Equal("1000", suite.field(FileSize))
	suite.Equal("r:100:out/r0 s:0 r:50:out/r1", suite.field(FileReadProgram))
	suite.Equal("chunks/w0 chunks/w1 chunks/w2 chunks/w3", suite.field(FileWriteProgram))
	suite.Equal("root", suite.field(FileUser))
	suite.Equal(fakeChecksumAlgorithm+" "+fakeChecksumSum, suite.field(FileWriteDigest))

	suite.Equal(
		"node1:50070=localhost:51070\n"+
			"node1:50075=localhost:51075\n"+
			"node2:50075=localhost:52075\n"+
			"node3:50075=localhost:53075\n",
		suite.field(FileNatMap))

	suite.Equal(
		fmt.Sprintf("%s  out/r0\n%s  out/r1\n", suite.digest(0, 100), suite.digest(0, 50)),
		suite.field(FileManifest))

	for i, want := range []int{100, 400, 200, 300} {
		info, err := os.Stat(filepath.Join(suite.workdir, ChunksDir, fmt.Sprintf("w%d", i)))
		suite.Require().NoError(err)
		suite.EqualValues(want, info.Size(), "chunk w%d", i)
	}
	chunk, err := os.ReadFile(filepath.Join(suite.workdir, ChunksDir, "w1"))
	suite.Require().NoError(err)
	suite.Equal(suite.content[100:500], chunk)

	suite.Equal(string(suite.content), suite.backend.uploads["/itt/ref.bin"])

	mkdir := suite.backend.callIndex("-mkdir -p /itt")
	put := suite.backend.callIndex("-put")
	checksum := suite.backend.callIndex("-checksum")
	suite.True(mkdir >= 0 && put > mkdir && checksum > put,
		"remote dir, upload and baseline digest must happen in that order")

	_, err = os.Stat(filepath.Join(suite.workdir, FileMarker))
	suite.NoError(err)
}

func (suite *HarnessTestSuite) TestPrepareIsIdempotent() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	manifestBefore := suite.field(FileManifest)

	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.Equal(1, suite.backend.countCalls("-put"), "re-prepare must not upload again")
	suite.Equal(manifestBefore, suite.field(FileManifest))

	suite.Require().NoError(h.Prepare(suite.ctx, true))
	suite.Equal(2, suite.backend.countCalls("-put"), "forced prepare re-uploads")
}

func (suite *HarnessTestSuite) TestPrepareFailsBeforeTouchingCluster() {
	suite.cfg.Scripts.Read = "r:2000"
	h := suite.newHarness()

	err := h.Prepare(suite.ctx, false)
	suite.True(models.IsErrorWithCode(err, models.ReadPastEndOfFile))
	suite.Equal(StateFailed, h.State())
	suite.Empty(suite.backend.execCalls, "a broken program must fail before any cluster command")

	// a failed run refuses further phases until cleaned up
	suite.Error(h.Prepare(suite.ctx, false))
	_, err = h.Validate(suite.ctx)
	suite.Error(err)
}

func (suite *HarnessTestSuite) TestPrepareUnexposedPort() {
	suite.backend.unexposed[50075] = true
	h := suite.newHarness()

	err := h.Prepare(suite.ctx, false)
	suite.True(models.IsErrorWithCode(err, models.PortNotExposed))
	suite.Equal(StateFailed, h.State())

	_, statErr := os.Stat(filepath.Join(suite.workdir, FileNatMap))
	suite.True(os.IsNotExist(statErr), "no partial translation table may be written")
}

func (suite *HarnessTestSuite) TestPrepareClusterOnly() {
	h := suite.newHarness()
	suite.Require().NoError(h.PrepareClusterOnly(suite.ctx))

	suite.Equal("localhost:51070", suite.field(FileEntryPoint))
	suite.Equal(4, len(strings.Split(strings.TrimSpace(suite.field(FileNatMap)), "\n")))

	// only the topology artifacts are refreshed
	suite.Equal(StateUninitialized, h.State())
	suite.Equal(0, suite.backend.countCalls("-put"))
	_, statErr := os.Stat(filepath.Join(suite.workdir, FileMarker))
	suite.True(os.IsNotExist(statErr))
}

func (suite *HarnessTestSuite) TestCreateVolatileInput() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.Require().NoError(h.CreateVolatileInput(suite.ctx))
	suite.Equal(StateInputReady, h.State())

	rm := suite.backend.callIndex("-rm -f -skipTrash /itt/ref.bin.w")
	mkdir := suite.backend.callIndex("-mkdir -p /itt/volatile")
	suite.True(rm >= 0, "stale write target must be removed")
	suite.True(mkdir > rm, "volatile fixture created after target removal")
}

func (suite *HarnessTestSuite) TestInvokeSUTRunsInWorkdir() {
	suite.cfg.SUT.Command = []string{"sh", "-c", "test -f prepared"}
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.Require().NoError(h.InvokeSUT(suite.ctx))
	suite.Equal(StateExecuted, h.State())
}

func (suite *HarnessTestSuite) TestInvokeSUTExitStatus() {
	suite.cfg.SUT.Command = []string{"sh", "-c", "exit 3"}
	h := suite.newHarness()

	err := h.InvokeSUT(suite.ctx)
	suite.True(models.IsErrorWithCode(err, models.ExternalCommandFailed))
	suite.Contains(err.Error(), "status 3")
	suite.Equal(StateFailed, h.State())
}

func (suite *HarnessTestSuite) TestInvokeSUTUnconfigured() {
	suite.cfg.SUT.Command = nil
	h := suite.newHarness()
	suite.Error(h.InvokeSUT(suite.ctx))
}

func (suite *HarnessTestSuite) TestInvokeSUTEnvFile() {
	envFile := filepath.Join(suite.T().TempDir(), "sut.env")
	require.NoError(suite.T(), os.WriteFile(envFile, []byte("ITT_TEST_SENTINEL=xyzzy\n"), 0644))

	suite.cfg.SUT.EnvFile = envFile
	suite.cfg.SUT.Command = []string{"sh", "-c", `test "$ITT_TEST_SENTINEL" = xyzzy`}
	h := suite.newHarness()
	suite.NoError(h.InvokeSUT(suite.ctx))
}

func (suite *HarnessTestSuite) TestInvokeSUTDirOverride() {
	suite.cfg.SUT.Dir = suite.T().TempDir()
	suite.cfg.SUT.Command = []string{"sh", "-c", "test ! -f prepared"}
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.NoError(h.InvokeSUT(suite.ctx))
}

func (suite *HarnessTestSuite) TestValidatePasses() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.writeOutput("r0", suite.content[:100])
	suite.writeOutput("r1", suite.content[:50])

	results, err := h.Validate(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(StateValidated, h.State())
	suite.Require().Len(results, 2)
	for _, result := range results {
		suite.True(result.Match, "entry %s", result.Path)
	}

	// validated artifacts are consumed
	suite.Equal(1, suite.backend.countCalls("-rm -f -skipTrash /itt/ref.bin.w"))
	_, statErr := os.Stat(filepath.Join(suite.workdir, FileManifest))
	suite.True(os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(suite.workdir, OutputDir, "r0"))
	suite.True(os.IsNotExist(statErr))
}

func (suite *HarnessTestSuite) TestValidateReadCorruption() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	corrupted := append([]byte{}, suite.content[:50]...)
	corrupted[49] ^= 0xFF
	suite.writeOutput("r0", suite.content[:100])
	suite.writeOutput("r1", corrupted)

	results, err := h.Validate(suite.ctx)
	suite.True(models.IsErrorWithCode(err, models.ReadVerificationFailed))
	suite.Equal(StateFailed, h.State())
	suite.Require().Len(results, 2)
	suite.True(results[0].Match)
	suite.False(results[1].Match)

	// nothing is consumed on failure
	_, statErr := os.Stat(filepath.Join(suite.workdir, FileManifest))
	suite.NoError(statErr)
	_, statErr = os.Stat(filepath.Join(suite.workdir, OutputDir, "r1"))
	suite.NoError(statErr)
}

func (suite *HarnessTestSuite) TestValidateMissingOutput() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.writeOutput("r0", suite.content[:100])

	_, err := h.Validate(suite.ctx)
	suite.True(models.IsErrorWithCode(err, models.ReadVerificationFailed))
}

func (suite *HarnessTestSuite) TestValidateWriteMismatch() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.writeOutput("r0", suite.content[:100])
	suite.writeOutput("r1", suite.content[:50])
	suite.backend.checksums["/itt/ref.bin.w"] = fmt.Sprintf(
		"/itt/ref.bin.w\t%s\tffff02000000000000000000000000000000000000000000deadbeef", fakeChecksumAlgorithm)

	results, err := h.Validate(suite.ctx)
	suite.True(models.IsErrorWithCode(err, models.WriteVerificationFailed))
	suite.Equal(StateFailed, h.State())
	// the read side still ran to completion
	suite.Require().Len(results, 2)
	suite.True(results[0].Match)
	suite.True(results[1].Match)
}

func (suite *HarnessTestSuite) TestCleanupOutput() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.writeOutput("r0", suite.content[:100])

	suite.Require().NoError(h.CleanupOutput(suite.ctx))
	suite.Equal(StateCleanedUp, h.State())
	suite.True(suite.backend.countCalls("-rm -f -skipTrash /itt/ref.bin.w") >= 1)
	_, statErr := os.Stat(filepath.Join(suite.workdir, OutputDir))
	suite.True(os.IsNotExist(statErr))

	// removing twice never errors
	suite.NoError(h.CleanupOutput(suite.ctx))
}

func (suite *HarnessTestSuite) TestCleanupAllSweeps() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))
	suite.writeOutput("r0", suite.content[:100])

	suite.Require().NoError(h.CleanupAll(suite.ctx))
	suite.Equal(StateCleanedUp, h.State())

	for _, name := range exchangeFields {
		_, statErr := os.Stat(filepath.Join(suite.workdir, name))
		suite.True(os.IsNotExist(statErr), "%s must be removed", name)
	}
	for _, dir := range []string{OutputDir, ChunksDir} {
		_, statErr := os.Stat(filepath.Join(suite.workdir, dir))
		suite.True(os.IsNotExist(statErr), "%s must be removed", dir)
	}
	suite.Equal(1, suite.source.released)
	suite.Equal(1, suite.backend.countCallsSuffix("-rm -f -skipTrash /itt/ref.bin.w"))
	suite.Equal(1, suite.backend.countCallsSuffix("-rm -f -skipTrash /itt/ref.bin"))
	suite.Equal(1, suite.backend.countCallsSuffix("-rm -r -f -skipTrash /itt/volatile"))

	// sweeping an already clean directory is fine
	suite.NoError(h.CleanupAll(suite.ctx))
}

func (suite *HarnessTestSuite) TestCleanupAllKeepsSweepingPastFailures() {
	h := suite.newHarness()
	suite.Require().NoError(h.Prepare(suite.ctx, false))

	suite.backend.failOn = "-rm -r"
	suite.backend.failErr = models.NewBaseError("cluster unreachable").
		WithCode(models.ExternalCommandFailed)

	err := h.CleanupAll(suite.ctx)
	suite.Error(err, "remote failure must be reported")
	suite.Equal(1, suite.source.released, "local sweep continues past remote failures")
	_, statErr := os.Stat(filepath.Join(suite.workdir, FileMarker))
	suite.True(os.IsNotExist(statErr))
}

func (suite *HarnessTestSuite) TestRunPipeline() {
	suite.cfg.Scripts.Read = "s:0"
	h := suite.newHarness()

	results, err := h.Run(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(results)
	suite.Equal(StateCleanedUp, h.State())
	suite.Equal(1, suite.backend.countCalls("-put"))
}

func (suite *HarnessTestSuite) TestRunStopsAtFailedHandoff() {
	suite.cfg.SUT.Command = []string{"false"}
	h := suite.newHarness()

	_, err := h.Run(suite.ctx, false)
	suite.True(models.IsErrorWithCode(err, models.ExternalCommandFailed))
	suite.Equal(StateFailed, h.State())

	// no validation, no cleanup: artifacts stay for diagnosis
	suite.Equal(0, suite.backend.countCalls("-checksum /itt/ref.bin.w"))
	_, statErr := os.Stat(filepath.Join(suite.workdir, ChunksDir))
	suite.NoError(statErr)
}

func TestHarnessTestSuite(t *testing.T) {
	suite.Run(t, new(HarnessTestSuite))
}
