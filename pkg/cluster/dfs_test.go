//go:build unit || !integration

package cluster

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

func TestDFSCommandShape(t *testing.T) {
	p := newFakeProvisioner()
	d := NewDFS(p, "hdfs-user")
	ctx := context.Background()

	require.NoError(t, d.MkdirP(ctx, "/itt"))
	require.NoError(t, d.Rm(ctx, "/itt/target"))
	require.NoError(t, d.RmR(ctx, "/itt/volatile"))

	require.Equal(t, [][]string{
		{"env", "HADOOP_USER_NAME=hdfs-user", "hdfs", "dfs", "-mkdir", "-p", "/itt"},
		{"env", "HADOOP_USER_NAME=hdfs-user", "hdfs", "dfs", "-rm", "-f", "-skipTrash", "/itt/target"},
		{"env", "HADOOP_USER_NAME=hdfs-user", "hdfs", "dfs", "-rm", "-r", "-f", "-skipTrash", "/itt/volatile"},
	}, p.execCalls)
}

func TestDFSPutStreamsContent(t *testing.T) {
	p := newFakeProvisioner()
	d := NewDFS(p, "root")

	require.NoError(t, d.Put(context.Background(), strings.NewReader("file-content"), "/itt/source"))

	require.Len(t, p.stdins, 1)
	require.Equal(t, "file-content", p.stdins[0])
	require.Equal(t,
		[]string{"env", "HADOOP_USER_NAME=root", "hdfs", "dfs", "-put", "-f", "-", "/itt/source"},
		p.execCalls[0])
}

func TestDFSChecksum(t *testing.T) {
	p := newFakeProvisioner()
	p.execOutput["env HADOOP_USER_NAME=root hdfs dfs -checksum /itt/target"] =
		"/itt/target\tMD5-of-0MD5-of-512CRC32C\t000002000000000000000000639f3fab\n"
	d := NewDFS(p, "root")

	checksum, err := d.Checksum(context.Background(), "/itt/target")
	require.NoError(t, err)
	require.Equal(t, models.Checksum{
		Path:      "/itt/target",
		Algorithm: "MD5-of-0MD5-of-512CRC32C",
		Sum:       "000002000000000000000000639f3fab",
	}, checksum)
}

func TestDFSChecksumEmptyOutput(t *testing.T) {
	p := newFakeProvisioner()
	d := NewDFS(p, "root")

	_, err := d.Checksum(context.Background(), "/itt/target")
	require.Error(t, err)
	require.True(t, models.IsErrorWithCode(err, models.ExternalCommandFailed))
}

func TestDFSPropagatesExecFailure(t *testing.T) {
	p := newFakeProvisioner()
	p.execErr = models.NewBaseError("boom").WithCode(models.ExternalCommandFailed)
	d := NewDFS(p, "root")

	err := d.MkdirP(context.Background(), "/itt")
	require.Error(t, err)
	require.True(t, models.IsErrorWithCode(err, models.ExternalCommandFailed))
}
