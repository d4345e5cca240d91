package cluster

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var (
	execLong = templates.LongDesc(i18n.T(`
		Run a command on a cluster node and print its stdout. Node
		ordinals are 1-based; ordinal 1 hosts the coordinator service.
	`))

	execExample = templates.Examples(i18n.T(`
		# List the remote test directory on the coordinator node
		itt cluster exec -- hdfs dfs -ls /itt

		# Inspect a datanode's local disk
		itt cluster exec --node 2 -- df -h
	`))
)

// ExecOptions is a struct to support the exec command
type ExecOptions struct {
	Node int
}

// NewExecOptions returns initialized Options
func NewExecOptions() *ExecOptions {
	return &ExecOptions{
		Node: 1,
	}
}

func NewExecCmd() *cobra.Command {
	o := NewExecOptions()
	execCmd := &cobra.Command{
		Use:     "exec [command]",
		Short:   "Run a command on a cluster node",
		Long:    execLong,
		Example: execExample,
		Args:    cobra.MinimumNArgs(1),
		Run:     o.runExec,
	}
	execCmd.Flags().IntVar(&o.Node, "node", o.Node, "Ordinal of the node to run on, 1-based.")
	execCmd.Flags().SetInterspersed(false)
	return execCmd
}

// Run executes the exec command
func (o *ExecOptions) runExec(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	prov, err := util.SetupProvisioner(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	out, err := prov.Exec(ctx, o.Node, args)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	cmd.Print(out)
}
