package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/cli/cleanup"
	"github.com/vvvy/webhdfs-itt/cmd/cli/cluster"
	"github.com/vvvy/webhdfs-itt/cmd/cli/prepare"
	"github.com/vvvy/webhdfs-itt/cmd/cli/run"
	"github.com/vvvy/webhdfs-itt/cmd/cli/validate"
	"github.com/vvvy/webhdfs-itt/cmd/cli/volatile"
	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var rootLong = templates.LongDesc(i18n.T(`
	itt verifies a remote-storage client's read and write paths against a
	live multi-node cluster. It stages a reference file and oracle
	digests, hands off to the client under test through a flat exchange
	directory, and validates what the client read and wrote.
`))

// ShutdownSignals stop a phase between external invocations.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func NewRootCmd() *cobra.Command {
	RootCmd := &cobra.Command{
		Use:   "itt",
		Short: "Verify a remote-storage client against a live cluster",
		Long:  rootLong,
	}

	// ====== Stage a run
	RootCmd.AddCommand(prepare.NewCmd())
	RootCmd.AddCommand(prepare.NewClusterOnlyCmd())
	RootCmd.AddCommand(volatile.NewCmd())

	// ====== Check a run's outputs and discard them
	RootCmd.AddCommand(validate.NewCmd())
	RootCmd.AddCommand(cleanup.NewOutputCmd())
	RootCmd.AddCommand(cleanup.NewAllCmd())

	// ====== The whole cycle in one shot
	RootCmd.AddCommand(run.NewCmd())

	// ====== Cluster plumbing (advanced usage)
	RootCmd.AddCommand(cluster.NewCmd())

	RootCmd.PersistentFlags().String(util.ConfigFlagName, "",
		"Path to an explicit configuration file. Defaults to itt.yaml in the current directory.")
	return RootCmd
}

func Execute() {
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(context.Background(), ShutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		util.Fatal(rootCmd, err, 2)
	}
}
