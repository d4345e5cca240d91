package prepare

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var (
	prepareLong = templates.LongDesc(i18n.T(`
		Stage every artifact a verification run needs: materialize the
		reference file, compile the read and write programs, write the
		digest manifest and write-chunk files, resolve the cluster
		topology, upload the reference file, and capture its baseline
		digest.

		Preparation is idempotent: when the working directory carries a
		preparedness marker the command returns without doing any work,
		unless --force is given.
	`))

	prepareExample = templates.Examples(i18n.T(`
		# Prepare the working directory and the cluster
		itt prepare

		# Rebuild everything even if a marker is present
		itt prepare --force
	`))

	clusterOnlyLong = templates.LongDesc(i18n.T(`
		Refresh only the topology artifacts, the entry point and the
		address-translation table, without touching the test data. Useful
		after a cluster restart reassigned host ports.
	`))
)

// PrepareOptions is a struct to support the prepare command
type PrepareOptions struct {
	Force bool
}

// NewPrepareOptions returns initialized Options
func NewPrepareOptions() *PrepareOptions {
	return &PrepareOptions{
		Force: false,
	}
}

func NewCmd() *cobra.Command {
	o := NewPrepareOptions()
	prepareCmd := &cobra.Command{
		Use:     "prepare",
		Short:   "Stage every artifact a verification run needs",
		Long:    prepareLong,
		Example: prepareExample,
		Args:    cobra.NoArgs,
		Run:     o.runPrepare,
	}
	prepareCmd.Flags().BoolVar(&o.Force, "force", o.Force,
		"Rebuild the working directory even when a preparedness marker is present.")
	return prepareCmd
}

func NewClusterOnlyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare-cluster-only",
		Short: "Refresh the topology artifacts without touching the test data",
		Long:  clusterOnlyLong,
		Args:  cobra.NoArgs,
		Run:   runClusterOnly,
	}
}

// Run executes the prepare command
func (o *PrepareOptions) runPrepare(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := h.Prepare(ctx, o.Force); err != nil {
		util.Fatal(cmd, err, 2)
	}
}

func runClusterOnly(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := h.PrepareClusterOnly(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}
