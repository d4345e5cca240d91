package cleanup

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var (
	outputLong = templates.LongDesc(i18n.T(`
		Discard the artifacts a run produced: the remote write target and
		the local output directory. Preparation artifacts stay in place,
		so another run can start straight from the handoff.

		Every step tolerates its artifact being gone already; cleaning an
		untouched or half-cleaned directory is not an error.
	`))

	allLong = templates.LongDesc(i18n.T(`
		Tear down everything a run left behind on either side: remote
		test files, the volatile fixtures, local outputs, chunk files,
		exchange records, the preparedness marker, and the reference file
		when it was downloaded rather than supplied locally.

		The sweep keeps going past individual failures and reports them
		all at the end, so a half-broken cluster cannot strand local
		artifacts.
	`))
)

func NewOutputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-output",
		Short: "Discard the run's outputs, keep the preparation artifacts",
		Long:  outputLong,
		Args:  cobra.NoArgs,
		Run:   runCleanupOutput,
	}
}

func NewAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-all",
		Short: "Tear down every artifact on both sides",
		Long:  allLong,
		Args:  cobra.NoArgs,
		Run:   runCleanupAll,
	}
}

func runCleanupOutput(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := h.CleanupOutput(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}

func runCleanupAll(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := h.CleanupAll(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}
