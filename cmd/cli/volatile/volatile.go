package volatile

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var volatileLong = templates.LongDesc(i18n.T(`
	Create the volatile remote fixtures the system under test consumes or
	destroys during a run: remove any stale write target left by a prior
	run and create the scratch directory the removal operations expect to
	find. Repeat before every handoff, since a run consumes the fixtures.
`))

func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-volatile-input",
		Short: "Create the per-run remote fixtures",
		Long:  volatileLong,
		Args:  cobra.NoArgs,
		Run:   runVolatile,
	}
}

func runVolatile(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := h.CreateVolatileInput(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}
