package cluster

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var upLong = templates.LongDesc(i18n.T(`
	Bring the configured cluster back end to a running state and wait
	until its nodes accept commands. With the compose back end this
	generates a compose file into the working directory when none is
	configured.
`))

func NewUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start the cluster and wait for it to accept commands",
		Long:  upLong,
		Args:  cobra.NoArgs,
		Run:   runUp,
	}
}

func runUp(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	prov, err := util.SetupProvisioner(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := prov.Up(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}
