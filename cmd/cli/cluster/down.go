package cluster

import (
	"github.com/spf13/cobra"

	"github.com/vvvy/webhdfs-itt/cmd/util"
)

func NewDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the cluster and release what up allocated",
		Args:  cobra.NoArgs,
		Run:   runDown,
	}
}

func runDown(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	prov, err := util.SetupProvisioner(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
	if err := prov.Down(ctx); err != nil {
		util.Fatal(cmd, err, 2)
	}
}
