package util

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vvvy/webhdfs-itt/pkg/cluster"
	"github.com/vvvy/webhdfs-itt/pkg/config"
	"github.com/vvvy/webhdfs-itt/pkg/config/types"
	"github.com/vvvy/webhdfs-itt/pkg/harness"
	"github.com/vvvy/webhdfs-itt/pkg/source"
)

// ConfigFlagName is the persistent flag naming an explicit configuration
// file. When unset, configuration is searched in the current directory.
const ConfigFlagName = "config"

// ResolveConfig loads the orchestrator configuration, honoring the
// --config persistent flag when present.
func ResolveConfig(cmd *cobra.Command) (types.Config, error) {
	var opts []config.Option
	if file, err := cmd.Flags().GetString(ConfigFlagName); err == nil && file != "" {
		opts = append(opts, config.WithFile(file))
	}
	return config.Load(".", opts...)
}

// SetupHarness builds the full orchestrator stack from the resolved
// configuration: provisioner, source fetcher, and the harness on top.
func SetupHarness(ctx context.Context, cmd *cobra.Command) (*harness.Harness, error) {
	cfg, err := ResolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	prov, err := cluster.New(ctx, cfg.Cluster, cfg.Workdir)
	if err != nil {
		return nil, err
	}
	src := source.NewFetcher(cfg.Workdir, cfg.Source)
	return harness.New(cfg, prov, src), nil
}

// SetupProvisioner builds only the cluster back end, for commands that
// talk to the cluster without going through the harness lifecycle.
func SetupProvisioner(ctx context.Context, cmd *cobra.Command) (cluster.Provisioner, error) {
	cfg, err := ResolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cluster.New(ctx, cfg.Cluster, cfg.Workdir)
}
