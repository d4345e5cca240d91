package run

import (
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/cli/validate"
	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/cmd/util/flags/cliflags"
	"github.com/vvvy/webhdfs-itt/cmd/util/output"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
)

var (
	runLong = templates.LongDesc(i18n.T(`
		Run the whole verification cycle: prepare, create the volatile
		fixtures, hand off to the system under test, validate its
		outputs, and clean them up.

		The cycle stops at the first failing phase and leaves all
		artifacts in place; recover with an explicit cleanup command.
	`))

	runExample = templates.Examples(i18n.T(`
		# Run the full cycle against an already prepared directory
		itt run

		# Rebuild the preparation artifacts first
		itt run --force
	`))
)

// RunOptions is a struct to support the run command
type RunOptions struct {
	Force      bool
	OutputOpts output.OutputOptions
}

// NewRunOptions returns initialized Options
func NewRunOptions() *RunOptions {
	return &RunOptions{
		Force:      false,
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewRunOptions()
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the full verification cycle",
		Long:    runLong,
		Example: runExample,
		Args:    cobra.NoArgs,
		Run:     o.runRun,
	}
	runCmd.Flags().BoolVar(&o.Force, "force", o.Force,
		"Rebuild the working directory even when a preparedness marker is present.")
	runCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return runCmd
}

// Run executes the run command
func (o *RunOptions) runRun(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}

	results, err := h.Run(ctx, o.Force)
	if len(results) > 0 {
		if writeErr := output.Output(cmd, validate.Columns(), o.OutputOpts, results); writeErr != nil {
			util.Fatal(cmd, writeErr, 2)
		}
	}
	if err != nil {
		util.Fatal(cmd, err, 2)
	}
}
