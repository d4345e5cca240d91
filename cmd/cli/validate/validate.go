package validate

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"

	"github.com/vvvy/webhdfs-itt/cmd/util"
	"github.com/vvvy/webhdfs-itt/cmd/util/flags/cliflags"
	"github.com/vvvy/webhdfs-itt/cmd/util/output"
	"github.com/vvvy/webhdfs-itt/pkg/lib/collections"
	"github.com/vvvy/webhdfs-itt/pkg/util/templates"
	"github.com/vvvy/webhdfs-itt/pkg/verify"
)

// digestWidth truncates md5 columns unless --wide is given.
const digestWidth = 16

var (
	validateLong = templates.LongDesc(i18n.T(`
		Check the output of the system under test: digest every read
		output named by the manifest and compare it to the expected
		digest, then ask the cluster for the written file's digest and
		compare it to the baseline captured at upload time.

		Both sides always run to completion, so a single defect cannot
		mask another. On success the consumed oracle artifacts and the
		remote write target are removed; on failure everything stays in
		place for diagnosis.
	`))

	validateExample = templates.Examples(i18n.T(`
		# Validate the most recent run
		itt validate

		# Emit the per-read results as json
		itt validate --output json
	`))
)

// ValidateOptions is a struct to support the validate command
type ValidateOptions struct {
	OutputOpts output.OutputOptions
}

// NewValidateOptions returns initialized Options
func NewValidateOptions() *ValidateOptions {
	return &ValidateOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	o := NewValidateOptions()
	validateCmd := &cobra.Command{
		Use:     "validate",
		Short:   "Check the run's outputs against the oracle artifacts",
		Long:    validateLong,
		Example: validateExample,
		Args:    cobra.NoArgs,
		Run:     o.runValidate,
	}
	validateCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	return validateCmd
}

// Columns returns the table columns for read verification results.
func Columns() []output.TableColumn[verify.ReadResult] {
	return []output.TableColumn[verify.ReadResult]{
		{
			ColumnConfig: table.ColumnConfig{Name: "Output"},
			Value:        func(r verify.ReadResult) string { return r.Path },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Expected", WidthMax: digestWidth, WidthMaxEnforcer: text.Trim},
			Value:        func(r verify.ReadResult) string { return r.Expected },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Actual", WidthMax: digestWidth, WidthMaxEnforcer: text.Trim},
			Value:        func(r verify.ReadResult) string { return r.Actual },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Status"},
			Value: func(r verify.ReadResult) string {
				if r.Match {
					return output.GreenStr("OK")
				}
				return output.RedStr("FAIL")
			},
		},
	}
}

// Run executes the validate command
func (o *ValidateOptions) runValidate(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	h, err := util.SetupHarness(ctx, cmd)
	if err != nil {
		util.Fatal(cmd, err, 2)
	}

	results, err := h.Validate(ctx)
	if len(results) > 0 {
		if writeErr := output.Output(cmd, Columns(), o.OutputOpts, results); writeErr != nil {
			util.Fatal(cmd, writeErr, 2)
		}
	}
	if err != nil {
		util.Fatal(cmd, err, 2)
	}

	if o.OutputOpts.Format == output.TableFormat {
		_ = output.KeyValue(cmd, []collections.Pair[string, any]{
			collections.NewPair[string, any]("Reads", len(results)),
			collections.NewPair[string, any]("Write", "digest matches baseline"),
			collections.NewPair[string, any]("State", string(h.State())),
		})
	}
}
