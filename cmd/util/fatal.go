package util

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vvvy/webhdfs-itt/cmd/util/printer"
)

var Fatal = fatalError

func fatalError(cmd *cobra.Command, err error, code int) {
	if err.Error() != "" {
		printer.PrintError(cmd, err)
	}
	os.Exit(code)
}
