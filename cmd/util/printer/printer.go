package printer

import (
	"errors"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vvvy/webhdfs-itt/cmd/util/output"
	"github.com/vvvy/webhdfs-itt/pkg/models"
)

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
)

const (
	errorPrefix   = "Error: "
	warningPrefix = "Warning: "
	hintPrefix    = "Hint: "
)

var terminalWidth int

func getTerminalWidth(cmd *cobra.Command) uint {
	if terminalWidth == 0 {
		var err error
		terminalWidth, _, err = term.GetSize(int(os.Stderr.Fd()))
		if err != nil || terminalWidth <= 0 {
			log.Ctx(cmd.Context()).Debug().Err(err).Msg("Failed to get terminal size")
			terminalWidth = math.MaxInt8
		}
	}
	return uint(terminalWidth)
}

// PrintError prints err to the error stream with a red prefix, wrapped to
// the terminal width. When the error carries a hint, the hint follows on
// its own indented line.
func PrintError(cmd *cobra.Command, err error) {
	printIndentedString(cmd, errorPrefix, err.Error(), red, 0)
	var base *models.BaseError
	if errors.As(err, &base) && base.Hint() != "" {
		printIndentedString(cmd, hintPrefix, base.Hint(), green, uint(len(errorPrefix)))
	}
}

// PrintWarning prints msg to the error stream with a yellow prefix.
func PrintWarning(cmd *cobra.Command, msg string) {
	printIndentedString(cmd, warningPrefix, msg, yellow, 0)
}

//nolint:gosec    // indent is used for spacing and won't exceed reasonable values
func printIndentedString(cmd *cobra.Command, prefix, msg string, prefixColor *color.Color, startIndent uint) {
	maxWidth := getTerminalWidth(cmd)
	blockIndent := int(startIndent) + len(prefix)
	blockTextWidth := maxWidth - startIndent - uint(len(prefix))

	cmd.PrintErr(strings.Repeat(" ", int(startIndent)))
	prefixColor.Fprint(cmd.ErrOrStderr(), output.BoldStr(prefix))
	for i, line := range strings.Split(wordwrap.WrapString(msg, blockTextWidth), "\n") {
		if i > 0 {
			cmd.PrintErr(strings.Repeat(" ", blockIndent))
		}
		cmd.PrintErrln(line)
	}
}
