package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	// Color scheme for command output
	successStyle = color.New(color.FgGreen)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	labelStyle   = color.New(color.FgCyan)
	mutedStyle   = color.New(color.FgHiBlack)
)

// printWarning writes a backend warning to stderr so it never mixes with
// the path listing on stdout.
func printWarning(text string) {
	fmt.Fprintln(os.Stderr, warningStyle.Sprint("Warning: ")+text)
}

// printError reports a failure that does not terminate the process, such as
// a failed run in watch mode.
func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Sprint("Error: ")+err.Error())
}

// padLabel right-pads a label to the given display width, accounting for
// wide characters.
func padLabel(label string, width int) string {
	pad := width - runewidth.StringWidth(label)
	if pad < 0 {
		pad = 0
	}
	return label + strings.Repeat(" ", pad)
}
