// Package cmd implements the CLI commands for consolex.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/term"
	"github.com/xdg/consolex/internal/version"
)

var (
	addrFlag    string
	silentFlag  bool
	noColorFlag bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "consolex",
	Short: "Run host commands through a local HTTP API",
	Long: `ConsoleX is a small host daemon that accepts a command over HTTP and runs it,
either detached in the background ("open") or synchronously with its output
captured and returned ("shell").

Start the daemon with 'consolex serve', then drive it with 'consolex run',
'consolex ps' and 'consolex kill', or with any HTTP client.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		term.SetSilent(silentFlag)
		if noColorFlag {
			term.SetColor(false)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "daemon address (default: running daemon, then config server.listen)")
	rootCmd.PersistentFlags().BoolVarP(&silentFlag, "silent", "s", false, "suppress normal output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// Execute runs the root command and returns any error. Errors other than
// ExitCodeError are printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exitErr *ExitCodeError
		if !errors.As(err, &exitErr) {
			term.Error("%v", err)
		}
	}
	return err
}
