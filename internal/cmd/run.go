package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/term"
)

var runCmd = &cobra.Command{
	Use:   "run (open|shell) -- <command> [args...]",
	Short: "Run a command through the daemon",
	Long: `Send a command to the consolex daemon.

  open   start the command detached and return immediately
  shell  run the command, wait for it, and print its stdout and stderr

Use -- to separate the command's own flags from consolex flags:

  consolex run shell -- ls -la /tmp
  consolex run open -- xdg-open report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	return xterm.IsTerminal(int(os.Stdout.Fd()))
}

func runRun(cmd *cobra.Command, args []string) error {
	action, cmdArgs := args[0], args[1:]

	c, addr := newClient()
	res, err := c.Run(cmd.Context(), action, cmdArgs)
	if err != nil {
		return requestError(addr, err)
	}

	if action == "shell" {
		writeCaptured(term.Stdout(), res.Stdout, stdoutIsTerminal())
		writeCaptured(term.Stderr(), res.Stderr, false)
		return nil
	}

	line := cmdline.Format(res.Args)
	if res.ProcessID != "" {
		term.Printf("Started %s (id %s)\n", line, res.ProcessID)
	} else {
		term.Printf("Started %s\n", line)
	}
	return nil
}

// writeCaptured writes output unchanged. On a terminal a missing final
// newline is added so the prompt starts on its own line.
func writeCaptured(w io.Writer, output string, terminal bool) {
	if output == "" {
		return
	}
	_, _ = io.WriteString(w, output)
	if terminal && !strings.HasSuffix(output, "\n") {
		_, _ = fmt.Fprintln(w)
	}
}
