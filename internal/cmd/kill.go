package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/client"
	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/prompt"
	"github.com/xdg/consolex/internal/term"
)

var killSignal string

var killCmd = &cobra.Command{
	Use:   "kill [--signal TERM] <id>",
	Short: "Signal a process started with open",
	Long: `Send a signal to the process group of a process started with "open".

The ID may be abbreviated to a prefix, as shown by 'consolex ps'. When a
prefix matches several processes and stdin is a terminal, you are asked to
pick one.
Accepted signals: TERM (default), KILL, INT, HUP, QUIT, USR1, USR2, STOP, CONT.`,
	Args: cobra.ExactArgs(1),
	RunE: runKill,
}

// newKillPrompter returns the prompter used for ambiguous ID prefixes, or
// nil when there is no terminal to ask on.
var newKillPrompter = func() prompt.Prompter {
	if !prompt.Interactive(os.Stdin) {
		return nil
	}
	return prompt.NewStdinPrompter(os.Stdin, term.Stderr())
}

func init() {
	killCmd.Flags().StringVar(&killSignal, "signal", "TERM", "signal to send")
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	sig, err := procreg.ParseSignal(killSignal)
	if err != nil {
		return fmt.Errorf("%w: %s", err, killSignal)
	}

	c, addr := newClient()
	id, err := resolveProcessID(cmd.Context(), c, args[0], newKillPrompter())
	if err != nil {
		return requestError(addr, err)
	}

	info, err := c.Signal(cmd.Context(), id, killSignal)
	if err != nil {
		return requestError(addr, err)
	}

	term.Printf("Sent %s to %s (pid %d)\n", procreg.SignalName(sig), info.ID, info.PID)
	return nil
}

// resolveProcessID expands an ID prefix to the full process ID. Several
// matches are an error unless p is non-nil, in which case the user chooses.
func resolveProcessID(ctx context.Context, c *client.Client, prefix string, p prompt.Prompter) (string, error) {
	_, err := c.GetProcess(ctx, prefix)
	if err == nil {
		return prefix, nil
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return "", err
	}

	procs, err := c.ListProcesses(ctx)
	if err != nil {
		return "", err
	}

	var matches []procreg.Info
	for _, info := range procs {
		if strings.HasPrefix(info.ID, prefix) {
			matches = append(matches, info)
		}
	}

	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("no process matches %q", prefix)
	case len(matches) == 1:
		return matches[0].ID, nil
	case p == nil:
		return "", fmt.Errorf("ID prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}

	options := make([]string, len(matches))
	for i, info := range matches {
		options[i] = fmt.Sprintf("%s (pid %d, %s) %s", info.ID, info.PID, info.State, cmdline.Truncate(cmdline.Format(info.Args), maxCommandWidth))
	}
	idx, err := p.Prompt(fmt.Sprintf("%q matches %d processes:", prefix, len(matches)), options, 0)
	if err != nil {
		return "", err
	}
	return matches[idx].ID, nil
}
