package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/daemon"
	"github.com/xdg/consolex/internal/term"
)

// stopWait is how long stop waits for the daemon to exit.
var stopWait = 10 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the consolex daemon",
	Long: `Send SIGTERM to the running consolex daemon and wait for it to exit.

Processes started with "open" are not affected.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	state, err := daemon.LoadState()
	if err != nil {
		return fmt.Errorf("failed to read daemon state: %w", err)
	}
	if state == nil {
		return daemonNotRunningError()
	}
	if !daemon.IsRunning(state) {
		if err := daemon.RemoveState(); err != nil {
			return err
		}
		term.Println("consolex is not running (removed stale state)")
		return nil
	}

	term.Printf("Stopping consolex (PID %d)...\n", state.PID)
	if err := daemon.Stop(state); err != nil {
		return err
	}

	deadline := time.Now().Add(stopWait)
	for daemon.IsRunning(state) {
		if time.Now().After(deadline) {
			return fmt.Errorf("consolex (PID %d) did not exit within %s", state.PID, stopWait)
		}
		time.Sleep(100 * time.Millisecond)
	}

	term.Println("consolex stopped")
	return nil
}
