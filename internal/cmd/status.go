package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/client"
	"github.com/xdg/consolex/internal/daemon"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/term"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  `Show whether the consolex daemon is running, its address, uptime and how many processes it is supervising.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	state, err := daemon.LoadState()
	if err != nil {
		return fmt.Errorf("failed to read daemon state: %w", err)
	}
	if state == nil {
		term.Println("Status: not running")
		return nil
	}
	if !daemon.IsRunning(state) {
		term.Println("Status: not running (stale state)")
		return nil
	}

	term.Printf("Status: running (PID %d)\n", state.PID)
	term.Printf("Address: http://%s\n", state.Addr)
	if !state.StartedAt.IsZero() {
		term.Printf("Uptime: %s\n", formatDuration(time.Since(state.StartedAt)))
	}

	c := client.New(state.Addr)
	if _, err := c.Health(cmd.Context()); err != nil {
		term.Printf("API: not responding (%v)\n", err)
		return nil
	}
	term.Println("API: responding")

	procs, err := c.ListProcesses(cmd.Context())
	if err != nil {
		term.Printf("Processes: (unable to retrieve: %v)\n", err)
		return nil
	}
	running := 0
	for _, p := range procs {
		if p.State == procreg.StateRunning {
			running++
		}
	}
	term.Printf("Processes: %d running, %d exited\n", running, len(procs)-running)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs > 0 {
			return fmt.Sprintf("%d minutes, %d seconds", mins, secs)
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%d hours, %d minutes", hours, mins)
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}
	return fmt.Sprintf("%d days", days)
}
