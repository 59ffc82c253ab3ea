package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/term"
)

var (
	psAll     bool
	psNoTrunc bool
)

// shortIDLen is how much of a process ID ps shows by default.
const shortIDLen = 8

// maxCommandWidth bounds the COMMAND column unless --no-trunc is given.
const maxCommandWidth = 60

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List processes started with open",
	Long: `List processes the daemon started with the "open" action.

Running processes are shown with their memory and CPU use. Use --all to also
show processes that have exited.`,
	Args: cobra.NoArgs,
	RunE: runPs,
}

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "include exited processes")
	psCmd.Flags().BoolVar(&psNoTrunc, "no-trunc", false, "show full IDs and commands")
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	c, addr := newClient()
	procs, err := c.ListProcesses(cmd.Context())
	if err != nil {
		return requestError(addr, err)
	}

	if !psAll {
		running := procs[:0]
		for _, p := range procs {
			if p.State == procreg.StateRunning {
				running = append(running, p)
			}
		}
		procs = running
	}

	if len(procs) == 0 {
		term.Println("No processes.")
		return nil
	}

	writeProcessTable(term.Stdout(), procs, time.Now(), psNoTrunc)
	return nil
}

// writeProcessTable renders procs as an aligned table.
func writeProcessTable(out io.Writer, procs []procreg.Info, now time.Time, noTrunc bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPID\tSTATE\tEXIT\tRSS\tCPU\tAGE\tCOMMAND")

	for _, p := range procs {
		id := p.ID
		line := cmdline.Format(p.Args)
		if !noTrunc {
			if len(id) > shortIDLen {
				id = id[:shortIDLen]
			}
			line = cmdline.Truncate(line, maxCommandWidth)
		}

		exit, rss, cpu := "-", "-", "-"
		if p.ExitCode != nil {
			exit = strconv.Itoa(*p.ExitCode)
		}
		if p.Stats != nil {
			rss = formatBytes(p.Stats.RSSBytes)
			cpu = fmt.Sprintf("%.1f%%", p.Stats.CPUPercent)
		}

		end := now
		if p.EndedAt != nil {
			end = *p.EndedAt
		}

		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, p.PID, p.State, exit, rss, cpu, formatAge(end.Sub(p.StartedAt)), line)
	}

	_ = w.Flush()
}

// formatBytes formats a byte count as "512B", "12.3K", "4.0M" or "1.2G".
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGT"[exp])
}

// formatAge formats a duration compactly: "42s", "5m", "3h", "2d".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
