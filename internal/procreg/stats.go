package procreg

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats are live resource figures for a running process.
type Stats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Status     string  `json:"status,omitempty"`
}

// StatsFunc samples stats for pid.
type StatsFunc func(pid int) (*Stats, error)

// SampleStats reads RSS, lifetime CPU percentage and scheduler status of pid
// via gopsutil. Individual figures that cannot be read are left zero.
func SampleStats(pid int) (*Stats, error) {
	p, err := process.NewProcess(int32(pid)) //nolint:gosec // G115: pids fit in int32
	if err != nil {
		return nil, err
	}

	s := &Stats{}
	if mem, err := p.MemoryInfo(); err == nil {
		s.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}
	if status, err := p.Status(); err == nil {
		s.Status = strings.Join(status, ",")
	}
	return s, nil
}
