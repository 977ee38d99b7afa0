// Package observability exposes process self-statistics for the health
// endpoint.
package observability

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type HealthStats struct {
	Pid           int     `json:"pid"`
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMBytes      uint64  `json:"ram_bytes"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

type Health struct {
	proc      *process.Process
	startedAt time.Time
}

func NewHealth() (*Health, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Health{proc: proc, startedAt: time.Now().UTC()}, nil
}

// Snapshot collects memory, CPU, and OS status for the running process.
func (h *Health) Snapshot() (HealthStats, error) {
	memInfo, err := h.proc.MemoryInfo()
	if err != nil {
		return HealthStats{}, err
	}
	cpuPercent, err := h.proc.CPUPercent()
	if err != nil {
		return HealthStats{}, err
	}
	status, err := h.proc.Status()
	if err != nil {
		return HealthStats{}, err
	}

	return HealthStats{
		Pid:           int(h.proc.Pid),
		Status:        status,
		CPUPercent:    cpuPercent,
		RAMBytes:      memInfo.RSS,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}, nil
}
