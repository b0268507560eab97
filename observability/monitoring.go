// Package observability aggregates runtime counters for the stats endpoint.
package observability

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Monitor holds atomic chat counters plus a handle on the own process for
// on-request system stats. No background sampling: everything is computed
// when /stats is asked.
type Monitor struct {
	ConnectionsOpened atomic.Uint64
	ConnectionsClosed atomic.Uint64
	MessagesSent      atomic.Uint64
	Deliveries        atomic.Uint64
	DroppedEvents     atomic.Uint64

	started time.Time
	proc    *process.Process
}

type Stats struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	ActiveUsers       int     `json:"active_users"`
	ActiveConnections int     `json:"active_connections"`
	ConnectionsOpened uint64  `json:"connections_opened"`
	ConnectionsClosed uint64  `json:"connections_closed"`
	MessagesSent      uint64  `json:"messages_sent"`
	Deliveries        uint64  `json:"deliveries"`
	DroppedEvents     uint64  `json:"dropped_events"`
	RSSMb             float64 `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

func NewMonitor() (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{started: time.Now(), proc: proc}, nil
}

// Snapshot renders the current counters together with process memory and
// CPU usage. Registry sizes are passed in by the caller; the monitor does
// not reach into presence state.
func (m *Monitor) Snapshot(activeUsers, activeConnections int) Stats {
	stats := Stats{
		UptimeSeconds:     time.Since(m.started).Seconds(),
		ActiveUsers:       activeUsers,
		ActiveConnections: activeConnections,
		ConnectionsOpened: m.ConnectionsOpened.Load(),
		ConnectionsClosed: m.ConnectionsClosed.Load(),
		MessagesSent:      m.MessagesSent.Load(),
		Deliveries:        m.Deliveries.Load(),
		DroppedEvents:     m.DroppedEvents.Load(),
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		stats.RSSMb = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}
