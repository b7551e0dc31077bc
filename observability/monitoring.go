package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// Stats aggregates runtime health for the /healthz endpoint and the store
// inspector's stats pane.
type Stats struct {
	SessionsCreated   uint64  `json:"sessions_created"`
	ParticipantsAdded uint64  `json:"participants_added"`
	UpdatesPublished  uint64  `json:"updates_published"`
	OpenConnections   int64   `json:"open_connections"`
	AllocMemMb        uint64  `json:"alloc_mem_mb"`
	NumGC             uint32  `json:"num_gc"`
	RSSMb             uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

// Monitoring collects cheap atomic counters plus process-level metrics.
// Counter methods are safe to call from any goroutine.
type Monitoring struct {
	log  *slog.Logger
	proc *process.Process

	sessionsCreated   atomic.Uint64
	participantsAdded atomic.Uint64
	updatesPublished  atomic.Uint64
	openConnections   atomic.Int64
}

func NewMonitoring(log *slog.Logger) *Monitoring {
	m := &Monitoring{log: log}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Counters still work; process metrics just read zero.
		log.Warn("Process metrics unavailable", "error", err)
	} else {
		m.proc = proc
	}
	return m
}

func (m *Monitoring) SessionCreated()   { m.sessionsCreated.Add(1) }
func (m *Monitoring) ParticipantAdded() { m.participantsAdded.Add(1) }
func (m *Monitoring) UpdatePublished()  { m.updatesPublished.Add(1) }
func (m *Monitoring) ConnectionOpened() { m.openConnections.Add(1) }
func (m *Monitoring) ConnectionClosed() { m.openConnections.Add(-1) }

// Snapshot merges the counters with the current process and GC state.
func (m *Monitoring) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		SessionsCreated:   m.sessionsCreated.Load(),
		ParticipantsAdded: m.participantsAdded.Load(),
		UpdatesPublished:  m.updatesPublished.Load(),
		OpenConnections:   m.openConnections.Load(),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
	}

	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMb = memInfo.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
