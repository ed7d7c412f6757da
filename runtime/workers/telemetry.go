package workers

import (
	"chat-mailbox/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs session counters together with the
// resident memory and CPU usage of the server process.
type TelemetryWorker struct {
	log            *slog.Logger
	monitoring     *observability.MonitoringManager
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger,
	monitoring *observability.MonitoringManager,
	metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

// Run returns nil once ctx is canceled so the supervisor does not restart it.
func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	stats := w.monitoring.Snapshot()
	attrs := []any{
		"active_sessions", stats.ActiveSessions,
		"accepted_sessions", stats.AcceptedSessions,
		"logins", stats.Logins,
		"failed_logins", stats.FailedLogins,
		"registrations", stats.Registrations,
		"messages_sent", stats.MessagesSent,
		"transport_errors", stats.TransportErrors,
		"goroutines", stats.NumGoroutines,
		"alloc_mb", stats.AllocMemMb,
	}

	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu)
	}
	w.log.Info("Server telemetry", attrs...)
}

// selfStats retrieves resident memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
