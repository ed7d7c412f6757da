package observability

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// MonitoringStats is a point-in-time view of the server activity.
type MonitoringStats struct {
	// --- SESSION METRICS ---
	ActiveSessions   int64  `json:"active_sessions"`
	AcceptedSessions uint64 `json:"accepted_sessions"`
	Logins           uint64 `json:"logins"`
	FailedLogins     uint64 `json:"failed_logins"`
	Registrations    uint64 `json:"registrations"`
	MessagesSent     uint64 `json:"messages_sent"`
	TransportErrors  uint64 `json:"transport_errors"`

	// --- SYSTEM METRICS ---
	AllocMemMb    uint64    `json:"alloc_mem_mb"`
	NumGC         uint32    `json:"num_gc"`
	NumGoroutines int       `json:"num_goroutines"`
	At            time.Time `json:"at"`
}

// MonitoringManager counts session events. Counters are updated lock-free
// from every session goroutine.
type MonitoringManager struct {
	log *slog.Logger

	activeSessions   int64
	acceptedSessions uint64
	logins           uint64
	failedLogins     uint64
	registrations    uint64
	messagesSent     uint64
	transportErrors  uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

func (mm *MonitoringManager) SessionOpened() {
	atomic.AddUint64(&mm.acceptedSessions, 1)
	atomic.AddInt64(&mm.activeSessions, 1)
}

func (mm *MonitoringManager) SessionClosed() {
	if active := atomic.AddInt64(&mm.activeSessions, -1); active < 0 {
		mm.log.Warn("Session closed without a matching open", "active_sessions", active)
	}
}

func (mm *MonitoringManager) IncrLogins() {
	atomic.AddUint64(&mm.logins, 1)
}

func (mm *MonitoringManager) IncrFailedLogins() {
	atomic.AddUint64(&mm.failedLogins, 1)
}

func (mm *MonitoringManager) IncrRegistrations() {
	atomic.AddUint64(&mm.registrations, 1)
}

func (mm *MonitoringManager) IncrMessagesSent() {
	atomic.AddUint64(&mm.messagesSent, 1)
}

func (mm *MonitoringManager) IncrTransportErrors() {
	atomic.AddUint64(&mm.transportErrors, 1)
}

func (mm *MonitoringManager) Snapshot() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MonitoringStats{
		ActiveSessions:   atomic.LoadInt64(&mm.activeSessions),
		AcceptedSessions: atomic.LoadUint64(&mm.acceptedSessions),
		Logins:           atomic.LoadUint64(&mm.logins),
		FailedLogins:     atomic.LoadUint64(&mm.failedLogins),
		Registrations:    atomic.LoadUint64(&mm.registrations),
		MessagesSent:     atomic.LoadUint64(&mm.messagesSent),
		TransportErrors:  atomic.LoadUint64(&mm.transportErrors),
		AllocMemMb:       m.Alloc / 1024 / 1024,
		NumGC:            m.NumGC,
		NumGoroutines:    runtime.NumGoroutine(),
		At:               time.Now().UTC(),
	}
}
