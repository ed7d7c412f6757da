// Package runtime assembles the long-running parts of the server and runs
// them under supervision. It holds no protocol or storage logic.
package runtime

import (
	"chat-mailbox/contract"
	"chat-mailbox/infrastructure/tcp"
	"chat-mailbox/observability"
	"chat-mailbox/runtime/workers"
	"chat-mailbox/services"
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	listener       net.Listener
	authService    services.IAuthService
	chatService    services.IChatService
	monitoring     *observability.MonitoringManager
	metricInterval time.Duration
	extraWorkers   []contract.Worker
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	listener net.Listener, authService services.IAuthService, chatService services.IChatService,
	monitoring *observability.MonitoringManager, metricInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		listener:       listener,
		authService:    authService,
		chatService:    chatService,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

// Add registers workers to be supervised next to the dispatcher.
func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, workers...)
}

func (o *Orchestrator) Addr() net.Addr {
	return o.listener.Addr()
}

// Start registers the dispatcher, the telemetry worker when metricInterval is
// positive and any added worker, then blocks until all of them returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	toStart := []contract.Worker{
		tcp.NewDispatcher(o.listener, o.authService, o.chatService, o.monitoring, o.log),
	}
	if o.metricInterval > 0 {
		toStart = append(toStart, workers.NewTelemetryWorker(o.log, o.monitoring, o.metricInterval))
	}

	// 2. Critical Section (Short Lock)
	o.mu.Lock()
	toStart = append(toStart, o.extraWorkers...)
	o.supervisor.Add(toStart...)
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers", "workers", len(toStart))
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised context. The dispatcher closes its listener
// and every open connection in response.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
