package main

import (
	"chat-mailbox/internal"
	"chat-mailbox/observability"
	"chat-mailbox/repositories"
	"chat-mailbox/runtime"
	"chat-mailbox/runtime/workers"
	"chat-mailbox/services"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives.
// Deferred cleanups run before the exit code reaches main.
func run(args []string) (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB, process lifetime only)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores, seeded before any connection is accepted
	credentials, err := repositories.NewCredentialRepository(db, config.Hasher(), log)
	if err != nil {
		return exitRuntime, fmt.Errorf("credential store bootstrap failed: %w", err)
	}

	var mailbox repositories.IMailboxRepository
	switch config.MailboxBackend {
	case internal.BackendBadger:
		diskMailbox, err := repositories.NewDiskMailbox(db, log)
		if err != nil {
			return exitRuntime, fmt.Errorf("mailbox opening failed: %w", err)
		}
		defer func() { _ = diskMailbox.Close() }()
		mailbox = diskMailbox
	default:
		mailbox = repositories.NewMemoryMailbox()
	}

	// 4. Listener
	address := config.Address(args)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	// 5. Setup Supervision & Orchestration
	monitoring := observability.NewMonitoringManager(log)
	orchestrator := runtime.NewOrchestrator(
		log,
		workers.NewSupervisor(log, config.RestartInterval),
		listener,
		services.NewAuthService(credentials),
		services.NewChatService(mailbox),
		monitoring,
		config.MetricInterval,
	)

	if config.DebugAddr != "" {
		orchestrator.Add(internal.NewDebugServer(db, monitoring, log, config.DebugAddr))
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Server listening", "address", listener.Addr().String(), "mailbox", config.MailboxBackend)

	// 7. Start the Engine, blocks until ctx is canceled
	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed: %w", err)
	}

	// 8. Final Cleanup
	orchestrator.Stop()
	log.Info("Program stopped cleanly")
	return exitOK, nil
}
