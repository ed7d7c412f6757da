// Package tcp accepts client connections and hands each one to its own
// protocol session.
package tcp

import (
	"chat-mailbox/errors"
	"chat-mailbox/observability"
	"chat-mailbox/protocol"
	"chat-mailbox/services"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Dispatcher runs the accept loop. There is no admission control: every
// accepted connection gets a goroutine that is never joined.
type Dispatcher struct {
	listener   net.Listener
	auth       services.IAuthService
	chat       services.IChatService
	monitoring *observability.MonitoringManager
	log        *slog.Logger
}

func NewDispatcher(
	listener net.Listener,
	auth services.IAuthService,
	chat services.IChatService,
	monitoring *observability.MonitoringManager,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		listener:   listener,
		auth:       auth,
		chat:       chat,
		monitoring: monitoring,
		log:        log,
	}
}

func (d *Dispatcher) Addr() net.Addr {
	return d.listener.Addr()
}

// Run accepts connections until ctx is canceled or the listener is closed,
// in which case it returns nil. Other accept errors are logged and retried
// after a backoff that doubles up to maxAcceptBackoff.
func (d *Dispatcher) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = d.listener.Close()
	})
	defer stop()

	d.log.Info("Listening for clients", "address", d.listener.Addr().String())
	var backoff time.Duration
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				d.log.Info("Dispatcher stopped")
				return nil
			}
			if stderrors.Is(err, net.ErrClosed) {
				d.log.Warn("Listener closed, dispatcher stopped")
				return nil
			}
			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			d.log.Error("Accept failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		go d.serve(ctx, conn)
	}
}

func (d *Dispatcher) serve(ctx context.Context, conn net.Conn) {
	sessionID := uuid.NewString()
	remoteLog := d.log.With("remote", conn.RemoteAddr().String())
	log := remoteLog.With("session_id", sessionID)

	d.monitoring.SessionOpened()
	// Unblocks a pending read when the server shuts down.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("Session panicked", "error", fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r))
		}
		stop()
		_ = conn.Close()
		d.monitoring.SessionClosed()
		log.Debug("Connection closed")
	}()

	log.Debug("Connection accepted")
	session := protocol.NewSession(sessionID, conn, d.auth, d.chat, d.monitoring, remoteLog)
	if err := session.Run(ctx); err != nil {
		d.monitoring.IncrTransportErrors()
		log.Debug("Session ended on transport error", "error", err)
	}
}
