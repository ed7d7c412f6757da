// Package protocol implements the per-connection session state machine.
//
// Framing is line based: every client input is one line terminated by '\n'
// (a trailing '\r' and surrounding spaces are trimmed). There is no length
// limit on a line and no idle timeout; a silent client keeps its session open.
package protocol

import (
	"bufio"
	"chat-mailbox/domain"
	"chat-mailbox/errors"
	"chat-mailbox/observability"
	"chat-mailbox/services"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session drives one client connection. It is not safe for concurrent use;
// the dispatcher gives each connection its own Session.
type Session struct {
	conn       io.ReadWriter
	reader     *bufio.Reader
	auth       services.IAuthService
	chat       services.IChatService
	monitoring *observability.MonitoringManager
	log        *slog.Logger
	state      State
}

func NewSession(
	id string,
	conn io.ReadWriter,
	auth services.IAuthService,
	chat services.IChatService,
	monitoring *observability.MonitoringManager,
	log *slog.Logger,
) *Session {
	return &Session{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		auth:       auth,
		chat:       chat,
		monitoring: monitoring,
		log:        log.With("session_id", id),
		state:      StateUnauthenticated,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run loops on the top-level menu until the client chooses exit, the
// transport fails or ctx is canceled. Protocol-level failures are reported
// to the client and never returned; the returned error always wraps ErrTransport.
func (s *Session) Run(ctx context.Context) error {
	defer func() { s.state = StateClosed }()

	for ctx.Err() == nil {
		choice, err := s.prompt(MainMenu)
		if err != nil {
			return err
		}

		switch choice {
		case choiceFirst:
			identity, ok, err := s.login()
			if err != nil {
				return err
			}
			if ok {
				if err := s.menu(ctx, identity); err != nil {
					return err
				}
			}
		case choiceSecond:
			if err := s.register(); err != nil {
				return err
			}
		case choiceExit:
			s.log.Debug("Client exited")
			return nil
		default:
			if err := s.write(InvalidChoice); err != nil {
				return err
			}
		}
	}
	return nil
}

// login never auto-retries: a failure lands back on the top-level menu.
func (s *Session) login() (domain.Identity, bool, error) {
	name, err := s.prompt(PromptUsername)
	if err != nil {
		return domain.Identity{}, false, err
	}
	secret, err := s.prompt(PromptPassword)
	if err != nil {
		return domain.Identity{}, false, err
	}

	identity, err := s.auth.Login(name, secret)
	if err != nil {
		s.monitoring.IncrFailedLogins()
		if stderrors.Is(err, errors.ErrAuthFailed) {
			s.log.Debug("Login failed", "name", name)
		} else {
			s.log.Error("Login could not complete", "name", name, "error", err)
		}
		return domain.Identity{}, false, s.write(LoginFailed)
	}

	s.monitoring.IncrLogins()
	s.log.Info("User logged in", "user_id", identity.ID, "name", identity.Name)
	return identity, true, s.write(LoginSuccessful)
}

// register reserves the id before prompting, then checks the name. It does
// not log the user in.
func (s *Session) register() error {
	id, err := s.auth.ReserveID()
	if err != nil {
		s.log.Error("Could not reserve an id", "error", err)
		return s.write(InternalError)
	}

	name, err := s.prompt(PromptUsername)
	if err != nil {
		return err
	}
	secret, err := s.prompt(PromptPassword)
	if err != nil {
		return err
	}

	err = s.auth.Register(name, secret, id)
	switch {
	case err == nil:
		s.monitoring.IncrRegistrations()
		s.log.Info("User registered", "user_id", id, "name", name)
		return s.write(RegistrationSuccessful)
	case stderrors.Is(err, errors.ErrNameTaken):
		s.log.Debug("Registration refused, name taken", "name", name)
		return s.write(UsernameExists)
	case stderrors.Is(err, errors.ErrMalformedInput):
		s.log.Debug("Registration refused, invalid input", "error", err)
		return s.write(InvalidCredentials)
	default:
		s.log.Error("Registration could not complete", "user_id", id, "name", name, "error", err)
		return s.write(InternalError)
	}
}

// menu serves the authenticated sub-menu. Exit returns to the top level
// without closing the connection.
func (s *Session) menu(ctx context.Context, identity domain.Identity) error {
	s.state = StateAuthenticated
	log := s.log.With("user_id", identity.ID)
	log.Debug("Entering the main menu")

	for ctx.Err() == nil {
		choice, err := s.prompt(UserMenu)
		if err != nil {
			return err
		}

		switch choice {
		case choiceFirst:
			err = s.send(log, identity)
		case choiceSecond:
			err = s.show(log, identity)
		case choiceExit:
			log.Debug("End of user session")
			s.state = StateUnauthenticated
			return nil
		default:
			err = s.write(InvalidChoice)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) send(log *slog.Logger, sender domain.Identity) error {
	raw, err := s.prompt(PromptRecipient)
	if err != nil {
		return err
	}
	recipient, convErr := strconv.Atoi(raw)
	if convErr != nil {
		log.Debug("Send aborted", "error", fmt.Errorf("%w: recipient %q: %v", errors.ErrMalformedInput, raw, convErr))
		return s.write(InvalidRecipient)
	}

	body, err := s.prompt(PromptMessage)
	if err != nil {
		return err
	}

	ack, err := s.chat.Send(sender, recipient, body)
	if err != nil {
		log.Error("Message could not be stored", "recipient", recipient, "error", err)
		return s.write(InternalError)
	}
	s.monitoring.IncrMessagesSent()
	return s.write(ack + "\n")
}

func (s *Session) show(log *slog.Logger, viewer domain.Identity) error {
	messages, err := s.chat.Inbox(viewer)
	if err != nil {
		log.Error("Inbox could not be read", "error", err)
		return s.write(InternalError)
	}

	var out strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&out, MessageLine, m.Sender.Name, m.Body)
	}
	if out.Len() == 0 {
		return nil
	}
	return s.write(out.String())
}

// prompt writes text then blocks for one line of client input.
func (s *Session) prompt(text string) (string, error) {
	if err := s.write(text); err != nil {
		return "", err
	}
	return s.readLine()
}

func (s *Session) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		// A final unterminated line is still a line.
		if stderrors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("%w: read: %w", errors.ErrTransport, err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) write(text string) error {
	if _, err := io.WriteString(s.conn, text); err != nil {
		return fmt.Errorf("%w: write: %w", errors.ErrTransport, err)
	}
	return nil
}
