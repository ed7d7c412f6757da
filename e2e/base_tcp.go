package e2e

import (
	"chat-mailbox/auth"
	"chat-mailbox/client"
	"chat-mailbox/observability"
	"chat-mailbox/protocol"
	"chat-mailbox/repositories"
	"chat-mailbox/runtime"
	"chat-mailbox/runtime/workers"
	"chat-mailbox/services"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseTcpSuite struct {
	suite.Suite
	Config Config

	db           *badger.DB
	orchestrator *runtime.Orchestrator
	stopped      chan struct{}
}

// SetupSuite loads the environment configuration and, unless CHAT_ADDR
// points at a running server, starts a fresh one on a loopback port.
func (s *BaseTcpSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr != "" {
		return
	}

	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	credentials, err := repositories.NewCredentialRepository(s.db, auth.NewHasher(1024, 1), log)
	s.Require().NoError(err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	s.orchestrator = runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, 100*time.Millisecond),
		listener,
		services.NewAuthService(credentials),
		services.NewChatService(repositories.NewMemoryMailbox()),
		observability.NewMonitoringManager(log),
		0,
	)
	s.stopped = make(chan struct{})
	go func() {
		_ = s.orchestrator.Start(context.Background())
		close(s.stopped)
	}()
	s.Config.ChatAddr = listener.Addr().String()
}

func (s *BaseTcpSuite) TearDownSuite() {
	if s.orchestrator == nil {
		return
	}
	s.orchestrator.Stop()
	select {
	case <-s.stopped:
	case <-time.After(5 * time.Second):
		s.T().Log("in-process server did not stop in time")
	}
	_ = s.db.Close()
}

// Conversation wraps one client connection with step logging.
type Conversation struct {
	s *BaseTcpSuite
	c *client.Client
}

// WithClient opens a connection under a colorized header and hands it to fn.
func (s *BaseTcpSuite) WithClient(name string, fn func(conv *Conversation)) {
	// 1. Print a colorized header for the step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	// 2. Connect with a deadline covering the whole conversation
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, s.Config.ChatAddr)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.Config.ChatAddr)
	defer c.Close()
	s.Require().NoError(c.SetTimeout(10 * time.Second))

	fn(&Conversation{s: s, c: c})
}

// Expect requires the exact server text.
func (conv *Conversation) Expect(text string) {
	conv.trace("<<", text)
	conv.s.Require().NoError(conv.c.Expect(text))
}

// Answer expects a prompt then sends one line.
func (conv *Conversation) Answer(prompt, line string) {
	conv.Expect(prompt)
	conv.trace(">>", line)
	conv.s.Require().NoError(conv.c.Send(line))
}

// Register walks the registration flow from the top-level menu.
func (conv *Conversation) Register(name, secret string) {
	conv.Answer(protocol.MainMenu, "2")
	conv.Answer(protocol.PromptUsername, name)
	conv.Answer(protocol.PromptPassword, secret)
}

// Login walks the login flow from the top-level menu.
func (conv *Conversation) Login(name, secret string) {
	conv.Answer(protocol.MainMenu, "1")
	conv.Answer(protocol.PromptUsername, name)
	conv.Answer(protocol.PromptPassword, secret)
}

// Show selects "Show messages" and returns the listed lines.
func (conv *Conversation) Show() []string {
	conv.Answer(protocol.UserMenu, "2")
	firstMenuLine, _, _ := strings.Cut(protocol.UserMenu, "\n")

	var lines []string
	for {
		line, err := conv.c.ReadLine()
		conv.s.Require().NoError(err)
		if line == firstMenuLine {
			// The menu is printed again right after the listing
			conv.Expect(strings.TrimPrefix(protocol.UserMenu, firstMenuLine+"\n"))
			return lines
		}
		conv.trace("<<", line)
		lines = append(lines, line)
	}
}

// Send writes one line without waiting for a prompt, for use after Show.
func (conv *Conversation) Send(line string) {
	conv.trace(">>", line)
	conv.s.Require().NoError(conv.c.Send(line))
}

func (conv *Conversation) trace(direction, text string) {
	if conv.s.Config.Trace {
		conv.s.T().Logf("%s %q", direction, text)
	}
}
