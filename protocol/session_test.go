package protocol

import (
	"chat-mailbox/auth"
	"chat-mailbox/client"
	"chat-mailbox/domain"
	"chat-mailbox/errors"
	"chat-mailbox/mocks"
	"chat-mailbox/observability"
	"chat-mailbox/repositories"
	"chat-mailbox/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t       *testing.T
	client  *client.Client
	conn    net.Conn
	session *Session
	done    chan error
}

func startSession(t *testing.T, authService services.IAuthService, chatService services.IChatService) *harness {
	t.Helper()
	server, conn := net.Pipe()
	monitoring := observability.NewMonitoringManager(slog.Default())
	session := NewSession("test-session", server, authService, chatService, monitoring, slog.Default())

	done := make(chan error, 1)
	go func() {
		done <- session.Run(context.Background())
		_ = server.Close()
	}()

	c := client.New(conn)
	require.NoError(t, c.SetTimeout(5*time.Second))
	t.Cleanup(func() { _ = c.Close() })
	return &harness{t: t, client: c, conn: conn, session: session, done: done}
}

func newServices(t *testing.T) (services.IAuthService, services.IChatService) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	credentials, err := repositories.NewCredentialRepository(db, auth.NewHasher(1024, 1), slog.Default())
	require.NoError(t, err)
	return services.NewAuthService(credentials), services.NewChatService(repositories.NewMemoryMailbox())
}

func (h *harness) expect(text string) {
	h.t.Helper()
	require.NoError(h.t, h.client.Expect(text))
}

func (h *harness) send(line string) {
	h.t.Helper()
	require.NoError(h.t, h.client.Send(line))
}

func (h *harness) register(name, secret string) {
	h.t.Helper()
	h.expect(MainMenu)
	h.send("2")
	h.expect(PromptUsername)
	h.send(name)
	h.expect(PromptPassword)
	h.send(secret)
}

func (h *harness) login(name, secret string) {
	h.t.Helper()
	h.expect(MainMenu)
	h.send("1")
	h.expect(PromptUsername)
	h.send(name)
	h.expect(PromptPassword)
	h.send(secret)
}

func (h *harness) sendMessage(recipient, body string) {
	h.t.Helper()
	h.expect(UserMenu)
	h.send("1")
	h.expect(PromptRecipient)
	h.send(recipient)
	h.expect(PromptMessage)
	h.send(body)
}

func (h *harness) wait() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		h.t.Fatal("session did not terminate")
		return nil
	}
}

func TestSession_Register_Login_Send_Show(t *testing.T) {
	req := require.New(t)
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("alice", "secret")
	h.expect(RegistrationSuccessful)

	h.login("alice", "secret")
	h.expect(LoginSuccessful)

	h.sendMessage("0", "hi")
	h.expect("Your message 'hi' was sent!\n")

	h.expect(UserMenu)
	h.send("2")
	h.expect("From alice: hi\n")

	h.expect(UserMenu)
	h.send("3")
	h.expect(MainMenu)
	h.send("3")

	req.NoError(h.wait())
	req.Equal(StateClosed, h.session.State())
}

func TestSession_Register_Duplicate_Name(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("bob", "one")
	h.expect(RegistrationSuccessful)
	h.register("bob", "two")
	h.expect(UsernameExists)

	// Only the first registration can log in
	h.login("bob", "two")
	h.expect(LoginFailed)
	h.login("bob", "one")
	h.expect(LoginSuccessful)
}

func TestSession_Register_Does_Not_Log_In(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("alice", "secret")
	h.expect(RegistrationSuccessful)
	// Back on the top-level menu, not the user menu
	h.expect(MainMenu)
	h.send("3")
	require.NoError(t, h.wait())
}

func TestSession_Login_Unknown_User_Stays_Unauthenticated(t *testing.T) {
	req := require.New(t)
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.login("nobody", "secret")
	h.expect(LoginFailed)
	h.expect(MainMenu)
	req.Equal(StateUnauthenticated, h.session.State())

	// "1" is Login here, not Send message
	h.send("1")
	h.expect(PromptUsername)
}

func TestSession_Invalid_Choices(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.expect(MainMenu)
	h.send("9")
	h.expect(InvalidChoice)
	h.expect(MainMenu)
	h.send("")
	h.expect(InvalidChoice)

	h.login("admin", "admin")
	h.expect(LoginSuccessful)
	h.expect(UserMenu)
	h.send("send")
	h.expect(InvalidChoice)
	h.expect(UserMenu)
}

func TestSession_Malformed_Recipient_Returns_To_Menu(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.login("admin", "admin")
	h.expect(LoginSuccessful)
	h.expect(UserMenu)
	h.send("1")
	h.expect(PromptRecipient)
	h.send("bob")
	h.expect(InvalidRecipient)

	// Session is still authenticated and nothing was stored
	h.expect(UserMenu)
	h.send("2")
	h.expect(UserMenu)
	h.send("3")
	h.expect(MainMenu)
}

func TestSession_Exit_Menu_Then_Login_Again(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("alice", "secret")
	h.expect(RegistrationSuccessful)
	h.login("alice", "secret")
	h.expect(LoginSuccessful)
	h.sendMessage("1", "note to self")
	h.expect("Your message 'note to self' was sent!\n")
	h.expect(UserMenu)
	h.send("3")

	h.login("admin", "admin")
	h.expect(LoginSuccessful)
	h.expect(UserMenu)
	h.send("2")
	h.expect("From alice: note to self\n")
}

func TestSession_Show_Filters_Inbox(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("alice", "a")
	h.expect(RegistrationSuccessful)
	h.register("bob", "b")
	h.expect(RegistrationSuccessful)

	h.login("alice", "a")
	h.expect(LoginSuccessful)
	h.sendMessage("2", "for bob")
	h.expect("Your message 'for bob' was sent!\n")
	h.sendMessage("3", "for nobody yet")
	h.expect("Your message 'for nobody yet' was sent!\n")
	h.sendMessage("0", "for all")
	h.expect("Your message 'for all' was sent!\n")
	h.expect(UserMenu)
	h.send("3")

	h.login("bob", "b")
	h.expect(LoginSuccessful)
	h.expect(UserMenu)
	h.send("2")
	h.expect("From alice: for bob\nFrom alice: for all\n")
	h.expect(UserMenu)
}

func TestSession_Empty_Credentials_Are_Refused(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.register("", "secret")
	h.expect(InvalidCredentials)
	h.expect(MainMenu)
}

func TestSession_Trims_Carriage_Returns(t *testing.T) {
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.expect(MainMenu)
	h.send("1\r")
	h.expect(PromptUsername)
	h.send("admin\r")
	h.expect(PromptPassword)
	h.send("admin\r")
	h.expect(LoginSuccessful)
}

func TestSession_Transport_Closed_Mid_Prompt(t *testing.T) {
	req := require.New(t)
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.expect(MainMenu)
	h.send("1")
	h.expect(PromptUsername)
	req.NoError(h.conn.Close())

	err := h.wait()
	req.ErrorIs(err, errors.ErrTransport)
	req.ErrorIs(err, io.EOF)
	req.Equal(StateClosed, h.session.State())
}

func TestSession_Final_Unterminated_Line_Is_Read(t *testing.T) {
	req := require.New(t)
	authService, chatService := newServices(t)
	h := startSession(t, authService, chatService)

	h.expect(MainMenu)
	_, err := h.conn.Write([]byte("3"))
	req.NoError(err)
	// Half close is not available on net.Pipe; closing delivers EOF after "3".
	req.NoError(h.conn.Close())

	req.NoError(h.wait())
}

func TestSession_Storage_Faults_Keep_Session_Open(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockIAuthService(ctrl)
	mockChat := mocks.NewMockIChatService(ctrl)
	alice := domain.Identity{ID: 1, Name: "alice"}
	h := startSession(t, mockAuth, mockChat)

	// id reservation failure
	mockAuth.EXPECT().ReserveID().Return(0, fmt.Errorf("%w: disk on fire", errors.ErrStorage)).Times(1)
	h.expect(MainMenu)
	h.send("2")
	h.expect(InternalError)

	// login with an unreachable store reports the generic failure
	mockAuth.EXPECT().Login("alice", "secret").Return(domain.Identity{}, errors.ErrStorage).Times(1)
	h.login("alice", "secret")
	h.expect(LoginFailed)

	// append failure
	mockAuth.EXPECT().Login("alice", "secret").Return(alice, nil).Times(1)
	mockChat.EXPECT().Send(alice, 0, "hi").Return("", errors.ErrStorage).Times(1)
	h.login("alice", "secret")
	h.expect(LoginSuccessful)
	h.sendMessage("0", "hi")
	h.expect(InternalError)

	// inbox failure
	mockChat.EXPECT().Inbox(alice).Return(nil, errors.ErrStorage).Times(1)
	h.expect(UserMenu)
	h.send("2")
	h.expect(InternalError)
	h.expect(UserMenu)
	h.send("3")
	h.expect(MainMenu)
	h.send("3")
	require.NoError(t, h.wait())
}
