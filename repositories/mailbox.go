//go:generate go run go.uber.org/mock/mockgen -source=mailbox.go -destination=../mocks/mock_mailbox_repository.go -package=mocks
package repositories

import (
	"chat-mailbox/domain"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

type IMailboxRepository interface {
	Append(sender domain.Identity, recipient int, body string) (string, error)
	ListFor(viewer int) ([]domain.Message, error)
}

// Acknowledgement is the notice returned to the sender of body.
func Acknowledgement(body string) string {
	return fmt.Sprintf("Your message '%s' was sent!", body)
}

// MemoryMailbox keeps every message for the process lifetime.
// There is no size bound: the slice only grows.
type MemoryMailbox struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{}
}

func (m *MemoryMailbox) Append(sender domain.Identity, recipient int, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, domain.Message{
		Sender:    sender,
		Recipient: recipient,
		Body:      body,
	})
	return Acknowledgement(body), nil
}

// ListFor returns, in insertion order, the messages visible to viewer.
// The result is a fresh slice the caller may keep.
func (m *MemoryMailbox) ListFor(viewer int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Filter(m.messages, func(item domain.Message, _ int) bool {
		return item.VisibleTo(viewer)
	}), nil
}
