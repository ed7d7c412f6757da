//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-mailbox/domain"
	"chat-mailbox/repositories"
)

type IChatService interface {
	Send(sender domain.Identity, recipient int, body string) (string, error)
	Inbox(viewer domain.Identity) ([]domain.Message, error)
}

type ChatService struct {
	mailbox repositories.IMailboxRepository
}

func NewChatService(mailbox repositories.IMailboxRepository) IChatService {
	return &ChatService{mailbox: mailbox}
}

// Send appends the message and returns the acknowledgement for the sender.
func (s *ChatService) Send(sender domain.Identity, recipient int, body string) (string, error) {
	return s.mailbox.Append(sender, recipient, body)
}

func (s *ChatService) Inbox(viewer domain.Identity) ([]domain.Message, error) {
	return s.mailbox.ListFor(viewer.ID)
}
