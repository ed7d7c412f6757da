package repositories

import (
	"chat-mailbox/domain"
	"chat-mailbox/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix   = "msg:"
	messageSequence = "seq:msg"
	// sequenceBandwidth is how many sequence numbers badger leases at once.
	sequenceBandwidth = 100
)

// DiskMailbox stores messages in BadgerDB under "msg:{seq}" keys.
// The sequence is zero padded to 19 digits so a forward prefix scan
// returns messages in insertion order.
type DiskMailbox struct {
	mu  sync.Mutex
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

type diskMessage struct {
	SenderID      int    `json:"sender_id"`
	SenderName    string `json:"sender_name"`
	SenderIsAdmin bool   `json:"sender_is_admin"`
	Recipient     int    `json:"recipient"`
	Body          string `json:"body"`
}

func NewDiskMailbox(db *badger.DB, log *slog.Logger) (*DiskMailbox, error) {
	seq, err := db.GetSequence([]byte(messageSequence), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("%w: message sequence: %v", errors.ErrStorage, err)
	}
	return &DiskMailbox{db: db, seq: seq, log: log}, nil
}

func (m *DiskMailbox) Append(sender domain.Identity, recipient int, body string) (string, error) {
	data, err := json.Marshal(fromMessage(domain.Message{Sender: sender, Recipient: recipient, Body: body}))
	if err != nil {
		return "", fmt.Errorf("%w: marshal failed: %v", errors.ErrStorage, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.seq.Next()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	key := fmt.Sprintf("%s%019d", messagePrefix, n)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	m.log.Debug("Message stored", "key", key, "sender_id", sender.ID, "recipient", recipient)
	return Acknowledgement(body), nil
}

func (m *DiskMailbox) ListFor(viewer int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var stored diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			})
			if err != nil {
				return err
			}
			message := toMessage(stored)
			if message.VisibleTo(viewer) {
				messages = append(messages, message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return messages, nil
}

// Close returns the leased sequence range to badger.
func (m *DiskMailbox) Close() error {
	return m.seq.Release()
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		SenderID:      message.Sender.ID,
		SenderName:    message.Sender.Name,
		SenderIsAdmin: message.Sender.IsAdmin,
		Recipient:     message.Recipient,
		Body:          message.Body,
	}
}

func toMessage(stored diskMessage) domain.Message {
	return domain.Message{
		Sender: domain.Identity{
			ID:      stored.SenderID,
			Name:    stored.SenderName,
			IsAdmin: stored.SenderIsAdmin,
		},
		Recipient: stored.Recipient,
		Body:      stored.Body,
	}
}
