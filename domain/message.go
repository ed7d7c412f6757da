// Package domain contains core concepts of the mailbox service.
// This file defines Message values and the recipient visibility rule.
// Messages are immutable once appended to the mailbox.
package domain

// BroadcastID is the reserved recipient meaning "visible to every viewer".
// The same value is the administrator's id, so viewer 0 sees every message.
const BroadcastID = 0

type Message struct {
	Sender    Identity
	Recipient int
	Body      string
}

// VisibleTo reports whether the message belongs in the inbox of viewer.
func (m Message) VisibleTo(viewer int) bool {
	return viewer == AdminID || m.Recipient == viewer || m.Recipient == BroadcastID
}
