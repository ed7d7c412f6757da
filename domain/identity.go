// Package domain contains core concepts of the mailbox service.
// This file defines the Identity snapshot held by an authenticated session.
// No runtime, network, or storage logic should be added here.
package domain

const (
	// AdminID is the id of the identity seeded at bootstrap.
	AdminID   = 0
	AdminName = "admin"
	// AdminSecret is the well-known credential of the seeded administrator.
	AdminSecret = "admin"
)

// Identity is an immutable copy of a stored identity, without its credential digest.
type Identity struct {
	ID      int
	Name    string
	IsAdmin bool
}
