//go:generate go run go.uber.org/mock/mockgen -source=credential.go -destination=../mocks/mock_credential_repository.go -package=mocks
package repositories

import (
	"chat-mailbox/auth"
	"chat-mailbox/domain"
	"chat-mailbox/errors"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	identityPrefix = "identity:id:"
	namePrefix     = "identity:name:"
	// maxPaddedID seeks past every zero padded id when iterating in reverse.
	maxPaddedID = "9999999999999999999"
)

type ICredentialRepository interface {
	GetByID(id int) (domain.Identity, error)
	Authenticate(name, secret string) (int, error)
	Exists(name string) (bool, error)
	Register(name, secret string, id int) error
	AllocateNextID() (int, error)
}

// CredentialRepository owns identity records in BadgerDB.
// Every public operation holds mu for its whole duration and never calls
// another public operation, so each one is serialised as a unit.
// Exists+Register and AllocateNextID+Register are two separate units: callers
// racing on the same name or id can both pass their check.
type CredentialRepository struct {
	mu     sync.Mutex
	db     *badger.DB
	hasher auth.Hasher
	log    *slog.Logger
}

// storedIdentity is the persisted record. The digest never leaves this package.
type storedIdentity struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	IsAdmin          bool   `json:"is_admin"`
	CredentialDigest string `json:"credential_digest"`
}

// NewCredentialRepository seeds the administrator identity before returning,
// so the store is ready before any connection is accepted.
func NewCredentialRepository(db *badger.DB, hasher auth.Hasher, log *slog.Logger) (ICredentialRepository, error) {
	r := &CredentialRepository{db: db, hasher: hasher, log: log}
	if err := r.bootstrap(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CredentialRepository) bootstrap() error {
	digest, err := r.hasher.Hash(domain.AdminSecret)
	if err != nil {
		return fmt.Errorf("%w: hashing admin credential: %v", errors.ErrStorage, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(storedIdentity{
		ID:               domain.AdminID,
		Name:             domain.AdminName,
		IsAdmin:          true,
		CredentialDigest: digest,
	})
}

// GetByID returns the identity snapshot for id, or ErrNotFound.
func (r *CredentialRepository) GetByID(id int) (domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var record storedIdentity
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return toIdentity(record), nil
}

// Authenticate returns the id of the identity named name whose digest matches secret.
// Unknown names and wrong secrets both yield ErrAuthFailed.
func (r *CredentialRepository) Authenticate(name, secret string) (int, error) {
	candidates, err := r.recordsNamed(name)
	if err != nil {
		return 0, err
	}

	// Digests are compared outside the lock: records are immutable once stored.
	for _, candidate := range candidates {
		match, err := r.hasher.Compare(secret, candidate.CredentialDigest)
		if err != nil {
			r.log.Warn("Unreadable credential digest", "user_id", candidate.ID, "error", err)
			continue
		}
		if match {
			return candidate.ID, nil
		}
	}
	return 0, errors.ErrAuthFailed
}

func (r *CredentialRepository) Exists(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists := false
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := nameIndexPrefix(name)
		it.Seek(prefix)
		exists = it.ValidForPrefix(prefix)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return exists, nil
}

// Register inserts a non-admin identity under a pre-allocated id.
// It does not check name availability; that is the caller's separate Exists call.
// An id that is already taken is refused as a storage fault instead of overwriting.
func (r *CredentialRepository) Register(name, secret string, id int) error {
	digest, err := r.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("%w: hashing credential: %v", errors.ErrStorage, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(storedIdentity{ID: id, Name: name, CredentialDigest: digest})
}

// AllocateNextID returns one more than the highest stored id.
func (r *CredentialRepository) AllocateNextID() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := 1
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(identityPrefix)
		it.Seek(append([]byte(identityPrefix), maxPaddedID...))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		maxID, err := strconv.Atoi(string(it.Item().Key()[len(prefix):]))
		if err != nil {
			return err
		}
		next = maxID + 1
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return next, nil
}

// insert must be called with mu held.
func (r *CredentialRepository) insert(record storedIdentity) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal failed: %v", errors.ErrStorage, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := identityKey(record.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: id %d already allocated", errors.ErrStorage, record.ID)
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %v", errors.ErrStorage, err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrStorage, err)
		}
		return txn.Set(nameIndexKey(record.Name, record.ID), nil)
	})
	if err != nil {
		return err
	}

	r.log.Debug("Identity stored", "user_id", record.ID, "name", record.Name, "is_admin", record.IsAdmin)
	return nil
}

// recordsNamed returns every identity stored under name, lowest id first.
// More than one exists only if two registrations raced past Exists.
func (r *CredentialRepository) recordsNamed(name string) ([]storedIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []storedIdentity
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := nameIndexPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := strconv.Atoi(string(it.Item().Key()[len(prefix):]))
			if err != nil {
				return fmt.Errorf("%w: corrupt name index: %v", errors.ErrStorage, err)
			}
			record, err := getRecord(txn, id)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func getRecord(txn *badger.Txn, id int) (storedIdentity, error) {
	var record storedIdentity
	item, err := txn.Get(identityKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return record, fmt.Errorf("%w: id %d", errors.ErrNotFound, id)
	}
	if err != nil {
		return record, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	if err != nil {
		return record, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return record, nil
}

// identityKey zero pads ids to 19 digits so lexicographic order is numeric order.
func identityKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%019d", identityPrefix, id))
}

// nameIndexPrefix encodes the name so user supplied ':' cannot collide with the separator.
func nameIndexPrefix(name string) []byte {
	return []byte(namePrefix + base64.RawURLEncoding.EncodeToString([]byte(name)) + ":")
}

func nameIndexKey(name string, id int) []byte {
	return append(nameIndexPrefix(name), fmt.Sprintf("%019d", id)...)
}

func toIdentity(record storedIdentity) domain.Identity {
	return domain.Identity{ID: record.ID, Name: record.Name, IsAdmin: record.IsAdmin}
}
