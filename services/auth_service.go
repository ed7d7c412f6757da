//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-mailbox/auth"
	"chat-mailbox/domain"
	"chat-mailbox/errors"
	"chat-mailbox/repositories"
	"fmt"
)

type IAuthService interface {
	Login(name, secret string) (domain.Identity, error)
	ReserveID() (int, error)
	Register(name, secret string, id int) error
}

type AuthService struct {
	credentials repositories.ICredentialRepository
}

func NewAuthService(credentials repositories.ICredentialRepository) IAuthService {
	return &AuthService{credentials: credentials}
}

// Login resolves the identity snapshot held by the session for its authenticated lifetime.
func (s *AuthService) Login(name, secret string) (domain.Identity, error) {
	// 1. Verify credentials. Unknown user and wrong secret are indistinguishable.
	id, err := s.credentials.Authenticate(name, secret)
	if err != nil {
		return domain.Identity{}, err
	}

	// 2. Materialise the profile; a missing id here means the store changed under us
	identity, err := s.credentials.GetByID(id)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolving authenticated identity: %w", err)
	}
	return identity, nil
}

// ReserveID computes the id a registration will use. Nothing is held:
// a concurrent registration may compute the same id.
func (s *AuthService) ReserveID() (int, error) {
	return s.credentials.AllocateNextID()
}

// Register creates a non-admin identity. The existence check and the insert are
// two separate store operations, so two racing registrations of one name can both succeed.
func (s *AuthService) Register(name, secret string, id int) error {
	// 1. Reject empty input before touching the store
	if err := auth.ValidateCredentials(auth.Credentials{Name: name, Secret: secret}); err != nil {
		return err
	}

	// 2. Name availability
	exists, err := s.credentials.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return errors.ErrNameTaken
	}

	// 3. Insert under the id reserved earlier
	return s.credentials.Register(name, secret, id)
}
