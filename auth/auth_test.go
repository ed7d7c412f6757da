package auth

import (
	"chat-mailbox/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testHasher keeps Argon2 cheap enough for unit tests.
var testHasher = NewHasher(1024, 1)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	secret := "secret"

	hash, err := testHasher.Hash(secret)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := testHasher.Compare(secret, hash)
	req.NoError(err)
	req.True(match)

	match, err = testHasher.Compare("secreT", hash)
	req.NoError(err)
	req.False(match)
}

func TestHash_SaltsEveryDigest(t *testing.T) {
	req := require.New(t)

	first, err := testHasher.Hash("admin")
	req.NoError(err)
	second, err := testHasher.Hash("admin")
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestCompare_UsesEncodedParameters(t *testing.T) {
	req := require.New(t)

	hash, err := NewHasher(2048, 2).Hash("secret")
	req.NoError(err)

	match, err := testHasher.Compare("secret", hash)
	req.NoError(err)
	req.True(match)
}

func TestCompare_RejectsMalformedDigest(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"legacy sha1 hex", "d033e22ae348aeb5660fc2140aec35850c4da997"},
		{"wrong algorithm", "$bcrypt$v=19$m=1024,t=1,p=2$c2FsdA$a2V5"},
		{"bad parameters", "$argon2id$v=19$m=x,t=1,p=2$c2FsdA$a2V5"},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=2$!!!$a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testHasher.Compare("secret", tt.encoded)
			require.Error(t, err)
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"Valid credentials", Credentials{"alice", "secret"}, false},
		{"Long credentials are accepted", Credentials{strings.Repeat("a", 4096), strings.Repeat("b", 4096)}, false},
		{"Missing name", Credentials{"", "secret"}, true},
		{"Missing secret", Credentials{"alice", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.creds)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrMalformedInput)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func BenchmarkHash(b *testing.B) {
	hasher := DefaultHasher()
	for i := 0; i < b.N; i++ {
		_, _ = hasher.Hash("A-very-long-and-complex-password-for-bench-123!")
	}
}
