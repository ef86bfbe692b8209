package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
// Callers must not reveal which of the two it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore verifies a username/password pair.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string) error
}

// StaticCredentials is a CredentialStore holding bcrypt hashes in memory,
// keyed by username.
type StaticCredentials struct {
	hashes map[string][]byte
}

// NewStaticCredentials returns a store with one user per entry in hashes.
// Entries with an empty username or hash are skipped.
func NewStaticCredentials(hashes map[string]string) *StaticCredentials {
	m := make(map[string][]byte, len(hashes))
	for user, h := range hashes {
		if user == "" || h == "" {
			continue
		}
		m[user] = []byte(h)
	}
	return &StaticCredentials{hashes: m}
}

func (s *StaticCredentials) Verify(_ context.Context, username, password string) error {
	hash, ok := s.hashes[username]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
