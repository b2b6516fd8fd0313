package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	DemoUsername = "user"
	DemoPassword = "user123"
)

type User struct {
	Username     string
	PasswordHash []byte
}

// UserStore is a fixed credential table. It has no mutation API; users
// are defined once when the store is built.
type UserStore struct {
	byName map[string]User
}

func NewUserStore(users ...User) *UserStore {
	s := &UserStore{byName: make(map[string]User, len(users))}
	for _, u := range users {
		s.byName[u.Username] = u
	}
	return s
}

// NewDemoUserStore holds the single demo account.
func NewDemoUserStore() (*UserStore, error) {
	u, err := NewUser(DemoUsername, DemoPassword)
	if err != nil {
		return nil, err
	}
	return NewUserStore(u), nil
}

func NewUser(username, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password for %q: %w", username, err)
	}
	return User{Username: username, PasswordHash: hash}, nil
}

func (s *UserStore) FindUser(username string) (User, bool) {
	u, ok := s.byName[strings.TrimSpace(username)]
	return u, ok
}

func (s *UserStore) Verify(username, password string) (User, error) {
	u, ok := s.FindUser(username)
	if !ok {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}
