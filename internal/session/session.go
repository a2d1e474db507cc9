// Package session tracks whether the current invocation has been unlocked
// with the repository PIN.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrLocked     = errors.New("locked: unlock with --pin")
	ErrWrongPIN   = errors.New("wrong PIN")
	ErrInvalidPIN = errors.New("PIN must be 4 to 12 digits")
)

// State is the lock state of one invocation.
type State struct {
	mu       sync.Mutex
	hash     []byte
	unlocked bool
}

// New returns a State guarded by a bcrypt hash. An empty hash means no PIN
// is configured and the state starts unlocked.
func New(pinHash string) *State {
	return &State{hash: []byte(pinHash), unlocked: pinHash == ""}
}

// Protected reports whether a PIN is configured.
func (s *State) Protected() bool { return len(s.hash) > 0 }

// Unlocked reports whether mutations are allowed.
func (s *State) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// Unlock checks pin against the hash.
func (s *State) Unlock(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlocked {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPIN
		}
		return fmt.Errorf("checking PIN: %w", err)
	}
	s.unlocked = true
	return nil
}

// HashPIN validates pin and returns its bcrypt hash.
func HashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrInvalidPIN
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing PIN: %w", err)
	}
	return string(h), nil
}

// ValidPIN reports whether pin is 4 to 12 ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 12 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type contextKey struct{}

// WithContext stores s in ctx.
func WithContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the State in ctx, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(contextKey{}).(*State)
	return s
}

// Require returns ErrLocked unless ctx carries an unlocked State. A context
// without a State is treated as locked.
func Require(ctx context.Context) error {
	s := FromContext(ctx)
	if s == nil || !s.Unlocked() {
		return ErrLocked
	}
	return nil
}
