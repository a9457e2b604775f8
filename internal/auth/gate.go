package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPINLength = 4
	MaxPINLength = 20

	DefaultMaxAttempts = 3
	DefaultLockout     = 30 * time.Second
)

var (
	ErrInvalidPIN   = fmt.Errorf("PIN must be %d to %d characters", MinPINLength, MaxPINLength)
	ErrIncorrectPIN = errors.New("incorrect PIN")
	ErrLocked       = errors.New("too many failed attempts")
)

var hashCost = bcrypt.DefaultCost

// AttemptError is returned for a wrong PIN while attempts remain.
type AttemptError struct {
	Remaining int
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("incorrect PIN, %d attempts left", e.Remaining)
}

func (e *AttemptError) Unwrap() error { return ErrIncorrectPIN }

type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// HashPIN validates the PIN length and returns its bcrypt hash.
func HashPIN(pin string) (string, error) {
	if n := len([]rune(pin)); n < MinPINLength || n > MaxPINLength {
		return "", ErrInvalidPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash PIN: %w", err)
	}
	return string(hash), nil
}

// Gate verifies the admin PIN and suspends verification after repeated
// failures. The counter lives in memory only.
type Gate struct {
	mu          sync.Mutex
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time

	failures    int
	lockedUntil time.Time
}

func NewGate(maxAttempts int, lockout time.Duration) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &Gate{maxAttempts: maxAttempts, lockout: lockout, now: time.Now}
}

// Verify compares pin against hash. Wrong PINs return an *AttemptError
// until the limit is reached, then a *LockedError until the lockout ends.
func (g *Gate) Verify(hash, pin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.lockedUntil) {
		return &LockedError{RetryAfter: g.lockedUntil.Sub(now)}
	}
	if !g.lockedUntil.IsZero() {
		g.failures = 0
		g.lockedUntil = time.Time{}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err == nil {
		g.failures = 0
		return nil
	}

	g.failures++
	if g.failures >= g.maxAttempts {
		g.lockedUntil = now.Add(g.lockout)
		return &LockedError{RetryAfter: g.lockout}
	}
	return &AttemptError{Remaining: g.maxAttempts - g.failures}
}

// Locked reports whether verification is suspended and for how long.
func (g *Gate) Locked() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.Before(g.lockedUntil) {
		return true, g.lockedUntil.Sub(now)
	}
	return false, 0
}
