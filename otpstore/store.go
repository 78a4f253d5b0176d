// SPDX-License-Identifier: GPL-3.0-only

// Package otpstore holds login OTPs in process memory between the
// password step and the verification step of a login. Each server owns
// one Store instance; a durable hashed copy on the user row covers
// verification when this store misses (restart, other instance).
package otpstore

import (
	"crypto/subtle"
	"sync"
	"time"
)

type Entry struct {
	Code     string
	IssuedAt time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration

	// Now is swappable in tests to move the clock.
	Now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		Now:     time.Now,
	}
}

// Put records the code for the email, replacing any previous entry.
// A re-issued code always wins over an older outstanding one.
func (s *Store) Put(email, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = Entry{Code: code, IssuedAt: s.Now()}
}

// Consume deletes and reports a live, matching entry. An entry found
// past its validity window is dropped and reported as a miss. A wrong
// code leaves the entry in place.
func (s *Store) Consume(email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok {
		return false
	}
	if s.Now().Sub(entry.IssuedAt) > s.ttl {
		delete(s.entries, email)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		return false
	}
	delete(s.entries, email)
	return true
}

// Clear drops any outstanding entry for the email.
func (s *Store) Clear(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
}

// Peek returns the outstanding code for the email without consuming it.
// It exists for tests and debug tooling only.
func (s *Store) Peek(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok || s.Now().Sub(entry.IssuedAt) > s.ttl {
		return "", false
	}
	return entry.Code, true
}
