// Package session tracks the short-lived per-chat review state: which card
// is mid-review (question shown, answer pending) and which card is pending a
// delete confirmation. Entries live in memory only; the command router
// clears them on every unrelated command and stale entries expire after a
// TTL so they never silently persist.
package session

import (
	"sync"
	"time"
)

const defaultTTL = time.Hour

type state struct {
	activeCardID    int64
	pendingDeleteID int64
	touched         time.Time
}

// Store is a mutex-guarded registry of per-chat session state.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*state
	ttl     time.Duration
	clock   func() time.Time
}

// StoreConfig describes optional Store dependencies.
type StoreConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

// NewStore constructs a session store.
func NewStore(cfg StoreConfig) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		entries: make(map[int64]*state),
		ttl:     ttl,
		clock:   clock,
	}
}

// SetActiveCard marks the card currently shown for review in this chat. Any
// pending delete confirmation is dropped.
func (s *Store) SetActiveCard(chatID, cardID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = &state{activeCardID: cardID, touched: s.clock()}
}

// ActiveCard returns the card mid-review for this chat, or false when there
// is none or the entry has expired.
func (s *Store) ActiveCard(chatID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(chatID)
	if entry == nil || entry.activeCardID == 0 {
		return 0, false
	}
	return entry.activeCardID, true
}

// SetPendingDelete marks the card awaiting delete confirmation in this chat.
// Any mid-review card is dropped.
func (s *Store) SetPendingDelete(chatID, cardID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = &state{pendingDeleteID: cardID, touched: s.clock()}
}

// PendingDelete returns the card awaiting delete confirmation, or false when
// there is none or the entry has expired.
func (s *Store) PendingDelete(chatID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(chatID)
	if entry == nil || entry.pendingDeleteID == 0 {
		return 0, false
	}
	return entry.pendingDeleteID, true
}

// Clear drops all session state for the chat.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
}

// live returns the entry for the chat, evicting it when past the TTL.
// Callers must hold the lock.
func (s *Store) live(chatID int64) *state {
	entry, ok := s.entries[chatID]
	if !ok {
		return nil
	}
	if s.clock().Sub(entry.touched) > s.ttl {
		delete(s.entries, chatID)
		return nil
	}
	return entry
}
