package session

import (
	"testing"
	"time"
)

func TestActiveCardRoundTrip(t *testing.T) {
	store := NewStore(StoreConfig{})

	if _, ok := store.ActiveCard(1); ok {
		t.Fatalf("expected no active card for a fresh chat")
	}

	store.SetActiveCard(1, 42)
	cardID, ok := store.ActiveCard(1)
	if !ok || cardID != 42 {
		t.Fatalf("expected active card 42, got %d (ok=%v)", cardID, ok)
	}

	if _, ok := store.ActiveCard(2); ok {
		t.Fatalf("expected chats to be isolated")
	}
}

func TestSetActiveCardDropsPendingDelete(t *testing.T) {
	store := NewStore(StoreConfig{})

	store.SetPendingDelete(1, 9)
	store.SetActiveCard(1, 42)

	if _, ok := store.PendingDelete(1); ok {
		t.Fatalf("expected pending delete to be dropped when a review starts")
	}
	if cardID, ok := store.ActiveCard(1); !ok || cardID != 42 {
		t.Fatalf("expected active card 42, got %d (ok=%v)", cardID, ok)
	}
}

func TestClear(t *testing.T) {
	store := NewStore(StoreConfig{})
	store.SetActiveCard(1, 42)
	store.Clear(1)
	if _, ok := store.ActiveCard(1); ok {
		t.Fatalf("expected cleared session to have no active card")
	}
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	now := time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore(StoreConfig{
		TTL: 10 * time.Minute,
		Clock: func() time.Time {
			return now
		},
	})

	store.SetActiveCard(1, 42)
	now = now.Add(9 * time.Minute)
	if _, ok := store.ActiveCard(1); !ok {
		t.Fatalf("expected entry to survive inside the TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.ActiveCard(1); ok {
		t.Fatalf("expected entry to expire past the TTL")
	}

	store.SetPendingDelete(2, 9)
	now = now.Add(11 * time.Minute)
	if _, ok := store.PendingDelete(2); ok {
		t.Fatalf("expected pending delete to expire past the TTL")
	}
}
