package bot

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDueNotifierSendsGroupedCounts(t *testing.T) {
	now := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	fix := newFixture(t, now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := fix.cards.Add(ctx, 7, "math", "q", "a"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := fix.cards.Add(ctx, 7, "bio", "q", "a"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	notify := DueNotifier(fix.cards, fix.transport)
	if err := notify(ctx, 7); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	message := fix.transport.last(t).Message
	if !strings.Contains(message.Text, "Review reminder") {
		t.Fatalf("expected reminder heading, got %q", message.Text)
	}
	if !strings.Contains(message.Text, "*3* cards") || !strings.Contains(message.Text, "*2* cards") {
		t.Fatalf("expected per-deck counts, got %q", message.Text)
	}
	if !strings.Contains(message.Text, "/review") {
		t.Fatalf("expected the call to action, got %q", message.Text)
	}
}

func TestDueNotifierSilentWhenNothingDue(t *testing.T) {
	now := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	fix := newFixture(t, now)

	notify := DueNotifier(fix.cards, fix.transport)
	if err := notify(context.Background(), 7); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(fix.transport.outbox) != 0 {
		t.Fatalf("expected no message when nothing is due, got %d", len(fix.transport.outbox))
	}
}
