package decks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Deck{}, &UserSetting{}); err != nil {
		t.Fatalf("failed to migrate deck schema: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	name, err := service.Create(ctx, 7, "  Math ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if name != "math" {
		t.Fatalf("expected normalized name %q, got %q", "math", name)
	}

	if _, err := service.Create(ctx, 7, "MATH"); !errors.Is(err, ErrDeckExists) {
		t.Fatalf("expected duplicate deck error, got %v", err)
	}

	// Same name under a different user is fine.
	if _, err := service.Create(ctx, 8, "math"); err != nil {
		t.Fatalf("expected per-user uniqueness, got %v", err)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	service := newTestService(t)
	if _, err := service.Create(context.Background(), 7, "   "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name error, got %v", err)
	}
}

func TestSelectNormalizesLookup(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, 7, "math"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.Select(ctx, 7, "Math"); err != nil {
		t.Fatalf("expected case-insensitive selection, got %v", err)
	}

	current, err := service.Current(ctx, 7)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != "math" {
		t.Fatalf("expected current deck %q, got %q", "math", current)
	}
}

func TestSelectUnknownDeck(t *testing.T) {
	service := newTestService(t)
	if err := service.Select(context.Background(), 7, "missing"); !errors.Is(err, ErrDeckNotFound) {
		t.Fatalf("expected deck not found, got %v", err)
	}
}

func TestSelectReplacesPreviousSelection(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"math", "bio"} {
		if _, err := service.Create(ctx, 7, name); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	if err := service.Select(ctx, 7, "math"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := service.Select(ctx, 7, "bio"); err != nil {
		t.Fatalf("second select failed: %v", err)
	}

	var settings []UserSetting
	if err := service.db.Find(&settings).Error; err != nil {
		t.Fatalf("failed to read settings: %v", err)
	}
	if len(settings) != 1 {
		t.Fatalf("expected one settings row per user, got %d", len(settings))
	}
	if settings[0].CurrentDeck != "bio" {
		t.Fatalf("expected current deck %q, got %q", "bio", settings[0].CurrentDeck)
	}
}

func TestCurrentDefaultsWhenNeverSelected(t *testing.T) {
	service := newTestService(t)
	current, err := service.Current(context.Background(), 7)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != DefaultDeck {
		t.Fatalf("expected default deck %q, got %q", DefaultDeck, current)
	}
}

func TestCurrentReadsStoredSettingAfterRestart(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, 7, "math"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := service.Select(ctx, 7, "math"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	// A fresh service over the same database models a process restart with a
	// cold cache.
	restarted, err := NewService(ServiceConfig{Database: service.db})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	current, err := restarted.Current(ctx, 7)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != "math" {
		t.Fatalf("expected stored selection %q, got %q", "math", current)
	}
}

func TestListReturnsOnlyOwnDecks(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"math", "bio"} {
		if _, err := service.Create(ctx, 7, name); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := service.Create(ctx, 8, "history"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	names, err := service.List(ctx, 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 2 || names[0] != "bio" || names[1] != "math" {
		t.Fatalf("expected [bio math], got %v", names)
	}
}
