package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/mnemolab/recall/internal/cards"
	"github.com/mnemolab/recall/internal/decks"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsNormalizesDeckNames(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&cards.Card{}, &decks.Deck{}, &decks.UserSetting{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := database.Create(&decks.Deck{UserID: 7, Name: "Math"}).Error; err != nil {
		testContext.Fatalf("failed to insert deck: %v", err)
	}
	if err := database.Create(&decks.UserSetting{UserID: 7, CurrentDeck: "Math"}).Error; err != nil {
		testContext.Fatalf("failed to insert setting: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var storedDeck decks.Deck
	if err := database.Where("user_id = ?", 7).Take(&storedDeck).Error; err != nil {
		testContext.Fatalf("failed to reload deck: %v", err)
	}
	if storedDeck.Name != "math" {
		testContext.Fatalf("expected lowercased deck name, got %q", storedDeck.Name)
	}

	var storedSetting decks.UserSetting
	if err := database.Where("user_id = ?", 7).Take(&storedSetting).Error; err != nil {
		testContext.Fatalf("failed to reload setting: %v", err)
	}
	if storedSetting.CurrentDeck != "math" {
		testContext.Fatalf("expected lowercased current deck, got %q", storedSetting.CurrentDeck)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationNormalizeDeckNames).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}

	// A second run finds the record and does nothing.
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("second migration pass failed: %v", err)
	}
}
