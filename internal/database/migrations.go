package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationNormalizeDeckNames = "2026-04-01_normalize_deck_names"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeDeckNames, apply: normalizeDeckNames},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizeDeckNames applies the canonical lowercase deck-name policy to rows
// written before the policy existed. Deck selection was not normalized
// historically, so mixed-case names can exist in all three tables.
func normalizeDeckNames(db *gorm.DB) error {
	if err := db.Exec("UPDATE decks SET name = lower(trim(name)) WHERE name <> lower(trim(name));").Error; err != nil {
		return err
	}
	if err := db.Exec("UPDATE cards SET deck = lower(trim(deck)) WHERE deck <> lower(trim(deck));").Error; err != nil {
		return err
	}
	return db.Exec("UPDATE user_settings SET current_deck = lower(trim(current_deck)) WHERE current_deck <> lower(trim(current_deck));").Error
}
