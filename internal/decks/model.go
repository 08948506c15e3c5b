package decks

import "strings"

// Deck is a named grouping of cards owned by one user. Names are unique per
// user.
type Deck struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID int64  `gorm:"column:user_id;not null;uniqueIndex:idx_decks_user_name,priority:1"`
	Name   string `gorm:"column:name;size:190;not null;uniqueIndex:idx_decks_user_name,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Deck) TableName() string {
	return "decks"
}

// UserSetting keeps the deck a user is currently working in. One row per
// user, upserted on every deck switch.
type UserSetting struct {
	UserID      int64  `gorm:"column:user_id;primaryKey"`
	CurrentDeck string `gorm:"column:current_deck;size:190;not null;default:'default'"`
}

// TableName provides the explicit table binding for GORM.
func (UserSetting) TableName() string {
	return "user_settings"
}

// DefaultDeck is the deck name assumed when a user never selected one.
const DefaultDeck = "default"

// Normalize is the canonical deck-name policy: trimmed and lowercased, applied
// on both write and lookup.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
