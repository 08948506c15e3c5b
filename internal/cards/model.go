package cards

import "time"

// Card models one question/answer pair with its review schedule. Interval is
// measured in days and may be fractional for sub-day intervals; NextReview is
// held at date granularity (UTC midnight).
type Card struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:user_id;not null;index:idx_cards_user_deck,priority:1"`
	Deck       string    `gorm:"column:deck;size:190;not null;index:idx_cards_user_deck,priority:2"`
	Front      string    `gorm:"column:front;type:text;not null"`
	Back       string    `gorm:"column:back;type:text;not null"`
	Interval   float64   `gorm:"column:interval;not null;default:1"`
	NextReview time.Time `gorm:"column:next_review;not null;index"`
	Reviews    int       `gorm:"column:reviews;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (Card) TableName() string {
	return "cards"
}

// ReviewResult reports the schedule state written by ApplyReview.
type ReviewResult struct {
	Interval   float64
	NextReview time.Time
}
