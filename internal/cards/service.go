package cards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnemolab/recall/internal/scheduling"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrCardNotFound indicates the card does not exist or belongs to a
	// different user.
	ErrCardNotFound = errors.New("cards: card not found")
)

// ServiceError carries an operation/reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "cards.service.new"
	opAddCard        = "cards.add"
	opListCards      = "cards.list"
	opDeleteCard     = "cards.delete"
	opDueCard        = "cards.due"
	opGetCard        = "cards.get"
	opApplyReview    = "cards.apply_review"
	opCountDueByDeck = "cards.count_due_by_deck"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// seedIntervalDays is the interval written when a card is created.
const seedIntervalDays = 1.0

// ServiceConfig describes the dependencies of the card service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns the card access patterns: creation, listing, deletion, due
// selection, and the review state transition.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the card service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: logger,
	}, nil
}

// today returns the current date at UTC midnight. All due comparisons and
// schedule writes happen at this granularity.
func (s *Service) today() time.Time {
	now := s.clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Add creates a card in the given deck, due immediately.
func (s *Service) Add(ctx context.Context, userID int64, deck, front, back string) (Card, error) {
	card := Card{
		UserID:     userID,
		Deck:       deck,
		Front:      front,
		Back:       back,
		Interval:   seedIntervalDays,
		NextReview: s.today(),
		Reviews:    0,
	}
	if err := s.db.WithContext(ctx).Create(&card).Error; err != nil {
		s.logError(opAddCard, "insert_failed", err, zap.Int64("user_id", userID), zap.String("deck", deck))
		return Card{}, newServiceError(opAddCard, "insert_failed", err)
	}
	return card, nil
}

// List returns the user's cards in the given deck, ordered by id ascending.
func (s *Service) List(ctx context.Context, userID int64, deck string) ([]Card, error) {
	var result []Card
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND deck = ?", userID, deck).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		s.logError(opListCards, "query_failed", err, zap.Int64("user_id", userID), zap.String("deck", deck))
		return nil, newServiceError(opListCards, "query_failed", err)
	}
	return result, nil
}

// Delete removes the card if it belongs to the user. The check and the
// delete are separate statements; a concurrent delete simply makes the
// second caller see ErrCardNotFound.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	var existing Card
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCardNotFound
	}
	if err != nil {
		s.logError(opDeleteCard, "select_failed", err, zap.Int64("card_id", id), zap.Int64("user_id", userID))
		return newServiceError(opDeleteCard, "select_failed", err)
	}

	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Card{}).Error
	if err != nil {
		s.logError(opDeleteCard, "delete_failed", err, zap.Int64("card_id", id), zap.Int64("user_id", userID))
		return newServiceError(opDeleteCard, "delete_failed", err)
	}
	return nil
}

// Due returns one card in the deck whose next review date is on or before
// today, or nil when none is due. Selection among candidates is arbitrary:
// no ordering is requested, so callers must not rely on oldest-first.
func (s *Service) Due(ctx context.Context, userID int64, deck string) (*Card, error) {
	var card Card
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND deck = ? AND next_review <= ?", userID, deck, s.today()).
		Take(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opDueCard, "query_failed", err, zap.Int64("user_id", userID), zap.String("deck", deck))
		return nil, newServiceError(opDueCard, "query_failed", err)
	}
	return &card, nil
}

// Get fetches a card by id, returning nil when it does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*Card, error) {
	var card Card
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opGetCard, "query_failed", err, zap.Int64("card_id", id))
		return nil, newServiceError(opGetCard, "query_failed", err)
	}
	return &card, nil
}

// ApplyReview records an interval choice: interval, next review date, and
// the review counter change together in a single UPDATE so no partial state
// is ever visible.
func (s *Service) ApplyReview(ctx context.Context, id int64, offsetDays float64) (ReviewResult, error) {
	next := scheduling.NextReview(s.today(), offsetDays)

	result := s.db.WithContext(ctx).
		Model(&Card{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"interval":    offsetDays,
			"next_review": next,
			"reviews":     gorm.Expr("reviews + 1"),
		})
	if result.Error != nil {
		s.logError(opApplyReview, "update_failed", result.Error, zap.Int64("card_id", id))
		return ReviewResult{}, newServiceError(opApplyReview, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ReviewResult{}, ErrCardNotFound
	}

	return ReviewResult{Interval: offsetDays, NextReview: next}, nil
}

type deckDueRow struct {
	Deck string
	Due  int
}

// CountDueByDeck groups the user's due cards by deck name. Decks with no due
// cards do not appear in the result.
func (s *Service) CountDueByDeck(ctx context.Context, userID int64) (map[string]int, error) {
	var rows []deckDueRow
	err := s.db.WithContext(ctx).
		Model(&Card{}).
		Select("deck, COUNT(*) AS due").
		Where("user_id = ? AND next_review <= ?", userID, s.today()).
		Group("deck").
		Scan(&rows).Error
	if err != nil {
		s.logError(opCountDueByDeck, "query_failed", err, zap.Int64("user_id", userID))
		return nil, newServiceError(opCountDueByDeck, "query_failed", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Deck] = row.Due
	}
	return counts, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("cards service error", attrs...)
}
