package decks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrDeckExists indicates the user already has a deck with that name.
	ErrDeckExists = errors.New("decks: deck already exists")
	// ErrDeckNotFound indicates no deck with that name belongs to the user.
	ErrDeckNotFound = errors.New("decks: deck not found")
	// ErrInvalidName indicates an empty or unusable deck name.
	ErrInvalidName = errors.New("decks: invalid deck name")
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
	opServiceNew  = "decks.service.new"
	opCreateDeck  = "decks.create"
	opListDecks   = "decks.list"
	opSelectDeck  = "decks.select"
	opCurrentDeck = "decks.current"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the deck service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service manages deck records and the per-user current-deck selection. The
// current selection is cached in memory; the store remains the source of
// truth across restarts.
type Service struct {
	db      *gorm.DB
	logger  *zap.Logger
	current sync.Map
}

// NewService constructs the deck service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:     cfg.Database,
		logger: logger,
	}, nil
}

// Create registers a new deck for the user and returns the canonical name.
func (s *Service) Create(ctx context.Context, userID int64, name string) (string, error) {
	canonical := Normalize(name)
	if canonical == "" {
		return "", ErrInvalidName
	}

	deck := Deck{UserID: userID, Name: canonical}
	if err := s.db.WithContext(ctx).Create(&deck).Error; err != nil {
		if isUniqueViolation(err) {
			return "", ErrDeckExists
		}
		s.logError(opCreateDeck, "insert_failed", err, zap.Int64("user_id", userID), zap.String("deck", canonical))
		return "", newServiceError(opCreateDeck, "insert_failed", err)
	}
	return canonical, nil
}

// List returns the user's deck names.
func (s *Service) List(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&Deck{}).
		Where("user_id = ?", userID).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		s.logError(opListDecks, "query_failed", err, zap.Int64("user_id", userID))
		return nil, newServiceError(opListDecks, "query_failed", err)
	}
	return names, nil
}

// Select makes the named deck the user's current deck. The name is
// normalized before lookup, so selection matches creation regardless of the
// casing the user typed.
func (s *Service) Select(ctx context.Context, userID int64, name string) error {
	canonical := Normalize(name)
	if canonical == "" {
		return ErrInvalidName
	}

	var deck Deck
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, canonical).
		Take(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDeckNotFound
	}
	if err != nil {
		s.logError(opSelectDeck, "select_failed", err, zap.Int64("user_id", userID), zap.String("deck", canonical))
		return newServiceError(opSelectDeck, "select_failed", err)
	}

	setting := UserSetting{UserID: userID, CurrentDeck: canonical}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_deck"}),
		}).
		Create(&setting).Error
	if err != nil {
		s.logError(opSelectDeck, "upsert_failed", err, zap.Int64("user_id", userID), zap.String("deck", canonical))
		return newServiceError(opSelectDeck, "upsert_failed", err)
	}

	s.current.Store(userID, canonical)
	return nil
}

// Current returns the user's selected deck, falling back to the stored
// setting and then to the default deck. A missing setting is not an error.
func (s *Service) Current(ctx context.Context, userID int64) (string, error) {
	if cached, ok := s.current.Load(userID); ok {
		if name, ok := cached.(string); ok {
			return name, nil
		}
	}

	var setting UserSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultDeck, nil
	}
	if err != nil {
		s.logError(opCurrentDeck, "query_failed", err, zap.Int64("user_id", userID))
		return "", newServiceError(opCurrentDeck, "query_failed", err)
	}

	name := setting.CurrentDeck
	if name == "" {
		name = DefaultDeck
	}
	s.current.Store(userID, name)
	return name, nil
}

// isUniqueViolation recognizes the sqlite uniqueness failure for the
// per-user deck name constraint.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
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
	s.logger.Error("decks service error", attrs...)
}
