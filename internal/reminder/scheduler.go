// Package reminder delivers periodic due-card notifications. Each chat owns
// at most one recurring timer; scheduling again for the same chat cancels
// and replaces the previous one. Delivery is best-effort: a failed fire is
// logged and the next tick proceeds as scheduled.
package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultFirstDelay = 5 * time.Second
	defaultDayLength  = 24 * time.Hour
	deliveryTimeout   = 30 * time.Second
)

var (
	errMissingNotifier = errors.New("reminder: notifier is required")

	// ErrInvalidPeriod indicates a non-positive reminder period.
	ErrInvalidPeriod = errors.New("reminder: period must be at least one day")
)

// Notifier delivers one reminder to a chat.
type Notifier func(ctx context.Context, chatID int64) error

// SchedulerConfig describes the scheduler dependencies. DayLength scales the
// period unit and exists for tests; it defaults to 24 hours.
type SchedulerConfig struct {
	Notifier   Notifier
	FirstDelay time.Duration
	DayLength  time.Duration
	Logger     *zap.Logger
}

// Scheduler keeps one recurring reminder timer per chat.
type Scheduler struct {
	mu         sync.Mutex
	jobs       map[int64]chan struct{}
	notify     Notifier
	firstDelay time.Duration
	dayLength  time.Duration
	logger     *zap.Logger
}

// NewScheduler constructs the reminder scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Notifier == nil {
		return nil, errMissingNotifier
	}
	firstDelay := cfg.FirstDelay
	if firstDelay <= 0 {
		firstDelay = defaultFirstDelay
	}
	dayLength := cfg.DayLength
	if dayLength <= 0 {
		dayLength = defaultDayLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:       make(map[int64]chan struct{}),
		notify:     cfg.Notifier,
		firstDelay: firstDelay,
		dayLength:  dayLength,
		logger:     logger,
	}, nil
}

// Schedule starts a recurring reminder for the chat, replacing any existing
// one. The first fire happens after the configured first delay, then every
// periodDays days.
func (s *Scheduler) Schedule(chatID int64, periodDays int) error {
	if periodDays < 1 {
		return ErrInvalidPeriod
	}
	period := time.Duration(periodDays) * s.dayLength

	s.mu.Lock()
	if stop, ok := s.jobs[chatID]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.jobs[chatID] = stop
	s.mu.Unlock()

	go s.run(chatID, period, stop)
	return nil
}

// Cancel stops the chat's reminder, if any.
func (s *Scheduler) Cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.jobs[chatID]; ok {
		close(stop)
		delete(s.jobs, chatID)
	}
}

// Stop cancels every reminder. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, stop := range s.jobs {
		close(stop)
		delete(s.jobs, chatID)
	}
}

func (s *Scheduler) run(chatID int64, period time.Duration, stop chan struct{}) {
	timer := time.NewTimer(s.firstDelay)
	defer timer.Stop()
	select {
	case <-stop:
		return
	case <-timer.C:
	}
	s.fire(chatID)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.fire(chatID)
		}
	}
}

func (s *Scheduler) fire(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := s.notify(ctx, chatID); err != nil {
		s.logger.Warn("reminder delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
