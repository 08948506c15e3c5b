package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fireRecorder struct {
	mu    sync.Mutex
	fires []int64
}

func (r *fireRecorder) notify(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, chatID)
	return nil
}

func (r *fireRecorder) count(chatID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, fired := range r.fires {
		if fired == chatID {
			total++
		}
	}
	return total
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestScheduleRejectsNonPositivePeriod(t *testing.T) {
	recorder := &fireRecorder{}
	scheduler, err := NewScheduler(SchedulerConfig{Notifier: recorder.notify})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	defer scheduler.Stop()

	for _, period := range []int{0, -1} {
		if err := scheduler.Schedule(1, period); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("period %d: expected ErrInvalidPeriod, got %v", period, err)
		}
	}
}

func TestScheduleFiresAndRepeats(t *testing.T) {
	recorder := &fireRecorder{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Notifier:   recorder.notify,
		FirstDelay: time.Millisecond,
		DayLength:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	defer scheduler.Stop()

	if err := scheduler.Schedule(1, 1); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return recorder.count(1) >= 3
	})
}

func TestScheduleReplacesExistingTimer(t *testing.T) {
	recorder := &fireRecorder{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Notifier:   recorder.notify,
		FirstDelay: time.Millisecond,
		DayLength:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	defer scheduler.Stop()

	// A long-period timer replaced by another long-period one: only the
	// first fires of each schedule land, so two schedules yield at most two
	// fires in the observation window. A leaked timer would keep firing.
	if err := scheduler.Schedule(1, 100); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return recorder.count(1) == 1
	})

	if err := scheduler.Schedule(1, 100); err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return recorder.count(1) == 2
	})

	scheduler.mu.Lock()
	active := len(scheduler.jobs)
	scheduler.mu.Unlock()
	if active != 1 {
		t.Fatalf("expected exactly one active timer for the chat, got %d", active)
	}
}

func TestCancelStopsFiring(t *testing.T) {
	recorder := &fireRecorder{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Notifier:   recorder.notify,
		FirstDelay: time.Millisecond,
		DayLength:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	defer scheduler.Stop()

	if err := scheduler.Schedule(1, 1); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return recorder.count(1) >= 1
	})

	scheduler.Cancel(1)
	settled := recorder.count(1)
	time.Sleep(50 * time.Millisecond)
	if recorder.count(1) > settled+1 {
		t.Fatalf("expected firing to stop after cancel, count went from %d to %d", settled, recorder.count(1))
	}
}

func TestNotifierFailureDoesNotStopSchedule(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	scheduler, err := NewScheduler(SchedulerConfig{
		Notifier: func(context.Context, int64) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return errors.New("transport down")
		},
		FirstDelay: time.Millisecond,
		DayLength:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	defer scheduler.Stop()

	if err := scheduler.Schedule(1, 1); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	})
}
