// Package scheduling holds the interval ladder and the date arithmetic that
// drive card reviews. It is a pure package: no storage, no clock, no logger.
package scheduling

import (
	"fmt"
	"time"
)

// Choice is one option offered to the user after an answer is revealed.
// Days may be fractional for sub-day intervals.
type Choice struct {
	Label string
	Days  float64
}

// ladder maps a review-count bucket to the choices offered at that bucket.
// Each bucket currently carries a single choice; the nested slice keeps room
// for multiple choices per bucket.
var ladder = [][]Choice{
	{{Label: "5 hours", Days: 5.0 / 24.0}},
	{{Label: "1 day", Days: 1}},
	{{Label: "2 days", Days: 2}},
	{{Label: "3 days", Days: 3}},
	{{Label: "9 days", Days: 9}},
	{{Label: "27 days", Days: 27}},
	{{Label: "54 days", Days: 54}},
	{{Label: "81 days", Days: 81}},
	{{Label: "162 days", Days: 162}},
}

// Choices returns the interval options for a card that has been reviewed
// reviewCount times. Counts beyond the ladder clamp to the last bucket, so
// reviewing never runs off the end of the schedule.
func Choices(reviewCount int) []Choice {
	if reviewCount < 0 {
		reviewCount = 0
	}
	if reviewCount > len(ladder)-1 {
		reviewCount = len(ladder) - 1
	}
	options := make([]Choice, len(ladder[reviewCount]))
	copy(options, ladder[reviewCount])
	return options
}

// NextReview computes the due date after choosing an offset. Arithmetic is
// date-only: the fractional part of offsetDays is discarded, so a 5-hour
// offset advances the date by zero days and the card is due again the same
// day. That behavior is intentional and must not be rounded up.
func NextReview(today time.Time, offsetDays float64) time.Time {
	day := today.UTC()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, int(offsetDays))
}

// FormatOffset renders an offset the way it is shown to users: sub-day
// offsets as whole hours, day-or-greater offsets as whole days.
func FormatOffset(offsetDays float64) string {
	if offsetDays < 1 {
		return fmt.Sprintf("%d hour(s)", int(offsetDays*24))
	}
	return fmt.Sprintf("%d day(s)", int(offsetDays))
}
