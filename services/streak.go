package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rkodela/dailyquest/models"
)

// streakScanLimit bounds how many distinct days are pulled for the backward
// walk; a streak longer than this is effectively unbounded history anyway.
const streakScanLimit = 400

// StreakCalculator derives the current consecutive-day streak from the
// submission ledger. It is a pure read; nothing here mutates state.
type StreakCalculator struct {
	db    *gorm.DB
	clock DayClock
}

func NewStreakCalculator(db *gorm.DB, clock DayClock) *StreakCalculator {
	return &StreakCalculator{db: db, clock: clock}
}

// Current computes the streak as of the given instant.
func (s *StreakCalculator) Current(ctx context.Context, userID uint, asOf time.Time) (int, error) {
	return s.CurrentForDay(ctx, userID, s.clock.DayKey(asOf))
}

// CurrentForDay computes the streak with an explicit reference day key.
func (s *StreakCalculator) CurrentForDay(ctx context.Context, userID uint, refDay string) (int, error) {
	var days []string
	if err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ? AND valid = ?", userID, true).
		Distinct("day").Order("day DESC").Limit(streakScanLimit).
		Pluck("day", &days).Error; err != nil {
		return 0, err
	}
	return StreakFromDays(s.clock, days, refDay), nil
}

// StreakFromDays walks backward from refDay over the set of days that have at
// least one valid submission, counting the unbroken run. A reference day with
// no submission yet does not break the streak; the walk simply starts at the
// day before. The first missing day after that ends the run.
func StreakFromDays(clock DayClock, days []string, refDay string) int {
	if len(days) == 0 {
		return 0
	}
	present := make(map[string]bool, len(days))
	for _, d := range days {
		present[d] = true
	}

	check := refDay
	if !present[check] {
		check = clock.AddDays(check, -1)
	}

	streak := 0
	for present[check] {
		streak++
		check = clock.AddDays(check, -1)
	}
	return streak
}
