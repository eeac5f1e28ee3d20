package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkodela/dailyquest/models"
)

func TestStreakFromDays(t *testing.T) {
	clock := NewDayClock(330)

	tests := []struct {
		name   string
		days   []string
		refDay string
		want   int
	}{
		{"no history", nil, "2025-06-10", 0},
		{"reference day counted", []string{"2025-06-10", "2025-06-09", "2025-06-08"}, "2025-06-10", 3},
		{"reference day pending does not break the run", []string{"2025-06-09", "2025-06-08"}, "2025-06-10", 2},
		{"two missing days break the run", []string{"2025-06-08", "2025-06-07"}, "2025-06-10", 0},
		{"gap ends the walk", []string{"2025-06-10", "2025-06-09", "2025-06-07"}, "2025-06-10", 2},
		{"single day", []string{"2025-06-10"}, "2025-06-10", 1},
		{"month boundary", []string{"2025-06-01", "2025-05-31", "2025-05-30"}, "2025-06-01", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StreakFromDays(clock, tt.days, tt.refDay))
		})
	}
}

func TestCurrentForDayCountsOnlyValidSubmissions(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	user := seedUser(t, db, "asha")

	now := time.Now().UTC()
	rows := []models.Submission{
		{UserID: user.ID, TaskID: 1, SubtaskKey: "journal", Day: "2025-06-10", SubmittedAt: now, ProofRef: "p1", Valid: true},
		{UserID: user.ID, TaskID: 1, SubtaskKey: "journal", Day: "2025-06-09", SubmittedAt: now, ProofRef: "p2", Valid: true},
		// A late-only day does not extend the streak.
		{UserID: user.ID, TaskID: 1, SubtaskKey: "journal", Day: "2025-06-08", SubmittedAt: now, ProofRef: "p3", Valid: false},
		{UserID: user.ID, TaskID: 1, SubtaskKey: "journal", Day: "2025-06-07", SubmittedAt: now, ProofRef: "p4", Valid: true},
	}
	require.NoError(t, db.Create(&rows).Error)

	streaks := NewStreakCalculator(db, clock)

	streak, err := streaks.CurrentForDay(context.Background(), user.ID, "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	// Other users' submissions are invisible.
	other := seedUser(t, db, "ravi")
	streak, err = streaks.CurrentForDay(context.Background(), other.ID, "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}
