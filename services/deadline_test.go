package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkodela/dailyquest/models"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		st   models.Subtask
		want DeadlineKind
	}{
		{"zero means anytime", models.Subtask{DeadlineMinutes: 0}, DeadlineAnytime},
		{"full day means anytime", models.Subtask{DeadlineMinutes: 1440}, DeadlineAnytime},
		{"beyond full day means anytime", models.Subtask{DeadlineMinutes: 2000}, DeadlineAnytime},
		{"one minute is a cutoff", models.Subtask{DeadlineMinutes: 1}, DeadlineCutoff},
		{"last minute is a cutoff", models.Subtask{DeadlineMinutes: 1439}, DeadlineCutoff},
		{"window wins over cutoff", models.Subtask{DeadlineMinutes: 540, WindowStartMin: 660, WindowEndMin: 1080}, DeadlineWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(&tt.st))
		})
	}
}

func TestEvaluateCutoff(t *testing.T) {
	clock := NewDayClock(330)
	policy := NewDeadlinePolicy(clock)
	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)

	st := &models.Subtask{Name: "Morning workout", DeadlineMinutes: 540}

	v := policy.Evaluate(st, clock.Minute(dayStart, 539), dayStart)
	assert.True(t, v.Valid)
	assert.Equal(t, "Task completed within time limit", v.Message)

	// The deadline minute itself is still on time.
	v = policy.Evaluate(st, clock.Minute(dayStart, 540), dayStart)
	assert.True(t, v.Valid)

	v = policy.Evaluate(st, clock.Minute(dayStart, 541), dayStart)
	assert.False(t, v.Valid)
	assert.Equal(t, "Task must be completed before 09:00 AM", v.Message)
}

func TestEvaluateWindow(t *testing.T) {
	clock := NewDayClock(330)
	policy := NewDeadlinePolicy(clock)
	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)

	st := &models.Subtask{Name: "Take tablets", WindowStartMin: 660, WindowEndMin: 1080}

	v := policy.Evaluate(st, clock.Minute(dayStart, 659), dayStart)
	assert.False(t, v.Valid)
	assert.Equal(t, "Take tablets must be done between 11:00 AM and 06:00 PM", v.Message)

	assert.True(t, policy.Evaluate(st, clock.Minute(dayStart, 660), dayStart).Valid)
	assert.True(t, policy.Evaluate(st, clock.Minute(dayStart, 1080), dayStart).Valid)
	assert.False(t, policy.Evaluate(st, clock.Minute(dayStart, 1081), dayStart).Valid)
}

func TestEvaluateAnytime(t *testing.T) {
	clock := NewDayClock(330)
	policy := NewDeadlinePolicy(clock)
	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)

	st := &models.Subtask{Name: "Write journal", DeadlineMinutes: 0}

	assert.True(t, policy.Evaluate(st, dayStart, dayStart).Valid)
	assert.True(t, policy.Evaluate(st, clock.Minute(dayStart, 1439), dayStart).Valid)
	assert.True(t, policy.Evaluate(st, dayStart.Add(23*time.Hour+59*time.Minute+59*time.Second), dayStart).Valid)
}
