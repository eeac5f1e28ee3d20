package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkodela/dailyquest/models"
)

func TestSubmitCompletesTaskAndSettlesReward(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	res, err := svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 400), "p1")
	require.NoError(t, err)
	assert.False(t, res.TaskCompleted)
	assert.Nil(t, res.Reward)
	assert.True(t, res.Submission.Valid)

	res, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "workout", clock.Minute(dayStart, 500), "p2")
	require.NoError(t, err)
	assert.False(t, res.TaskCompleted)

	res, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "tablets", clock.Minute(dayStart, 700), "p3")
	require.NoError(t, err)
	assert.True(t, res.TaskCompleted)
	assert.True(t, res.AllOnTime)
	assert.True(t, res.RewardEligible)
	require.NotNil(t, res.Reward)
	assert.Equal(t, "2025-06-01", res.Reward.Day)
	assert.Equal(t, uint(0), res.Reward.SourceID)

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, 10, got.XP)
	assert.Equal(t, 5, got.CurrencyEarned)
	assert.Equal(t, 1, got.Level)

	var progress models.DailyProgress
	require.NoError(t, db.Where("user_id = ? AND day = ?", user.ID, "2025-06-01").First(&progress).Error)
	assert.Equal(t, 3, progress.CompletedSubtasks)
	assert.Equal(t, 1, progress.CompletedTasks)
	assert.Equal(t, 10, progress.CreditedXP)
	assert.Equal(t, 5, progress.CreditedCurrency)
	assert.False(t, progress.Settled)
}

func TestDuplicateSubmissionKeepsFirstRecord(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 400), "first")
	require.NoError(t, err)

	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 800), "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	var dup *DuplicateSubmissionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.Submission.ID, dup.ExistingID)

	var rows []models.Submission
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0].ProofRef)
}

func TestLateSubmissionCompletesWithoutReward(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	// Workout lands after the 09:00 cutoff.
	res, err := svc.SubmitSubtask(ctx, user.ID, task.ID, "workout", clock.Minute(dayStart, 600), "p1")
	require.NoError(t, err)
	assert.False(t, res.Submission.Valid)
	assert.Equal(t, "Task must be completed before 09:00 AM", res.Submission.ValidationMessage)

	// The stored row must carry the verdict too, not just the returned struct.
	var stored models.Submission
	require.NoError(t, db.Where("user_id = ? AND task_id = ? AND subtask_key = ?",
		user.ID, task.ID, "workout").First(&stored).Error)
	assert.False(t, stored.Valid)

	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 650), "p2")
	require.NoError(t, err)

	res, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "tablets", clock.Minute(dayStart, 700), "p3")
	require.NoError(t, err)
	assert.True(t, res.TaskCompleted)
	assert.False(t, res.AllOnTime)
	assert.False(t, res.RewardEligible)
	assert.Nil(t, res.Reward)

	var rewardCount int64
	require.NoError(t, db.Model(&models.Reward{}).Count(&rewardCount).Error)
	assert.Zero(t, rewardCount)

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Zero(t, got.XP)
	assert.Zero(t, got.CurrencyEarned)
}

func TestSubmitErrors(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.SubmitSubtask(ctx, user.ID, 999, "journal", now, "p")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "no-such-subtask", now, "p")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)

	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Update("active", false).Error)
	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", now, "p")
	assert.ErrorIs(t, err, ErrTaskInactive)
}

func TestSubmitSubtaskForDayRejectsWrongDay(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.SubmitSubtaskForDay(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 400), "p", "2025-06-02")
	assert.ErrorIs(t, err, ErrWrongDay)

	res, err := svc.SubmitSubtaskForDay(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 400), "p", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", res.Submission.Day)
}

func TestIssueRewardExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)
	ctx := context.Background()

	req := RewardRequest{
		UserID: user.ID, TaskID: task.ID, Day: "2025-06-01",
		RewardXP: 10, RewardCurrency: 5, Multiplier: 1,
	}

	reward, err := svc.IssueReward(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, reward)

	again, err := svc.IssueReward(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, again)

	var count int64
	require.NoError(t, db.Model(&models.Reward{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, 10, got.XP)
	assert.Equal(t, 5, got.CurrencyEarned)
}

func TestRewardMultiplierApplied(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)
	ctx := context.Background()

	reward, err := svc.IssueReward(ctx, RewardRequest{
		UserID: user.ID, TaskID: task.ID, Day: "2025-06-01",
		RewardXP: 10, RewardCurrency: 5, Multiplier: 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, reward.TotalXP())
	assert.Equal(t, 8, reward.TotalCurrency())

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, 15, got.XP)
	assert.Equal(t, 8, got.CurrencyEarned)
}

func TestSubmitBonusSettlesPerRecord(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	bonus, reward, err := svc.SubmitBonus(ctx, user.ID, task.ID, "journal",
		models.BonusAdditionalVideo, clock.Minute(dayStart, 700), "v1", 20)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, bonus.ID, reward.SourceID)
	assert.Equal(t, 20, reward.TotalCurrency())
	assert.Zero(t, reward.TotalXP())

	// A second bonus of the same type on the same day is its own record and
	// settles independently.
	_, reward2, err := svc.SubmitBonus(ctx, user.ID, task.ID, "journal",
		models.BonusAdditionalVideo, clock.Minute(dayStart, 800), "v2", 20)
	require.NoError(t, err)
	require.NotNil(t, reward2)
	assert.NotEqual(t, reward.SourceID, reward2.SourceID)

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, 40, got.CurrencyEarned)
	assert.Zero(t, got.XP)
}

func TestCreditUserRecomputesLevel(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "asha")
	ctx := context.Background()

	require.NoError(t, CreditUser(ctx, db, user.ID, 250, 0))

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, 250, got.XP)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 300, got.NextLevelXP())

	err := CreditUser(ctx, db, 999, 10, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProgressView(t *testing.T) {
	db := newTestDB(t)
	clock := NewDayClock(330)
	svc := NewTaskService(db, clock)
	user := seedUser(t, db, "asha")
	task := seedTask(t, db)

	dayStart, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "journal", clock.Minute(dayStart, 400), "p1")
	require.NoError(t, err)
	_, err = svc.SubmitSubtask(ctx, user.ID, task.ID, "workout", clock.Minute(dayStart, 600), "late")
	require.NoError(t, err)

	view, err := svc.Progress(ctx, user.ID, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, view, 1)

	tp := view[0]
	assert.Equal(t, 2, tp.Completed)
	assert.Equal(t, 3, tp.Total)
	assert.Equal(t, 66, tp.Percentage)
	assert.False(t, tp.IsCompleted)
	assert.False(t, tp.RewardEligible)

	kinds := map[string]string{}
	for _, sp := range tp.Subtasks {
		kinds[sp.Key] = sp.DeadlineKind
	}
	assert.Equal(t, "anytime", kinds["journal"])
	assert.Equal(t, "cutoff", kinds["workout"])
	assert.Equal(t, "window", kinds["tablets"])
}
