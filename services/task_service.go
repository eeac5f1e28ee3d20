package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/utils"
)

// TaskService is the submission-path engine: it admits and records subtask
// submissions, detects task completion, and settles rewards. All uniqueness
// decisions are delegated to database constraints so concurrent callers are
// totally ordered by the storage layer.
type TaskService struct {
	db     *gorm.DB
	clock  DayClock
	policy DeadlinePolicy
}

func NewTaskService(db *gorm.DB, clock DayClock) *TaskService {
	return &TaskService{db: db, clock: clock, policy: NewDeadlinePolicy(clock)}
}

// SubmissionResult is the caller-facing outcome of one recorded submission.
type SubmissionResult struct {
	Submission     *models.Submission `json:"submission"`
	TaskCompleted  bool               `json:"task_completed"`
	AllOnTime      bool               `json:"all_on_time"`
	RewardEligible bool               `json:"reward_eligible"`
	Reward         *models.Reward     `json:"reward,omitempty"`
}

// SubmitSubtask validates and durably records one subtask submission, then
// checks whether the owning task just became complete and settles its reward
// when every recorded submission was on time.
//
// A late submission is not an error: it is recorded with valid=false and the
// task can still reach "completed, not rewarded". Duplicate slots fail with
// ErrDuplicateSubmission and leave the first record untouched.
func (s *TaskService) SubmitSubtask(ctx context.Context, userID, taskID uint, subtaskKey string, submittedAt time.Time, proofRef string) (*SubmissionResult, error) {
	task, err := s.loadActiveTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	subtask := task.SubtaskByKey(subtaskKey)
	if subtask == nil {
		return nil, ErrSubtaskNotFound
	}

	day := s.clock.DayKey(submittedAt)
	dayStart, err := s.clock.DayStart(day)
	if err != nil {
		return nil, err
	}
	verdict := s.policy.Evaluate(subtask, submittedAt, dayStart)

	submission := models.Submission{
		UserID:            userID,
		TaskID:            taskID,
		SubtaskKey:        subtaskKey,
		Day:               day,
		SubmittedAt:       submittedAt,
		ProofRef:          proofRef,
		Valid:             verdict.Valid,
		ValidationMessage: verdict.Message,
	}

	// Insert-or-lose under the slot unique index; the index is the race-breaker.
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "task_id"}, {Name: "subtask_key"}, {Name: "day"},
		},
		DoNothing: true,
	}).Create(&submission)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.Submission
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND task_id = ? AND subtask_key = ? AND day = ?", userID, taskID, subtaskKey, day).
			First(&existing).Error; err != nil {
			return nil, err
		}
		utils.Sugar.Infow("duplicate submission rejected",
			"user_id", userID, "task_id", taskID, "subtask_key", subtaskKey, "day", day,
			"existing_id", existing.ID)
		return nil, &DuplicateSubmissionError{ExistingID: existing.ID, SubmittedAt: existing.SubmittedAt}
	}

	if err := s.bumpProgress(ctx, userID, day, 1, 0); err != nil {
		// Accrual snapshot is supplementary; the sweep reconciles from the
		// reward ledger, so a failed bump must not fail the submission.
		utils.Sugar.Warnw("daily progress update failed", "user_id", userID, "day", day, "err", err)
	}

	result := &SubmissionResult{Submission: &submission}
	result.TaskCompleted, result.AllOnTime, err = s.taskCompletion(ctx, userID, task, day)
	if err != nil {
		return nil, err
	}
	result.RewardEligible = result.TaskCompleted && result.AllOnTime

	if result.TaskCompleted {
		if err := s.bumpProgress(ctx, userID, day, 0, 1); err != nil {
			utils.Sugar.Warnw("daily progress update failed", "user_id", userID, "day", day, "err", err)
		}
		if !result.AllOnTime {
			utils.Sugar.Infow("task completed outside time limits, no reward",
				"user_id", userID, "task_id", taskID, "day", day)
		}
	}
	if result.RewardEligible {
		reward, err := s.IssueReward(ctx, RewardRequest{
			UserID:         userID,
			TaskID:         taskID,
			Day:            day,
			RewardXP:       task.RewardXP,
			RewardCurrency: task.RewardCurrency,
			Multiplier:     1,
		})
		if err != nil {
			return nil, err
		}
		result.Reward = reward
	}

	return result, nil
}

// SubmitSubtaskForDay is SubmitSubtask with an explicit target day. A
// submission instant that does not fall on that civil day at all (a
// cross-midnight race) is rejected outright with ErrWrongDay before any
// deadline evaluation.
func (s *TaskService) SubmitSubtaskForDay(ctx context.Context, userID, taskID uint, subtaskKey string, submittedAt time.Time, proofRef, targetDay string) (*SubmissionResult, error) {
	if s.clock.DayKey(submittedAt) != targetDay {
		return nil, ErrWrongDay
	}
	return s.SubmitSubtask(ctx, userID, taskID, subtaskKey, submittedAt, proofRef)
}

// SubmitBonus records an out-of-band rewarded activity and settles its reward
// immediately, at most once per record, without consulting task completion.
func (s *TaskService) SubmitBonus(ctx context.Context, userID, taskID uint, subtaskKey, bonusType string, submittedAt time.Time, proofRef string, rewardCurrency int) (*models.BonusSubmission, *models.Reward, error) {
	if _, err := s.loadActiveTask(ctx, taskID); err != nil {
		return nil, nil, err
	}

	bonus := models.BonusSubmission{
		UserID:         userID,
		TaskID:         taskID,
		SubtaskKey:     subtaskKey,
		BonusType:      bonusType,
		Day:            s.clock.DayKey(submittedAt),
		SubmittedAt:    submittedAt,
		ProofRef:       proofRef,
		RewardXP:       0,
		RewardCurrency: rewardCurrency,
		Valid:          true,
	}
	if err := s.db.WithContext(ctx).Create(&bonus).Error; err != nil {
		return nil, nil, err
	}

	reward, err := s.IssueReward(ctx, RewardRequest{
		UserID:         userID,
		TaskID:         taskID,
		Day:            bonus.Day,
		SourceID:       bonus.ID,
		RewardXP:       0,
		RewardCurrency: rewardCurrency,
		Multiplier:     1,
		Reason:         "Bonus activity: " + bonusType,
	})
	if err != nil {
		return nil, nil, err
	}
	return &bonus, reward, nil
}

// RewardRequest describes one reward issuance. SourceID 0 means a
// task-completion reward; a bonus submission id keys bonus rewards.
type RewardRequest struct {
	UserID         uint
	TaskID         uint
	Day            string
	SourceID       uint
	RewardXP       int
	RewardCurrency int
	Multiplier     float64
	Reason         string
}

// IssueReward inserts the reward row under its unique index and, when this
// call wins the insert, credits the user's totals atomically. A lost insert
// means another writer already settled the slot and returns (nil, nil).
func (s *TaskService) IssueReward(ctx context.Context, req RewardRequest) (*models.Reward, error) {
	if req.Multiplier <= 0 {
		req.Multiplier = 1
	}
	reward := models.Reward{
		UserID:          req.UserID,
		TaskID:          req.TaskID,
		Day:             req.Day,
		SourceID:        req.SourceID,
		RewardXP:        req.RewardXP,
		RewardCurrency:  req.RewardCurrency,
		BonusMultiplier: req.Multiplier,
		BonusReason:     req.Reason,
		AwardedAt:       time.Now().UTC(),
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "task_id"}, {Name: "day"}, {Name: "source_id"},
		},
		DoNothing: true,
	}).Create(&reward)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Already settled by a concurrent writer.
		return nil, nil
	}

	xp, currency := reward.TotalXP(), reward.TotalCurrency()
	if err := CreditUser(ctx, s.db, req.UserID, xp, currency); err != nil {
		return nil, err
	}
	if err := s.accrueReward(ctx, req.UserID, req.Day, xp, currency); err != nil {
		utils.Sugar.Warnw("daily progress accrual failed", "user_id", req.UserID, "day", req.Day, "err", err)
	}

	utils.Sugar.Infow("reward issued",
		"user_id", req.UserID, "task_id", req.TaskID, "day", req.Day,
		"source_id", req.SourceID, "xp", xp, "currency", currency)
	return &reward, nil
}

// CreditUser applies atomic SQL increments to the user's totals and then
// recomputes the derived level. Increments never read-modify-write in
// application memory, so concurrent settlements for the same user cannot
// lose updates.
func CreditUser(ctx context.Context, db *gorm.DB, userID uint, xp, currency int) error {
	if xp == 0 && currency == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"xp":              gorm.Expr("xp + ?", xp),
			"currency_earned": gorm.Expr("currency_earned + ?", currency),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	// Level is monotonic in xp; a lost recompute race is healed by the next
	// settlement or the nightly sweep.
	var user models.User
	if err := db.WithContext(ctx).Select("id", "xp").First(&user, userID).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("level", models.LevelForXP(user.XP)).Error
}

func (s *TaskService) loadActiveTask(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Preload("Subtasks").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !task.Active {
		return nil, ErrTaskInactive
	}
	return &task, nil
}

// taskCompletion reports whether every subtask of the task has a recorded
// submission for the day, and whether all of them were on time.
func (s *TaskService) taskCompletion(ctx context.Context, userID uint, task *models.Task, day string) (complete, allValid bool, err error) {
	var submissions []models.Submission
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ? AND day = ?", userID, task.ID, day).
		Find(&submissions).Error; err != nil {
		return false, false, err
	}

	recorded := make(map[string]bool, len(submissions))
	allValid = true
	for _, sub := range submissions {
		recorded[sub.SubtaskKey] = true
		if !sub.Valid {
			allValid = false
		}
	}
	for _, key := range task.SubtaskKeys() {
		if !recorded[key] {
			return false, allValid, nil
		}
	}
	return true, allValid, nil
}

// bumpProgress upserts the day's accrual row, incrementing completion counts.
func (s *TaskService) bumpProgress(ctx context.Context, userID uint, day string, subtasks, tasks int) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed_subtasks": gorm.Expr("completed_subtasks + ?", subtasks),
			"completed_tasks":    gorm.Expr("completed_tasks + ?", tasks),
			"updated_at":         now,
		}),
	}).Create(&models.DailyProgress{
		UserID:            userID,
		Day:               day,
		CompletedSubtasks: subtasks,
		CompletedTasks:    tasks,
	}).Error
}

// accrueReward records issued-and-credited reward totals on the day's accrual
// row so the nightly sweep can tell what is already reflected in user totals.
func (s *TaskService) accrueReward(ctx context.Context, userID uint, day string, xp, currency int) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"accrued_xp":        gorm.Expr("accrued_xp + ?", xp),
			"accrued_currency":  gorm.Expr("accrued_currency + ?", currency),
			"credited_xp":       gorm.Expr("credited_xp + ?", xp),
			"credited_currency": gorm.Expr("credited_currency + ?", currency),
			"updated_at":        now,
		}),
	}).Create(&models.DailyProgress{
		UserID:           userID,
		Day:              day,
		AccruedXP:        xp,
		AccruedCurrency:  currency,
		CreditedXP:       xp,
		CreditedCurrency: currency,
	}).Error
}
