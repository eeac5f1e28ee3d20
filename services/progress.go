package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rkodela/dailyquest/models"
)

// SubtaskProgress is one subtask's state for the day, with the recorded
// submission when present.
type SubtaskProgress struct {
	Key             string             `json:"key"`
	Name            string             `json:"name"`
	DeadlineMinutes int                `json:"deadline_minutes"`
	DeadlineKind    string             `json:"deadline_kind"`
	Completed       bool               `json:"completed"`
	Submission      *models.Submission `json:"submission,omitempty"`
}

// TaskProgress is one task's completion state for the day.
type TaskProgress struct {
	TaskID         uint              `json:"task_id"`
	TaskKey        string            `json:"task_key"`
	TaskName       string            `json:"task_name"`
	Description    string            `json:"description"`
	RewardXP       int               `json:"reward_xp"`
	RewardCurrency int               `json:"reward_currency"`
	Subtasks       []SubtaskProgress `json:"subtasks"`
	Completed      int               `json:"completed"`
	Total          int               `json:"total"`
	Percentage     int               `json:"percentage"`
	IsCompleted    bool              `json:"is_completed"`
	RewardEligible bool              `json:"is_reward_eligible"`
}

// Progress builds the per-task subtask completion view for one user and day
// from the submission ledger and the active task definitions.
func (s *TaskService) Progress(ctx context.Context, userID uint, day string) ([]TaskProgress, error) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Preload("Subtasks").
		Where("active = ?", true).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}

	var submissions []models.Submission
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).Find(&submissions).Error; err != nil {
		return nil, err
	}

	byTask := make(map[uint]map[string]*models.Submission)
	for i := range submissions {
		sub := &submissions[i]
		if byTask[sub.TaskID] == nil {
			byTask[sub.TaskID] = make(map[string]*models.Submission)
		}
		byTask[sub.TaskID][sub.SubtaskKey] = sub
	}

	progress := make([]TaskProgress, 0, len(tasks))
	for ti := range tasks {
		task := &tasks[ti]
		recorded := byTask[task.ID]

		tp := TaskProgress{
			TaskID:         task.ID,
			TaskKey:        task.Key,
			TaskName:       task.Name,
			Description:    task.Description,
			RewardXP:       task.RewardXP,
			RewardCurrency: task.RewardCurrency,
			Total:          len(task.Subtasks),
		}

		allValid := true
		for si := range task.Subtasks {
			st := &task.Subtasks[si]
			sub := recorded[st.Key]
			sp := SubtaskProgress{
				Key:             st.Key,
				Name:            st.Name,
				DeadlineMinutes: st.DeadlineMinutes,
				DeadlineKind:    KindOf(st).String(),
				Completed:       sub != nil,
				Submission:      sub,
			}
			if sub != nil {
				tp.Completed++
				if !sub.Valid {
					allValid = false
				}
			}
			tp.Subtasks = append(tp.Subtasks, sp)
		}

		if tp.Total > 0 {
			tp.Percentage = tp.Completed * 100 / tp.Total
		}
		tp.IsCompleted = tp.Total > 0 && tp.Completed == tp.Total
		tp.RewardEligible = tp.IsCompleted && allValid
		progress = append(progress, tp)
	}

	return progress, nil
}

// DayRewards summarizes the rewards issued to a user on one day.
type DayRewards struct {
	Rewards       []models.Reward `json:"rewards"`
	TotalXP       int             `json:"total_xp"`
	TotalCurrency int             `json:"total_currency"`
	Count         int             `json:"count"`
}

// RewardsForDay lists a user's rewards for one civil day with multiplier-applied totals.
func (s *TaskService) RewardsForDay(ctx context.Context, userID uint, day string) (*DayRewards, error) {
	var rewards []models.Reward
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("awarded_at").Find(&rewards).Error; err != nil {
		return nil, err
	}

	out := &DayRewards{Rewards: rewards, Count: len(rewards)}
	for i := range rewards {
		out.TotalXP += rewards[i].TotalXP()
		out.TotalCurrency += rewards[i].TotalCurrency()
	}
	return out, nil
}

// UserStats is the live view of a user's totals, level, and streak.
type UserStats struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	XP             int    `json:"xp"`
	CurrencyEarned int    `json:"currency_earned"`
	Level          int    `json:"level"`
	StreakCount    int    `json:"streak_count"`
	NextLevelXP    int    `json:"next_level_xp"`
}

// UserStats returns the user's totals with the streak computed as of asOfDay.
// When the freshly computed streak differs from the persisted one, the user
// row is updated so later reads are cheap.
func (s *TaskService) UserStats(ctx context.Context, userID uint, asOfDay string) (*UserStats, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	streaks := NewStreakCalculator(s.db, s.clock)
	streak, err := streaks.CurrentForDay(ctx, userID, asOfDay)
	if err != nil {
		return nil, err
	}
	if streak != user.StreakCount {
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).Update("streak_count", streak).Error; err != nil {
			return nil, err
		}
		user.StreakCount = streak
	}

	return &UserStats{
		ID:             user.ID,
		Name:           user.Name,
		XP:             user.XP,
		CurrencyEarned: user.CurrencyEarned,
		Level:          user.Level,
		StreakCount:    user.StreakCount,
		NextLevelXP:    user.NextLevelXP(),
	}, nil
}
