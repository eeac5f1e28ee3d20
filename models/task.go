package models

import "time"

// Task is a recurring daily task made of ordered subtasks. Definitions are
// read-only to the settlement engine; they are seeded/managed externally.
type Task struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Key            string    `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Name           string    `gorm:"size:200;not null" json:"name"`
	Description    string    `gorm:"size:1000" json:"description"`
	RewardXP       int       `gorm:"not null;default:0" json:"reward_xp"`
	RewardCurrency int       `gorm:"not null;default:0" json:"reward_currency"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	Subtasks       []Subtask `gorm:"constraint:OnDelete:CASCADE" json:"subtasks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Subtask is one dated action within a task with its own deadline rule.
//
// DeadlineMinutes counts from the civil-day start: 1..1439 is a hard cutoff,
// while 0 and anything >= 1440 both mean "anytime today" (two historical
// encodings of the same rule, both accepted on purpose). When WindowEndMin is
// set the subtask instead requires submission inside
// [WindowStartMin, WindowEndMin] and DeadlineMinutes is ignored.
type Subtask struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TaskID          uint      `gorm:"index:idx_subtask_task_key,unique;not null" json:"task_id"`
	Key             string    `gorm:"size:64;index:idx_subtask_task_key,unique;not null" json:"key"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	DeadlineMinutes int       `gorm:"not null;default:0" json:"deadline_minutes"`
	WindowStartMin  int       `gorm:"not null;default:0" json:"window_start_min"`
	WindowEndMin    int       `gorm:"not null;default:0" json:"window_end_min"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubtaskByKey returns the subtask with the given key, or nil.
func (t *Task) SubtaskByKey(key string) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].Key == key {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// SubtaskKeys returns the full key set of the task, in definition order.
func (t *Task) SubtaskKeys() []string {
	keys := make([]string, 0, len(t.Subtasks))
	for i := range t.Subtasks {
		keys = append(keys, t.Subtasks[i].Key)
	}
	return keys
}
