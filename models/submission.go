package models

import "time"

// Submission is the durable record of one subtask completion attempt.
// The idx_submission_slot unique index is the admission control: at most one
// row per (user, task, subtask, civil day), enforced by the database so
// concurrent submitters cannot both win. Rows are never updated after
// creation; a resubmission is rejected, not overwritten.
type Submission struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index:idx_submission_slot,unique;index:idx_submission_user_day" json:"user_id"`
	TaskID            uint      `gorm:"not null;index:idx_submission_slot,unique" json:"task_id"`
	SubtaskKey        string    `gorm:"size:64;not null;index:idx_submission_slot,unique" json:"subtask_key"`
	Day               string    `gorm:"size:10;not null;index:idx_submission_slot,unique;index:idx_submission_user_day" json:"day"`
	SubmittedAt       time.Time `gorm:"not null" json:"submitted_at"`
	ProofRef          string    `gorm:"size:1024;not null" json:"proof_ref"`
	Valid             bool      `gorm:"not null" json:"valid"`
	ValidationMessage string    `gorm:"size:255" json:"validation_message"`
	CreatedAt         time.Time `json:"created_at"`
}

// BonusSubmission is an out-of-band rewarded activity. It shares the reward
// issuance primitive with task completion but is rewarded unconditionally,
// at most once per record, and never counts toward task completion.
type BonusSubmission struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_bonus_user_day" json:"user_id"`
	TaskID         uint      `gorm:"not null;index" json:"task_id"`
	SubtaskKey     string    `gorm:"size:64;not null" json:"subtask_key"`
	BonusType      string    `gorm:"size:32;not null" json:"bonus_type"`
	Day            string    `gorm:"size:10;not null;index:idx_bonus_user_day" json:"day"`
	SubmittedAt    time.Time `gorm:"not null" json:"submitted_at"`
	ProofRef       string    `gorm:"size:1024;not null" json:"proof_ref"`
	RewardXP       int       `gorm:"not null;default:0" json:"reward_xp"`
	RewardCurrency int       `gorm:"not null;default:0" json:"reward_currency"`
	Valid          bool      `gorm:"not null" json:"valid"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recognized bonus types, mirroring the activity kinds rewarded out of band.
const (
	BonusAdditionalVideo = "additional_video"
	BonusExtraActivity   = "extra_activity"
)
