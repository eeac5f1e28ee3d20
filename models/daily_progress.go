package models

import "time"

// DailyProgress is the per (user, civil day) accrual snapshot, created lazily
// on the first submission of the day and folded into the user's permanent
// balance by the nightly sweep.
//
// Accrued* track reward totals issued for the day; Credited* track how much
// of that has already been reflected in the user row by the immediate
// settlement path. The sweep credits only the difference and flips Settled in
// the same transaction, so a crash between increment and mark cannot
// double-credit and a re-run is a no-op. Once Settled, the row is immutable.
type DailyProgress struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index:idx_progress_user_day,unique" json:"user_id"`
	Day               string    `gorm:"size:10;not null;index:idx_progress_user_day,unique;index" json:"day"`
	CompletedSubtasks int       `gorm:"not null;default:0" json:"completed_subtasks"`
	CompletedTasks    int       `gorm:"not null;default:0" json:"completed_tasks"`
	AccruedXP         int       `gorm:"not null;default:0" json:"accrued_xp"`
	AccruedCurrency   int       `gorm:"not null;default:0" json:"accrued_currency"`
	CreditedXP        int       `gorm:"not null;default:0" json:"credited_xp"`
	CreditedCurrency  int       `gorm:"not null;default:0" json:"credited_currency"`
	Settled           bool      `gorm:"not null;default:false" json:"settled"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
