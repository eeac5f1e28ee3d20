package models

import (
	"time"

	"gorm.io/gorm"
)

// User carries the durable reward totals owned by the settlement engine.
// Rows are created by an external account system; this service only ever
// increments xp/currency and rewrites level/streak.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	XP             int       `gorm:"not null;default:0" json:"xp"`
	CurrencyEarned int       `gorm:"not null;default:0" json:"currency_earned"`
	Level          int       `gorm:"not null;default:1" json:"level"`
	StreakCount    int       `gorm:"not null;default:0" json:"streak_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const levelBaseXP = 100

// LevelForXP derives the level from total XP: 100 XP per level, floor 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/levelBaseXP + 1
}

// NextLevelXP is the XP total at which the next level is reached.
func (u *User) NextLevelXP() int {
	return u.Level * levelBaseXP
}

// BeforeSave keeps the derived level consistent on full-row writes.
// Atomic increment paths recompute the level explicitly instead.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Level = LevelForXP(u.XP)
	return nil
}
