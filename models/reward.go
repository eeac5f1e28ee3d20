package models

import (
	"math"
	"time"
)

// Reward is the permanent payout ledger. The idx_reward_slot unique index is
// the double-payout guard: SourceID is 0 for task-completion rewards (at most
// one per task per day) and the bonus submission id for bonus rewards (at
// most one per bonus record). A lost insert race means the other writer
// already settled; rows are never mutated and never pruned.
type Reward struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index:idx_reward_slot,unique;index:idx_reward_user_day" json:"user_id"`
	TaskID          uint      `gorm:"not null;index:idx_reward_slot,unique" json:"task_id"`
	Day             string    `gorm:"size:10;not null;index:idx_reward_slot,unique;index:idx_reward_user_day" json:"day"`
	SourceID        uint      `gorm:"not null;default:0;index:idx_reward_slot,unique" json:"source_id"`
	RewardXP        int       `gorm:"not null;default:0" json:"reward_xp"`
	RewardCurrency  int       `gorm:"not null;default:0" json:"reward_currency"`
	BonusMultiplier float64   `gorm:"not null;default:1" json:"bonus_multiplier"`
	BonusReason     string    `gorm:"size:255" json:"bonus_reason"`
	AwardedAt       time.Time `gorm:"not null" json:"awarded_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// TotalXP is the XP amount actually credited, multiplier applied.
func (r *Reward) TotalXP() int {
	return int(math.Round(float64(r.RewardXP) * r.BonusMultiplier))
}

// TotalCurrency is the currency amount actually credited, multiplier applied.
func (r *Reward) TotalCurrency() int {
	return int(math.Round(float64(r.RewardCurrency) * r.BonusMultiplier))
}
