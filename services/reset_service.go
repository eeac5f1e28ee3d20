package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/utils"
)

// ResetSummary reports one daily reset run to its invoker (scheduler or
// manual admin trigger) for alerting.
type ResetSummary struct {
	RunID             string `json:"run_id"`
	ThroughDay        string `json:"through_day"`
	UsersProcessed    int    `json:"users_processed"`
	XPCredited        int    `json:"xp_credited"`
	CurrencyCredited  int    `json:"currency_credited"`
	StreaksUpdated    int    `json:"streaks_updated"`
	SubmissionsPruned int64  `json:"submissions_pruned"`
	BonusPruned       int64  `json:"bonus_pruned"`
	ProgressPruned    int64  `json:"progress_pruned"`
	Failures          int    `json:"failures"`
}

// ResetService performs the nightly settlement: it folds accrued reward
// totals into permanent user balances, reconciles streaks, and prunes
// history past the retention window. Every step is idempotent; a retried or
// duplicate run is safe.
type ResetService struct {
	db            *gorm.DB
	clock         DayClock
	streaks       *StreakCalculator
	retentionDays int
}

func NewResetService(db *gorm.DB, clock DayClock, retentionDays int) *ResetService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &ResetService{
		db:            db,
		clock:         clock,
		streaks:       NewStreakCalculator(db, clock),
		retentionDays: retentionDays,
	}
}

// Run settles all completed civil days up to the day before asOf. One user's
// failure is logged and counted, never aborts the batch; the unsettled row
// stays behind for the next run.
func (r *ResetService) Run(ctx context.Context, asOf time.Time) (*ResetSummary, error) {
	summary := &ResetSummary{
		RunID:      uuid.NewString(),
		ThroughDay: r.clock.AddDays(r.clock.DayKey(asOf), -1),
	}
	utils.Sugar.Infow("daily reset starting", "run_id", summary.RunID, "through_day", summary.ThroughDay)

	var pending []models.DailyProgress
	if err := r.db.WithContext(ctx).
		Where("settled = ? AND day <= ?", false, summary.ThroughDay).
		Order("day").Find(&pending).Error; err != nil {
		return nil, err
	}

	settledUsers := make(map[uint]bool)
	for i := range pending {
		row := &pending[i]
		xp, currency, err := r.settleProgress(ctx, row.ID)
		if err != nil {
			summary.Failures++
			utils.Sugar.Errorw("settlement failed",
				"run_id", summary.RunID, "user_id", row.UserID, "day", row.Day, "err", err)
			continue
		}
		summary.XPCredited += xp
		summary.CurrencyCredited += currency
		settledUsers[row.UserID] = true
	}
	summary.UsersProcessed = len(settledUsers)

	for userID := range settledUsers {
		if err := r.reconcileStreak(ctx, userID, asOf); err != nil {
			summary.Failures++
			utils.Sugar.Errorw("streak reconciliation failed",
				"run_id", summary.RunID, "user_id", userID, "err", err)
			continue
		}
		summary.StreaksUpdated++
	}

	r.prune(ctx, asOf, summary)

	utils.Sugar.Infow("daily reset completed",
		"run_id", summary.RunID,
		"users_processed", summary.UsersProcessed,
		"xp_credited", summary.XPCredited,
		"currency_credited", summary.CurrencyCredited,
		"submissions_pruned", summary.SubmissionsPruned,
		"failures", summary.Failures)
	return summary, nil
}

// settleProgress folds one accrual row into its user's balance. The reward
// ledger is authoritative: the row is re-read under a lock, the day's reward
// totals are recomputed, and only the portion not yet credited is applied.
// Credit and the settled mark commit in the same transaction, so a crash
// in between cannot double-credit and a re-run against a settled row is a
// no-op. Returns the XP/currency actually credited by this call.
func (r *ResetService) settleProgress(ctx context.Context, progressID uint) (int, int, error) {
	var creditedXP, creditedCurrency int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.DailyProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, progressID).Error; err != nil {
			return err
		}
		if row.Settled {
			return nil
		}

		var rewards []models.Reward
		if err := tx.Where("user_id = ? AND day = ?", row.UserID, row.Day).
			Find(&rewards).Error; err != nil {
			return err
		}
		var totalXP, totalCurrency int
		for i := range rewards {
			totalXP += rewards[i].TotalXP()
			totalCurrency += rewards[i].TotalCurrency()
		}

		// Defensive re-settlement: anything the immediate path missed.
		deltaXP := totalXP - row.CreditedXP
		deltaCurrency := totalCurrency - row.CreditedCurrency
		if deltaXP < 0 {
			deltaXP = 0
		}
		if deltaCurrency < 0 {
			deltaCurrency = 0
		}
		if deltaXP > 0 || deltaCurrency > 0 {
			if err := CreditUser(ctx, tx, row.UserID, deltaXP, deltaCurrency); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.DailyProgress{}).Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"accrued_xp":        totalXP,
				"accrued_currency":  totalCurrency,
				"credited_xp":       totalXP,
				"credited_currency": totalCurrency,
				"settled":           true,
				"updated_at":        time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		creditedXP, creditedCurrency = deltaXP, deltaCurrency
		return nil
	})
	return creditedXP, creditedCurrency, err
}

// reconcileStreak recomputes and persists the user's streak so subsequent
// reads do not pay for the backward walk.
func (r *ResetService) reconcileStreak(ctx context.Context, userID uint, asOf time.Time) error {
	streak, err := r.streaks.Current(ctx, userID, asOf)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("streak_count", streak).Error
}

// prune deletes submissions, bonus submissions, and settled accrual rows
// older than the retention window. Rewards are the permanent payout ledger
// and are never pruned.
func (r *ResetService) prune(ctx context.Context, asOf time.Time, summary *ResetSummary) {
	cutoff := r.clock.AddDays(r.clock.DayKey(asOf), -r.retentionDays)

	res := r.db.WithContext(ctx).Where("day < ?", cutoff).Delete(&models.Submission{})
	if res.Error != nil {
		summary.Failures++
		utils.Sugar.Errorw("submission pruning failed", "run_id", summary.RunID, "err", res.Error)
	} else {
		summary.SubmissionsPruned = res.RowsAffected
	}

	res = r.db.WithContext(ctx).Where("day < ?", cutoff).Delete(&models.BonusSubmission{})
	if res.Error != nil {
		summary.Failures++
		utils.Sugar.Errorw("bonus pruning failed", "run_id", summary.RunID, "err", res.Error)
	} else {
		summary.BonusPruned = res.RowsAffected
	}

	res = r.db.WithContext(ctx).Where("day < ? AND settled = ?", cutoff, true).Delete(&models.DailyProgress{})
	if res.Error != nil {
		summary.Failures++
		utils.Sugar.Errorw("progress pruning failed", "run_id", summary.RunID, "err", res.Error)
	} else {
		summary.ProgressPruned = res.RowsAffected
	}
}
