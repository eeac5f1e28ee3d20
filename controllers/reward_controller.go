package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rkodela/dailyquest/config"
	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/services"
	"github.com/rkodela/dailyquest/utils"
)

// RewardController handles reward queries and bonus submissions.
type RewardController struct {
	svc   *services.TaskService
	clock services.DayClock
}

func NewRewardController(svc *services.TaskService, clock services.DayClock) *RewardController {
	return &RewardController{svc: svc, clock: clock}
}

// GetRewards lists a user's rewards for one day with totals.
func (r *RewardController) GetRewards(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	day := ctx.Query("date")
	if day == "" {
		day = r.clock.DayKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "date must be YYYY-MM-DD")
		return
	}

	cacheKey := fmt.Sprintf("dq:rewards:%d:%s", userID, day)
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	rewards, err := r.svc.RewardsForDay(ctx.Request.Context(), userID, day)
	if err != nil {
		utils.Sugar.Errorw("reward query failed", "user_id", userID, "day", day, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load rewards")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: rewards}
	utils.CacheSetJSON(cacheKey, resp, cacheTTL())
	ctx.JSON(http.StatusOK, resp)
}

type bonusRequest struct {
	UserID         uint   `json:"user_id" binding:"required"`
	TaskID         uint   `json:"task_id" binding:"required"`
	SubtaskKey     string `json:"subtask_key" binding:"required"`
	BonusType      string `json:"bonus_type" binding:"required"`
	ProofRef       string `json:"proof_ref" binding:"required"`
	SubmittedAt    string `json:"submitted_at"`
	RewardCurrency int    `json:"reward_currency"`
}

// SubmitBonus records an out-of-band rewarded activity.
func (r *RewardController) SubmitBonus(ctx *gin.Context) {
	var req bonusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload: "+err.Error())
		return
	}
	if req.BonusType != models.BonusAdditionalVideo && req.BonusType != models.BonusExtraActivity {
		utils.Error(ctx, http.StatusBadRequest, 40005, "unknown bonus type")
		return
	}

	submittedAt := time.Now()
	if req.SubmittedAt != "" {
		t, err := time.Parse(time.RFC3339, req.SubmittedAt)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "submitted_at must be RFC3339")
			return
		}
		submittedAt = t
	}
	rewardCurrency := req.RewardCurrency
	if rewardCurrency <= 0 {
		rewardCurrency = config.Get().BonusRewardCurrency
	}

	bonus, reward, err := r.svc.SubmitBonus(ctx.Request.Context(),
		req.UserID, req.TaskID, req.SubtaskKey, req.BonusType, submittedAt, req.ProofRef, rewardCurrency)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
		case errors.Is(err, services.ErrTaskInactive):
			utils.Error(ctx, http.StatusBadRequest, 40020, err.Error())
		default:
			utils.Sugar.Errorw("bonus submission failed", "err", err)
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to record bonus")
		}
		return
	}

	invalidateUserCaches(req.UserID)
	utils.Success(ctx, gin.H{"submission": bonus, "reward": reward})
}
