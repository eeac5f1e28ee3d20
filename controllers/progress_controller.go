package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rkodela/dailyquest/config"
	"github.com/rkodela/dailyquest/services"
	"github.com/rkodela/dailyquest/utils"
)

// ProgressController handles submission and progress endpoints.
type ProgressController struct {
	svc     *services.TaskService
	streaks *services.StreakCalculator
	clock   services.DayClock
}

// NewProgressController creates a new controller instance.
func NewProgressController(svc *services.TaskService, streaks *services.StreakCalculator, clock services.DayClock) *ProgressController {
	return &ProgressController{svc: svc, streaks: streaks, clock: clock}
}

type submitRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	TaskID      uint   `json:"task_id" binding:"required"`
	SubtaskKey  string `json:"subtask_key" binding:"required"`
	ProofRef    string `json:"proof_ref" binding:"required"`
	SubmittedAt string `json:"submitted_at"`
	Date        string `json:"date"`
}

// SubmitSubtask validates and records one subtask submission.
func (p *ProgressController) SubmitSubtask(ctx *gin.Context) {
	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload: "+err.Error())
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

	var result *services.SubmissionResult
	var err error
	if req.Date != "" {
		result, err = p.svc.SubmitSubtaskForDay(ctx.Request.Context(),
			req.UserID, req.TaskID, req.SubtaskKey, submittedAt, req.ProofRef, req.Date)
	} else {
		result, err = p.svc.SubmitSubtask(ctx.Request.Context(),
			req.UserID, req.TaskID, req.SubtaskKey, submittedAt, req.ProofRef)
	}
	if err != nil {
		p.writeSubmitError(ctx, err)
		return
	}

	invalidateUserCaches(req.UserID)
	utils.Success(ctx, result)
}

func (p *ProgressController) writeSubmitError(ctx *gin.Context, err error) {
	var dup *services.DuplicateSubmissionError
	switch {
	case errors.As(err, &dup):
		utils.ErrorWithData(ctx, http.StatusConflict, 40030, services.ErrDuplicateSubmission.Error(), gin.H{
			"existing_submission_id": dup.ExistingID,
			"submitted_at":           dup.SubmittedAt,
		})
	case errors.Is(err, services.ErrTaskNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	case errors.Is(err, services.ErrSubtaskNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, err.Error())
	case errors.Is(err, services.ErrTaskInactive):
		utils.Error(ctx, http.StatusBadRequest, 40020, err.Error())
	case errors.Is(err, services.ErrWrongDay):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	default:
		utils.Sugar.Errorw("submission failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to record submission")
	}
}

// GetProgress returns the per-task subtask completion state for a user and day.
func (p *ProgressController) GetProgress(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	day, ok := p.parseDay(ctx)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("dq:progress:%d:%s", userID, day)
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	progress, err := p.svc.Progress(ctx.Request.Context(), userID, day)
	if err != nil {
		utils.Sugar.Errorw("progress query failed", "user_id", userID, "day", day, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load progress")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"day": day, "tasks": progress}}
	utils.CacheSetJSON(cacheKey, resp, cacheTTL())
	ctx.JSON(http.StatusOK, resp)
}

// GetStreak returns the user's current consecutive-day streak.
func (p *ProgressController) GetStreak(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}
	asOf := time.Now()
	if v := ctx.Query("as_of"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "as_of must be RFC3339")
			return
		}
		asOf = t
	}

	streak, err := p.streaks.Current(ctx.Request.Context(), userID, asOf)
	if err != nil {
		utils.Sugar.Errorw("streak query failed", "user_id", userID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to compute streak")
		return
	}
	utils.Success(ctx, gin.H{"streak": streak, "as_of_day": p.clock.DayKey(asOf)})
}

// GetStats returns the user's totals, level, and streak.
func (p *ProgressController) GetStats(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("dq:stats:%d", userID)
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	stats, err := p.svc.UserStats(ctx.Request.Context(), userID, p.clock.DayKey(time.Now()))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, err.Error())
			return
		}
		utils.Sugar.Errorw("stats query failed", "user_id", userID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load stats")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: stats}
	utils.CacheSetJSON(cacheKey, resp, cacheTTL())
	ctx.JSON(http.StatusOK, resp)
}

func (p *ProgressController) parseDay(ctx *gin.Context) (string, bool) {
	day := ctx.Query("date")
	if day == "" {
		return p.clock.DayKey(time.Now()), true
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "date must be YYYY-MM-DD")
		return "", false
	}
	return day, true
}

func cacheTTL() time.Duration {
	return time.Duration(config.Get().CacheTTLSeconds) * time.Second
}

func invalidateUserCaches(userID uint) {
	utils.InvalidateByPrefix(fmt.Sprintf("dq:progress:%d", userID))
	utils.InvalidateByPrefix(fmt.Sprintf("dq:rewards:%d", userID))
	utils.InvalidateByPrefix(fmt.Sprintf("dq:stats:%d", userID))
}
