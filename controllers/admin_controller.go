package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rkodela/dailyquest/jobs"
	"github.com/rkodela/dailyquest/utils"
)

// AdminController exposes the settlement job for operators.
type AdminController struct {
	job *jobs.DailyResetJob
}

func NewAdminController(job *jobs.DailyResetJob) *AdminController {
	return &AdminController{job: job}
}

// TriggerReset runs the settlement sweep immediately. The sweep is idempotent,
// so repeated triggers are safe; an overlap with a run in flight is rejected.
func (a *AdminController) TriggerReset(ctx *gin.Context) {
	summary, err := a.job.RunNow(ctx.Request.Context(), time.Now())
	if err != nil {
		if errors.Is(err, jobs.ErrResetAlreadyRunning) {
			utils.Error(ctx, http.StatusConflict, 40910, err.Error())
			return
		}
		utils.Sugar.Errorw("manual reset failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "reset run failed")
		return
	}

	utils.InvalidateByPrefix("dq:")
	utils.Success(ctx, summary)
}

// ResetStatus reports the job's schedule and last run outcome.
func (a *AdminController) ResetStatus(ctx *gin.Context) {
	utils.Success(ctx, a.job.Status())
}
