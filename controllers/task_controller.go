package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/utils"
)

// TaskController serves the task catalogue.
type TaskController struct {
	db *gorm.DB
}

func NewTaskController(db *gorm.DB) *TaskController {
	return &TaskController{db: db}
}

const tasksCacheKey = "dq:tasks"

// ListTasks returns the active task definitions with their subtasks.
func (t *TaskController) ListTasks(ctx *gin.Context) {
	if b, hit := utils.CacheGetBytes(tasksCacheKey); hit {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var tasks []models.Task
	if err := t.db.WithContext(ctx.Request.Context()).Preload("Subtasks").
		Where("active = ?", true).Order("id").Find(&tasks).Error; err != nil {
		utils.Sugar.Errorw("task list query failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load tasks")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: tasks}
	utils.CacheSetJSON(tasksCacheKey, resp, cacheTTL())
	ctx.JSON(http.StatusOK, resp)
}
