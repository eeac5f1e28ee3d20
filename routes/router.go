package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rkodela/dailyquest/config"
	"github.com/rkodela/dailyquest/controllers"
	"github.com/rkodela/dailyquest/jobs"
	"github.com/rkodela/dailyquest/middleware"
	"github.com/rkodela/dailyquest/services"
	"github.com/rkodela/dailyquest/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc *services.TaskService, streaks *services.StreakCalculator, clock services.DayClock, job *jobs.DailyResetJob) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	progressController := controllers.NewProgressController(svc, streaks, clock)
	rewardController := controllers.NewRewardController(svc, clock)
	taskController := controllers.NewTaskController(db)
	adminController := controllers.NewAdminController(job)

	api := r.Group("/api/v1")

	api.GET("/tasks", taskController.ListTasks)
	api.GET("/users/:id/progress", progressController.GetProgress)
	api.GET("/users/:id/streak", progressController.GetStreak)
	api.GET("/users/:id/stats", progressController.GetStats)
	api.GET("/users/:id/rewards", rewardController.GetRewards)

	writes := api.Group("")
	writes.Use(middleware.RateLimitMiddleware())
	writes.POST("/submissions", progressController.SubmitSubtask)
	writes.POST("/submissions/bonus", rewardController.SubmitBonus)

	admin := api.Group("/admin")
	admin.Use(middleware.RateLimitMiddleware())
	admin.POST("/reset/run", adminController.TriggerReset)
	admin.GET("/reset/status", adminController.ResetStatus)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
