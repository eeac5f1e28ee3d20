package main

import (
	"time"

	"github.com/rkodela/dailyquest/config"
	"github.com/rkodela/dailyquest/jobs"
	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/routes"
	"github.com/rkodela/dailyquest/services"
	"github.com/rkodela/dailyquest/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Task{},
		&models.Subtask{},
		&models.Submission{},
		&models.BonusSubmission{},
		&models.Reward{},
		&models.DailyProgress{},
	)

	clock := services.NewDayClock(cfg.DayOffsetMinutes)
	svc := services.NewTaskService(db, clock)
	streaks := services.NewStreakCalculator(db, clock)
	resetSvc := services.NewResetService(db, clock, cfg.RetentionDays)

	job := jobs.NewDailyResetJob(resetSvc, clock, time.Duration(cfg.ResetCheckIntervalS)*time.Second)
	job.Start()
	defer job.Stop()

	r := routes.SetupRouter(db, svc, streaks, clock, job)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
