package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rkodela/dailyquest/models"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory sqlite database with the full schema so
// unique-index and upsert behavior is exercised for real.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dq_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Subtask{},
		&models.Submission{},
		&models.BonusSubmission{},
		&models.Reward{},
		&models.DailyProgress{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{Name: name}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// seedTask creates an active task with the three deadline shapes: an anytime
// subtask, a 09:00 cutoff, and an 11:00-18:00 window.
func seedTask(t *testing.T, db *gorm.DB) *models.Task {
	t.Helper()
	task := models.Task{
		Key:            "morning-routine",
		Name:           "Morning routine",
		RewardXP:       10,
		RewardCurrency: 5,
		Active:         true,
		Subtasks: []models.Subtask{
			{Key: "journal", Name: "Write journal", DeadlineMinutes: 0},
			{Key: "workout", Name: "Morning workout", DeadlineMinutes: 540},
			{Key: "tablets", Name: "Take tablets", WindowStartMin: 660, WindowEndMin: 1080},
		},
	}
	require.NoError(t, db.Create(&task).Error)
	return &task
}
