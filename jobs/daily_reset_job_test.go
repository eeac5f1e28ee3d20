package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rkodela/dailyquest/models"
	"github.com/rkodela/dailyquest/services"
)

var jobTestDBSeq atomic.Int64

func newJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dq_job_test_%d?mode=memory&cache=shared", jobTestDBSeq.Add(1))
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

func TestRunNowRecordsStatus(t *testing.T) {
	db := newJobTestDB(t)
	clock := services.NewDayClock(330)
	job := NewDailyResetJob(services.NewResetService(db, clock, 30), clock, time.Minute)

	now := time.Now()
	summary, err := job.RunNow(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, summary)

	st := job.Status()
	assert.Equal(t, clock.DayKey(now), st.LastRunDay)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.LastSummary)
	assert.Equal(t, summary.RunID, st.LastSummary.RunID)
	assert.Equal(t, "1m0s", st.CheckInterval)
}

func TestRunNowIsRepeatable(t *testing.T) {
	db := newJobTestDB(t)
	clock := services.NewDayClock(330)
	job := NewDailyResetJob(services.NewResetService(db, clock, 30), clock, time.Minute)

	now := time.Now()
	first, err := job.RunNow(context.Background(), now)
	require.NoError(t, err)
	second, err := job.RunNow(context.Background(), now)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestNewJobDefaultsInterval(t *testing.T) {
	clock := services.NewDayClock(330)
	job := NewDailyResetJob(nil, clock, 0)
	assert.Equal(t, "5m0s", job.Status().CheckInterval)
}
