package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rkodela/dailyquest/services"
	"github.com/rkodela/dailyquest/utils"
)

// ErrResetAlreadyRunning is returned when a manual trigger overlaps a run in
// flight; the settlement itself is idempotent but two concurrent sweeps are
// pointless work.
var ErrResetAlreadyRunning = errors.New("daily reset already running")

// DailyResetJob drives the settlement sweep once per civil day. The scheduler
// is decoupled from the settlement logic: the same RunNow path serves the
// timer, tests, and the manual admin trigger identically.
type DailyResetJob struct {
	svc      *services.ResetService
	clock    services.DayClock
	interval time.Duration

	runMu sync.Mutex // single-flight guard around runs

	mu          sync.Mutex // guards the fields below
	lastRunDay  string
	lastSummary *services.ResetSummary
	lastErr     error

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewDailyResetJob(svc *services.ResetService, clock services.DayClock, interval time.Duration) *DailyResetJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DailyResetJob{
		svc:      svc,
		clock:    clock,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the background loop. Each tick runs the sweep at most once
// per civil day; the first tick after boot acts as catch-up for any day
// missed while the process was down (the sweep is a no-op when everything is
// already settled).
func (j *DailyResetJob) Start() {
	j.ticker = time.NewTicker(j.interval)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		for {
			select {
			case <-j.ticker.C:
				j.tick(time.Now())
			case <-j.stop:
				return
			}
		}
	}()
	utils.Sugar.Infow("daily reset job started", "check_interval", j.interval.String())
}

// Stop halts the loop and waits for an in-flight run to finish.
func (j *DailyResetJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
		close(j.stop)
		j.wg.Wait()
	}
}

func (j *DailyResetJob) tick(now time.Time) {
	today := j.clock.DayKey(now)
	j.mu.Lock()
	done := j.lastRunDay == today
	j.mu.Unlock()
	if done {
		return
	}
	if _, err := j.RunNow(context.Background(), now); err != nil && !errors.Is(err, ErrResetAlreadyRunning) {
		utils.Sugar.Errorw("scheduled daily reset failed", "err", err)
	}
}

// RunNow executes one settlement run immediately. Safe to invoke manually at
// any time; concurrent invocations beyond the first fail fast with
// ErrResetAlreadyRunning.
func (j *DailyResetJob) RunNow(ctx context.Context, asOf time.Time) (*services.ResetSummary, error) {
	if !j.runMu.TryLock() {
		return nil, ErrResetAlreadyRunning
	}
	defer j.runMu.Unlock()

	summary, err := j.svc.Run(ctx, asOf)

	j.mu.Lock()
	j.lastErr = err
	if err == nil {
		j.lastRunDay = j.clock.DayKey(asOf)
		j.lastSummary = summary
	}
	j.mu.Unlock()

	return summary, err
}

// Status describes the job for the admin endpoint.
type Status struct {
	CheckInterval string                 `json:"check_interval"`
	LastRunDay    string                 `json:"last_run_day,omitempty"`
	LastError     string                 `json:"last_error,omitempty"`
	LastSummary   *services.ResetSummary `json:"last_summary,omitempty"`
}

func (j *DailyResetJob) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := Status{
		CheckInterval: j.interval.String(),
		LastRunDay:    j.lastRunDay,
		LastSummary:   j.lastSummary,
	}
	if j.lastErr != nil {
		st.LastError = j.lastErr.Error()
	}
	return st
}
