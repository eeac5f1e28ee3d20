package services

import (
	"fmt"
	"time"

	"github.com/rkodela/dailyquest/models"
)

// DeadlineKind names the three deadline rules a subtask can carry. The kinds
// are explicit variants: a window is never inferred from a cutoff encoding
// and vice versa.
type DeadlineKind int

const (
	// DeadlineAnytime accepts any instant on the civil day. Both
	// DeadlineMinutes == 0 and >= 1440 map here.
	DeadlineAnytime DeadlineKind = iota
	// DeadlineCutoff requires submission no later than N minutes after the
	// civil-day start (N in 1..1439).
	DeadlineCutoff
	// DeadlineWindow requires submission inside an explicit
	// [start, end] minute band (medication-style subtasks).
	DeadlineWindow
)

func (k DeadlineKind) String() string {
	switch k {
	case DeadlineCutoff:
		return "cutoff"
	case DeadlineWindow:
		return "window"
	default:
		return "anytime"
	}
}

// KindOf classifies a subtask's deadline specification.
func KindOf(st *models.Subtask) DeadlineKind {
	if st.WindowEndMin > 0 {
		return DeadlineWindow
	}
	if st.DeadlineMinutes >= 1 && st.DeadlineMinutes <= 1439 {
		return DeadlineCutoff
	}
	return DeadlineAnytime
}

// Verdict is the outcome of deadline evaluation. Invalidity is recorded
// state, not an error.
type Verdict struct {
	Valid   bool
	Message string
}

// DeadlinePolicy classifies submission instants against subtask deadlines.
type DeadlinePolicy struct {
	clock DayClock
}

func NewDeadlinePolicy(clock DayClock) DeadlinePolicy {
	return DeadlinePolicy{clock: clock}
}

// Evaluate judges submittedAt against the subtask's rule for the civil day
// starting at dayStart. The caller has already established that submittedAt
// falls on that day; cross-day submissions are rejected upstream with
// ErrWrongDay before any deadline logic runs.
func (p DeadlinePolicy) Evaluate(st *models.Subtask, submittedAt, dayStart time.Time) Verdict {
	switch KindOf(st) {
	case DeadlineWindow:
		start := p.clock.Minute(dayStart, st.WindowStartMin)
		end := p.clock.Minute(dayStart, st.WindowEndMin)
		if submittedAt.Before(start) || submittedAt.After(end) {
			return Verdict{
				Valid: false,
				Message: fmt.Sprintf("%s must be done between %s and %s", st.Name,
					p.clock.ClockLabel(dayStart, st.WindowStartMin),
					p.clock.ClockLabel(dayStart, st.WindowEndMin)),
			}
		}
		return Verdict{Valid: true, Message: "Task completed within allowed time window"}

	case DeadlineCutoff:
		deadline := p.clock.Minute(dayStart, st.DeadlineMinutes)
		if submittedAt.After(deadline) {
			return Verdict{
				Valid: false,
				Message: fmt.Sprintf("Task must be completed before %s",
					p.clock.ClockLabel(dayStart, st.DeadlineMinutes)),
			}
		}
		return Verdict{Valid: true, Message: "Task completed within time limit"}

	default:
		return Verdict{Valid: true, Message: "Task completed within allowed time"}
	}
}
