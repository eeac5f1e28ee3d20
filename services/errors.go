package services

import (
	"errors"
	"fmt"
	"time"
)

// Caller-facing failures. Controllers branch on these with errors.Is; none of
// them indicates infrastructure trouble (storage errors pass through as-is
// and are retryable by the caller).
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskInactive    = errors.New("task is not active")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrWrongDay rejects a submission whose instant does not fall on the
	// target civil day at all. Distinct from a late submission, which is
	// recorded as a normal invalid outcome.
	ErrWrongDay = errors.New("submission must be on the target date")

	// ErrDuplicateSubmission is the loser's result when the slot's unique
	// index already holds a row. The first record is untouched.
	ErrDuplicateSubmission = errors.New("subtask already submitted for this date")
)

// DuplicateSubmissionError carries the existing record's identity for caller
// diagnostics. errors.Is(err, ErrDuplicateSubmission) matches it.
type DuplicateSubmissionError struct {
	ExistingID  uint
	SubmittedAt time.Time
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("%s (existing submission %d at %s)",
		ErrDuplicateSubmission, e.ExistingID, e.SubmittedAt.Format(time.RFC3339))
}

func (e *DuplicateSubmissionError) Unwrap() error { return ErrDuplicateSubmission }
