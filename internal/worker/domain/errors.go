package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyClaimed is returned when the pending->processing write
	// matched no row, meaning another worker holds the job or it already
	// reached a terminal status
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in pending status")

	// ErrUnknownJobType is returned for job types the worker has no steps for
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrInvalidPayload is returned when job payload JSON is malformed
	ErrInvalidPayload = errors.New("invalid job payload")
)

// JobFailedError wraps the causing error with job context after a step
// exhausted its retry budget or failed terminally. It is the only error
// that also corresponds to a persisted state change.
type JobFailedError struct {
	JobID string
	Step  string
	Err   error
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed at step %q: %s", e.JobID, e.Step, e.Err.Error())
}

func (e *JobFailedError) Unwrap() error {
	return e.Err
}
