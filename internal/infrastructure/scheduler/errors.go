package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidTenant is returned for a configured tenant that is not "COMPANY:PLANT"
	ErrInvalidTenant = errors.New("invalid scheduler tenant")

	// ErrInvalidMonth is returned for a month outside 1..12
	ErrInvalidMonth = errors.New("invalid month")
)
