package jobpost

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotAcceptingApplications = errors.New("This job post is no longer accepting applications")
	ErrDeadlinePassed           = errors.New("The application deadline for this job has passed")
)

// CheckEligibility decides whether a job post takes new applications.
// Inactivity is reported before an expired deadline. The deadline is a
// calendar date and applications are rejected once now is strictly after
// its start.
func CheckEligibility(isActive bool, deadline *time.Time, now time.Time) error {
	if !isActive {
		return ErrNotAcceptingApplications
	}
	if deadline != nil && now.After(*deadline) {
		return ErrDeadlinePassed
	}
	return nil
}

// IsRejection reports whether err is one of the eligibility rejections.
func IsRejection(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrNotAcceptingApplications || cause == ErrDeadlinePassed
}
