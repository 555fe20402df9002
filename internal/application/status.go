package application

import (
	"github.com/pkg/errors"
)

// Status is the pipeline stage of an application.
//
//	applied, screening, interview, offer ──► accepted
//	            (any of them)            ──► failed
//
// accepted and failed are terminal. Non-terminal statuses may move to any
// other status, backwards included.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusAccepted  Status = "accepted"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidStatus        = errors.New("invalid application status")
	ErrTransitionNotAllowed = errors.New("application status cannot be changed")
)

var statuses = []Status{
	StatusApplied,
	StatusScreening,
	StatusInterview,
	StatusOffer,
	StatusAccepted,
	StatusFailed,
}

// Statuses returns the status vocabulary in pipeline order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) IsValid() bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusFailed
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", errors.Wrapf(ErrInvalidStatus, "unknown status %q", s)
	}
	return st, nil
}

// CanTransition reports whether an application in current may move to
// proposed. Only terminality is enforced.
func CanTransition(current, proposed Status) bool {
	if !proposed.IsValid() {
		return false
	}
	if current.IsTerminal() {
		return false
	}
	return true
}
