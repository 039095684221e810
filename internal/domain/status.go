package domain

import (
	"strings"

	"lims-assign/internal/apperr"
)

// Status is the assignment lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"     // created without a technician
	StatusAssigned   Status = "ASSIGNED"    // technician bound
	StatusInProgress Status = "IN_PROGRESS" // work started
	StatusCompleted  Status = "COMPLETED"   // work finished
	StatusSubmitted  Status = "SUBMITTED"   // terminal, result finalized
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusSubmitted:
		return Status(s), nil
	}
	return "", apperr.Validation("unknown status %q", s)
}

// explicitTransitions lists the caller-requestable transitions. Binding a
// technician (PENDING -> ASSIGNED) happens through assignment creation or
// reassignment, never through an explicit status request, so PENDING has no
// outgoing entries here.
var explicitTransitions = map[Status][]Status{
	StatusPending:    {},
	StatusAssigned:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusSubmitted},
	StatusSubmitted:  {},
}

// TransitionEffects reports which timestamps a validated transition fills.
// StartedAt is set once: a transition that would re-set it is a no-op on
// the timestamp, not an error.
type TransitionEffects struct {
	SetStartedAt   bool
	SetCompletedAt bool
}

// NextStatuses returns the legal explicit next states for current
// (empty for PENDING and for the terminal SUBMITTED).
func NextStatuses(current Status) []Status {
	next := explicitTransitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ValidateTransition is the pure status machine: it accepts or rejects a
// requested transition and reports timestamp side effects. It performs no I/O
// and never mutates anything.
func ValidateTransition(current, requested Status) (TransitionEffects, error) {
	for _, next := range explicitTransitions[current] {
		if next != requested {
			continue
		}
		switch requested {
		case StatusInProgress:
			return TransitionEffects{SetStartedAt: true}, nil
		case StatusCompleted:
			return TransitionEffects{SetCompletedAt: true}, nil
		default:
			return TransitionEffects{}, nil
		}
	}
	return TransitionEffects{}, apperr.Validation(
		"invalid status transition from %s to %s (valid: %s)",
		current, requested, formatStatuses(explicitTransitions[current]),
	)
}

func formatStatuses(statuses []Status) string {
	if len(statuses) == 0 {
		return "none"
	}
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
