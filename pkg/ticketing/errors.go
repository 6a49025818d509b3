package ticketing

import (
	"fmt"
	"time"
)

// ValidationError rejects a request that is malformed or aimed at an
// unconfigured system. No state is changed.
type ValidationError struct {
	// Reason is the user-visible rejection reason.
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PermissionError rejects a request from an actor lacking the required
// capability or ownership. No state is changed.
type PermissionError struct {
	// Reason is the user-visible rejection reason.
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// ConflictError rejects a request that collides with existing state: an
// active cooldown or an already-open ticket.
type ConflictError struct {
	// Reason is the user-visible rejection reason.
	Reason string

	// RemainingWait is how long the actor still has to wait, when the
	// conflict is an active cooldown.
	RemainingWait time.Duration

	// ExistingThreadID references the already-open ticket thread, when the
	// conflict is a duplicate create.
	ExistingThreadID string
}

func (e *ConflictError) Error() string {
	switch {
	case e.RemainingWait > 0:
		return fmt.Sprintf("%s (%s remaining)", e.Reason, e.RemainingWait.Round(time.Second))
	case e.ExistingThreadID != "":
		return fmt.Sprintf("%s (<#%s>)", e.Reason, e.ExistingThreadID)
	default:
		return e.Reason
	}
}
