package state

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleReference is matched by errors returned when an action names
	// an entity that no longer exists.
	ErrStaleReference = errors.New("stale reference")
	ErrNotEligible    = errors.New("reward not eligible")
	ErrNotCompensable = errors.New("infraction type is not compensable")
	ErrDuplicateID    = errors.New("duplicate id")
)

type StaleReferenceError struct {
	Action string
	Entity string
	ID     string
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q", e.Action, e.Entity, e.ID)
}

func (e *StaleReferenceError) Unwrap() error { return ErrStaleReference }

type Reason string

const (
	ReasonInsufficientPoints Reason = "insufficient_points"
	ReasonWeeklyLimit        Reason = "weekly_limit_reached"
)

// IneligibleError explains why a claim was refused.
type IneligibleError struct {
	RewardID string
	MemberID string
	Reason   Reason
	Need     int
	Have     int
}

func (e *IneligibleError) Error() string {
	switch e.Reason {
	case ReasonWeeklyLimit:
		return fmt.Sprintf("reward %q: weekly limit of %d claims reached", e.RewardID, e.Need)
	default:
		return fmt.Sprintf("reward %q: needs %d points, has %d", e.RewardID, e.Need, e.Have)
	}
}

func (e *IneligibleError) Unwrap() error { return ErrNotEligible }

func stale(a Action, entity, id string) error {
	return &StaleReferenceError{Action: a.Name(), Entity: entity, ID: id}
}
