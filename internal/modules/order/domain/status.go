package domain

import "fmt"

type Status string

const (
	StatusPending           Status = "pending"
	StatusPaymentSuccessful Status = "payment_successful"
	StatusPaymentFailed     Status = "payment_failed"
	StatusCancelled         Status = "cancelled"
	StatusComplete          Status = "complete"
)

// transitions lists every allowed edge of the order lifecycle.
var transitions = map[Status][]Status{
	StatusPending:           {StatusPaymentSuccessful, StatusPaymentFailed, StatusCancelled},
	StatusPaymentSuccessful: {StatusComplete},
	StatusPaymentFailed:     {StatusPending},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaymentSuccessful, StatusPaymentFailed, StatusCancelled, StatusComplete:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusComplete
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition for any edge not in the lifecycle.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
