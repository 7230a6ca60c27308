package registry

import "errors"

var (
	// ErrNotFound is returned when a referenced report or work order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for out-of-range or malformed numeric arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyRepaired is returned when assigning a crew to a report whose
	// work order is already repaired and reassignment is disabled.
	ErrAlreadyRepaired = errors.New("work order already repaired")
)

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrAlreadyRepaired):
		return "already_repaired"
	default:
		return "other"
	}
}
