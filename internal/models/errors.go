package models

import "errors"

// Error kinds shared by every layer. Services and repositories wrap these with
// fmt.Errorf("%w: ...") so handlers can classify failures with errors.Is.
var (
	// ErrValidation marks malformed client input. No state was changed.
	ErrValidation = errors.New("validation error")

	// ErrEmptyOrder is returned when every cart line was filtered out.
	ErrEmptyOrder = errors.New("order has no valid items")

	// ErrNotFound marks a referenced order, item, menu item or waiting entry that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks a transition that is illegal from the current state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrConflict marks a business rule guard, e.g. cancelling while cooking.
	ErrConflict = errors.New("conflict")

	// ErrPersistence marks an underlying storage failure. The operation was rolled back.
	ErrPersistence = errors.New("persistence error")
)
