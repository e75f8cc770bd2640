package services

import (
	"errors"

	"agency-backend/internal/database"
)

var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict maps to 409 (meeting slot collisions, duplicate cancel requests).
	ErrConflict = errors.New("conflict")
	// ErrAlreadyCompleted is returned by the loser of the webhook/poll
	// completion race; callers treat it as a no-op success.
	ErrAlreadyCompleted = errors.New("order already completed")
	// ErrSessionNotPaid means the checkout session has not been paid yet.
	ErrSessionNotPaid = errors.New("checkout session is not paid")
	// ErrAmountMismatch means the client-submitted amount does not match
	// the half payment computed from the budget band.
	ErrAmountMismatch = errors.New("amount does not match the required deposit")
	// ErrAllUploadsFailed means no staged file could be stored.
	ErrAllUploadsFailed = errors.New("all file uploads failed")
	// ErrForbidden maps to 403 (acting on someone else's order).
	ErrForbidden = errors.New("forbidden")
	// ErrTooSoon rejects meetings starting before the next midnight.
	ErrTooSoon = errors.New("meeting must be scheduled at least one day in the future")
)

// translateNotFound maps the store sentinel onto the service one so
// handlers only ever check services errors.
func translateNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
