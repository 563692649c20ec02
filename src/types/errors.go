package types

import "errors"

// Error taxonomy for the reservation lifecycle. Handlers map these to HTTP
// status codes with errors.Is, so everything raised below the routing layer
// must wrap one of them.
var (
	// ErrValidation covers missing or malformed required fields. 400.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers unknown reservation ids. 404.
	ErrNotFound = errors.New("reservation not found")
	// ErrForbidden is returned when the requester does not own the
	// reservation it is acting on. 403.
	ErrForbidden = errors.New("reservation belongs to another user")
	// ErrInvalidState is returned for transitions the state machine does
	// not allow, cancelled being terminal. 409.
	ErrInvalidState = errors.New("invalid reservation state transition")
	// ErrAlreadyCancelled is the cancel-after-cancel case. 409.
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	// ErrEmptyCart is returned when checkout is requested with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMetadata means a confirmed checkout session carries no usable
	// reservation ids. The payment is captured but unreconciled, so this
	// is logged loudly and surfaced as a 500, never guessed around.
	ErrMetadata = errors.New("checkout session metadata has no reservation ids")
	// ErrProcessor and ErrCalendar wrap collaborator failures. 502.
	ErrProcessor = errors.New("payment processor request failed")
	ErrCalendar  = errors.New("calendar provider request failed")
)
