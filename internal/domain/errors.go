package domain

import "errors"

var (
	// ErrInvalidConfig indicates embed parameters failed validation
	ErrInvalidConfig = errors.New("invalid widget configuration")
	// ErrAlreadyMounted indicates the host document already carries a widget
	ErrAlreadyMounted = errors.New("widget already mounted")
	// ErrNotMounted indicates an operation requires a mounted widget
	ErrNotMounted = errors.New("widget not mounted")
	// ErrProfileUnavailable indicates the bot profile has not loaded
	ErrProfileUnavailable = errors.New("bot profile unavailable")
	// ErrStreamBusy indicates an assistant turn is already in flight
	ErrStreamBusy = errors.New("a response is already streaming")
	// ErrEmptyMessage indicates a send with no content after trimming
	ErrEmptyMessage = errors.New("empty message")
	// ErrPageNotAllowed indicates the page-display policy rejected this page
	ErrPageNotAllowed = errors.New("page not allowed by display policy")
	// ErrInvalidBooking indicates a booking draft failed validation
	ErrInvalidBooking = errors.New("invalid booking request")
)
