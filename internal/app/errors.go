package app

import "errors"

// Sentinel errors returned by application operations. The HTTP layer maps
// these to status codes; nothing below it knows about HTTP.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrHotelNotFound      = errors.New("hotel not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrFacilityNotFound   = errors.New("facility not found")
	ErrBookingConflict    = errors.New("booking dates conflict with an existing booking")
	ErrInvalidRange       = errors.New("date_from must be before date_to")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
)
