package review

import "errors"

var (
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrNoBooking          = errors.New("a booking with this consultant is required to review")
	ErrConsultantNotFound = errors.New("consultant not found")
	ErrTextTooLong        = errors.New("review text is too long")
)
