package booking

import "errors"

var (
	ErrConsultantNotFound  = errors.New("consultant not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrPaymentNotFound     = errors.New("payment not found for booking")
	ErrOutsideAvailability = errors.New("requested slot is outside the consultant's availability")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrSelfBooking         = errors.New("consultants cannot book themselves")
	ErrSlotTaken           = errors.New("slot has already been requested")
	ErrUserDoubleBooked    = errors.New("you already hold a booking at this date and time")
	ErrSlotAlreadyAccepted = errors.New("another booking for this slot is already accepted")
	ErrInvalidTransition   = errors.New("booking cannot move to the requested status")
	ErrAlreadyRefunded     = errors.New("payment has already been refunded")
	ErrNotBookingParty     = errors.New("not a party to this booking")
	ErrInexactRefund       = errors.New("session fee does not refund to whole minor units")
)
