package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrConsultantNotFound = errors.New("consultant not found")
	ErrNotConsultant      = errors.New("only consultants have a consultant profile")
	ErrNameRequired       = errors.New("name must not be empty")
	ErrInvalidPhone       = errors.New("invalid phone number for the configured region")
	ErrInvalidSchedule    = errors.New("invalid availability schedule")
	ErrInvalidDate        = errors.New("date must be YYYY-MM-DD")
	ErrInvalidBankAccount = errors.New("bank account must be 8 to 34 letters or digits")
	ErrEncryptionDisabled = errors.New("bank account storage is not configured")
	ErrFieldTooLong       = errors.New("profile field is too long")
)
