package admin

import "errors"

var (
	ErrConsultantNotFound = errors.New("consultant not found")
	ErrInvalidFilter      = errors.New("invalid filter")
)
