package availability

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// ParseDate parses a calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
