// Package availability models a consultant's weekly opening hours and
// derives the one-hour slots that can be booked on a given date.
package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidSchedule = errors.New("invalid availability schedule")

const (
	clockLayout = "15:04"
	slotWidth   = time.Hour
)

// Day is a lower-case English weekday name.
type Day string

const (
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
)

var days = [...]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Weekday returns the schedule key for the date.
func Weekday(date time.Time) Day {
	return days[date.Weekday()]
}

// ParseDay accepts any casing of a weekday name.
func ParseDay(s string) (Day, bool) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range days {
		if d == known {
			return d, true
		}
	}
	return "", false
}

// Window is one day's opening hours in "HH:MM" form.
type Window struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Schedule maps a weekday to its opening window. A missing day is closed.
type Schedule map[Day]Window

// Parse decodes and validates a JSON schedule.
func Parse(data []byte) (Schedule, error) {
	if len(data) == 0 || string(data) == "null" {
		return Schedule{}, nil
	}
	var raw map[string]Window
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	s := make(Schedule, len(raw))
	for k, w := range raw {
		d, ok := ParseDay(k)
		if !ok {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, k)
		}
		s[d] = w
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode reads a stored schedule without validating windows. Unknown day
// keys are dropped; malformed windows survive and simply produce no slots.
func Decode(data []byte) (Schedule, error) {
	if len(data) == 0 || string(data) == "null" {
		return Schedule{}, nil
	}
	var raw map[string]Window
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	s := make(Schedule, len(raw))
	for k, w := range raw {
		if d, ok := ParseDay(k); ok {
			s[d] = w
		}
	}
	return s, nil
}

// Validate rejects unknown days and unparsable or inverted windows.
func (s Schedule) Validate() error {
	for d, w := range s {
		if _, ok := ParseDay(string(d)); !ok {
			return fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, d)
		}
		start, end, ok := w.bounds()
		if !ok {
			return fmt.Errorf("%w: %s needs startTime and endTime as HH:MM", ErrInvalidSchedule, d)
		}
		if !start.Before(end) {
			return fmt.Errorf("%w: %s starts at or after it ends", ErrInvalidSchedule, d)
		}
	}
	return nil
}

// Slots lists the bookable slot labels for the date, in order.
// Closed days and malformed or empty windows yield no slots.
func (s Schedule) Slots(date time.Time) []string {
	w, ok := s[Weekday(date)]
	if !ok {
		return nil
	}
	return w.Slots()
}

// Contains reports whether slot is one of the labels generated for date.
func (s Schedule) Contains(date time.Time, slot string) bool {
	for _, label := range s.Slots(date) {
		if label == slot {
			return true
		}
	}
	return false
}

// Days returns the open days in calendar order, Sunday first.
func (s Schedule) Days() []Day {
	out := make([]Day, 0, len(s))
	for _, d := range days {
		if _, ok := s[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	raw := make(map[string]Window, len(s))
	for d, w := range s {
		raw[string(d)] = w
	}
	return json.Marshal(raw)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Slots splits the window into one-hour labels that end no later than EndTime.
func (w Window) Slots() []string {
	start, end, ok := w.bounds()
	if !ok || !start.Before(end) {
		return nil
	}
	var out []string
	for t := start; !t.Add(slotWidth).After(end); t = t.Add(slotWidth) {
		out = append(out, FormatSlot(t, t.Add(slotWidth)))
	}
	return out
}

func (w Window) bounds() (time.Time, time.Time, bool) {
	if w.StartTime == "" || w.EndTime == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(clockLayout, w.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(clockLayout, w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// FormatSlot renders a slot label such as "09:00-10:00".
func FormatSlot(start, end time.Time) string {
	return start.Format(clockLayout) + "-" + end.Format(clockLayout)
}

// Without returns slots minus any label present in taken, keeping order.
func Without(slots, taken []string) []string {
	if len(taken) == 0 {
		return slots
	}
	blocked := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		blocked[t] = struct{}{}
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := blocked[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
