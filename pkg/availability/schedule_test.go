package availability

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestWeekday(t *testing.T) {
	cases := map[string]Day{
		"2025-01-05": Sunday,
		"2025-01-06": Monday,
		"2025-01-07": Tuesday,
		"2025-01-11": Saturday,
		"2024-02-29": Thursday,
	}
	for in, want := range cases {
		if got := Weekday(date(t, in)); got != want {
			t.Errorf("Weekday(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestSlots(t *testing.T) {
	monday := date(t, "2025-01-06")

	tests := []struct {
		name  string
		sched Schedule
		want  []string
	}{
		{
			name:  "morning window",
			sched: Schedule{Monday: {StartTime: "09:00", EndTime: "12:00"}},
			want:  []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"},
		},
		{
			name:  "day missing",
			sched: Schedule{Tuesday: {StartTime: "09:00", EndTime: "12:00"}},
			want:  nil,
		},
		{
			name:  "empty schedule",
			sched: Schedule{},
			want:  nil,
		},
		{
			name:  "start equals end",
			sched: Schedule{Monday: {StartTime: "09:00", EndTime: "09:00"}},
			want:  nil,
		},
		{
			name:  "start after end",
			sched: Schedule{Monday: {StartTime: "17:00", EndTime: "09:00"}},
			want:  nil,
		},
		{
			name:  "missing end",
			sched: Schedule{Monday: {StartTime: "09:00"}},
			want:  nil,
		},
		{
			name:  "garbage times",
			sched: Schedule{Monday: {StartTime: "nine", EndTime: "ten"}},
			want:  nil,
		},
		{
			name:  "partial trailing hour dropped",
			sched: Schedule{Monday: {StartTime: "09:30", EndTime: "11:45"}},
			want:  []string{"09:30-10:30", "10:30-11:30"},
		},
		{
			name:  "window shorter than a slot",
			sched: Schedule{Monday: {StartTime: "09:00", EndTime: "09:30"}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sched.Slots(monday)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Slots() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotsNeverPastEnd(t *testing.T) {
	s := Schedule{Monday: {StartTime: "08:00", EndTime: "17:00"}}
	slots := s.Slots(date(t, "2025-01-06"))
	if len(slots) != 9 {
		t.Fatalf("got %d slots, want 9", len(slots))
	}
	if slots[0] != "08:00-09:00" || slots[len(slots)-1] != "16:00-17:00" {
		t.Errorf("unexpected bounds %s .. %s", slots[0], slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i-1][6:] != slots[i][:5] {
			t.Errorf("slots %q and %q are not contiguous", slots[i-1], slots[i])
		}
	}
}

func TestContains(t *testing.T) {
	s := Schedule{Monday: {StartTime: "09:00", EndTime: "17:00"}}
	monday := date(t, "2025-01-06")

	if !s.Contains(monday, "09:00-10:00") {
		t.Error("expected 09:00-10:00 to be bookable")
	}
	if !s.Contains(monday, "16:00-17:00") {
		t.Error("expected 16:00-17:00 to be bookable")
	}
	for _, slot := range []string{"08:00-09:00", "16:30-17:30", "17:00-18:00", "09:00-11:00", "junk"} {
		if s.Contains(monday, slot) {
			t.Errorf("Contains(%q) = true, want false", slot)
		}
	}
	if s.Contains(date(t, "2025-01-07"), "09:00-10:00") {
		t.Error("tuesday is closed")
	}
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`{"Monday":{"startTime":"09:00","endTime":"17:00"},"friday":{"startTime":"10:00","endTime":"12:00"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Days(); !reflect.DeepEqual(got, []Day{Monday, Friday}) {
		t.Errorf("Days() = %v", got)
	}

	bad := []string{
		`{"someday":{"startTime":"09:00","endTime":"17:00"}}`,
		`{"monday":{"startTime":"09:00"}}`,
		`{"monday":{"startTime":"12:00","endTime":"09:00"}}`,
		`{"monday":"all day"}`,
		`[]`,
	}
	for _, in := range bad {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("Parse(%s) error = %v, want ErrInvalidSchedule", in, err)
		}
	}

	empty, err := Parse(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Parse(nil) = %v, %v", empty, err)
	}
}

func TestDecodeIsLenient(t *testing.T) {
	s, err := Decode([]byte(`{"monday":{"startTime":"12:00","endTime":"09:00"},"someday":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s) != 1 {
		t.Fatalf("expected unknown day dropped, got %v", s)
	}
	if slots := s.Slots(date(t, "2025-01-06")); len(slots) != 0 {
		t.Errorf("inverted window produced %v", slots)
	}
}

func TestWithout(t *testing.T) {
	got := Without([]string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}, []string{"10:00-11:00"})
	want := []string{"09:00-10:00", "11:00-12:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Without() = %v, want %v", got, want)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"", "2025-13-01", "06/01/2025", "2025-01-06T09:00:00Z"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v", in, err)
		}
	}
}
