package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSubject(t *testing.T) {
	id := uuid.MustParse("0190a4b2-0000-7000-8000-000000000001")
	e := Event{Entity: "booking", Action: "accepted", ID: id}
	want := "consulto.booking.accepted.0190a4b2-0000-7000-8000-000000000001"
	if got := e.Subject(DefaultPrefix); got != want {
		t.Errorf("Subject() = %s, want %s", got, want)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	PublishLogged(context.Background(), &r, Event{Entity: "review", Action: "posted"})
	PublishLogged(context.Background(), Nop{}, Event{Entity: "review", Action: "posted"})
	if got := r.Events(); len(got) != 1 || got[0].Action != "posted" {
		t.Errorf("Events() = %+v", got)
	}
}
