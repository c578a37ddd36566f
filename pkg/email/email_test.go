package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/config"
)

func TestBuildMessageValidation(t *testing.T) {
	ok := Message{To: []string{"a@example.com"}, Subject: "s", TextBody: "b"}

	tests := []struct {
		name string
		from string
		mod  func(m *Message)
	}{
		{"missing from", "", func(*Message) {}},
		{"no recipients", "x@example.com", func(m *Message) { m.To = []string{" "} }},
		{"missing subject", "x@example.com", func(m *Message) { m.Subject = "" }},
		{"missing body", "x@example.com", func(m *Message) { m.TextBody = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ok
			tt.mod(&m)
			_, err := buildMessage(tt.from, m)
			var invalid ErrInvalidMessage
			assert.True(t, errors.As(err, &invalid), "got %v", err)
		})
	}

	msg, err := buildMessage("x@example.com", Message{To: []string{"a@example.com", ""}, Subject: "s", TextBody: "t", HTMLBody: "<p>t</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, msg.GetHeader("To"))
}

func TestDisabledClient(t *testing.T) {
	c, err := NewFromCentral(config.EmailConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	err = c.Send(context.Background(), Message{})
	assert.ErrorAs(t, err, &ErrDisabled{})
}

func TestEnabledClientNeedsHost(t *testing.T) {
	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.EmailConfig{Enabled: true, From: "no-reply@example.com"})
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "Consulto", cfg.AppName)
}

func TestBuildBookingStatusEmail(t *testing.T) {
	m := BuildBookingStatusEmail("user@example.com", BookingEmailData{
		RecipientName: "Ana",
		OtherParty:    "Dr <Who>",
		Date:          "2025-01-06",
		TimeSlot:      "09:00-10:00",
		Status:        "rejected",
		Refund:        "90 USD",
	})

	assert.Equal(t, []string{"user@example.com"}, m.To)
	assert.Equal(t, "Your booking on 2025-01-06 at 09:00-10:00 was declined", m.Subject)
	assert.Contains(t, m.TextBody, "Dr <Who> declined your booking.")
	assert.Contains(t, m.TextBody, "Refund: 90 USD")
	assert.Contains(t, m.HTMLBody, "Dr &lt;Who&gt;")
	assert.False(t, strings.Contains(m.HTMLBody, "<Who>"))

	generic := BuildBookingStatusEmail("a@example.com", BookingEmailData{Status: "moved", Date: "d", TimeSlot: "t"})
	assert.Equal(t, "Booking update for d at t", generic.Subject)
	assert.NotContains(t, generic.TextBody, "Refund")
}
