package sms

import (
	"context"
	"testing"

	"github.com/Alijeyrad/consulto_backend/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SMSConfig
		wantErr bool
		enabled bool
	}{
		{"disabled", config.SMSConfig{Enabled: false}, false, false},
		{"missing api key", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{TemplateID: "t"}}, true, false},
		{"missing template", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k"}}, true, false},
		{"enabled", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k", SecretKey: "s", TemplateID: "t"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromConfig failed: %v", err)
			}
			if client.IsEnabled() != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", client.IsEnabled(), tt.enabled)
			}
		})
	}
}

func TestSendBookingStatus_Disabled(t *testing.T) {
	client := &Client{enabled: false}
	if err := client.SendBookingStatus(context.Background(), "", BookingNotice{}); err != nil {
		t.Errorf("expected no error for disabled client, got: %v", err)
	}
}

func TestSendBookingStatus_Validation(t *testing.T) {
	client := &Client{enabled: true, templateID: "t"}
	full := BookingNotice{Status: "accepted", Date: "2025-01-06", Slot: "09:00-10:00"}

	tests := []struct {
		name   string
		phone  string
		notice BookingNotice
	}{
		{"empty phone", "", full},
		{"missing status", "+16502530000", BookingNotice{Date: full.Date, Slot: full.Slot}},
		{"missing slot", "+16502530000", BookingNotice{Status: full.Status, Date: full.Date}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.SendBookingStatus(context.Background(), tt.phone, tt.notice); err == nil {
				t.Error("expected error but got nil")
			}
		})
	}
}

func TestNoticeParams(t *testing.T) {
	p := BookingNotice{Status: "accepted", Date: "2025-01-06", Slot: "09:00-10:00"}.params()
	if len(p) != 3 || p[0].Key != "status" || p[2].Value != "09:00-10:00" {
		t.Errorf("params() = %+v", p)
	}
}
