// Package sms delivers booking status notices through sms.ir templates.
package sms

import (
	"context"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/Alijeyrad/consulto_backend/config"
)

// Notifier is satisfied by *Client and by test doubles.
type Notifier interface {
	SendBookingStatus(ctx context.Context, phoneNumber string, notice BookingNotice) error
	IsEnabled() bool
}

// BookingNotice fills the "status", "date" and "slot" template parameters.
type BookingNotice struct {
	Status string
	Date   string
	Slot   string
}

func (n BookingNotice) params() []smsir.UltraFastParameter {
	return []smsir.UltraFastParameter{
		{Key: "status", Value: n.Status},
		{Key: "date", Value: n.Date},
		{Key: "slot", Value: n.Slot},
	}
}

type Client struct {
	client     *smsir.Client
	templateID string
	enabled    bool
}

// NewFromConfig returns a no-op client when SMS is disabled.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}
	if cfg.SMSIR.TemplateID == "" {
		return nil, fmt.Errorf("sms.ir template id required when SMS enabled")
	}

	return &Client{
		client:     smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey),
		templateID: cfg.SMSIR.TemplateID,
		enabled:    true,
	}, nil
}

// SendBookingStatus is a no-op on a disabled client.
func (c *Client) SendBookingStatus(ctx context.Context, phoneNumber string, n BookingNotice) error {
	if !c.enabled {
		return nil
	}
	if phoneNumber == "" {
		return fmt.Errorf("phone number is required")
	}
	if n.Status == "" || n.Date == "" || n.Slot == "" {
		return fmt.Errorf("booking notice needs status, date and slot")
	}

	_, err := c.client.Verification.UltraFastSend(ctx, &smsir.UltraFastSendRequest{
		Mobile:     phoneNumber,
		TemplateID: c.templateID,
		Parameters: n.params(),
	})
	if err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}
