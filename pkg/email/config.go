package email

import (
	"time"

	"github.com/Alijeyrad/consulto_backend/config"
)

type Config struct {
	Enabled bool
	From    string
	AppName string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	// SMTPUseTLS selects implicit TLS (usually port 465). Otherwise gomail
	// upgrades with STARTTLS when the server offers it.
	SMTPUseTLS  bool
	SMTPTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		AppName:     "Consulto",
		SMTPPort:    587,
		SMTPTimeout: 30 * time.Second,
	}
}

func FromCentralConfig(c config.EmailConfig) Config {
	out := DefaultConfig()
	out.Enabled = c.Enabled
	out.From = c.From
	out.SMTPHost = c.SMTP.Host
	out.SMTPUsername = c.SMTP.Username
	out.SMTPPassword = c.SMTP.Password
	out.SMTPUseTLS = c.SMTP.UseTLS
	if c.SMTP.Port > 0 {
		out.SMTPPort = c.SMTP.Port
	}
	if c.SMTP.TimeoutSeconds > 0 {
		out.SMTPTimeout = time.Duration(c.SMTP.TimeoutSeconds) * time.Second
	}
	return out
}
