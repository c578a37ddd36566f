package constants

const (
	AppName = "consulto"

	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every env override, e.g. CONSULTO_DATABASE_HOST.
	EnvPrefix = "CONSULTO"

	// DefaultSessionFee is charged per booking when booking.session_fee is unset.
	DefaultSessionFee int64 = 100

	// RefundPercent is the share of a payment returned on rejection or cancellation.
	RefundPercent int64 = 90
)
