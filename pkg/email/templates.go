package email

import (
	"fmt"
	"html"
	"strings"
)

// BookingEmailData feeds the booking notification templates. Refund is
// preformatted by the caller, e.g. "90 USD"; empty means no refund line.
type BookingEmailData struct {
	AppName       string
	RecipientName string
	OtherParty    string
	Date          string
	TimeSlot      string
	Status        string
	Refund        string
	Note          string
}

var bookingSubjects = map[string]string{
	"created":  "New booking request for %s at %s",
	"accepted": "Your booking on %s at %s is confirmed",
	"rejected": "Your booking on %s at %s was declined",
	"canceled": "Booking on %s at %s was canceled",
}

var bookingLead = map[string]string{
	"created":  "%s has requested a session with you.",
	"accepted": "%s accepted your booking.",
	"rejected": "%s declined your booking.",
	"canceled": "The booking with %s has been canceled.",
}

// BuildBookingStatusEmail renders the notice sent to the other party of a
// booking transition. Unknown statuses fall back to a generic update.
func BuildBookingStatusEmail(to string, d BookingEmailData) Message {
	app := d.AppName
	if app == "" {
		app = DefaultConfig().AppName
	}
	name := d.RecipientName
	if name == "" {
		name = "there"
	}

	subjFmt, ok := bookingSubjects[d.Status]
	if !ok {
		subjFmt = "Booking update for %s at %s"
	}
	leadFmt, ok := bookingLead[d.Status]
	if !ok {
		leadFmt = "There is an update on your booking with %s."
	}
	subject := fmt.Sprintf(subjFmt, d.Date, d.TimeSlot)
	lead := fmt.Sprintf(leadFmt, d.OtherParty)

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n%s\n\nDate: %s\nTime: %s\nStatus: %s\n", name, lead, d.Date, d.TimeSlot, d.Status)
	if d.Refund != "" {
		fmt.Fprintf(&text, "Refund: %s\n", d.Refund)
	}
	if d.Note != "" {
		fmt.Fprintf(&text, "\nNote: %s\n", d.Note)
	}
	fmt.Fprintf(&text, "\nThanks,\nThe %s Team", app)

	var body strings.Builder
	fmt.Fprintf(&body, `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>%s</p>
    <table style="border-collapse: collapse;">
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Date</strong></td><td>%s</td></tr>
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Time</strong></td><td>%s</td></tr>
        <tr><td style="padding: 4px 12px 4px 0;"><strong>Status</strong></td><td>%s</td></tr>
`, esc(name), esc(lead), esc(d.Date), esc(d.TimeSlot), esc(d.Status))
	if d.Refund != "" {
		fmt.Fprintf(&body, `        <tr><td style="padding: 4px 12px 4px 0;"><strong>Refund</strong></td><td>%s</td></tr>
`, esc(d.Refund))
	}
	body.WriteString("    </table>\n")
	if d.Note != "" {
		fmt.Fprintf(&body, "    <p style=\"color: #555;\"><em>%s</em></p>\n", esc(d.Note))
	}
	fmt.Fprintf(&body, `    <p style="color: #666; font-size: 14px;">Thanks,<br>The %s Team</p>
</body>
</html>`, esc(app))

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: body.String(),
	}
}

func esc(s string) string { return html.EscapeString(s) }
