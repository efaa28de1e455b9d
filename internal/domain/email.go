package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ReservationEmailData holds data for the reservation confirmation and
// cancellation emails.
type ReservationEmailData struct {
	Email         string
	Name          string
	EventTitle    string
	EventDate     string
	EventLocation string
}

// EmailService defines the contract for sending domain-level emails.
// Failures are reported to the caller but must never roll back the
// reservation they describe.
type EmailService interface {
	SendReservationConfirmed(ctx context.Context, data *ReservationEmailData) error
	SendReservationCancelled(ctx context.Context, data *ReservationEmailData) error
}
