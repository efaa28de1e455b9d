package services

import (
	"context"
	"errors"
	"testing"

	"gatherly/internal/domain"
)

type recordingMailer struct {
	to, subject string
	err         error
}

func (m *recordingMailer) Send(to, subject, html, text string) error {
	m.to = to
	m.subject = subject
	return m.err
}

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(templateName string, data any) (string, string, string, error) {
	if r.err != nil {
		return "", "", "", r.err
	}
	return "subject: " + templateName, "<p>hi</p>", "hi", nil
}

func TestEmailServiceSend(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer, &stubRenderer{}, testLogger())

	data := &domain.ReservationEmailData{Email: "ada@example.com", Name: "Ada"}
	if err := svc.SendReservationConfirmed(context.Background(), data); err != nil {
		t.Fatalf("SendReservationConfirmed: %v", err)
	}
	if mailer.to != "ada@example.com" {
		t.Errorf("to = %q", mailer.to)
	}
	if mailer.subject != "subject: reservation_confirmed" {
		t.Errorf("subject = %q", mailer.subject)
	}

	if err := svc.SendReservationCancelled(context.Background(), data); err != nil {
		t.Fatalf("SendReservationCancelled: %v", err)
	}
	if mailer.subject != "subject: reservation_cancelled" {
		t.Errorf("subject = %q", mailer.subject)
	}
}

func TestEmailServiceNilData(t *testing.T) {
	svc := NewEmailService(&recordingMailer{}, &stubRenderer{}, testLogger())
	if err := svc.SendReservationConfirmed(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil data")
	}
}

func TestEmailServiceErrors(t *testing.T) {
	data := &domain.ReservationEmailData{Email: "ada@example.com"}

	renderFail := NewEmailService(&recordingMailer{}, &stubRenderer{err: errors.New("bad template")}, testLogger())
	if err := renderFail.SendReservationConfirmed(context.Background(), data); err == nil {
		t.Fatal("expected render error")
	}

	sendFail := NewEmailService(&recordingMailer{err: errors.New("smtp down")}, &stubRenderer{}, testLogger())
	if err := sendFail.SendReservationConfirmed(context.Background(), data); err == nil {
		t.Fatal("expected send error")
	}
}
