package email

import (
	"strings"
	"testing"

	"gatherly/internal/domain"
)

func TestRenderReservationTemplates(t *testing.T) {
	r := NewTemplateRenderer()
	data := &domain.ReservationEmailData{
		Email:         "ada@example.com",
		Name:          "Ada",
		EventTitle:    "Go Meetup",
		EventDate:     "Friday, September 4, 2026 at 18:00",
		EventLocation: "Berlin",
	}

	for _, name := range []string{"reservation_confirmed", "reservation_cancelled"} {
		t.Run(name, func(t *testing.T) {
			subject, htmlBody, textBody, err := r.Render(name, data)
			if err != nil {
				t.Fatalf("Render(%s): %v", name, err)
			}
			if subject == "" {
				t.Error("empty subject")
			}
			if !strings.Contains(subject, "Go Meetup") {
				t.Errorf("subject %q missing event title", subject)
			}
			for _, body := range []string{htmlBody, textBody} {
				if !strings.Contains(body, "Ada") || !strings.Contains(body, "Go Meetup") {
					t.Errorf("body missing data: %q", body)
				}
			}
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := NewTemplateRenderer()
	if _, _, _, err := r.Render("no_such_template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
