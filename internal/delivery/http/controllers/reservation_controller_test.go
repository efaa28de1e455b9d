package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

const testEventID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

type mockReservationService struct {
	reservation *domain.Reservation
	reserved    []*domain.ReservationWithEvent
	created     []*domain.Event
	has         bool
	err         error
}

func (m *mockReservationService) Reserve(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reservation, nil
}

func (m *mockReservationService) Cancel(ctx context.Context, eventID, userID string) error {
	return m.err
}

func (m *mockReservationService) HasConfirmedReservation(ctx context.Context, eventID, userID string) (bool, error) {
	return m.has, m.err
}

func (m *mockReservationService) ListMyReservedEvents(ctx context.Context, userID string) ([]*domain.ReservationWithEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reserved, nil
}

func (m *mockReservationService) ListMyCreatedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func testingLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func reserveRequest(t *testing.T, method, eventID, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, "/events/"+eventID+"/reservations", nil)
	req.SetPathValue("eventID", eventID)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func TestReservationController_Reserve_Success(t *testing.T) {
	svc := &mockReservationService{
		reservation: &domain.Reservation{ID: "res-1", EventID: testEventID, UserID: "u1", Status: domain.ReservationStatusConfirmed},
	}
	ctrl := NewReservationController(testingLogger(), svc)

	w := httptest.NewRecorder()
	ctrl.Reserve(w, reserveRequest(t, http.MethodPost, testEventID, "u1"))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
}

func TestReservationController_Reserve_Unauthorized(t *testing.T) {
	ctrl := NewReservationController(testingLogger(), &mockReservationService{})

	w := httptest.NewRecorder()
	ctrl.Reserve(w, reserveRequest(t, http.MethodPost, testEventID, ""))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestReservationController_Reserve_InvalidEventID(t *testing.T) {
	ctrl := NewReservationController(testingLogger(), &mockReservationService{})

	w := httptest.NewRecorder()
	ctrl.Reserve(w, reserveRequest(t, http.MethodPost, "not-a-uuid", "u1"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestReservationController_Reserve_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"event not found", domain.ErrNotFound, http.StatusNotFound},
		{"already reserved", domain.ErrAlreadyReserved, http.StatusConflict},
		{"event full", domain.ErrEventFull, http.StatusConflict},
		{"contention", domain.ErrConflict, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewReservationController(testingLogger(), &mockReservationService{err: tc.err})

			w := httptest.NewRecorder()
			ctrl.Reserve(w, reserveRequest(t, http.MethodPost, testEventID, "u1"))

			if w.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, w.Code)
			}
			var resp helpers.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Error == nil {
				t.Fatal("expected error in response body")
			}
		})
	}
}

func TestReservationController_Cancel_Success(t *testing.T) {
	ctrl := NewReservationController(testingLogger(), &mockReservationService{})

	w := httptest.NewRecorder()
	ctrl.Cancel(w, reserveRequest(t, http.MethodDelete, testEventID, "u1"))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

func TestReservationController_Cancel_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"event not found", domain.ErrNotFound, http.StatusNotFound},
		{"no reservation", domain.ErrReservationNotFound, http.StatusNotFound},
		{"contention", domain.ErrConflict, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewReservationController(testingLogger(), &mockReservationService{err: tc.err})

			w := httptest.NewRecorder()
			ctrl.Cancel(w, reserveRequest(t, http.MethodDelete, testEventID, "u1"))

			if w.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestReservationController_CheckMine(t *testing.T) {
	ctrl := NewReservationController(testingLogger(), &mockReservationService{has: true})

	req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID+"/reservations/me", nil)
	req.SetPathValue("eventID", testEventID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))

	w := httptest.NewRecorder()
	ctrl.CheckMine(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Data CheckReservationResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !resp.Data.HasReservation {
		t.Fatal("expected has_reservation to be true")
	}
}

func TestReservationController_ListMyReservations(t *testing.T) {
	svc := &mockReservationService{
		reserved: []*domain.ReservationWithEvent{
			{
				Reservation: &domain.Reservation{ID: "res-1", EventID: testEventID, UserID: "u1"},
				Event:       &domain.Event{ID: testEventID, Title: "Go Meetup"},
			},
		},
	}
	ctrl := NewReservationController(testingLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/me/reservations", nil)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))

	w := httptest.NewRecorder()
	ctrl.ListMyReservations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
}

func TestReservationController_ListMyEvents_Unauthorized(t *testing.T) {
	ctrl := NewReservationController(testingLogger(), &mockReservationService{})

	req := httptest.NewRequest(http.MethodGet, "/me/events", nil)
	w := httptest.NewRecorder()
	ctrl.ListMyEvents(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
