package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// CheckReservationResponse is the response body for GET /events/{eventID}/reservations/me
type CheckReservationResponse struct {
	HasReservation bool `json:"has_reservation"`
}

type ReservationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService) *ReservationController {
	return &ReservationController{
		Logger:  logger,
		Service: svc,
	}
}

// Reserve godoc
// @Summary Reserve a slot for the authenticated user
// @Description Books one of the event's open slots. At most one confirmed reservation exists per user and event; reserving again after a cancellation revives the original reservation.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already reserved or event full)"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable (contention, retry later)"
// @Router /events/{eventID}/reservations [post]
func (c *ReservationController) Reserve(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	reservation, err := c.Service.Reserve(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrAlreadyReserved):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already reserved for this event")
		case errors.Is(err, domain.ErrEventFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is full")
		case errors.Is(err, domain.ErrConflict):
			helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "too much contention, retry later")
		default:
			c.Logger.ErrorContext(r.Context(), "reserve failed", "event_id", eventID, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not reserve")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reservation)
}

// Cancel godoc
// @Summary Cancel the authenticated user's reservation
// @Description Cancellation is not silently idempotent: a second cancel for the same event yields 404.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "Cancelled"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event or reservation)"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable (contention, retry later)"
// @Router /events/{eventID}/reservations [delete]
func (c *ReservationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.Cancel(r.Context(), eventID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrReservationNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no confirmed reservation for this event")
		case errors.Is(err, domain.ErrConflict):
			helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "too much contention, retry later")
		default:
			c.Logger.ErrorContext(r.Context(), "cancel failed", "event_id", eventID, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not cancel")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckMine godoc
// @Summary Check whether the authenticated user holds a confirmed reservation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reservations/me [get]
func (c *ReservationController) CheckMine(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	has, err := c.Service.HasConfirmedReservation(r.Context(), eventID, userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "check reservation failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not check reservation")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CheckReservationResponse{HasReservation: has})
}

// ListMyReservations godoc
// @Summary List the authenticated user's confirmed reservations with their events
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/reservations [get]
func (c *ReservationController) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reservations, err := c.Service.ListMyReservedEvents(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "list reservations failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not list reservations")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reservations)
}

// ListMyEvents godoc
// @Summary List the events the authenticated user created
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/events [get]
func (c *ReservationController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListMyCreatedEvents(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "list created events failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not list events")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
