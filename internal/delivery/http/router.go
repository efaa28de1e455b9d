package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	reservationController *controllers.ReservationController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("GET /me", auth(authController.Me))

	// Events
	mux.HandleFunc("GET /events", eventController.List)
	mux.HandleFunc("GET /events/{eventID}", eventController.Get)
	mux.HandleFunc("POST /events", auth(eventController.Create))
	mux.HandleFunc("PUT /events/{eventID}", auth(eventController.Update))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.Delete))
	mux.HandleFunc("POST /events/generate-description", auth(eventController.GenerateDescription))

	// Reservations
	mux.HandleFunc("POST /events/{eventID}/reservations", auth(reservationController.Reserve))
	mux.HandleFunc("DELETE /events/{eventID}/reservations", auth(reservationController.Cancel))
	mux.HandleFunc("GET /events/{eventID}/reservations/me", auth(reservationController.CheckMine))
	mux.HandleFunc("GET /me/reservations", auth(reservationController.ListMyReservations))
	mux.HandleFunc("GET /me/events", auth(reservationController.ListMyEvents))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
