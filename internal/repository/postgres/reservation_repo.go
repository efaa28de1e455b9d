package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

const reservationColumns = `id, event_id, user_id, status, created_at, updated_at`

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{
		DB: db,
	}
}

func (r *reservationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE event_id = $1 AND user_id = $2
	`
	res := &domain.Reservation{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).
		Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) ListConfirmedByUserID(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = 'confirmed'
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res := &domain.Reservation{}
		if err := rows.Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
