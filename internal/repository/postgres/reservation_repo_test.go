package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gatherly/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var reservationCols = []string{"id", "event_id", "user_id", "status", "created_at", "updated_at"}

func TestReservationRepository_GetByEventAndUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mock       func(mock sqlmock.Sqlmock)
		wantStatus domain.ReservationStatus
		wantErr    error
	}{
		{
			name: "confirmed row",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM reservations`).
					WithArgs("ev-1", "u-1").
					WillReturnRows(sqlmock.NewRows(reservationCols).
						AddRow("res-1", "ev-1", "u-1", "confirmed", now, now))
			},
			wantStatus: domain.ReservationStatusConfirmed,
		},
		{
			name: "cancelled row is still returned",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM reservations`).
					WithArgs("ev-1", "u-1").
					WillReturnRows(sqlmock.NewRows(reservationCols).
						AddRow("res-1", "ev-1", "u-1", "cancelled", now, now))
			},
			wantStatus: domain.ReservationStatusCancelled,
		},
		{
			name: "no row",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM reservations`).
					WithArgs("ev-1", "u-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewReservationRepository(db)
			res, err := repo.GetByEventAndUser(ctx, "ev-1", "u-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, res.Status)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReservationRepository_ListConfirmedByUserID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM reservations`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow("res-2", "ev-2", "u-1", "confirmed", now, now).
			AddRow("res-1", "ev-1", "u-1", "confirmed", now.Add(-time.Hour), now))

	repo := NewReservationRepository(db)
	reservations, err := repo.ListConfirmedByUserID(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, reservations, 2)
	require.Equal(t, "ev-2", reservations[0].EventID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListConfirmedByUserIDEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM reservations`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	repo := NewReservationRepository(db)
	reservations, err := repo.ListConfirmedByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Empty(t, reservations)
}
