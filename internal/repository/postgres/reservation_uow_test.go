package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gatherly/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestReservationUnitOfWork_ReserveFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT capacity, attendee_count FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "attendee_count"}).AddRow(100, 42))
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs("ev-1", "u-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO reservations`).
		WithArgs(sqlmock.AnyArg(), "ev-1", "u-1", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("res-1", now))
	mock.ExpectExec(`UPDATE events SET attendee_count = attendee_count \+ 1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		counts, err := tx.LockEvent(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, domain.EventCounts{Capacity: 100, AttendeeCount: 42}, counts)

		_, err = tx.GetReservation(ctx, "ev-1", "u-1")
		require.ErrorIs(t, err, domain.ErrNotFound)

		res := domain.NewReservation("ev-1", "u-1", now)
		require.NoError(t, tx.UpsertConfirmed(ctx, res))
		require.Equal(t, "res-1", res.ID)

		return tx.AddAttendee(ctx, "ev-1")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationUnitOfWork_RollbackOnError(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT capacity, attendee_count FROM events`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "attendee_count"}).AddRow(10, 10))
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		counts, err := tx.LockEvent(ctx, "ev-1")
		require.NoError(t, err)
		if counts.AttendeeCount >= counts.Capacity {
			return domain.ErrEventFull
		}
		return nil
	})
	require.ErrorIs(t, err, domain.ErrEventFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationUnitOfWork_RetryableConflict(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT capacity, attendee_count FROM events`).
		WithArgs("ev-1").
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		_, err := tx.LockEvent(ctx, "ev-1")
		return err
	})
	require.ErrorIs(t, err, domain.ErrTxConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationUnitOfWork_CommitConflict(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error { return nil })
	require.ErrorIs(t, err, domain.ErrTxConflict)
}

func TestReservationTx_LockEventNotFound(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT capacity, attendee_count FROM events`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		_, err := tx.LockEvent(ctx, "missing")
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationTx_UpsertConfirmedAlreadyReserved(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The filtered upsert returns no row when the existing reservation is
	// already confirmed.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO reservations`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		return tx.UpsertConfirmed(ctx, domain.NewReservation("ev-1", "u-1", now))
	})
	require.ErrorIs(t, err, domain.ErrAlreadyReserved)
}

func TestReservationTx_MarkCancelled(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "confirmed row cancelled", rows: 1, wantErr: nil},
		{name: "no confirmed row", rows: 0, wantErr: domain.ErrReservationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE reservations SET status = 'cancelled'`).
				WithArgs("ev-1", "u-1").
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			if tt.wantErr == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			uow := NewReservationUnitOfWork(db)
			err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
				return tx.MarkCancelled(ctx, "ev-1", "u-1")
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReservationTx_AddAttendeeFull(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events SET attendee_count = attendee_count \+ 1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		return tx.AddAttendee(ctx, "ev-1")
	})
	require.ErrorIs(t, err, domain.ErrEventFull)
}

func TestReservationTx_RemoveAttendeeFloored(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events SET attendee_count = attendee_count - 1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	uow := NewReservationUnitOfWork(db)
	err = uow.Execute(ctx, func(tx domain.ReservationTx) error {
		floored, err := tx.RemoveAttendee(ctx, "ev-1")
		require.NoError(t, err)
		require.True(t, floored)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
