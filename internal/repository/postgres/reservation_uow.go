package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

// reservationUnitOfWork implements domain.ReservationUnitOfWork on a single
// Postgres database holding both the events and reservations tables, so the
// counter update and the reservation upsert share one transaction.
type reservationUnitOfWork struct {
	DB *sql.DB
}

func NewReservationUnitOfWork(db *sql.DB) domain.ReservationUnitOfWork {
	return &reservationUnitOfWork{
		DB: db,
	}
}

func (u *reservationUnitOfWork) Execute(ctx context.Context, fn func(tx domain.ReservationTx) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&reservationTx{tx: tx}); err != nil {
		if isRetryableTxError(err) {
			return fmt.Errorf("reservation tx: %w", domain.ErrTxConflict)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if isRetryableTxError(err) {
			return fmt.Errorf("commit reservation tx: %w", domain.ErrTxConflict)
		}
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	return nil
}

// reservationTx is only valid for the duration of one Execute call.
type reservationTx struct {
	tx *sql.Tx
}

// LockEvent takes the per-event row lock that serializes concurrent
// reservation transactions for the same event. Transactions for different
// events do not contend.
func (t *reservationTx) LockEvent(ctx context.Context, eventID string) (domain.EventCounts, error) {
	var counts domain.EventCounts
	err := t.tx.QueryRowContext(ctx,
		`SELECT capacity, attendee_count FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&counts.Capacity, &counts.AttendeeCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventCounts{}, domain.ErrNotFound
		}
		return domain.EventCounts{}, fmt.Errorf("lock event row: %w", err)
	}
	return counts, nil
}

func (t *reservationTx) GetReservation(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// UpsertConfirmed inserts the reservation or revives a cancelled row for the
// same (event_id, user_id) pair. The DO UPDATE is filtered to cancelled rows,
// so a pair that is already confirmed produces no row and maps to
// ErrAlreadyReserved. The row id is stable across cancel/re-reserve cycles.
func (t *reservationTx) UpsertConfirmed(ctx context.Context, res *domain.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	query := `
		INSERT INTO reservations (id, event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'confirmed', $4, $5)
		ON CONFLICT (event_id, user_id) DO UPDATE
			SET status = 'confirmed', updated_at = $5
			WHERE reservations.status = 'cancelled'
		RETURNING id, created_at
	`
	err := t.tx.QueryRowContext(ctx, query,
		res.ID, res.EventID, res.UserID, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrAlreadyReserved
		}
		return fmt.Errorf("upsert reservation: %w", err)
	}
	res.Status = domain.ReservationStatusConfirmed
	return nil
}

func (t *reservationTx) MarkCancelled(ctx context.Context, eventID, userID string) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled', updated_at = NOW()
		 WHERE event_id = $1 AND user_id = $2 AND status = 'confirmed'`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// AddAttendee keeps the capacity predicate inside the UPDATE so the check and
// the increment are indivisible even without the row lock.
func (t *reservationTx) AddAttendee(ctx context.Context, eventID string) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE events SET attendee_count = attendee_count + 1, updated_at = NOW()
		 WHERE id = $1 AND attendee_count < capacity`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("increment attendee count: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEventFull
	}
	return nil
}

func (t *reservationTx) RemoveAttendee(ctx context.Context, eventID string) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE events SET attendee_count = attendee_count - 1, updated_at = NOW()
		 WHERE id = $1 AND attendee_count > 0`,
		eventID,
	)
	if err != nil {
		return false, fmt.Errorf("decrement attendee count: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 0, nil
}
