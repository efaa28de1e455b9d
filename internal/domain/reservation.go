package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for reservation operations. All of these are expected
// outcomes and are returned as values, never panics.
var (
	// ErrAlreadyReserved is returned when the user already holds a confirmed
	// reservation for the event.
	ErrAlreadyReserved = errors.New("already reserved for this event")
	// ErrEventFull is returned when the event has no open slots left.
	ErrEventFull = errors.New("event is full")
	// ErrReservationNotFound is returned by Cancel when the user has no
	// confirmed reservation on file.
	ErrReservationNotFound = errors.New("no confirmed reservation for this event")
	// ErrTxConflict signals a retryable transaction conflict detected by the
	// storage layer (serialization failure or deadlock).
	ErrTxConflict = errors.New("transaction conflict")
	// ErrConflict is returned after the retry budget for transaction
	// conflicts is exhausted; the caller may retry later.
	ErrConflict = errors.New("too much contention, retry later")
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation records one user's registration for one event. At most one row
// exists per (event, user) pair; a repeat reservation after a cancellation
// toggles the existing row back to confirmed instead of inserting a second one.
// swagger:model Reservation
type Reservation struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewReservation creates a confirmed Reservation for the given pair.
// ID is assigned by the store on upsert.
func NewReservation(eventID, userID string, now time.Time) *Reservation {
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		Status:    ReservationStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReservationWithEvent bundles a reservation with its event.
type ReservationWithEvent struct {
	Reservation *Reservation `json:"reservation"`
	Event       *Event       `json:"event"`
}

// ReservationRepository defines the plain (non-transactional) reads over
// reservation storage.
type ReservationRepository interface {
	// GetByEventAndUser returns the reservation row for the pair regardless
	// of status, or ErrNotFound.
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Reservation, error)
	// ListConfirmedByUserID returns the user's confirmed reservations.
	ListConfirmedByUserID(ctx context.Context, userID string) ([]*Reservation, error)
}

// EventCounts is the slice of event state the reservation core inspects
// while holding the event row lock.
type EventCounts struct {
	Capacity      int
	AttendeeCount int
}

// ReservationTx groups the reads and writes of one reservation state change.
// Everything called on a ReservationTx commits or rolls back as a whole.
// Implementations must serialize concurrent transactions touching the same
// event (LockEvent takes an exclusive per-event lock) and must additionally
// guard the counter mutations with in-store predicates so no interleaving can
// push attendee_count outside [0, capacity].
type ReservationTx interface {
	// LockEvent reads capacity and attendee count under an exclusive
	// per-event lock held until the transaction ends. Returns ErrNotFound
	// if the event does not exist.
	LockEvent(ctx context.Context, eventID string) (EventCounts, error)
	// GetReservation returns the pair's reservation row inside the
	// transaction, or ErrNotFound.
	GetReservation(ctx context.Context, eventID, userID string) (*Reservation, error)
	// UpsertConfirmed inserts a confirmed reservation, or flips an existing
	// cancelled row for the same pair back to confirmed. A duplicate-key
	// violation on a confirmed row maps to ErrAlreadyReserved.
	UpsertConfirmed(ctx context.Context, res *Reservation) error
	// MarkCancelled sets the pair's confirmed reservation to cancelled.
	// Returns ErrReservationNotFound when no confirmed row exists.
	MarkCancelled(ctx context.Context, eventID, userID string) error
	// AddAttendee increments the event's attendee count, guarded by
	// attendee_count < capacity. Returns ErrEventFull when the guard fails.
	AddAttendee(ctx context.Context, eventID string) error
	// RemoveAttendee decrements the event's attendee count, guarded by
	// attendee_count > 0. The returned flag is true when the guard failed,
	// i.e. the floor was exercised; callers should log that as a
	// consistency warning since correct bookkeeping never reaches it.
	RemoveAttendee(ctx context.Context, eventID string) (floored bool, err error)
}

// ReservationUnitOfWork runs fn inside one atomic transaction spanning the
// event counter and the reservation row. If fn returns an error the
// transaction is rolled back and both stores are left exactly as they were.
// A commit-time conflict surfaces as ErrTxConflict (possibly wrapped).
type ReservationUnitOfWork interface {
	Execute(ctx context.Context, fn func(tx ReservationTx) error) error
}

// ReservationService coordinates all reservation state changes. It is the
// only component that mutates attendee counts.
type ReservationService interface {
	// Reserve books one of the event's open slots for the user.
	// Errors: ErrNotFound, ErrAlreadyReserved, ErrEventFull, ErrConflict.
	Reserve(ctx context.Context, eventID, userID string) (*Reservation, error)
	// Cancel releases the user's confirmed reservation.
	// Errors: ErrNotFound, ErrReservationNotFound, ErrConflict.
	Cancel(ctx context.Context, eventID, userID string) error
	// HasConfirmedReservation reports whether the user currently holds a
	// confirmed reservation for the event.
	HasConfirmedReservation(ctx context.Context, eventID, userID string) (bool, error)
	// ListMyReservedEvents returns the user's confirmed reservations with
	// their events, ordered by event date ascending.
	ListMyReservedEvents(ctx context.Context, userID string) ([]*ReservationWithEvent, error)
	// ListMyCreatedEvents returns the events the user created, ordered by
	// event date ascending.
	ListMyCreatedEvents(ctx context.Context, userID string) ([]*Event, error)
}
