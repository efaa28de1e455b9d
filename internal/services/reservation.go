package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gatherly/internal/domain"
)

const (
	// maxTxAttempts bounds retries of reservation transactions that fail
	// with a transient conflict (serialization failure or deadlock).
	maxTxAttempts = 3
	// txRetryBaseDelay spaces retry attempts apart.
	txRetryBaseDelay = 10 * time.Millisecond
)

type reservationService struct {
	uow             domain.ReservationUnitOfWork
	reservationRepo domain.ReservationRepository
	eventRepo       domain.EventRepository
	userRepo        domain.UserRepository
	emailService    domain.EmailService
	logger          *slog.Logger
}

// NewReservationService creates the ReservationService. It is the single
// writer of attendee counts; everything else only reads them.
func NewReservationService(
	uow domain.ReservationUnitOfWork,
	reservationRepo domain.ReservationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.ReservationService {
	return &reservationService{
		uow:             uow,
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		emailService:    emailService,
		logger:          logger,
	}
}

func (s *reservationService) Reserve(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := s.withTxRetry(ctx, func() error {
		res = nil
		return s.uow.Execute(ctx, func(tx domain.ReservationTx) error {
			// The event row lock serializes every reservation state change
			// for this event until commit.
			counts, err := tx.LockEvent(ctx, eventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("lock event: %w", err)
			}

			existing, err := tx.GetReservation(ctx, eventID, userID)
			if err == nil && existing.Status == domain.ReservationStatusConfirmed {
				return domain.ErrAlreadyReserved
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("get reservation: %w", err)
			}

			if counts.AttendeeCount >= counts.Capacity {
				return domain.ErrEventFull
			}

			now := time.Now()
			reservation := domain.NewReservation(eventID, userID, now)
			if err := tx.UpsertConfirmed(ctx, reservation); err != nil {
				return err
			}
			// The in-store predicate re-checks capacity, so even a lost
			// lock could not push the count past capacity.
			if err := tx.AddAttendee(ctx, eventID); err != nil {
				return err
			}
			res = reservation
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.sendReservationEmail(ctx, eventID, userID, true)
	return res, nil
}

func (s *reservationService) Cancel(ctx context.Context, eventID, userID string) error {
	err := s.withTxRetry(ctx, func() error {
		return s.uow.Execute(ctx, func(tx domain.ReservationTx) error {
			if _, err := tx.LockEvent(ctx, eventID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("lock event: %w", err)
			}
			if err := tx.MarkCancelled(ctx, eventID, userID); err != nil {
				return err
			}
			floored, err := tx.RemoveAttendee(ctx, eventID)
			if err != nil {
				return err
			}
			if floored {
				// A confirmed reservation existed while the counter was
				// already zero. The cancel still commits, but the books
				// were out of sync before this call.
				s.logger.ErrorContext(ctx, "attendee count floor hit, counter out of sync",
					"event_id", eventID, "user_id", userID)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.sendReservationEmail(ctx, eventID, userID, false)
	return nil
}

func (s *reservationService) HasConfirmedReservation(ctx context.Context, eventID, userID string) (bool, error) {
	res, err := s.reservationRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get reservation: %w", err)
	}
	return res.Status == domain.ReservationStatusConfirmed, nil
}

func (s *reservationService) ListMyReservedEvents(ctx context.Context, userID string) ([]*domain.ReservationWithEvent, error) {
	reservations, err := s.reservationRepo.ListConfirmedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if len(reservations) == 0 {
		return []*domain.ReservationWithEvent{}, nil
	}

	ids := make([]string, 0, len(reservations))
	for _, res := range reservations {
		ids = append(ids, res.EventID)
	}
	events, err := s.eventRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list events for reservations: %w", err)
	}

	result := make([]*domain.ReservationWithEvent, 0, len(reservations))
	for _, res := range reservations {
		event, ok := events[res.EventID]
		if !ok {
			// Event deleted but the reservation row survived; skip it.
			continue
		}
		result = append(result, &domain.ReservationWithEvent{
			Reservation: res,
			Event:       event,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Event.Date.Before(result[j].Event.Date)
	})
	return result, nil
}

func (s *reservationService) ListMyCreatedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	events, err := s.eventRepo.ListByCreatorID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list created events: %w", err)
	}
	return events, nil
}

// withTxRetry runs fn, retrying only on transient transaction conflicts.
// Business errors pass through untouched on the first occurrence.
func (s *reservationService) withTxRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if attempt > 1 {
			s.logger.WarnContext(ctx, "retrying reservation transaction", "attempt", attempt, "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * txRetryBaseDelay):
			}
		}
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrTxConflict) {
			return err
		}
	}
	return fmt.Errorf("%d attempts exhausted: %w", maxTxAttempts, domain.ErrConflict)
}

// sendReservationEmail is best-effort: a mail failure never unwinds the
// committed reservation change.
func (s *reservationService) sendReservationEmail(ctx context.Context, eventID, userID string, confirmed bool) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "reservation email skipped: load user", "user_id", userID, "err", err)
		return
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "reservation email skipped: load event", "event_id", eventID, "err", err)
		return
	}
	data := &domain.ReservationEmailData{
		Email:         user.Email,
		Name:          user.Name,
		EventTitle:    event.Title,
		EventDate:     event.Date.Format("Monday, January 2, 2006 at 15:04"),
		EventLocation: event.Location,
	}
	if confirmed {
		err = s.emailService.SendReservationConfirmed(ctx, data)
	} else {
		err = s.emailService.SendReservationCancelled(ctx, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "reservation email failed", "event_id", eventID, "user_id", userID, "err", err)
	}
}
