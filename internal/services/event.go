package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
)

const (
	maxCapacity     = 100_000
	defaultCategory = "General"
)

type eventService struct {
	eventRepo      domain.EventRepository
	descGenerator  domain.DescriptionGenerator
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given repository and
// description generator.
func NewEventService(eventRepo domain.EventRepository, descGenerator domain.DescriptionGenerator, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		descGenerator:  descGenerator,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Title = strings.TrimSpace(event.Title)
	event.Location = strings.TrimSpace(event.Location)
	if event.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.Description) == "" {
		return fmt.Errorf("description is required: %w", domain.ErrInvalidInput)
	}
	if event.Location == "" {
		return fmt.Errorf("location is required: %w", domain.ErrInvalidInput)
	}
	if event.Date.IsZero() {
		return fmt.Errorf("date is required: %w", domain.ErrInvalidInput)
	}
	if event.Capacity < 1 {
		return fmt.Errorf("capacity must be a positive integer: %w", domain.ErrInvalidInput)
	}
	if event.Capacity > maxCapacity {
		return fmt.Errorf("capacity cannot exceed %d: %w", maxCapacity, domain.ErrInvalidInput)
	}
	if event.CreatorID == "" {
		return fmt.Errorf("event creator is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.Category) == "" {
		event.Category = defaultCategory
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.AttendeeCount = 0

	return s.eventRepo.Create(ctx, event)
}

func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Default to upcoming events unless the caller set an explicit range.
	if filter.From == nil && filter.To == nil {
		now := time.Now()
		filter.From = &now
	}

	events, total, err := s.eventRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) Update(ctx context.Context, eventID, userID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != userID {
		return nil, domain.ErrForbidden
	}
	if upd.Capacity != nil && (*upd.Capacity < 1 || *upd.Capacity > maxCapacity) {
		return nil, fmt.Errorf("capacity out of range: %w", domain.ErrInvalidInput)
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrInvalidInput)
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != userID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) GenerateDescription(ctx context.Context, title, extraContext string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	description, err := s.descGenerator.Generate(ctx, title, strings.TrimSpace(extraContext))
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	return description, nil
}
