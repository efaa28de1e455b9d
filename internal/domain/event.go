package domain

import (
	"context"
	"time"
)

// Event represents a published event with finite capacity.
// AttendeeCount is a denormalized aggregate of confirmed reservations and is
// mutated only through the reservation unit of work.
// swagger:model Event
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location"`
	Capacity      int       `json:"capacity"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatorID     string    `json:"creator_id"`
	AttendeeCount int       `json:"attendee_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SpotsLeft returns the number of open slots, never negative.
func (e *Event) SpotsLeft() int {
	if left := e.Capacity - e.AttendeeCount; left > 0 {
		return left
	}
	return 0
}

// NewEvent returns a new Event with the given fields and a zero attendee count.
func NewEvent(title, description, location, category string, date time.Time, capacity int, creatorID string, now time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Capacity:    capacity,
		Category:    category,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EventFilter holds the optional list filters for browsing events.
type EventFilter struct {
	Search   string
	Category string
	From     *time.Time
	To       *time.Time
}

// EventUpdate holds the optional fields of a partial event update.
// Nil fields are left untouched.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Capacity    *int
	Category    *string
	ImageURL    *string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns events matching the filter ordered by date ascending,
	// along with the total match count for pagination.
	List(ctx context.Context, filter EventFilter, page PaginationParams) ([]*Event, int, error)
	// ListByCreatorID returns the events created by a user, ordered by date ascending.
	ListByCreatorID(ctx context.Context, creatorID string) ([]*Event, error)
	// ListByIDs returns the events with the given ids, keyed by id.
	// Missing ids are simply absent from the result.
	ListByIDs(ctx context.Context, ids []string) (map[string]*Event, error)
	// Update applies the non-nil fields of upd. A capacity update that would
	// drop capacity below the current attendee count fails with ErrInvalidInput.
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	// Delete removes the event and all of its reservations in one transaction.
	Delete(ctx context.Context, id string) error
}

// EventService defines event management operations.
type EventService interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, page PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, eventID, userID string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, eventID, userID string) error
	GenerateDescription(ctx context.Context, title, extraContext string) (string, error)
}

// DescriptionGenerator produces an event description draft from a title and
// optional free-form context (infrastructure port, e.g. a hosted LLM API).
type DescriptionGenerator interface {
	Generate(ctx context.Context, title, extraContext string) (string, error)
}
