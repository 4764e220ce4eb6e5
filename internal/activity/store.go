package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flightpath/internal/domain"
	"flightpath/internal/repo"
)

// Store persists canonical events with (project, external id) as identity.
// Replays of the same event converge on a single row: identity fields keep
// their first-written values while title and metadata track the latest
// delivery.
type Store struct {
	Repo repo.Repo
	Now  func() time.Time
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Apply upserts one canonical event and returns the stored row.
func (s Store) Apply(ctx context.Context, e domain.ActivityEvent) (domain.ActivityEvent, error) {
	if e.ProjectID == "" || e.ExternalID == "" {
		return domain.ActivityEvent{}, fmt.Errorf("event missing identity fields")
	}
	if !domain.ValidEventKind(e.Kind) {
		return domain.ActivityEvent{}, fmt.Errorf("invalid event kind %q", e.Kind)
	}
	now := s.now().UTC().Format(time.RFC3339)
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	if err := s.Repo.UpsertActivityEvent(ctx, e); err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("upsert event %s/%s: %w", e.ProjectID, e.ExternalID, err)
	}
	stored, err := s.Repo.GetActivityEvent(ctx, e.ProjectID, e.ExternalID)
	if err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("reload event %s/%s: %w", e.ProjectID, e.ExternalID, err)
	}
	return stored, nil
}
