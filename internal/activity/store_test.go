package activity

import (
	"context"
	"testing"
	"time"

	"flightpath/internal/domain"
)

func sampleCommitEvent(projectID string) domain.ActivityEvent {
	return domain.ActivityEvent{
		ProjectID:  projectID,
		Kind:       domain.EventKindCommit,
		ExternalID: "deadbeef01",
		OccurredAt: "2026-03-05T09:00:00Z",
		Actor:      "octocat",
		Title:      "initial import",
		URL:        testRepoURL + "/commit/deadbeef01",
		Metadata:   `{"sha":"deadbeef01","added":3,"modified":0,"removed":0}`,
	}
}

func TestStoreApplyIsIdempotent(t *testing.T) {
	r, _, project := newTestRepo(t)
	store := Store{Repo: r, Now: fixedNow}
	ctx := context.Background()

	var first domain.ActivityEvent
	for i := 0; i < 3; i++ {
		stored, err := store.Apply(ctx, sampleCommitEvent(project.ID))
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		if i == 0 {
			first = stored
		}
	}
	if n := countEvents(t, r.DB, project.ID); n != 1 {
		t.Fatalf("expected 1 row after replays, got %d", n)
	}
	final, err := r.GetActivityEvent(ctx, project.ID, "deadbeef01")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if final.ID != first.ID {
		t.Errorf("row id changed across replays: %q then %q", first.ID, final.ID)
	}
	if final.CreatedAt != first.CreatedAt {
		t.Errorf("created_at changed across replays")
	}
}

func TestStoreApplyRefreshesTitleAndMetadata(t *testing.T) {
	r, _, project := newTestRepo(t)
	store := Store{Repo: r, Now: fixedNow}
	ctx := context.Background()

	first, err := store.Apply(ctx, sampleCommitEvent(project.ID))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	store.Now = func() time.Time { return fixedNow().Add(time.Hour) }
	updated := sampleCommitEvent(project.ID)
	updated.Title = "initial import (amended)"
	updated.Metadata = `{"sha":"deadbeef01","added":4,"modified":1,"removed":0}`
	updated.Actor = "someone-else"
	updated.OccurredAt = "2026-03-06T09:00:00Z"

	stored, err := store.Apply(ctx, updated)
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if stored.Title != "initial import (amended)" {
		t.Errorf("title not refreshed: %q", stored.Title)
	}
	if stored.Metadata != updated.Metadata {
		t.Errorf("metadata not refreshed: %q", stored.Metadata)
	}
	if stored.Actor != "octocat" {
		t.Errorf("actor should keep first-written value, got %q", stored.Actor)
	}
	if stored.OccurredAt != "2026-03-05T09:00:00Z" {
		t.Errorf("occurred_at should keep first-written value, got %q", stored.OccurredAt)
	}
	if stored.CreatedAt != first.CreatedAt {
		t.Errorf("created_at should be preserved")
	}
	if stored.UpdatedAt == first.UpdatedAt {
		t.Errorf("updated_at should advance on refresh")
	}
}

func TestStoreApplyDefaultsEmptyMetadata(t *testing.T) {
	r, _, project := newTestRepo(t)
	store := Store{Repo: r, Now: fixedNow}

	e := sampleCommitEvent(project.ID)
	e.Metadata = ""
	stored, err := store.Apply(context.Background(), e)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if stored.Metadata != "{}" {
		t.Errorf("metadata = %q, want empty object", stored.Metadata)
	}
}

func TestStoreApplyRejectsInvalidEvents(t *testing.T) {
	r, _, project := newTestRepo(t)
	store := Store{Repo: r, Now: fixedNow}
	ctx := context.Background()

	e := sampleCommitEvent(project.ID)
	e.ExternalID = ""
	if _, err := store.Apply(ctx, e); err == nil {
		t.Error("expected error for missing external id")
	}

	e = sampleCommitEvent(project.ID)
	e.Kind = "deployment"
	if _, err := store.Apply(ctx, e); err == nil {
		t.Error("expected error for invalid kind")
	}
}
