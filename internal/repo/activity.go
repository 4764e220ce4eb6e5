package repo

import (
	"context"
	"database/sql"

	"flightpath/internal/domain"
)

const eventColumns = `id,project_id,kind,external_id,occurred_at,actor,title,url,metadata_json,created_at,updated_at`

func scanEventRow(scan func(dest ...any) error) (domain.ActivityEvent, error) {
	var e domain.ActivityEvent
	err := scan(&e.ID, &e.ProjectID, &e.Kind, &e.ExternalID, &e.OccurredAt, &e.Actor, &e.Title, &e.URL, &e.Metadata, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// UpsertActivityEvent applies a canonical event in a single atomic statement.
// The UNIQUE(project_id, external_id) constraint picks insert or update; on
// conflict only title and metadata are refreshed, so identity fields keep
// their first-written values no matter how often or via which path the same
// external object is delivered. There is no separate existence check, which
// makes concurrent applies for the same key converge without a visible
// duplicate-key failure.
func (r Repo) UpsertActivityEvent(ctx context.Context, e domain.ActivityEvent) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO activity_events(id,project_id,kind,external_id,occurred_at,actor,title,url,metadata_json,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(project_id, external_id) DO UPDATE SET
  title=excluded.title,
  metadata_json=excluded.metadata_json,
  updated_at=excluded.updated_at`,
		e.ID, e.ProjectID, e.Kind, e.ExternalID, e.OccurredAt, e.Actor, e.Title, e.URL, e.Metadata, e.CreatedAt, e.UpdatedAt)
	return err
}

// GetActivityEvent fetches one event by its idempotency key.
func (r Repo) GetActivityEvent(ctx context.Context, projectID, externalID string) (domain.ActivityEvent, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM activity_events WHERE project_id=? AND external_id=?`, projectID, externalID)
	return scanEventRow(row.Scan)
}

// ListActivityEvents returns a project's events, newest first by the time the
// external host reported, not by ingestion time.
func (r Repo) ListActivityEvents(ctx context.Context, projectID string, limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+eventColumns+` FROM activity_events WHERE project_id=? ORDER BY occurred_at DESC, id DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityEvent
	for rows.Next() {
		e, err := scanEventRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
