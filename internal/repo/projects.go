package repo

import (
	"context"
	"database/sql"

	"flightpath/internal/domain"
)

const projectColumns = `id,user_id,name,COALESCE(description,'') AS description,stage,start_date,end_date,repo_url,created_at,updated_at`

func scanProjectRow(scan func(dest ...any) error) (domain.Project, error) {
	var p domain.Project
	var startDate, endDate, repoURL sql.NullString
	err := scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Stage, &startDate, &endDate, &repoURL, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.StartDate = optionalColumn(startDate)
	p.EndDate = optionalColumn(endDate)
	p.RepoURL = optionalColumn(repoURL)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO projects(id,user_id,name,description,stage,start_date,end_date,repo_url,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Name, nullable(p.Description), p.Stage, nullableStringPtr(p.StartDate), nullableStringPtr(p.EndDate), nullableStringPtr(p.RepoURL), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	return scanProjectRow(row.Scan)
}

// GetProjectForUser returns the project only when the given user owns it.
func (r Repo) GetProjectForUser(ctx context.Context, id, userID string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=? AND user_id=?`, id, userID)
	return scanProjectRow(row.Scan)
}

// GetProjectByRepoURL resolves a repository URL to the project that linked it.
// Matching is exact-string; no trailing-slash or .git normalization happens
// here. When more than one project claims the URL the earliest created wins.
func (r Repo) GetProjectByRepoURL(ctx context.Context, repoURL string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE repo_url=? ORDER BY created_at ASC, id ASC LIMIT 1`, repoURL)
	return scanProjectRow(row.Scan)
}

func (r Repo) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE user_id=? ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProjectRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// ProjectUpdate carries the optional fields of a project patch. Nil means
// leave unchanged; a pointer to "" clears a nullable column.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Stage       *string
	StartDate   *string
	EndDate     *string
	RepoURL     *string
	UpdatedAt   string
}

func (r Repo) UpdateProject(ctx context.Context, id string, u ProjectUpdate) error {
	var (
		fields []string
		args   []any
	)
	if u.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, nullable(*u.Description))
	}
	if u.Stage != nil {
		fields = append(fields, "stage=?")
		args = append(args, *u.Stage)
	}
	if u.StartDate != nil {
		fields = append(fields, "start_date=?")
		args = append(args, nullable(*u.StartDate))
	}
	if u.EndDate != nil {
		fields = append(fields, "end_date=?")
		args = append(args, nullable(*u.EndDate))
	}
	if u.RepoURL != nil {
		fields = append(fields, "repo_url=?")
		args = append(args, nullable(*u.RepoURL))
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, u.UpdatedAt)
	query, args := buildUpdate("projects", fields, args, id)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project; milestones, tasks and activity events go
// with it via ON DELETE CASCADE.
func (r Repo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountEventsForProject(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM activity_events WHERE project_id=?`, projectID).Scan(&n)
	return n, err
}
