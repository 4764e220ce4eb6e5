package repo

import (
	"context"
	"database/sql"

	"flightpath/internal/domain"
)

const milestoneColumns = `id,project_id,title,COALESCE(description,'') AS description,start_date,end_date,status,created_at,updated_at`

func scanMilestoneRow(scan func(dest ...any) error) (domain.Milestone, error) {
	var m domain.Milestone
	var startDate, endDate sql.NullString
	err := scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &startDate, &endDate, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.StartDate = optionalColumn(startDate)
	m.EndDate = optionalColumn(endDate)
	return m, nil
}

func (r Repo) InsertMilestone(ctx context.Context, m domain.Milestone) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO milestones(id,project_id,title,description,start_date,end_date,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		m.ID, m.ProjectID, m.Title, nullable(m.Description), nullableStringPtr(m.StartDate), nullableStringPtr(m.EndDate), m.Status, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r Repo) GetMilestone(ctx context.Context, id string) (domain.Milestone, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id=?`, id)
	return scanMilestoneRow(row.Scan)
}

// GetMilestoneForUser walks the ownership chain milestone -> project -> user.
func (r Repo) GetMilestoneForUser(ctx context.Context, id, userID string) (domain.Milestone, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT m.id,m.project_id,m.title,COALESCE(m.description,''),m.start_date,m.end_date,m.status,m.created_at,m.updated_at
FROM milestones m JOIN projects p ON p.id=m.project_id WHERE m.id=? AND p.user_id=?`, id, userID)
	return scanMilestoneRow(row.Scan)
}

func (r Repo) ListMilestones(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE project_id=? ORDER BY start_date ASC, created_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Milestone
	for rows.Next() {
		m, err := scanMilestoneRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

type MilestoneUpdate struct {
	Title       *string
	Description *string
	StartDate   *string
	EndDate     *string
	Status      *string
	UpdatedAt   string
}

func (r Repo) UpdateMilestone(ctx context.Context, id string, u MilestoneUpdate) error {
	var (
		fields []string
		args   []any
	)
	if u.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, nullable(*u.Description))
	}
	if u.StartDate != nil {
		fields = append(fields, "start_date=?")
		args = append(args, nullable(*u.StartDate))
	}
	if u.EndDate != nil {
		fields = append(fields, "end_date=?")
		args = append(args, nullable(*u.EndDate))
	}
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *u.Status)
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, u.UpdatedAt)
	query, args := buildUpdate("milestones", fields, args, id)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMilestone(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM milestones WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
