package repo

import (
	"context"
	"database/sql"

	"flightpath/internal/domain"
)

const taskColumns = `id,milestone_id,title,type,status,COALESCE(description,'') AS description,sort_order,created_at,updated_at`

func scanTaskRow(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	err := scan(&t.ID, &t.MilestoneID, &t.Title, &t.Type, &t.Status, &t.Description, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(id,milestone_id,title,type,status,description,sort_order,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.MilestoneID, t.Title, t.Type, t.Status, nullable(t.Description), t.SortOrder, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTaskRow(row.Scan)
}

// GetTaskForUser walks the ownership chain task -> milestone -> project -> user.
func (r Repo) GetTaskForUser(ctx context.Context, id, userID string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT t.id,t.milestone_id,t.title,t.type,t.status,COALESCE(t.description,''),t.sort_order,t.created_at,t.updated_at
FROM tasks t
JOIN milestones m ON m.id=t.milestone_id
JOIN projects p ON p.id=m.project_id
WHERE t.id=? AND p.user_id=?`, id, userID)
	return scanTaskRow(row.Scan)
}

func (r Repo) ListTasks(ctx context.Context, milestoneID string) ([]domain.Task, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE milestone_id=? ORDER BY sort_order ASC, id ASC`, milestoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// MaxTaskOrder returns the highest sort_order in a milestone, -1 when empty.
func (r Repo) MaxTaskOrder(ctx context.Context, milestoneID string) (int, error) {
	var max int
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order),-1) FROM tasks WHERE milestone_id=?`, milestoneID).Scan(&max)
	return max, err
}

type TaskUpdate struct {
	Title       *string
	Type        *string
	Status      *string
	Description *string
	SortOrder   *int
	UpdatedAt   string
}

func (r Repo) UpdateTask(ctx context.Context, id string, u TaskUpdate) error {
	var (
		fields []string
		args   []any
	)
	if u.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *u.Title)
	}
	if u.Type != nil {
		fields = append(fields, "type=?")
		args = append(args, *u.Type)
	}
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *u.Status)
	}
	if u.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, nullable(*u.Description))
	}
	if u.SortOrder != nil {
		fields = append(fields, "sort_order=?")
		args = append(args, *u.SortOrder)
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, u.UpdatedAt)
	query, args := buildUpdate("tasks", fields, args, id)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
