package repo

import (
	"context"
	"database/sql"

	"flightpath/internal/domain"
)

const userColumns = `id,github_id,name,COALESCE(email,'') AS email,COALESCE(avatar_url,'') AS avatar_url,created_at,updated_at`

func scanUserRow(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	err := scan(&u.ID, &u.GitHubID, &u.Name, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// UpsertUser inserts a user or refreshes profile fields keyed by github_id.
// The stored access token is only overwritten when a new one is supplied.
func (r Repo) UpsertUser(ctx context.Context, u domain.User, token string) (domain.User, error) {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id,github_id,name,email,avatar_url,github_token,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)
ON CONFLICT(github_id) DO UPDATE SET
  name=excluded.name,
  email=excluded.email,
  avatar_url=excluded.avatar_url,
  github_token=COALESCE(excluded.github_token, users.github_token),
  updated_at=excluded.updated_at`,
		u.ID, u.GitHubID, u.Name, nullable(u.Email), nullable(u.AvatarURL), nullable(token), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByGitHubID(ctx, u.GitHubID)
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUserRow(row.Scan)
}

func (r Repo) GetUserByGitHubID(ctx context.Context, githubID string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE github_id=?`, githubID)
	return scanUserRow(row.Scan)
}

// GetUserToken returns the stored GitHub access token for a user; empty when
// none has been captured yet.
func (r Repo) GetUserToken(ctx context.Context, userID string) (string, error) {
	var token sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT github_token FROM users WHERE id=?`, userID).Scan(&token)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", nil
	}
	return token.String, nil
}

func (r Repo) SetUserToken(ctx context.Context, userID, token, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET github_token=?, updated_at=? WHERE id=?`, nullable(token), updatedAt, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		u, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}
