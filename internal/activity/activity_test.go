package activity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"flightpath/internal/db"
	"flightpath/internal/domain"
	"flightpath/internal/migrate"
	"flightpath/internal/repo"
)

const testRepoURL = "https://github.com/acme/rocket"

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

// newTestRepo opens a throwaway workspace database and seeds one user with a
// project tracking testRepoURL.
func newTestRepo(t *testing.T) (repo.Repo, domain.User, domain.Project) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	now := fixedNow().Format(time.RFC3339)
	ctx := context.Background()
	user, err := r.UpsertUser(ctx, domain.User{
		ID:        uuid.NewString(),
		GitHubID:  "gh-1001",
		Name:      "octocat",
		CreatedAt: now,
		UpdatedAt: now,
	}, "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	repoURL := testRepoURL
	project := domain.Project{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      "Rocket",
		Stage:     "execution",
		RepoURL:   &repoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.InsertProject(ctx, project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return r, user, project
}

func countEvents(t *testing.T, conn *sql.DB, projectID string) int {
	t.Helper()
	var n int
	err := conn.QueryRow(`SELECT COUNT(*) FROM activity_events WHERE project_id=?`, projectID).Scan(&n)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}
