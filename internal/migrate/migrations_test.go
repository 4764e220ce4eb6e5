package migrate

import (
	"testing"

	"flightpath/internal/db"
)

func TestMigrateFreshAndRerun(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var version int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version < 1 {
		t.Fatalf("version = %d, want at least 1", version)
	}

	for _, table := range []string{"users", "projects", "milestones", "tasks", "activity_events", "api_keys"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// A second run sees nothing newer and leaves the version alone.
	if err := Migrate(conn); err != nil {
		t.Fatalf("re-run: %v", err)
	}
	var again int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&again); err != nil {
		t.Fatalf("re-read version: %v", err)
	}
	if again != version {
		t.Errorf("version changed from %d to %d on re-run", version, again)
	}
}
