package flightpathsdk

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"flightpath/internal/config"
	"flightpath/internal/db"
	"flightpath/internal/engine"
	"flightpath/internal/migrate"
	"flightpath/internal/server"
)

func startServer(t *testing.T) string {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	cfg.Auth.JWTSecret = "sdk-test-secret"
	e := engine.New(conn, cfg)
	handler, err := server.New(server.Config{
		Engine:   e,
		BasePath: cfg.Server.BasePath,
		Auth:     server.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	t.Cleanup(func() {
		srv.Close()
		conn.Close()
	})
	return "http://" + ln.Addr().String()
}

func TestClientRoundTrip(t *testing.T) {
	baseURL := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := New(baseURL)
	if err := c.Login(ctx, "gh-1", "octocat", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if c.BearerToken == "" {
		t.Fatal("login did not store a bearer token")
	}

	p, err := c.CreateProject(ctx, "Rocket", "execution", "https://github.com/acme/rocket")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Stage != "execution" {
		t.Errorf("stage = %q", p.Stage)
	}

	list, err := c.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Errorf("projects = %+v", list)
	}

	m, err := c.CreateMilestone(ctx, p.ID, "Alpha")
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	task, err := c.CreateTask(ctx, m.ID, "wire poller", "improvement")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Type != "improvement" || task.SortOrder != 0 {
		t.Errorf("task = %+v", task)
	}

	events, err := c.Activity(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty activity log, got %d events", len(events))
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	c := New(baseURL)
	_, err := c.ListProjects(ctx)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}
