package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/yassinfayed/sakoban/game/service"
	"github.com/yassinfayed/sakoban/game/session"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Sokoban Game Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

// parseArgs runs the command with args and returns the resolved options
func parseArgs(t *testing.T, args ...string) (options, error) {
	t.Helper()
	var opts options
	var parseErr error

	cmd := newCommand()
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		opts, parseErr = optionsFrom(c)
		return nil
	}
	if err := cmd.Run(context.Background(), append([]string{"sakoban"}, args...)); err != nil {
		return opts, err
	}
	return opts, parseErr
}

func TestFlagDefaults(t *testing.T) {
	opts, err := parseArgs(t)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if opts.Mode != modeServer {
		t.Errorf("Expected default mode server, got %s", opts.Mode)
	}
	if opts.Port != 8080 || opts.Host != "localhost" {
		t.Errorf("Unexpected default address %s", opts.addr())
	}
	if opts.SessionsDir == "" || opts.DBPath == "" {
		t.Error("Sessions directory and database should have defaults")
	}
	if opts.SessionTTL != 24*time.Hour {
		t.Errorf("Expected 24h session TTL, got %s", opts.SessionTTL)
	}
}

func TestFlagsAndEnvironment(t *testing.T) {
	t.Setenv("SAKOBAN_DB", "/tmp/env.db")
	t.Setenv("NGROK_AUTHTOKEN", "token")

	opts, err := parseArgs(t, "--port", "9090", "--debug", "--session-ttl", "30m", "mcp")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if opts.Port != 9090 || !opts.Debug || opts.SessionTTL != 30*time.Minute {
		t.Errorf("Flags not applied: %+v", opts)
	}
	if opts.DBPath != "/tmp/env.db" || opts.NgrokToken != "token" {
		t.Errorf("Environment not applied: %+v", opts)
	}
	if opts.Mode != modeStdio {
		t.Errorf("Expected positional mode to resolve to %s, got %s", modeStdio, opts.Mode)
	}
}

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		mode     string
		expected string
		wantErr  bool
	}{
		{"", modeServer, false},
		{"http", modeServer, false},
		{"server", modeServer, false},
		{"mcp", modeStdio, false},
		{"mcp-stdio", modeStdio, false},
		{"stdio-mcp", modeStdio, false},
		{"desktop", "", true},
	}

	for _, test := range tests {
		got, err := normalizeMode(test.mode)
		if (err != nil) != test.wantErr {
			t.Errorf("normalizeMode(%q): unexpected error %v", test.mode, err)
		}
		if got != test.expected {
			t.Errorf("normalizeMode(%q): expected %q, got %q", test.mode, test.expected, got)
		}
	}
}

func TestInvalidPort(t *testing.T) {
	if _, err := parseArgs(t, "--port", "70000"); err == nil {
		t.Error("Expected error for out of range port")
	}
}

func testOptions(t *testing.T) options {
	dir := t.TempDir()
	return options{
		Mode:        modeServer,
		Host:        "localhost",
		Port:        8080,
		SessionsDir: filepath.Join(dir, "sessions"),
		DBPath:      filepath.Join(dir, "progress.db"),
		SessionTTL:  time.Hour,
	}
}

func TestInitializeServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := testOptions(t)
	svc, err := initializeServices(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	info, err := svc.game.CreateSession(ctx, service.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.LevelID != 1 {
		t.Errorf("Expected the built-in first level, got %d", info.LevelID)
	}

	if _, err := svc.game.Leaderboard(ctx, service.LeaderboardQuery{}); err != nil {
		t.Errorf("Expected leaderboard with a database, got %v", err)
	}

	svc.Close()
	if _, err := os.Stat(filepath.Join(opts.SessionsDir, strings.ToLower(info.ID)+".json")); err != nil {
		t.Errorf("Expected session file after Close: %v", err)
	}
}

func TestInitializeServices_WithoutDatabase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := testOptions(t)
	opts.DBPath = ""
	svc, err := initializeServices(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	if _, err := svc.game.Leaderboard(ctx, service.LeaderboardQuery{}); !errors.Is(err, service.ErrProgressUnavailable) {
		t.Errorf("Expected ErrProgressUnavailable, got %v", err)
	}
}

func TestInitializeServices_InvalidLevelsDir(t *testing.T) {
	opts := testOptions(t)
	opts.LevelsDir = "/non/existent/path"

	if _, err := initializeServices(context.Background(), opts); err == nil {
		t.Error("Expected error for non-existent levels directory")
	}
}

func TestSessionCleanupRoutine(t *testing.T) {
	manager := session.NewManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sessionCleanupRoutine(ctx, manager, time.Hour, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cleanup routine did not stop on cancel")
	}

	// A zero TTL disables cleanup entirely
	sessionCleanupRoutine(context.Background(), manager, 0, time.Millisecond)
}

func TestExternalAPIAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if !externalAPIAvailable(healthy.URL) {
		t.Error("Expected healthy server to be detected")
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	if externalAPIAvailable(broken.URL) {
		t.Error("Expected failing server to be rejected")
	}
	if externalAPIAvailable("http://127.0.0.1:1") {
		t.Error("Expected unreachable server to be rejected")
	}
}
