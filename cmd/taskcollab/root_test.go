package main

import (
	"path/filepath"
	"strings"
	"testing"

	"taskcollab/internal/config"
	"taskcollab/internal/store"
)

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = "http://127.0.0.1:1"
	root := newRootCmd(&cfg)
	root.SetArgs(args)
	return root.Execute()
}

func TestCommandsValidateBeforeCallingServer(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"task create without title", []string{"tasks", "create"}, "title is required"},
		{"task update without fields", []string{"tasks", "update", "tsk-1"}, "no fields to update"},
		{"project update without fields", []string{"projects", "update", "prj-1"}, "no fields to update"},
		{"clear data without confirm", []string{"clear-data"}, "--yes"},
		{"review submit without status", []string{"reviews", "submit", "tsk-1"}, "--status"},
		{"invite missing email", []string{"invitations", "send", "tsk-1"}, "task id and email are required"},
		{"role missing args", []string{"collaborators", "role", "tsk-1"}, "role are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runRoot(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	err := runRoot(t, "token", "u-alice")
	if err == nil || !strings.Contains(err.Error(), "TASKCOLLAB_JWT_SECRET") {
		t.Fatalf("expected secret hint, got %v", err)
	}
}

func TestRejectsBadLogLevelFlag(t *testing.T) {
	if err := runRoot(t, "--log-level", "loud", "tasks", "stats"); err == nil {
		t.Fatal("expected invalid log level error")
	}
}

func TestMigrateCommand(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "migrate.db")

	for _, args := range [][]string{{"migrate", "--dry-run"}, {"migrate"}} {
		root := newRootCmd(&cfg)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	status, err := store.InspectMigrations(cfg.DBPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(status.Pending) != 0 {
		t.Fatalf("expected migrate to apply everything, got %+v", status)
	}

	cfg.Store = config.StoreMemory
	root := newRootCmd(&cfg)
	root.SetArgs([]string{"migrate"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected migrate to refuse the memory store")
	}
}
