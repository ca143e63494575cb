package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openRawDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	dsn, err := sqliteDSN(path)
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func requireVersion(t *testing.T, db *sql.DB, want int) {
	t.Helper()
	got, untracked, err := appliedVersion(db)
	if err != nil {
		t.Fatalf("applied version: %v", err)
	}
	if got != want || untracked {
		t.Fatalf("expected tracked version %d, got %d (untracked=%t)", want, got, untracked)
	}
}

func TestRunMigrationsCreatesSchemaOnce(t *testing.T) {
	db := openRawDB(t, filepath.Join(t.TempDir(), "fresh.db"))

	for range 2 {
		if err := runMigrations(db); err != nil {
			t.Fatalf("run migrations: %v", err)
		}
	}
	requireVersion(t, db, SchemaVersion())

	for _, table := range []string{"projects", "tasks", "invitations", "collaborators", "comments", "reviews", "activities", "notifications"} {
		ok, err := tableExists(db, table)
		if err != nil || !ok {
			t.Fatalf("expected table %s to exist (err=%v)", table, err)
		}
	}
	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if rows != len(migrations) {
		t.Fatalf("expected %d recorded migrations, got %d", len(migrations), rows)
	}
}

func TestRunMigrationsAdoptsUntrackedSchema(t *testing.T) {
	db := openRawDB(t, filepath.Join(t.TempDir(), "legacy.db"))
	if _, err := db.Exec(migrations[0].SQL); err != nil {
		t.Fatalf("create initial schema: %v", err)
	}

	version, untracked, err := appliedVersion(db)
	if err != nil {
		t.Fatalf("applied version: %v", err)
	}
	if version != 1 || !untracked {
		t.Fatalf("expected untracked version 1, got %d untracked=%t", version, untracked)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	requireVersion(t, db, SchemaVersion())
}

func TestInspectMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.db")

	status, err := InspectMigrations(path)
	if err != nil {
		t.Fatalf("inspect missing db: %v", err)
	}
	if status.CurrentVersion != 0 || len(status.Pending) != len(migrations) || status.AvailableVersion != SchemaVersion() {
		t.Fatalf("unexpected status for missing db: %+v", status)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	st.Close()

	status, err = InspectMigrations(path)
	if err != nil {
		t.Fatalf("inspect migrated db: %v", err)
	}
	if status.CurrentVersion != SchemaVersion() || len(status.Pending) != 0 {
		t.Fatalf("expected nothing pending after open, got %+v", status)
	}
}

func TestAcceptedCollaboratorUniqueIndex(t *testing.T) {
	db := openRawDB(t, filepath.Join(t.TempDir(), "unique.db"))
	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	insert := `INSERT INTO collaborators (id, user_id, task_id, role, invited_by, invited_at, status, permissions)
		VALUES (?, 'u2', 't1', 'editor', 'u1', datetime('now'), ?, '{}')`
	for _, row := range []struct {
		id, status string
		wantErr    bool
	}{
		{"col-1", "accepted", false},
		{"col-2", "declined", false},
		{"col-3", "accepted", true},
	} {
		_, err := db.Exec(insert, row.id, row.status)
		if (err != nil) != row.wantErr {
			t.Fatalf("insert %s (%s): err=%v wantErr=%t", row.id, row.status, err, row.wantErr)
		}
	}
}
