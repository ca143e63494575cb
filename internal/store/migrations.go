package store

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: tasks, projects and collaboration tables",
		SQL: `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  color TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  priority TEXT NOT NULL,
  status TEXT NOT NULL,
  completed INTEGER NOT NULL DEFAULT 0,
  project_id TEXT,
  due_date TEXT,
  created_by TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invitations (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  task_title TEXT NOT NULL,
  inviter_user_id TEXT NOT NULL,
  inviter_name TEXT NOT NULL,
  invitee_email TEXT NOT NULL,
  invitee_user_id TEXT,
  role TEXT NOT NULL,
  message TEXT,
  status TEXT NOT NULL,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  accepted_at TEXT
);

CREATE TABLE IF NOT EXISTS collaborators (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  task_id TEXT NOT NULL,
  role TEXT NOT NULL,
  invited_by TEXT NOT NULL,
  invited_at TEXT NOT NULL,
  accepted_at TEXT,
  status TEXT NOT NULL,
  permissions TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  user_name TEXT NOT NULL,
  content TEXT NOT NULL,
  type TEXT NOT NULL,
  parent_id TEXT,
  mentions TEXT,
  attachments TEXT,
  reactions TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  edited_at TEXT,
  is_edited INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  reviewer_id TEXT NOT NULL,
  reviewer_name TEXT NOT NULL,
  status TEXT NOT NULL,
  rating INTEGER,
  feedback TEXT NOT NULL,
  suggestions TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  user_name TEXT NOT NULL,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  metadata TEXT,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  task_id TEXT,
  invitation_id TEXT,
  comment_id TEXT,
  read INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
CREATE INDEX IF NOT EXISTS idx_invitations_task_id ON invitations(task_id);
CREATE INDEX IF NOT EXISTS idx_invitations_invitee_email ON invitations(invitee_email);
CREATE INDEX IF NOT EXISTS idx_invitations_invitee_user_id ON invitations(invitee_user_id);
CREATE INDEX IF NOT EXISTS idx_collaborators_task_user ON collaborators(task_id, user_id);
CREATE INDEX IF NOT EXISTS idx_comments_task_id ON comments(task_id);
CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments(parent_id);
CREATE INDEX IF NOT EXISTS idx_reviews_task_id ON reviews(task_id);
CREATE INDEX IF NOT EXISTS idx_activities_task_id ON activities(task_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, read);
`,
	},
	{
		Version:     2,
		Description: "at most one accepted collaborator per task and user",
		SQL: `
CREATE UNIQUE INDEX IF NOT EXISTS idx_collaborators_accepted_unique
	ON collaborators(task_id, user_id) WHERE status = 'accepted';
`,
	},
	{
		Version:     3,
		Description: "pending invitation expiry sweep index",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_invitations_status_expires ON invitations(status, expires_at);
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

func tableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	return n > 0, err
}

// appliedVersion returns the highest recorded migration, or 0 when none are.
// A tasks table with no recorded versions was created before tracking began
// and counts as version 1.
func appliedVersion(db *sql.DB) (version int, untracked bool, err error) {
	tracked, err := tableExists(db, "schema_migrations")
	if err != nil {
		return 0, false, err
	}
	if tracked {
		if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
			return 0, false, err
		}
		if version > 0 {
			return version, false, nil
		}
	}
	hasTasks, err := tableExists(db, "tasks")
	if err != nil || !hasTasks {
		return 0, false, err
	}
	return 1, true, nil
}

// pendingAfter returns the migrations newer than version, oldest first.
func pendingAfter(version int) []Migration {
	var out []Migration
	for _, m := range migrations {
		if m.Version > version {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out
}

// runMigrations applies pending migrations, each in its own transaction.
func runMigrations(db *sql.DB) error {
	current, untracked, err := appliedVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if _, err := db.Exec(migrationsTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	if untracked {
		if err := recordMigration(db, 1); err != nil {
			return fmt.Errorf("adopt untracked schema: %w", err)
		}
	}

	for _, m := range pendingAfter(current) {
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := recordMigration(tx, m.Version); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

func recordMigration(db interface {
	Exec(query string, args ...any) (sql.Result, error)
}, version int) error {
	_, err := db.Exec("INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", version)
	return err
}

func planMigrations(current int) *MigrationStatus {
	status := &MigrationStatus{CurrentVersion: current, AvailableVersion: SchemaVersion(), Pending: []MigrationInfo{}}
	for _, m := range pendingAfter(current) {
		status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
	}
	return status
}

// InspectMigrations reports the schema state of the database at path without
// changing it. A database that does not exist yet has every migration pending.
func InspectMigrations(path string) (*MigrationStatus, error) {
	dsn, err := sqliteDSN(path, "query_only(1)")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return planMigrations(0), nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	current, _, err := appliedVersion(db)
	if err != nil {
		return nil, fmt.Errorf("inspect migrations: %w", err)
	}
	return planMigrations(current), nil
}

// SchemaVersion returns the highest migration version this build knows about.
func SchemaVersion() int {
	version := 0
	for _, m := range migrations {
		version = max(version, m.Version)
	}
	return version
}
