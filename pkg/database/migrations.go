package database

import (
	"fmt"

	"go.uber.org/zap"
)

// Migration is one schema change applied in order.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the full ordered schema history. New changes append here;
// applied versions are tracked in schema_migrations.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_tasks",
		SQL: `
			CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT,
				status TEXT NOT NULL,
				priority TEXT NOT NULL,
				project_id TEXT,
				confidence REAL NOT NULL DEFAULT 0,
				dependencies TEXT,
				assigned_to TEXT,
				tags TEXT,
				client_id TEXT,
				version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		`,
	},
	{
		Version: 2,
		Name:    "create_decisions",
		SQL: `
			CREATE TABLE IF NOT EXISTS decisions (
				id TEXT PRIMARY KEY,
				task_id TEXT,
				recommendation TEXT NOT NULL,
				reasoning TEXT,
				confidence REAL NOT NULL DEFAULT 0,
				requires_human_approval INTEGER NOT NULL DEFAULT 0,
				suggested_actions TEXT,
				approval_status TEXT NOT NULL,
				human_feedback TEXT,
				revision INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_decisions_task ON decisions(task_id);
			CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions(approval_status);
		`,
	},
}

// Migrator applies pending schema migrations.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a migrator.
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Run applies all migrations not yet recorded in schema_migrations.
func (m *Migrator) Run() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Name, err)
		}
		m.logger.Info("Applied migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))
	}
	return nil
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(mig Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(mig.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
