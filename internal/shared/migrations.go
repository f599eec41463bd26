package shared

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

const migrationsDir = "sql"

// Migration is one versioned schema step. Files are named
// NNNN_<name>_up.sql and NNNN_<name>_down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// migrationFile splits a file name into version, name and direction.
// ok is false for anything that does not follow the naming scheme.
func migrationFile(file string) (version int, name string, up bool, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", false, false
	}

	switch {
	case strings.HasSuffix(base, "_up"):
		base, up = strings.TrimSuffix(base, "_up"), true
	case strings.HasSuffix(base, "_down"):
		base = strings.TrimSuffix(base, "_down")
	default:
		return 0, "", false, false
	}

	prefix, name, found := strings.Cut(base, "_")
	if !found {
		return 0, "", false, false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false, false
	}
	return version, name, up, true
}

func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, up, ok := migrationFile(entry.Name())
		if !ok {
			continue
		}

		body, err := fs.ReadFile(migrationFiles, path.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		m, seen := byVersion[version]
		if !seen {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	versions := lo.Keys(byVersion)
	slices.Sort(versions)

	migrations := make([]Migration, 0, len(versions))
	for _, v := range versions {
		m := byVersion[v]
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", v)
		}
		migrations = append(migrations, *m)
	}
	return migrations, nil
}

// RunMigrations applies every migration not yet recorded in schema_migrations,
// oldest first. Each migration runs in its own transaction.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := AppliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			continue
		}
		err := inTx(db, m.Up, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackMigration reverts the newest applied migration.
func RollbackMigration(db *sql.DB) error {
	applied, err := AppliedMigrations(db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return errors.New("no migrations to rollback")
	}
	current := applied[len(applied)-1]

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, found := lo.Find(migrations, func(m Migration) bool { return m.Version == current })
	if !found {
		return fmt.Errorf("migration version %d not found", current)
	}

	if err := inTx(db, m.Down, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", m.Version, m.Name, err)
	}
	return nil
}

// AppliedMigrations lists applied versions in ascending order, creating the
// bookkeeping table on first use.
func AppliedMigrations(db *sql.DB) ([]int, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// inTx runs script statement by statement, then the bookkeeping query, and
// commits only if all of it succeeded.
func inTx(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w\nStatement: %s", err, stmt)
		}
	}
	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// statements strips line comments, then splits the script on semicolons.
// Semicolons inside string literals are not supported.
func statements(script string) []string {
	return lo.FilterMap(strings.Split(removeComments(script), ";"), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func removeComments(stmt string) string {
	var kept []string
	for line := range strings.Lines(stmt) {
		if before, _, found := strings.Cut(line, "--"); found {
			line = before
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
