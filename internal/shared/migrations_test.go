package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"plays", "plays_sequence", "track_stats", "ledgers", "unlocked_achievements"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}

		if _, err := db.Exec("SELECT 1 FROM ledgers LIMIT 1"); err == nil {
			t.Error("ledgers table should be dropped by rollback")
		}

		if _, err := db.Exec("SELECT 1 FROM plays LIMIT 1"); err != nil {
			t.Errorf("plays table should survive a single rollback: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list applied migrations: %v", err)
		}
		if len(applied) != len(migrations) {
			t.Errorf("expected %d applied versions, got %v", len(migrations), applied)
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		got := removeComments("-- header\nCREATE TABLE x (id INTEGER) -- trailing\n")
		if got != "CREATE TABLE x (id INTEGER)" {
			t.Errorf("unexpected statement %q", got)
		}
	})
	t.Run("migrationFile", func(t *testing.T) {
		cases := []struct {
			file    string
			version int
			name    string
			up      bool
			ok      bool
		}{
			{"0000_create_plays_up.sql", 0, "create_plays", true, true},
			{"0012_add_index_down.sql", 12, "add_index", false, true},
			{"0001_create_plays.sql", 0, "", false, false},
			{"notes_up.sql", 0, "", false, false},
			{"0001_up.txt", 0, "", false, false},
		}
		for _, tc := range cases {
			version, name, up, ok := migrationFile(tc.file)
			if ok != tc.ok || version != tc.version || name != tc.name || up != tc.up {
				t.Errorf("migrationFile(%q) = %d, %q, %v, %v", tc.file, version, name, up, ok)
			}
		}
	})

	t.Run("statements", func(t *testing.T) {
		got := statements("-- only a comment;\nCREATE TABLE a (id INTEGER);\n\nCREATE TABLE b (id INTEGER);\n")
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %q", got)
		}
		if got[0] != "CREATE TABLE a (id INTEGER)" {
			t.Errorf("unexpected first statement %q", got[0])
		}
	})

	t.Run("statements ignore semicolons in comments", func(t *testing.T) {
		got := statements("-- one row per (a, b); keyed on both\nCREATE TABLE c (a TEXT, b TEXT);")
		if len(got) != 1 || got[0] != "CREATE TABLE c (a TEXT, b TEXT)" {
			t.Errorf("unexpected statements %q", got)
		}
	})

	t.Run("every embedded migration applies", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list applied migrations: %v", err)
		}
		for i, m := range migrations {
			if i >= len(applied) || applied[i] != m.Version {
				t.Fatalf("migration %d (%s) not applied, got %v", m.Version, m.Name, applied)
			}
		}

		for len(applied) > 0 {
			if err := RollbackMigration(db); err != nil {
				t.Fatalf("failed to roll back: %v", err)
			}
			if applied, err = AppliedMigrations(db); err != nil {
				t.Fatalf("failed to list applied migrations: %v", err)
			}
		}
	})
}
