package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// step is one forward-only schema change. Its version is stored in the
// database's user_version pragma once applied.
type step struct {
	version int
	name    string
	sql     string
}

// loadSteps reads the embedded NNNN_name.sql files in version order. Versions
// must start at 1 and have no gaps.
func loadSteps() ([]step, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	steps := make([]step, 0, len(files))
	for _, f := range files {
		version, name, err := splitStepName(path.Base(f))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", f, err)
		}
		body, err := fs.ReadFile(migrationsFS, f)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", f, err)
		}
		steps = append(steps, step{version: version, name: name, sql: string(body)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })

	for i, s := range steps {
		if s.version != i+1 {
			return nil, fmt.Errorf("migration %04d_%s: expected version %d", s.version, s.name, i+1)
		}
	}
	return steps, nil
}

// splitStepName parses "0002_kv_expires_index.sql".
func splitStepName(file string) (int, string, error) {
	base, ok := strings.CutSuffix(file, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("missing .sql suffix")
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("want NNNN_name.sql")
	}

	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("bad version %q", num)
	}
	return version, name, nil
}

// schemaVersion reports the highest migration applied to conn.
func schemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrateUp applies every step newer than the current schema version. Each
// step and its version bump commit together.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	steps, err := loadSteps()
	if err != nil {
		return err
	}

	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	if current > len(steps) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(steps))
	}

	for _, s := range steps[current:] {
		log.Debug().Int("version", s.version).Str("name", s.name).Msg("applying migration")
		if err := applyStep(ctx, conn, s); err != nil {
			return fmt.Errorf("migration %04d_%s: %w", s.version, s.name, err)
		}
	}
	return nil
}

func applyStep(ctx context.Context, conn *sql.DB, s step) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.sql); err != nil {
		return err
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", s.version)); err != nil {
		return err
	}
	return tx.Commit()
}
