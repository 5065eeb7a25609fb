package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Las migraciones SQL se embeben en el binario (ver migrations/postgres).
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)

// SQLExecutor es el subconjunto de pgxpool.Pool que usa el Migrator.
type SQLExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrator aplica migraciones SQL a una base de datos.
type Migrator struct {
	migrationsFS  fs.FS
	migrationsDir string
}

// NewMigrator crea un nuevo Migrator.
func NewMigrator(migrationsFS fs.FS, migrationsDir string) *Migrator {
	return &Migrator{
		migrationsFS:  migrationsFS,
		migrationsDir: migrationsDir,
	}
}

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee y parsea las migraciones del FS, ordenadas por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var migrations []Migration
	seen := make(map[int]string)

	err := fs.WalkDir(m.migrationsFS, m.migrationsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := migrationFilePattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil // Ignorar archivos que no coinciden
		}

		version, _ := strconv.Atoi(matches[1])
		if prev, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, p)
		}
		seen[version] = p

		content, err := fs.ReadFile(m.migrationsFS, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    matches[2],
			SQL:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Run aplica las migraciones pendientes, cada una en su propia transacción.
func (m *Migrator) Run(ctx context.Context, exec SQLExecutor) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	if _, err := exec.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("getting applied migrations: %w", err)
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return nil, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := applyMigration(ctx, exec, mig); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("applying migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func appliedVersions(ctx context.Context, exec SQLExecutor) (map[int]bool, error) {
	rows, err := exec.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, exec SQLExecutor, mig Migration) error {
	tx, err := exec.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO _migrations (version, name) VALUES ($1, $2)`,
		mig.Version, mig.Name,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
