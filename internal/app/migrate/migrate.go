// Package migrate manages the website content schema (websites, pages,
// versions, deployments) through goose migration files.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Schema changes are additive and small; anything slower than this is a
// stuck lock, not a long migration.
const runTimeout = 2 * time.Minute

// Runner applies and inspects the database schema. goose needs a
// database/sql handle, so the runner keeps the raw DSN alongside the
// pgx pool the rest of the system shares.
type Runner struct {
	pool *pgxpool.Pool
	dsn  string
	dir  string
	log  *slog.Logger
}

// New validates the migration source and returns a Runner.
func New(pool *pgxpool.Pool, dsn, dir string, log *slog.Logger) (Runner, error) {
	if pool == nil {
		return Runner{}, errors.New("migrate: nil pool")
	}
	if dsn == "" {
		return Runner{}, errors.New("migrate: empty database dsn")
	}
	if dir == "" {
		return Runner{}, errors.New("migrate: empty migrations dir")
	}
	if _, err := os.Stat(dir); err != nil {
		return Runner{}, fmt.Errorf("migrate: migrations dir: %w", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return Runner{}, fmt.Errorf("migrate: set dialect: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return Runner{pool: pool, dsn: dsn, dir: dir, log: log}, nil
}

// Ensure brings the schema up to the latest migration. It runs on every
// API boot, so an already-current schema is the common case.
func (r Runner) Ensure(ctx context.Context) error {
	return r.run(ctx, func(ctx context.Context, db *sql.DB) error {
		before, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if err := goose.UpContext(ctx, db, r.dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		after, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if after == before {
			r.log.Info("schema up to date", "schema_version", after)
		} else {
			r.log.Info("schema migrated", "from_version", before, "schema_version", after)
		}
		return nil
	})
}

// Status prints applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.run(ctx, func(ctx context.Context, db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, r.dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls the schema back one migration, or down to targetVersion
// when it is positive.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	return r.run(ctx, func(ctx context.Context, db *sql.DB) error {
		if targetVersion > 0 {
			r.log.Info("rolling schema back", "target_version", targetVersion)
			if err := goose.DownToContext(ctx, db, r.dir, targetVersion); err != nil {
				return fmt.Errorf("roll back to %d: %w", targetVersion, err)
			}
		} else {
			r.log.Info("rolling back last migration")
			if err := goose.DownContext(ctx, db, r.dir); err != nil {
				return fmt.Errorf("roll back last migration: %w", err)
			}
		}
		version, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		r.log.Info("rollback complete", "schema_version", version)
		return nil
	})
}

// Ping verifies the shared pool can reach the database.
func (r Runner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the shared pool.
func (r Runner) Close() {
	r.pool.Close()
}

// run opens a short-lived database/sql connection for goose and applies
// the run timeout.
func (r Runner) run(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	db, err := sql.Open("pgx", r.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}
	return fn(ctx, db)
}
