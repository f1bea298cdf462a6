// Package archive exports activity history into PostgreSQL for long-term
// analysis. It is optional: the agent works fully without it.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ifitclub/ifit-agent/internal/api"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Archive is a handle on the activity archive database.
type Archive struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the archive database and applies pending migrations.
func Open(dsn string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	a := &Archive{db: db, logger: logger}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(a.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SyncActivities upserts a batch of activity summaries and returns how many
// rows were written. The batch is applied in one transaction.
func (a *Archive) SyncActivities(ctx context.Context, activities []api.Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (id, athlete_id, name, type, start_date, distance_km, duration_sec, elevation_m, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			start_date = EXCLUDED.start_date,
			distance_km = EXCLUDED.distance_km,
			duration_sec = EXCLUDED.duration_sec,
			elevation_m = EXCLUDED.elevation_m,
			synced_at = now()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, act := range activities {
		_, err := stmt.ExecContext(ctx,
			act.ID, act.AthleteID, act.Name, act.Type, act.StartDate,
			act.DistanceKm, act.DurationSec, act.ElevationM,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert activity %d: %w", act.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive batch: %w", err)
	}

	a.logger.Info("archived activities", zap.Int("count", len(activities)))
	return len(activities), nil
}

// Count returns how many activities the archive holds for an athlete.
func (a *Archive) Count(ctx context.Context, athleteID int64) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		"SELECT count(*) FROM activities WHERE athlete_id = $1", athleteID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived activities: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
