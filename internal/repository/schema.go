package repository

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables and indexes if they do not exist. When
// withTrigger is true it also installs the aggregate-maintenance trigger used
// by trigger aggregation mode; pass false for local mode so a stale trigger
// can never fight the client-computed values.
func (r *Postgres) EnsureSchema(ctx context.Context, withTrigger bool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL,
		reports     INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_ci ON users (lower(username));

	CREATE TABLE IF NOT EXISTS locations (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		address             TEXT NOT NULL,
		lat                 DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
		lng                 DOUBLE PRECISION NOT NULL CHECK (lng BETWEEN -180 AND 180),
		type                TEXT NOT NULL CHECK (type IN ('cafe', 'coworking')),
		average_noise_level INTEGER NOT NULL DEFAULT 0,
		total_reports       INTEGER NOT NULL DEFAULT 0,
		image_url           TEXT,
		inserted_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_locations_avg_noise ON locations (average_noise_level);
	CREATE INDEX IF NOT EXISTS idx_locations_type      ON locations (type);

	CREATE TABLE IF NOT EXISTS noise_reports (
		id          TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations (id),
		user_id     TEXT NOT NULL REFERENCES users (id),
		noise_level INTEGER NOT NULL CHECK (noise_level BETWEEN 1 AND 10),
		comment     TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		username    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_noise_reports_location ON noise_reports (location_id);
	CREATE INDEX IF NOT EXISTS idx_noise_reports_user     ON noise_reports (user_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	if withTrigger {
		return r.ensureAggregateTrigger(ctx)
	}
	return r.dropAggregateTrigger(ctx)
}

// ensureAggregateTrigger installs an AFTER INSERT trigger recomputing the
// location aggregate from the full report set. Postgres round() on numeric
// rounds halves away from zero, matching domain.ComputeAggregate.
func (r *Postgres) ensureAggregateTrigger(ctx context.Context) error {
	trigger := `
	CREATE OR REPLACE FUNCTION refresh_location_aggregate() RETURNS TRIGGER AS $$
	BEGIN
		UPDATE locations SET
			average_noise_level = sub.avg_level,
			total_reports = sub.total
		FROM (
			SELECT round(avg(noise_level))::integer AS avg_level, count(*) AS total
			FROM noise_reports
			WHERE location_id = NEW.location_id
		) AS sub
		WHERE locations.id = NEW.location_id;
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS noise_reports_refresh_aggregate ON noise_reports;
	CREATE TRIGGER noise_reports_refresh_aggregate
		AFTER INSERT ON noise_reports
		FOR EACH ROW EXECUTE FUNCTION refresh_location_aggregate();
	`
	if _, err := r.db.ExecContext(ctx, trigger); err != nil {
		return fmt.Errorf("ensure aggregate trigger: %w", err)
	}
	r.logger.Info("aggregate trigger installed")
	return nil
}

func (r *Postgres) dropAggregateTrigger(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`DROP TRIGGER IF EXISTS noise_reports_refresh_aggregate ON noise_reports`,
	); err != nil {
		return fmt.Errorf("drop aggregate trigger: %w", err)
	}
	return nil
}
