package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/quietspotter/quietspotter/internal/domain"
)

// Postgres implements Repository on a PostgreSQL database.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Repository = (*Postgres)(nil)

// OpenPostgres connects to the database, tunes the pool, and verifies the
// connection with a ping.
func OpenPostgres(ctx context.Context, connStr string, logger *slog.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to postgres")
	return &Postgres{db: db, logger: logger}, nil
}

// NewPostgres wraps an existing database handle. Used by tests with sqlmock.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (r *Postgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const locationColumns = `id, name, address, lat, lng, type, average_noise_level, total_reports, COALESCE(image_url, '')`

func scanLocation(row interface{ Scan(...any) error }) (domain.Location, error) {
	var loc domain.Location
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Address, &loc.Lat, &loc.Lng,
		&loc.Type, &loc.AverageNoiseLevel, &loc.TotalReports, &loc.ImageURL,
	)
	return loc, err
}

func (r *Postgres) ListLocations(ctx context.Context) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY inserted_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r *Postgres) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, ErrNotFound
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

func (r *Postgres) InsertLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}

	query := `
		INSERT INTO locations (id, name, address, lat, lng, type, average_noise_level, total_reports, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
	`
	if _, err := r.db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Address, loc.Lat, loc.Lng,
		loc.Type, loc.AverageNoiseLevel, loc.TotalReports, loc.ImageURL,
	); err != nil {
		return domain.Location{}, fmt.Errorf("insert location: %w", err)
	}
	return loc, nil
}

func (r *Postgres) ListReports(ctx context.Context) ([]domain.NoiseReport, error) {
	query := `
		SELECT id, location_id, user_id, noise_level, COALESCE(comment, ''), created_at, username
		FROM noise_reports
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []domain.NoiseReport
	for rows.Next() {
		var rep domain.NoiseReport
		if err := rows.Scan(&rep.ID, &rep.LocationID, &rep.UserID, &rep.NoiseLevel,
			&rep.Comment, &rep.Timestamp, &rep.Username); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, username, reports, created_at FROM users ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Reports, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Postgres) FindUserByUsername(ctx context.Context, username string) (domain.User, error) {
	query := `SELECT id, username, reports, created_at FROM users WHERE lower(username) = $1`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, domain.NormalizeUsername(username)).
		Scan(&u.ID, &u.Username, &u.Reports, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *Postgres) InsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = domain.Now()
	}

	query := `INSERT INTO users (id, username, reports, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Reports, user.CreatedAt,
	); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// SubmitReport runs the report insert, the aggregate refresh, and the author
// counter increment inside one transaction. In local aggregation mode the
// aggregate is recomputed from the canonical report rows, never taken from
// the caller, so sessions with stale projections cannot clobber reports
// submitted through other sessions. The location row is re-read before commit
// so the returned aggregate is authoritative in both modes (in trigger mode
// the AFTER INSERT trigger has already fired by then).
func (r *Postgres) SubmitReport(ctx context.Context, report domain.NoiseReport, maintainAggregate bool) (SubmitOutcome, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = domain.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("begin submit report: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	insertQuery := `
		INSERT INTO noise_reports (id, location_id, user_id, noise_level, comment, created_at, username)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		report.ID, report.LocationID, report.UserID, report.NoiseLevel,
		report.Comment, report.Timestamp, report.Username,
	); err != nil {
		return SubmitOutcome{}, fmt.Errorf("insert report: %w", err)
	}

	if maintainAggregate {
		// round() on numeric rounds halves away from zero, matching
		// domain.ComputeAggregate.
		updateQuery := `
			UPDATE locations SET
				average_noise_level = sub.avg_level,
				total_reports = sub.total
			FROM (
				SELECT round(avg(noise_level))::integer AS avg_level, count(*) AS total
				FROM noise_reports
				WHERE location_id = $1
			) AS sub
			WHERE locations.id = $1
		`
		if _, err := tx.ExecContext(ctx, updateQuery, report.LocationID); err != nil {
			return SubmitOutcome{}, fmt.Errorf("refresh aggregate: %w", err)
		}
	}

	var author domain.User
	counterQuery := `UPDATE users SET reports = reports + 1 WHERE id = $1 RETURNING id, username, reports, created_at`
	if err := tx.QueryRowContext(ctx, counterQuery, report.UserID).
		Scan(&author.ID, &author.Username, &author.Reports, &author.CreatedAt); err != nil {
		return SubmitOutcome{}, fmt.Errorf("increment report counter: %w", err)
	}

	locQuery := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	loc, err := scanLocation(tx.QueryRowContext(ctx, locQuery, report.LocationID))
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("reread location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SubmitOutcome{}, fmt.Errorf("commit submit report: %w", err)
	}

	return SubmitOutcome{Report: report, Location: loc, Author: author}, nil
}

func (r *Postgres) Close() error {
	return r.db.Close()
}
