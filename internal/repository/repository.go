// Package repository is the persistence collaborator for the domain store.
// It owns the durable canonical rows; the store keeps per-session in-memory
// projections of them. Two implementations exist: Postgres for deployments
// and Memory for development mode and tests.
package repository

import (
	"context"
	"errors"

	"github.com/quietspotter/quietspotter/internal/domain"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// SubmitOutcome carries the rows touched by one accepted report: the
// persisted report, the location with its authoritative aggregate, and the
// author with the incremented counter.
type SubmitOutcome struct {
	Report   domain.NoiseReport
	Location domain.Location
	Author   domain.User
}

// Repository persists QuietSpotter's three entity collections.
//
// Insert methods assign an id (and timestamp where applicable) when the
// caller leaves them empty, and return the persisted row. SubmitReport is the
// one multi-row operation and must apply its writes atomically: the report
// insert, the location aggregate update, and the author counter increment
// either all land or none do.
type Repository interface {
	// Ping verifies the backend is reachable. Used by readiness checks.
	Ping(ctx context.Context) error

	ListLocations(ctx context.Context) ([]domain.Location, error)
	GetLocation(ctx context.Context, id string) (domain.Location, error)
	InsertLocation(ctx context.Context, loc domain.Location) (domain.Location, error)

	ListReports(ctx context.Context) ([]domain.NoiseReport, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	// FindUserByUsername matches case-insensitively.
	FindUserByUsername(ctx context.Context, username string) (domain.User, error)
	InsertUser(ctx context.Context, user domain.User) (domain.User, error)

	// SubmitReport persists the report, refreshes the location aggregate, and
	// increments the author's report counter in one atomic unit. When
	// maintainAggregate is true (local aggregation mode) the repository
	// recomputes the aggregate from the canonical report rows inside the same
	// transaction; when false the backend maintains it itself (trigger mode).
	// Session projections are never a valid aggregate source: they can lag
	// behind reports submitted through other sessions. Either way the
	// returned Location carries the authoritative values.
	SubmitReport(ctx context.Context, report domain.NoiseReport, maintainAggregate bool) (SubmitOutcome, error)

	Close() error
}
