package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/quietspotter/quietspotter/internal/domain"
)

// Memory is an in-process Repository used in development mode (no database)
// and in tests. Slices preserve insertion order, which the store's filter and
// sort contracts depend on.
type Memory struct {
	mu        sync.RWMutex
	locations []domain.Location
	reports   []domain.NoiseReport
	users     []domain.User
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) ListLocations(_ context.Context) ([]domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Location, len(m.locations))
	copy(out, m.locations)
	return out, nil
}

func (m *Memory) GetLocation(_ context.Context, id string) (domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return domain.Location{}, ErrNotFound
}

func (m *Memory) InsertLocation(_ context.Context, loc domain.Location) (domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	m.locations = append(m.locations, loc)
	return loc, nil
}

func (m *Memory) ListReports(_ context.Context) ([]domain.NoiseReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.NoiseReport, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *Memory) FindUserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	normalized := domain.NormalizeUsername(username)
	for _, u := range m.users {
		if domain.NormalizeUsername(u.Username) == normalized {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (m *Memory) InsertUser(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = domain.Now()
	}
	m.users = append(m.users, user)
	return user, nil
}

// SubmitReport applies all three writes under one lock so no reader observes
// the report without the matching aggregate and counter. The aggregate is
// always recomputed from the canonical report set: there is no trigger in
// memory, and the rows are already at hand.
func (m *Memory) SubmitReport(_ context.Context, report domain.NoiseReport, _ bool) (SubmitOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	locIdx := -1
	for i, loc := range m.locations {
		if loc.ID == report.LocationID {
			locIdx = i
			break
		}
	}
	if locIdx < 0 {
		return SubmitOutcome{}, ErrNotFound
	}

	userIdx := -1
	for i, u := range m.users {
		if u.ID == report.UserID {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		return SubmitOutcome{}, ErrNotFound
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = domain.Now()
	}
	m.reports = append(m.reports, report)

	agg := domain.ComputeAggregate(m.reports, report.LocationID)
	m.locations[locIdx].AverageNoiseLevel = agg.AverageNoiseLevel
	m.locations[locIdx].TotalReports = agg.TotalReports

	m.users[userIdx].Reports++

	return SubmitOutcome{
		Report:   report,
		Location: m.locations[locIdx],
		Author:   m.users[userIdx],
	}, nil
}

func (m *Memory) Close() error { return nil }
