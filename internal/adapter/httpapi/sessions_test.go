package httpapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietspotter/quietspotter/internal/adapter/httpapi"
	"github.com/quietspotter/quietspotter/internal/domain"
	"github.com/quietspotter/quietspotter/internal/observability"
	"github.com/quietspotter/quietspotter/internal/repository"
	"github.com/quietspotter/quietspotter/internal/store"
)

func newTestManager(t *testing.T, ttl time.Duration) *httpapi.SessionManager {
	t.Helper()

	repo := repository.NewMemory()
	logger := testLogger()
	metrics := observability.NewMetricsForTesting()
	factory := func(ctx context.Context) (*store.Store, error) {
		st := store.New(repo, logger, metrics)
		if err := st.Open(ctx); err != nil {
			return nil, err
		}
		return st, nil
	}
	return httpapi.NewSessionManager(factory, ttl, metrics, logger)
}

func TestSessionManager_CreateAndGet(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NotNil(t, m.Get(token))
	assert.Nil(t, m.Get("bogus"))
	assert.Equal(t, 1, m.Count())
}

func TestSessionManager_Delete(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Create(context.Background())
	require.NoError(t, err)

	m.Delete(token)
	assert.Nil(t, m.Get(token))
	assert.Equal(t, 0, m.Count())

	m.Delete("bogus") // no-op
}

func TestSessionManager_ExpiryOnGet(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	m := newTestManager(t, time.Hour)
	token, err := m.Create(context.Background())
	require.NoError(t, err)

	fake.Advance(59 * time.Minute)
	assert.NotNil(t, m.Get(token), "within TTL")

	// The Get above refreshed the idle timer.
	fake.Advance(59 * time.Minute)
	assert.NotNil(t, m.Get(token), "idle timer refreshed by last use")

	fake.Advance(2 * time.Hour)
	assert.Nil(t, m.Get(token), "expired after idle TTL")
	assert.Equal(t, 0, m.Count())
}

func TestSessionManager_Sweep(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	m := newTestManager(t, time.Hour)
	_, err := m.Create(context.Background())
	require.NoError(t, err)

	fresh, err := m.Create(context.Background())
	require.NoError(t, err)

	fake.Advance(30 * time.Minute)
	require.NotNil(t, m.Get(fresh)) // refresh one of the two

	fake.Advance(45 * time.Minute)
	removed := m.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Count())
	assert.NotNil(t, m.Get(fresh))
}
