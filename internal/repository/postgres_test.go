package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietspotter/quietspotter/internal/domain"
)

func newMockRepo(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgres(db, logger), mock
}

func locationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "address", "lat", "lng", "type",
		"average_noise_level", "total_reports", "image_url",
	})
}

func TestPostgres_ListLocations(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, address, lat, lng, type, average_noise_level, total_reports, COALESCE(image_url, '') FROM locations ORDER BY inserted_at, id`)).
		WillReturnRows(locationRows().
			AddRow("loc-1", "Quiet Corner Cafe", "123 Main St", 40.7128, -74.006, "cafe", 3, 2, "https://img/1").
			AddRow("loc-2", "Busy Beans", "789 Elm St", 40.7118, -74.003, "cafe", 8, 1, ""))

	locations, err := repo.ListLocations(context.Background())
	require.NoError(t, err)

	require.Len(t, locations, 2)
	assert.Equal(t, "loc-1", locations[0].ID)
	assert.Equal(t, 3, locations[0].AverageNoiseLevel)
	assert.Equal(t, domain.TypeCafe, locations[0].Type)
	assert.Empty(t, locations[1].ImageURL)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetLocation_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM locations WHERE id = \$1`).
		WithArgs("no-such-place").
		WillReturnRows(locationRows())

	_, err := repo.GetLocation(context.Background(), "no-such-place")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertLocation_AssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO locations`)).
		WithArgs(sqlmock.AnyArg(), "New Cafe", "1 Test Way", 40.0, -74.0, "cafe", 0, 0, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	loc, err := repo.InsertLocation(context.Background(), domain.Location{
		Name: "New Cafe", Address: "1 Test Way", Lat: 40, Lng: -74, Type: domain.TypeCafe,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID, "repository assigns a uuid when the id is empty")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindUserByUsername_Normalizes(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, reports, created_at FROM users WHERE lower(username) = $1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "reports", "created_at"}).
			AddRow("user-alice", "Alice", 2, created))

	user, err := repo.FindUserByUsername(context.Background(), "  ALICE ")
	require.NoError(t, err)
	assert.Equal(t, "user-alice", user.ID)
	assert.Equal(t, "Alice", user.Username)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindUserByUsername_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, username, reports, created_at FROM users`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "reports", "created_at"}))

	_, err := repo.FindUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_SubmitReport_LocalAggregate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO noise_reports`)).
		WithArgs("rep-1", "loc-1", "user-alice", 8, "drum circle", submitted, "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`round(avg(noise_level))::integer`)).
		WithArgs("loc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET reports = reports + 1 WHERE id = $1 RETURNING id, username, reports, created_at`)).
		WithArgs("user-alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "reports", "created_at"}).
			AddRow("user-alice", "Alice", 3, created))
	mock.ExpectQuery(`SELECT .+ FROM locations WHERE id = \$1`).
		WithArgs("loc-1").
		WillReturnRows(locationRows().
			AddRow("loc-1", "Quiet Corner Cafe", "123 Main St", 40.7128, -74.006, "cafe", 4, 3, ""))
	mock.ExpectCommit()

	outcome, err := repo.SubmitReport(context.Background(), domain.NoiseReport{
		ID: "rep-1", LocationID: "loc-1", UserID: "user-alice", Username: "Alice",
		NoiseLevel: 8, Comment: "drum circle", Timestamp: submitted,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "rep-1", outcome.Report.ID)
	assert.Equal(t, 4, outcome.Location.AverageNoiseLevel)
	assert.Equal(t, 3, outcome.Location.TotalReports)
	assert.Equal(t, 3, outcome.Author.Reports)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SubmitReport_TriggerMode_SkipsAggregateUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO noise_reports`)).
		WithArgs("rep-1", "loc-1", "user-alice", 8, "", submitted, "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No UPDATE locations: the trigger maintains the aggregate.
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET reports = reports + 1`)).
		WithArgs("user-alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "reports", "created_at"}).
			AddRow("user-alice", "Alice", 3, created))
	mock.ExpectQuery(`SELECT .+ FROM locations WHERE id = \$1`).
		WithArgs("loc-1").
		WillReturnRows(locationRows().
			AddRow("loc-1", "Quiet Corner Cafe", "123 Main St", 40.7128, -74.006, "cafe", 4, 3, ""))
	mock.ExpectCommit()

	outcome, err := repo.SubmitReport(context.Background(), domain.NoiseReport{
		ID: "rep-1", LocationID: "loc-1", UserID: "user-alice", Username: "Alice",
		NoiseLevel: 8, Timestamp: submitted,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.Location.AverageNoiseLevel, "aggregate re-read from the row the trigger updated")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SubmitReport_RollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	submitted := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO noise_reports`)).
		WithArgs("rep-1", "loc-1", "user-alice", 8, "", submitted, "Alice").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	_, err := repo.SubmitReport(context.Background(), domain.NoiseReport{
		ID: "rep-1", LocationID: "loc-1", UserID: "user-alice", Username: "Alice",
		NoiseLevel: 8, Timestamp: submitted,
	}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert report")

	require.NoError(t, mock.ExpectationsWereMet())
}
