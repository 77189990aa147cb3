// Package store implements the Domain Store: a session-scoped container
// owning in-memory projections of locations, noise reports, and users, plus
// the view state a presentation client needs (current user, selected
// location, active noise filter, map|list view).
//
// The repository owns the durable canonical rows; each Store instance owns
// its projections for the lifetime of one client session. All mutating
// operations apply their collection updates under one lock so no reader
// observes a report without the matching aggregate and counter.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/quietspotter/quietspotter/internal/domain"
	"github.com/quietspotter/quietspotter/internal/observability"
	"github.com/quietspotter/quietspotter/internal/repository"
)

// AggregationMode selects who maintains location aggregates. Chosen once at
// store construction, never mixed at call time.
type AggregationMode string

const (
	// AggregateLocal: the repository recomputes the aggregate from the
	// canonical report rows inside the submit transaction. Default.
	AggregateLocal AggregationMode = "local"

	// AggregateTrigger: a database trigger recomputes the aggregate; the
	// store adopts the authoritative row returned by the repository.
	AggregateTrigger AggregationMode = "trigger"
)

// ParseAggregationMode validates a configured mode string.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch AggregationMode(s) {
	case AggregateLocal, AggregateTrigger:
		return AggregationMode(s), nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %q", s)
	}
}

// ReportPublisher receives every accepted noise report, e.g. for a downstream
// analytics feed. Publish failures are logged, never surfaced to the caller:
// the report is already durable by the time publishing happens.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.NoiseReport) error
}

// Store is the Domain Store for one client session.
type Store struct {
	repo     repository.Repository
	mode     AggregationMode
	geocoder domain.Geocoder
	feed     ReportPublisher
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu        sync.RWMutex
	locations []domain.Location
	reports   []domain.NoiseReport
	users     []domain.User

	currentUser      *domain.User
	selectedLocation *domain.Location
	noiseFilter      *int
	view             domain.ViewMode
}

// Option configures optional collaborators.
type Option func(*Store)

// WithAggregationMode selects local or trigger aggregation.
func WithAggregationMode(mode AggregationMode) Option {
	return func(s *Store) { s.mode = mode }
}

// WithGeocoder enables address geocoding for added locations that lack
// coordinates.
func WithGeocoder(g domain.Geocoder) Option {
	return func(s *Store) { s.geocoder = g }
}

// WithReportFeed publishes accepted reports to a downstream feed.
func WithReportFeed(p ReportPublisher) Option {
	return func(s *Store) { s.feed = p }
}

// New creates a Store over the given repository. Call Open to load the
// projections before serving reads.
func New(repo repository.Repository, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		repo:    repo,
		mode:    AggregateLocal,
		logger:  logger,
		metrics: metrics,
		view:    domain.ViewMap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the three entity collections from the repository.
func (s *Store) Open(ctx context.Context) error {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return s.backendErr("load locations", err)
	}
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return s.backendErr("load reports", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return s.backendErr("load users", err)
	}

	s.mu.Lock()
	s.locations = locations
	s.reports = reports
	s.users = users
	s.mu.Unlock()
	return nil
}

// backendErr logs a repository failure and downgrades it to
// ErrBackendUnavailable so raw persistence errors never cross the store
// boundary.
func (s *Store) backendErr(op string, err error) error {
	s.logger.Error("repository operation failed", "op", op, "error", err)
	s.metrics.BackendErrors.Inc()
	return fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, op)
}

// Login attaches the session to the user with the given name, provisioning a
// new account (zero reports) when no existing username matches
// case-insensitively.
func (s *Store) Login(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindUserByUsername(ctx, username)
	switch {
	case err == nil:
		// Existing account: attach.
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.repo.InsertUser(ctx, domain.User{
			Username:  username,
			Reports:   0,
			CreatedAt: domain.Now(),
		})
		if err != nil {
			return domain.User{}, s.backendErr("create user", err)
		}
		s.metrics.Signups.Inc()
	default:
		return domain.User{}, s.backendErr("find user", err)
	}

	s.mu.Lock()
	s.currentUser = &user
	s.upsertUserLocked(user)
	s.mu.Unlock()

	s.metrics.Logins.Inc()
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Logout clears the current user. Location and report projections are kept.
func (s *Store) Logout() {
	s.mu.Lock()
	s.currentUser = nil
	s.mu.Unlock()
}

// SubmitReport validates and persists a noise report for the current user,
// recomputes the location aggregate, and increments the author's counter.
// The three mutations land as one unit; on any failure local state is
// untouched.
func (s *Store) SubmitReport(ctx context.Context, locationID string, noiseLevel int, comment string) (domain.NoiseReport, error) {
	s.mu.RLock()
	user := s.currentUser
	locationKnown := s.findLocationLocked(locationID) != nil
	s.mu.RUnlock()

	if user == nil {
		return domain.NoiseReport{}, domain.ErrNotAuthenticated
	}
	if !locationKnown {
		return domain.NoiseReport{}, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, locationID)
	}
	if err := domain.ValidateNoiseLevel(noiseLevel); err != nil {
		return domain.NoiseReport{}, err
	}

	report := domain.NoiseReport{
		LocationID: locationID,
		UserID:     user.ID,
		Username:   user.Username,
		NoiseLevel: noiseLevel,
		Comment:    comment,
		Timestamp:  domain.Now(),
	}

	// The aggregate is computed over the canonical report rows, never over
	// this session's projection: other sessions may have submitted reports
	// this store has not seen.
	outcome, err := s.repo.SubmitReport(ctx, report, s.mode == AggregateLocal)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NoiseReport{}, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, locationID)
		}
		return domain.NoiseReport{}, s.backendErr("submit report", err)
	}

	// Apply all three projection updates under one lock.
	s.mu.Lock()
	s.reports = append(s.reports, outcome.Report)
	if loc := s.findLocationLocked(outcome.Location.ID); loc != nil {
		*loc = outcome.Location
	}
	s.upsertUserLocked(outcome.Author)
	if s.currentUser != nil && s.currentUser.ID == outcome.Author.ID {
		author := outcome.Author
		s.currentUser = &author
	}
	if s.selectedLocation != nil && s.selectedLocation.ID == outcome.Location.ID {
		updated := outcome.Location
		s.selectedLocation = &updated
	}
	s.mu.Unlock()

	s.metrics.ReportsSubmitted.Inc()
	s.metrics.ReportNoiseLevel.Observe(float64(outcome.Report.NoiseLevel))
	s.logger.Info("report submitted",
		"report_id", outcome.Report.ID,
		"location_id", outcome.Location.ID,
		"noise_level", outcome.Report.NoiseLevel,
		"average_noise_level", outcome.Location.AverageNoiseLevel,
		"total_reports", outcome.Location.TotalReports,
	)

	s.publish(ctx, outcome.Report)
	return outcome.Report, nil
}

// publish sends the accepted report to the feed, best effort.
func (s *Store) publish(ctx context.Context, report domain.NoiseReport) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishReport(ctx, report); err != nil {
		s.logger.Warn("report feed publish failed", "report_id", report.ID, "error", err)
		return
	}
	s.metrics.FeedPublished.Inc()
}

// AddLocation validates and persists a new venue with zeroed aggregates and
// selects it so the client can present its detail immediately. When the
// input has no coordinates and a geocoder is configured, the address is
// forward-geocoded to fill them.
func (s *Store) AddLocation(ctx context.Context, in domain.NewLocationInput) (domain.Location, error) {
	s.mu.RLock()
	user := s.currentUser
	s.mu.RUnlock()

	if user == nil {
		return domain.Location{}, domain.ErrNotAuthenticated
	}

	if in.Lat == 0 && in.Lng == 0 && s.geocoder != nil {
		s.resolveCoordinates(ctx, &in)
	}

	if err := in.Validate(); err != nil {
		return domain.Location{}, err
	}

	loc, err := s.repo.InsertLocation(ctx, domain.Location{
		Name:     in.Name,
		Address:  in.Address,
		Lat:      in.Lat,
		Lng:      in.Lng,
		Type:     in.Type,
		ImageURL: in.ImageURL,
	})
	if err != nil {
		return domain.Location{}, s.backendErr("insert location", err)
	}

	s.mu.Lock()
	s.locations = append(s.locations, loc)
	selected := loc
	s.selectedLocation = &selected
	s.mu.Unlock()

	s.metrics.LocationsAdded.Inc()
	s.logger.Info("location added", "location_id", loc.ID, "name", loc.Name, "type", loc.Type)
	return loc, nil
}

// resolveCoordinates fills missing coordinates from the address. Geocoding
// failure is not fatal here; validation decides whether zero coordinates
// pass.
func (s *Store) resolveCoordinates(ctx context.Context, in *domain.NewLocationInput) {
	result, err := s.geocoder.ForwardGeocode(ctx, in.Address)
	if err != nil {
		s.logger.Warn("forward geocoding failed", "address", in.Address, "error", err)
		return
	}
	if result.Lat == 0 && result.Lng == 0 {
		return
	}
	in.Lat = result.Lat
	in.Lng = result.Lng
	if result.FormattedAddress != "" {
		in.Address = result.FormattedAddress
	}
}

// --- read accessors ---

// Locations returns a copy of the location projection in insertion order.
func (s *Store) Locations() []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// FilteredLocations applies the active noise filter to the projection.
func (s *Store) FilteredLocations() []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FilterByMaxNoise(s.snapshotLocationsLocked(), s.noiseFilter)
}

// Reports returns a copy of the report projection in submission order.
func (s *Store) Reports() []domain.NoiseReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NoiseReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// LocationReports returns the reports for one location.
func (s *Store) LocationReports(locationID string) []domain.NoiseReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ReportsForLocation(s.reports, locationID)
}

// Users returns a copy of the user projection.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

// CurrentUser returns the authenticated user, or nil.
func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	u := *s.currentUser
	return &u
}

// Location returns one location by id.
func (s *Store) Location(id string) (domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc := s.findLocationLocked(id); loc != nil {
		return *loc, nil
	}
	return domain.Location{}, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, id)
}

// SelectedLocation returns the selected location, or nil.
func (s *Store) SelectedLocation() *domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedLocation == nil {
		return nil
	}
	loc := *s.selectedLocation
	return &loc
}

// SelectLocation sets the selected location by id; empty id clears it.
func (s *Store) SelectLocation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selectedLocation = nil
		return nil
	}
	if loc := s.findLocationLocked(id); loc != nil {
		selected := *loc
		s.selectedLocation = &selected
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownLocation, id)
}

// NoiseFilter returns the active maximum noise level, or nil for no filter.
func (s *Store) NoiseFilter() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.noiseFilter == nil {
		return nil
	}
	v := *s.noiseFilter
	return &v
}

// SetNoiseFilter sets or clears (nil) the maximum noise level filter.
func (s *Store) SetNoiseFilter(max *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max == nil {
		s.noiseFilter = nil
		return
	}
	v := *max
	s.noiseFilter = &v
}

// View returns the active view mode.
func (s *Store) View() domain.ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView switches between map and list presentation.
func (s *Store) SetView(view domain.ViewMode) error {
	if view != domain.ViewMap && view != domain.ViewList {
		return fmt.Errorf("%w: view %q", domain.ErrInvalidInput, view)
	}
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	return nil
}

// --- internal helpers, caller must hold mu ---

func (s *Store) findLocationLocked(id string) *domain.Location {
	for i := range s.locations {
		if s.locations[i].ID == id {
			return &s.locations[i]
		}
	}
	return nil
}

func (s *Store) snapshotLocationsLocked() []domain.Location {
	out := make([]domain.Location, len(s.locations))
	copy(out, s.locations)
	return out
}

func (s *Store) upsertUserLocked(user domain.User) {
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = user
			return
		}
	}
	s.users = append(s.users, user)
}
