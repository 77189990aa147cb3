package domain

import "time"

// LocationType distinguishes the two venue kinds QuietSpotter tracks.
type LocationType string

const (
	TypeCafe      LocationType = "cafe"
	TypeCoworking LocationType = "coworking"
)

// Valid reports whether t is a known location type.
func (t LocationType) Valid() bool {
	return t == TypeCafe || t == TypeCoworking
}

// NoiseBand is the three-level classification of a numeric noise level.
type NoiseBand string

const (
	BandQuiet    NoiseBand = "quiet"
	BandModerate NoiseBand = "moderate"
	BandNoisy    NoiseBand = "noisy"
)

// ViewMode is the presentation mode a client session is showing.
type ViewMode string

const (
	ViewMap  ViewMode = "map"
	ViewList ViewMode = "list"
)

// Location is a venue that can be rated for noise. AverageNoiseLevel and
// TotalReports are derived from the report set and never set by callers.
type Location struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Address           string       `json:"address"`
	Lat               float64      `json:"lat"`
	Lng               float64      `json:"lng"`
	Type              LocationType `json:"type"`
	AverageNoiseLevel int          `json:"averageNoiseLevel"`
	TotalReports      int          `json:"totalReports"`
	ImageURL          string       `json:"imageUrl,omitempty"`
}

// NoiseReport is one user-submitted noise observation. Username is a snapshot
// of the author's display name at submission time.
type NoiseReport struct {
	ID         string    `json:"id"`
	LocationID string    `json:"locationId"`
	UserID     string    `json:"userId"`
	NoiseLevel int       `json:"noiseLevel"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Username   string    `json:"username"`
}

// User is a contributor account. Usernames are unique with case-insensitive
// lookup; Reports counts accepted submissions.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Reports   int       `json:"reports"`
	CreatedAt time.Time `json:"createdAt"`
}
