package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves street addresses for user-added locations.
type Geocoder interface {
	// ForwardGeocode converts a street address to coordinates.
	ForwardGeocode(ctx context.Context, address string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to an address.
	ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodingResult, error)
}
