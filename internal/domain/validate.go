package domain

import (
	"fmt"
	"strings"
)

// ValidateNoiseLevel checks that a reported level is inside the 1–10 domain
// range.
func ValidateNoiseLevel(level int) error {
	if level < 1 || level > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidNoiseLevel, level)
	}
	return nil
}

// ValidateCoordinates checks WGS-84 bounds: lat in [-90,90], lng in [-180,180].
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lng)
	}
	return nil
}

// NewLocationInput is the caller-supplied portion of a location. Derived
// fields and the id are assigned elsewhere.
type NewLocationInput struct {
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	Type     LocationType `json:"type"`
	ImageURL string       `json:"imageUrl,omitempty"`
}

// Validate trims the text fields in place and checks the add-location
// preconditions: non-empty name and address, in-range coordinates, known type.
func (in *NewLocationInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if err := ValidateCoordinates(in.Lat, in.Lng); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: location type %q", ErrInvalidInput, in.Type)
	}
	return nil
}

// NormalizeUsername lowercases a username for case-insensitive lookup.
// Display names keep the caller's original casing.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
