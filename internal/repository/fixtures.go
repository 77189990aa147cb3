package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/quietspotter/quietspotter/internal/domain"
)

// Demo fixtures for development mode and the seed command. Aggregates and
// report counters are not part of the fixture: reports are replayed through
// SubmitReport so the derived fields always satisfy the domain invariants.

// DemoUsers returns the demo contributor accounts with zeroed counters.
func DemoUsers() []domain.User {
	return []domain.User{
		{ID: "user-alice", Username: "Alice", CreatedAt: time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "user-bob", Username: "Bob", CreatedAt: time.Date(2023, 8, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "user-charlie", Username: "Charlie", CreatedAt: time.Date(2023, 8, 25, 0, 0, 0, 0, time.UTC)},
	}
}

// DemoLocations returns the demo venues with zeroed aggregates.
func DemoLocations() []domain.Location {
	return []domain.Location{
		{
			ID: "loc-quiet-corner", Name: "Quiet Corner Cafe",
			Address: "123 Main St, Anytown, USA",
			Lat:     40.7128, Lng: -74.006, Type: domain.TypeCafe,
			ImageURL: "https://images.unsplash.com/photo-1501339847302-ac426a4a7cbb",
		},
		{
			ID: "loc-focus-hub", Name: "Focus Hub Coworking",
			Address: "456 Oak Ave, Anytown, USA",
			Lat:     40.7148, Lng: -74.01, Type: domain.TypeCoworking,
			ImageURL: "https://images.unsplash.com/photo-1497366811353-6870744d04b2",
		},
		{
			ID: "loc-busy-beans", Name: "Busy Beans",
			Address: "789 Elm St, Anytown, USA",
			Lat:     40.7118, Lng: -74.003, Type: domain.TypeCafe,
			ImageURL: "https://images.unsplash.com/photo-1559925393-8be0ec4767c8",
		},
		{
			ID: "loc-productive-space", Name: "The Productive Space",
			Address: "101 Pine Rd, Anytown, USA",
			Lat:     40.7135, Lng: -74.008, Type: domain.TypeCoworking,
			ImageURL: "https://images.unsplash.com/photo-1572025442646-866d16c84a54",
		},
		{
			ID: "loc-espresso-express", Name: "Espresso Express",
			Address: "202 Maple Blvd, Anytown, USA",
			Lat:     40.714, Lng: -74.002, Type: domain.TypeCafe,
			ImageURL: "https://images.unsplash.com/photo-1554118811-1e0d58224f24",
		},
	}
}

// DemoReports returns the demo report history in submission order.
func DemoReports() []domain.NoiseReport {
	return []domain.NoiseReport{
		{
			ID: "report-1", LocationID: "loc-quiet-corner", UserID: "user-alice", Username: "Alice",
			NoiseLevel: 2, Comment: "Perfect for deep work. Almost library-quiet.",
			Timestamp: time.Date(2023, 9, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			ID: "report-2", LocationID: "loc-quiet-corner", UserID: "user-bob", Username: "Bob",
			NoiseLevel: 3, Comment: "Usually quiet but gets busier around lunch.",
			Timestamp: time.Date(2023, 9, 8, 10, 15, 0, 0, time.UTC),
		},
		{
			ID: "report-3", LocationID: "loc-focus-hub", UserID: "user-alice", Username: "Alice",
			NoiseLevel: 4, Comment: "Good working environment, occasional meetings nearby.",
			Timestamp: time.Date(2023, 9, 9, 16, 45, 0, 0, time.UTC),
		},
		{
			ID: "report-4", LocationID: "loc-busy-beans", UserID: "user-charlie", Username: "Charlie",
			NoiseLevel: 8, Comment: "Too loud for work. Popular spot for social gatherings.",
			Timestamp: time.Date(2023, 9, 7, 13, 20, 0, 0, time.UTC),
		},
		{
			ID: "report-5", LocationID: "loc-productive-space", UserID: "user-bob", Username: "Bob",
			NoiseLevel: 3, Comment: "Quiet most of the time, good for focus work.",
			Timestamp: time.Date(2023, 9, 6, 11, 10, 0, 0, time.UTC),
		},
	}
}

// Seed loads the demo fixtures into an empty repository. Reports are
// replayed through SubmitReport so every location ends up consistent with its
// report set regardless of whether the backend has the trigger installed.
func Seed(ctx context.Context, repo Repository) error {
	for _, u := range DemoUsers() {
		if _, err := repo.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, loc := range DemoLocations() {
		if _, err := repo.InsertLocation(ctx, loc); err != nil {
			return fmt.Errorf("seed location %s: %w", loc.Name, err)
		}
	}
	for _, rep := range DemoReports() {
		if _, err := repo.SubmitReport(ctx, rep, true); err != nil {
			return fmt.Errorf("seed report %s: %w", rep.ID, err)
		}
	}
	return nil
}
