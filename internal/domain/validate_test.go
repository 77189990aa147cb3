package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNoiseLevel(t *testing.T) {
	for _, level := range []int{1, 5, 10} {
		assert.NoError(t, ValidateNoiseLevel(level), "level %d", level)
	}
	for _, level := range []int{0, -1, 11, 100} {
		err := ValidateNoiseLevel(level)
		require.Error(t, err, "level %d", level)
		assert.ErrorIs(t, err, ErrInvalidNoiseLevel)
	}
}

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "manhattan", lat: 40.7128, lng: -74.006},
		{name: "poles and antimeridian", lat: 90, lng: 180},
		{name: "negative bounds", lat: -90, lng: -180},
		{name: "lat too high", lat: 90.01, lng: 0, wantErr: true},
		{name: "lat too low", lat: -91, lng: 0, wantErr: true},
		{name: "lng too high", lat: 0, lng: 180.5, wantErr: true},
		{name: "lng too low", lat: 0, lng: -200, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lng)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewLocationInput_Validate(t *testing.T) {
	valid := func() NewLocationInput {
		return NewLocationInput{
			Name:    "Quiet Corner Cafe",
			Address: "123 Main St, Anytown, USA",
			Lat:     40.7128,
			Lng:     -74.006,
			Type:    TypeCafe,
		}
	}

	t.Run("valid input passes", func(t *testing.T) {
		in := valid()
		assert.NoError(t, in.Validate())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		in := valid()
		in.Name = "  Quiet Corner Cafe  "
		in.Address = "\t123 Main St\n"
		require.NoError(t, in.Validate())
		assert.Equal(t, "Quiet Corner Cafe", in.Name)
		assert.Equal(t, "123 Main St", in.Address)
	})

	t.Run("whitespace-only name rejected", func(t *testing.T) {
		in := valid()
		in.Name = "   "
		assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
	})

	t.Run("empty address rejected", func(t *testing.T) {
		in := valid()
		in.Address = ""
		assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
	})

	t.Run("bad coordinates rejected", func(t *testing.T) {
		in := valid()
		in.Lat = 123
		assert.ErrorIs(t, in.Validate(), ErrInvalidCoordinates)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		in := valid()
		in.Type = "library"
		assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
	})
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("Alice"))
	assert.Equal(t, "alice", NormalizeUsername("  ALICE  "))
	assert.Equal(t, "bob m", NormalizeUsername("Bob M"))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrNotAuthenticated))
	assert.True(t, IsValidationError(ErrInvalidNoiseLevel))
	assert.False(t, IsValidationError(ErrBackendUnavailable))
	assert.False(t, IsValidationError(assert.AnError))
}
