package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietspotter/quietspotter/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	submitted := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := domain.NoiseReport{
		ID:         "rep-1",
		LocationID: "loc-quiet-corner",
		UserID:     "user-alice",
		Username:   "alice",
		NoiseLevel: 8,
		Comment:    "construction outside",
		Timestamp:  submitted,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("loc-quiet-corner"), msg.Key)
	assert.Contains(t, string(msg.Value), `"noiseLevel":8`)
	assert.Contains(t, string(msg.Value), `"locationId":"loc-quiet-corner"`)

	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "location_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("loc-quiet-corner"), msg.Headers[0].Value)
	assert.Equal(t, "noise_level", msg.Headers[1].Key)
	assert.Equal(t, []byte("8"), msg.Headers[1].Value)
	assert.Equal(t, "noise_band", msg.Headers[2].Key)
	assert.Equal(t, []byte("noisy"), msg.Headers[2].Value)
	assert.Equal(t, "submitted_at", msg.Headers[3].Key)
	assert.Equal(t, []byte(submitted.Format(time.RFC3339)), msg.Headers[3].Value)
}

func TestSerializeToMessage_BandsPerLevel(t *testing.T) {
	cases := []struct {
		level int
		band  string
	}{
		{1, "quiet"},
		{2, "quiet"},
		{3, "moderate"},
		{6, "moderate"},
		{7, "noisy"},
		{10, "noisy"},
	}
	for _, tc := range cases {
		msg, err := serializeToMessage(domain.NoiseReport{
			ID:         "rep-x",
			LocationID: "loc-x",
			NoiseLevel: tc.level,
		})
		require.NoError(t, err)
		assert.Equal(t, []byte(tc.band), msg.Headers[2].Value, "level %d", tc.level)
	}
}

func TestSerializeToMessage_ValueRoundTrips(t *testing.T) {
	report := domain.NoiseReport{
		ID:         "rep-2",
		LocationID: "loc-2",
		UserID:     "user-2",
		NoiseLevel: 4,
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	var decoded domain.NoiseReport
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, report, decoded)
}
