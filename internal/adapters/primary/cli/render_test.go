package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/user-directory/internal/core/domain"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

var renderRows = []domain.User{
	{ID: "u1", FirstName: "Ana", LastName: "Zapata", Country: "Peru"},
	{ID: "u2", FirstName: "Émile", LastName: "Young", Country: "Chile"},
	{ID: "u3", FirstName: "Carla", LastName: "Xu", Country: "United Kingdom"},
}

func TestRenderUsers(t *testing.T) {
	tests := []struct {
		name  string
		color bool
	}{
		{name: "users_plain", color: false},
		{name: "users_color", color: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderUsers(&buf, renderRows, 5, tt.color))
			newGoldie(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRenderUsers_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderUsers(&buf, nil, 0, false))
	assert.Equal(t, "No users\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderUsers(&buf, nil, 4, true))
	assert.Equal(t, "No matches\n", buf.String())
}

func TestRenderDeletions(t *testing.T) {
	records := []domain.DeletionRecord{
		{
			ID:          uuid.MustParse("5b0c2f0e-8d3c-4a8e-9d0b-2f8a4e6c1d01"),
			UserID:      "a1b2c3",
			FirstName:   "Ana",
			LastName:    "Zapata",
			Country:     "Peru",
			RequestedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			ID:          uuid.MustParse("5b0c2f0e-8d3c-4a8e-9d0b-2f8a4e6c1d02"),
			UserID:      "d4e5f6a7",
			FirstName:   "Bruno",
			LastName:    "Young",
			Country:     "Chile",
			RequestedAt: time.Date(2024, 2, 29, 8, 0, 0, 0, time.FixedZone("CET", 3600)),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDeletions(&buf, records))
	newGoldie(t).Assert(t, "deletions", buf.Bytes())

	buf.Reset()
	require.NoError(t, RenderDeletions(&buf, nil))
	assert.Equal(t, "No deletions recorded\n", buf.String())
}
