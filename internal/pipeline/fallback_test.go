package pipeline

import (
	"regexp"
	"testing"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var phonePattern = regexp.MustCompile(`^\(555\) 555-01\d{2}$`)

func TestSynthesizeFallback(t *testing.T) {
	center := domain.GeocodedLocation{
		Coordinate:       domain.Coordinate{Lat: 30.2672, Lng: -97.7431},
		FormattedAddress: "Austin, TX, USA",
	}

	got := synthesizeFallback(center, "dog", 14)
	require.Len(t, got, 14)

	seen := make(map[string]bool)
	for i, g := range got {
		assert.Equal(t, domain.SourceFallback, g.Source)
		assert.Equal(t, fallbackNames[i%len(fallbackNames)], g.Name, "names rotate through the curated list")
		assert.Regexp(t, phonePattern, g.Phone)
		require.NotNil(t, g.Rating)
		assert.GreaterOrEqual(t, *g.Rating, 3.8)
		assert.LessOrEqual(t, *g.Rating, 4.9)
		assert.True(t, g.Location.Valid())
		assert.Less(t, g.DistanceKm, domain.MilesToKm(10), "within the smallest radius")
		assert.GreaterOrEqual(t, g.DistanceKm, 0.0)
		assert.Contains(t, g.Address, "Austin, TX, USA")
		assert.Contains(t, g.Services, "dog grooming")
		assert.True(t, g.ServiceMatch)

		key := dedupKey(g)
		assert.False(t, seen[key], "fallback entries are unique")
		seen[key] = true
	}
}

func TestSynthesizeFallback_Deterministic(t *testing.T) {
	center := domain.GeocodedLocation{Coordinate: domain.Coordinate{Lat: 51.5074, Lng: -0.1278}}

	a := synthesizeFallback(center, "cat", 10)
	b := synthesizeFallback(center, "cat", 10)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same center produced different sets (-first +second):\n%s", diff)
	}

	other := synthesizeFallback(domain.GeocodedLocation{Coordinate: domain.Coordinate{Lat: 40.7128, Lng: -74.0060}}, "cat", 10)
	assert.NotEqual(t, a[0].Location, other[0].Location)
}

func TestSynthesizeFallback_NearPoleAndAntimeridian(t *testing.T) {
	center := domain.GeocodedLocation{Coordinate: domain.Coordinate{Lat: 89.99, Lng: 179.99}}

	for _, g := range synthesizeFallback(center, "other", 12) {
		assert.True(t, g.Location.Valid(), "%+v", g.Location)
	}
}
