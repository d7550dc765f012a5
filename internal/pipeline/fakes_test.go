package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

// Austin, TX.
var center = domain.GeocodedLocation{
	Coordinate:       domain.Coordinate{Lat: 30.2672, Lng: -97.7431},
	FormattedAddress: "Austin, TX, USA",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

type fakeGeocoder struct {
	result domain.GeocodedLocation
	err    error
	calls  atomic.Int32
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodedLocation, error) {
	f.calls.Add(1)
	return f.result, f.err
}

// fakePlaces answers every radius with the same places unless byMiles is set.
type fakePlaces struct {
	places  []domain.Place
	byMiles map[int][]domain.Place
	err     error

	mu    sync.Mutex
	radii []int // miles, rounded
}

func (f *fakePlaces) SearchNearby(_ context.Context, _ domain.Coordinate, radiusMeters float64, _ string) ([]domain.Place, error) {
	miles := int(math.Round(domain.KmToMiles(radiusMeters / 1000)))
	f.mu.Lock()
	f.radii = append(f.radii, miles)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.byMiles != nil {
		return f.byMiles[miles], nil
	}
	return f.places, nil
}

func (f *fakePlaces) searchedRadii() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.radii...)
}

type fakeGenerator struct {
	output string
	err    error

	// release, when set, blocks Generate until it is closed.
	release chan struct{}

	mu       sync.Mutex
	prompts  []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.output, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakePublisher struct {
	err    error
	mu     sync.Mutex
	events []domain.EstimateEvent
}

func (f *fakePublisher) PublishEstimate(_ context.Context, ev domain.EstimateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}
