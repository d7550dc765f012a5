package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// SearchConfig tunes the progressive radius search.
type SearchConfig struct {
	RadiiMiles    []float64 // ascending
	MinResults    int
	MaxResults    int
	FallbackCount int
}

// Searcher geocodes a location and finds groomers around it, widening the
// radius until enough are found.
type Searcher struct {
	geocoder domain.Geocoder
	places   domain.PlaceSearcher
	throttle *rate.Limiter
	cfg      SearchConfig
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewSearcher creates a Searcher. A nil throttle disables outbound pacing.
func NewSearcher(g domain.Geocoder, p domain.PlaceSearcher, throttle *rate.Limiter, cfg SearchConfig, metrics *observability.Metrics, logger *slog.Logger) *Searcher {
	return &Searcher{
		geocoder: g,
		places:   p,
		throttle: throttle,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// FindGroomers never fails: geocoding and provider errors are logged and
// reported as an empty result with no radius.
func (s *Searcher) FindGroomers(ctx context.Context, location, petType string) domain.SearchResult {
	ctx, span := otel.Tracer("Searcher").Start(ctx, "FindGroomers")
	defer span.End()

	center, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		s.logger.Warn("geocode failed, continuing without groomers", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode failed")
		return domain.SearchResult{}
	}

	groomers, radius, err := s.search(ctx, center.Coordinate, petType)
	if err != nil {
		s.logger.Warn("groomer search failed, continuing without groomers", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return domain.SearchResult{}
	}

	result := domain.SearchResult{Center: &center}
	if len(groomers) == 0 {
		groomers = synthesizeFallback(center, petType, s.cfg.FallbackCount)
		result.FallbackUsed = true
		s.metrics.FallbackUsed.Inc()
		s.logger.Info("no groomers found, using fallback set", "count", len(groomers))
	}

	slices.SortStableFunc(groomers, func(a, b domain.GroomerCandidate) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	if s.cfg.MaxResults > 0 && len(groomers) > s.cfg.MaxResults {
		groomers = groomers[:s.cfg.MaxResults]
	}

	result.Groomers = groomers
	result.RadiusMiles = &radius
	s.metrics.GroomersFound.Observe(float64(len(groomers)))
	span.SetAttributes(
		attribute.Int("groomers.count", len(groomers)),
		attribute.Float64("search.radius_miles", radius),
		attribute.Bool("search.fallback", result.FallbackUsed),
	)
	return result
}

// search accumulates unique candidates across ascending radii and returns them
// with the radius at which it stopped.
func (s *Searcher) search(ctx context.Context, center domain.Coordinate, petType string) ([]domain.GroomerCandidate, float64, error) {
	var (
		found  []domain.GroomerCandidate
		radius float64
	)
	seen := make(map[string]struct{})

	for _, miles := range s.cfg.RadiiMiles {
		radius = miles
		limitKm := domain.MilesToKm(miles)

		if s.throttle != nil {
			if err := s.throttle.Wait(ctx); err != nil {
				return nil, 0, fmt.Errorf("search throttle: %w", err)
			}
		}

		places, err := s.places.SearchNearby(ctx, center, limitKm*1000, petType)
		if err != nil {
			return nil, 0, fmt.Errorf("search within %g miles: %w", miles, err)
		}

		for _, p := range places {
			d := domain.Haversine(center, p.Location)
			if math.IsNaN(d) || d > limitKm {
				continue
			}
			c := toCandidate(p, d, petType)
			key := dedupKey(c)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			found = append(found, c)
		}

		s.logger.Debug("searched radius", "miles", miles, "places", len(places), "accumulated", len(found))
		if len(found) >= s.cfg.MinResults {
			break
		}
	}
	return found, radius, nil
}

func toCandidate(p domain.Place, distanceKm float64, petType string) domain.GroomerCandidate {
	services := p.Categories
	if services == nil {
		services = []string{}
	}
	return domain.GroomerCandidate{
		Name:         p.Name,
		Address:      p.Address,
		PlaceID:      p.ID,
		Location:     p.Location,
		Rating:       clampRating(p.Rating),
		Phone:        p.Phone,
		Hours:        p.Hours,
		Website:      p.Website,
		Services:     services,
		ServiceMatch: serviceMatch(p, petType),
		DistanceKm:   distanceKm,
		Source:       domain.SourceExternal,
	}
}

var (
	petCareBuilder = ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
	})
	petCareMatcher = petCareBuilder.Build([]string{"groom", "pet", "dog", "cat", "animal", "vet", "spa", "kennel"})
)

// serviceMatch reports whether the place's text or categories suggest pet care
// or the requested pet type. It is advisory only.
func serviceMatch(p domain.Place, petType string) bool {
	text := strings.ToLower(p.Name + " " + p.Address + " " + strings.Join(p.Categories, " "))
	if petType != "" && strings.Contains(text, petType) {
		return true
	}
	return petCareMatcher.Iter(text).Next() != nil
}

func clampRating(r *float64) *float64 {
	if r == nil || math.IsNaN(*r) {
		return nil
	}
	v := min(max(*r, 0), 5)
	return &v
}
