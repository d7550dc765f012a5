package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
)

const (
	defaultNearbyURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

	// maxRadiusMeters is the largest radius Nearby Search accepts.
	maxRadiusMeters = 50000
)

// Places implements domain.PlaceSearcher using the Places Nearby Search API.
// Only the first result page is used.
type Places struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewPlaces creates a Google Places client.
func NewPlaces(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Places {
	return &Places{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultNearbyURL,
		metrics:    metrics,
		logger:     logger,
	}
}

type nearbyResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
}

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location latLng `json:"location"`
	} `json:"geometry"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating,omitempty"`
	BusinessStatus   string   `json:"business_status"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now,omitempty"`
	} `json:"opening_hours,omitempty"`
	Types []string `json:"types"`
}

// SearchNearby lists grooming businesses around center.
func (p *Places) SearchNearby(ctx context.Context, center domain.Coordinate, radiusMeters float64, petType string) ([]domain.Place, error) {
	start := time.Now()
	places, err := p.search(ctx, center, radiusMeters, petType)
	p.metrics.ProviderLatency.WithLabelValues(providerName, "search").Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.SearchRequests.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}
	p.metrics.SearchRequests.WithLabelValues(providerName, "success").Inc()
	return places, nil
}

func (p *Places) search(ctx context.Context, center domain.Coordinate, radiusMeters float64, petType string) ([]domain.Place, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: google maps API key not configured", domain.ErrProvider)
	}

	radius := min(int(radiusMeters), maxRadiusMeters)
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(center.Lat, 'f', 6, 64)+","+strconv.FormatFloat(center.Lng, 'f', 6, 64))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("keyword", domain.SearchKeyword(petType))
	params.Set("key", p.apiKey)

	var resp nearbyResponse
	if err := getJSON(ctx, p.httpClient, p.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return nil, nil
	default:
		return nil, statusError(resp.Status, resp.ErrorMessage)
	}

	places := make([]domain.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Name == "" || r.BusinessStatus == "CLOSED_PERMANENTLY" {
			continue
		}
		loc := r.Geometry.Location.coordinate()
		if !loc.Valid() {
			continue
		}
		address := r.Vicinity
		if address == "" {
			address = r.FormattedAddress
		}
		places = append(places, domain.Place{
			ID:         r.PlaceID,
			Name:       r.Name,
			Address:    address,
			Location:   loc,
			Rating:     r.Rating,
			Hours:      hoursSummary(r),
			Categories: r.Types,
		})
	}

	p.logger.Debug("google nearby search", "radius_m", radius, "results", len(places))
	return places, nil
}

func hoursSummary(r placeResult) string {
	if r.OpeningHours == nil || r.OpeningHours.OpenNow == nil {
		return ""
	}
	if *r.OpeningHours.OpenNow {
		return "Open now"
	}
	return "Closed now"
}
