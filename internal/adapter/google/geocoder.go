package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
)

const defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder implements domain.Geocoder using the Google Geocoding API.
type Geocoder struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeocoder creates a Google geocoding client.
func NewGeocoder(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	return &Geocoder{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultGeocodeURL,
		metrics:    metrics,
		logger:     logger,
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location     latLng `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a free-text location to Google's first match.
func (g *Geocoder) Geocode(ctx context.Context, location string) (domain.GeocodedLocation, error) {
	start := time.Now()
	result, err := g.geocode(ctx, location)
	g.metrics.ProviderLatency.WithLabelValues(providerName, "geocode").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		g.metrics.GeocodeRequests.WithLabelValues(providerName, "success").Inc()
	case errors.Is(err, domain.ErrNotFound):
		g.metrics.GeocodeRequests.WithLabelValues(providerName, "not_found").Inc()
	default:
		g.metrics.GeocodeRequests.WithLabelValues(providerName, "error").Inc()
		g.logger.Warn("google geocode failed", "error", err)
	}
	return result, err
}

func (g *Geocoder) geocode(ctx context.Context, location string) (domain.GeocodedLocation, error) {
	if g.apiKey == "" {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: google maps API key not configured", domain.ErrProvider)
	}

	params := url.Values{}
	params.Set("address", location)
	params.Set("key", g.apiKey)

	var resp geocodeResponse
	if err := getJSON(ctx, g.httpClient, g.baseURL+"?"+params.Encode(), &resp); err != nil {
		return domain.GeocodedLocation{}, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return domain.GeocodedLocation{}, domain.ErrNotFound
	default:
		return domain.GeocodedLocation{}, statusError(resp.Status, resp.ErrorMessage)
	}

	if len(resp.Results) == 0 {
		return domain.GeocodedLocation{}, domain.ErrNotFound
	}

	first := resp.Results[0]
	result := domain.GeocodedLocation{
		Coordinate:       first.Geometry.Location.coordinate(),
		FormattedAddress: first.FormattedAddress,
	}
	if !result.Valid() {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: google returned out-of-range location %+v", domain.ErrProvider, first.Geometry.Location)
	}
	return result, nil
}
