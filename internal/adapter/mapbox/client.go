package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
)

const (
	providerName   = "mapbox"
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a free-text location to its best Mapbox match.
func (c *Client) Geocode(ctx context.Context, location string) (domain.GeocodedLocation, error) {
	if c.token == "" {
		c.metrics.GeocodeRequests.WithLabelValues(providerName, "error").Inc()
		return domain.GeocodedLocation{}, fmt.Errorf("%w: mapbox token not configured", domain.ErrProvider)
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(location))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.ProviderLatency.WithLabelValues(providerName, "geocode").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, "success").Inc()
	case errors.Is(err, domain.ErrNotFound):
		c.metrics.GeocodeRequests.WithLabelValues(providerName, "not_found").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("mapbox geocode failed", "error", err)
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodedLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: create request: %w", domain.ErrProvider, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: mapbox geocode request: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodedLocation{}, fmt.Errorf("%w: mapbox API error: status %d: %s", domain.ErrProvider, resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: decode response: %w", domain.ErrProvider, err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.GeocodedLocation{}, domain.ErrNotFound
	}

	f := mapboxResp.Features[0]
	if len(f.Center) != 2 {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: mapbox feature has no center", domain.ErrProvider)
	}

	// Mapbox uses lon,lat order.
	result := domain.GeocodedLocation{
		Coordinate:       domain.Coordinate{Lat: f.Center[1], Lng: f.Center[0]},
		FormattedAddress: f.PlaceName,
	}
	if !result.Valid() {
		return domain.GeocodedLocation{}, fmt.Errorf("%w: mapbox returned out-of-range center %v", domain.ErrProvider, f.Center)
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
