// Package overpass implements place search against an OpenStreetMap Overpass
// API endpoint. It needs no credentials.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
)

const providerName = "overpass"

// Client implements domain.PlaceSearcher using Overpass QL around-queries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Overpass client for endpoint.
func NewClient(endpoint string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SearchNearby lists pet grooming and pet care businesses within radiusMeters of at.
func (c *Client) SearchNearby(ctx context.Context, at domain.Coordinate, radiusMeters float64, petType string) ([]domain.Place, error) {
	start := time.Now()
	places, err := c.search(ctx, at, radiusMeters, petType)
	c.metrics.ProviderLatency.WithLabelValues(providerName, "search").Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.SearchRequests.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}
	c.metrics.SearchRequests.WithLabelValues(providerName, "success").Inc()
	return places, nil
}

func (c *Client) search(ctx context.Context, at domain.Coordinate, radiusMeters float64, petType string) ([]domain.Place, error) {
	form := url.Values{"data": {buildQuery(at, radiusMeters, petType)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass request: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: overpass API error: status %d: %s", domain.ErrProvider, resp.StatusCode, body)
	}

	var or response
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrProvider, err)
	}

	places := make([]domain.Place, 0, len(or.Elements))
	for _, el := range or.Elements {
		if p, ok := toPlace(el); ok {
			places = append(places, p)
		}
	}
	c.logger.Debug("overpass search", "radius_m", int(radiusMeters), "elements", len(or.Elements), "places", len(places))
	return places, nil
}

// buildQuery selects groomers, pet shops and, for generic searches, vets,
// plus anything whose name mentions grooming.
func buildQuery(at domain.Coordinate, radiusMeters float64, petType string) string {
	around := fmt.Sprintf("(around:%d,%s,%s)",
		int(radiusMeters),
		strconv.FormatFloat(at.Lat, 'f', 6, 64),
		strconv.FormatFloat(at.Lng, 'f', 6, 64))

	filters := []string{
		`["shop"="pet_grooming"]`,
		`["craft"="pet_grooming"]`,
		`["shop"="pet"]`,
		`["name"~"groom",i]`,
	}
	if petType != "dog" && petType != "cat" {
		filters = append(filters, `["amenity"="veterinary"]`)
	}

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, f := range filters {
		b.WriteString("  nwr" + f + around + ";\n")
	}
	b.WriteString(");\nout center tags;")
	return b.String()
}

func toPlace(el element) (domain.Place, bool) {
	name := el.Tags["name"]
	if name == "" {
		return domain.Place{}, false
	}

	loc := domain.Coordinate{Lat: el.Lat, Lng: el.Lon}
	if el.Center != nil {
		loc = domain.Coordinate{Lat: el.Center.Lat, Lng: el.Center.Lon}
	}
	if loc == (domain.Coordinate{}) || !loc.Valid() {
		return domain.Place{}, false
	}

	var categories []string
	for _, key := range []string{"shop", "craft", "amenity"} {
		if v := el.Tags[key]; v != "" {
			categories = append(categories, v)
		}
	}

	return domain.Place{
		ID:         fmt.Sprintf("osm:%s/%d", el.Type, el.ID),
		Name:       name,
		Address:    address(el.Tags),
		Location:   loc,
		Phone:      firstTag(el.Tags, "phone", "contact:phone"),
		Hours:      el.Tags["opening_hours"],
		Website:    firstTag(el.Tags, "website", "contact:website"),
		Categories: categories,
	}, true
}

func address(tags map[string]string) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	var parts []string
	for _, p := range []string{street, tags["addr:city"], tags["addr:postcode"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}
