// Package google implements geocoding and nearby place search on the Google
// Maps Platform web service APIs.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

const providerName = "google"

// Google web services report request-level failures in a status field of an
// otherwise successful HTTP response.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

func getJSON(ctx context.Context, httpClient *http.Client, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrProvider, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: google request: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: google API error: status %d: %s", domain.ErrProvider, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrProvider, err)
	}
	return nil
}

func statusError(status, message string) error {
	if message != "" {
		return fmt.Errorf("%w: google status %s: %s", domain.ErrProvider, status, message)
	}
	return fmt.Errorf("%w: google status %s", domain.ErrProvider, status)
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l latLng) coordinate() domain.Coordinate {
	return domain.Coordinate{Lat: l.Lat, Lng: l.Lng}
}
