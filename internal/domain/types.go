package domain

import "time"

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within latitude/longitude bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// GeocodedLocation is a resolved request location.
type GeocodedLocation struct {
	Coordinate
	FormattedAddress string
}

// Place is a single business returned by a places provider, before distance
// filtering and ranking.
type Place struct {
	ID         string
	Name       string
	Address    string
	Location   Coordinate
	Rating     *float64
	Phone      string
	Hours      string
	Website    string
	Categories []string
}

// Source tags where a GroomerCandidate came from.
type Source string

const (
	SourceExternal Source = "external"
	SourceFallback Source = "fallback"
)

// GroomerCandidate is a discovered or synthesized grooming business.
type GroomerCandidate struct {
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	PlaceID      string     `json:"placeId,omitempty"`
	Location     Coordinate `json:"location"`
	Rating       *float64   `json:"rating,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Hours        string     `json:"hours,omitempty"`
	Website      string     `json:"website,omitempty"`
	Services     []string   `json:"services"`
	ServiceMatch bool       `json:"serviceMatch"`
	DistanceKm   float64    `json:"distanceKm"`
	Source       Source     `json:"source"`
}

// Confidence is a coarse reliability indicator for a PriceEstimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels: low < medium < high. Unknown values rank -1.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	default:
		return -1
	}
}

// PriceEstimate is a grooming price range. Min and Max are either both nil or
// both set with *Min <= *Max.
type PriceEstimate struct {
	Min        *float64   `json:"min"`
	Max        *float64   `json:"max"`
	Currency   string     `json:"currency"`
	Confidence Confidence `json:"confidence"`
	Notes      string     `json:"notes"`
}

// SearchResult is the outcome of the groomer search phase.
type SearchResult struct {
	Groomers     []GroomerCandidate
	RadiusMiles  *float64
	Center       *GeocodedLocation
	FallbackUsed bool
}

// Quote is the full answer to a PriceRequest.
type Quote struct {
	Request PriceRequest
	Search  SearchResult
	Price   PriceEstimate
}

// EstimateEvent summarizes a produced quote for downstream consumers. It
// carries no location or client identity.
type EstimateEvent struct {
	ID            string        `json:"id"`
	PetType       string        `json:"pet_type"`
	PetSize       string        `json:"pet_size"`
	GroomersCount int           `json:"groomers_count"`
	RadiusMiles   *float64      `json:"radius_miles"`
	FallbackUsed  bool          `json:"fallback_used"`
	Price         PriceEstimate `json:"price"`
	ProducedAt    time.Time     `json:"produced_at"`
}
