package domain

import "context"

// Geocoder resolves free-text locations to coordinates.
type Geocoder interface {
	// Geocode returns the first provider match for location. It makes a single
	// attempt and fails with ErrNotFound or ErrProvider.
	Geocode(ctx context.Context, location string) (GeocodedLocation, error)
}

// PlaceSearcher finds pet-care businesses around a coordinate.
type PlaceSearcher interface {
	// SearchNearby returns places within roughly radiusMeters of center that
	// match petType. Providers may return places slightly outside the radius;
	// callers filter by distance. Failures wrap ErrProvider.
	SearchNearby(ctx context.Context, center Coordinate, radiusMeters float64, petType string) ([]Place, error)
}

// TextGenerator produces raw text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchKeyword is the provider search phrase for a pet type.
func SearchKeyword(petType string) string {
	switch petType {
	case "dog", "cat":
		return petType + " grooming"
	default:
		return "pet grooming"
	}
}
