package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	minLocationLen = 2
	maxLocationLen = 200
)

// PetTypes lists the accepted pet types.
var PetTypes = []string{"dog", "cat", "lizard", "rabbit", "bird", "other", "hamster", "fish", "amphibian", "snake", "tortoise"}

// PetSizes lists the accepted pet sizes.
var PetSizes = []string{"tiny", "small", "medium", "large", "x-large"}

// PriceRequest is a validated quote request.
type PriceRequest struct {
	Location string
	PetSize  string
	PetType  string
}

// NewPriceRequest trims and validates raw request fields. It returns a
// *ValidationError listing every violation.
func NewPriceRequest(location, size, petType string) (PriceRequest, error) {
	req := PriceRequest{
		Location: strings.TrimSpace(location),
		PetSize:  strings.ToLower(strings.TrimSpace(size)),
		PetType:  strings.ToLower(strings.TrimSpace(petType)),
	}

	var details []string
	switch n := utf8.RuneCountInString(req.Location); {
	case n == 0:
		details = append(details, "location is required")
	case n < minLocationLen:
		details = append(details, fmt.Sprintf("location must be at least %d characters", minLocationLen))
	case n > maxLocationLen:
		details = append(details, fmt.Sprintf("location must be at most %d characters", maxLocationLen))
	}
	if !slices.Contains(PetSizes, req.PetSize) {
		details = append(details, fmt.Sprintf("size must be one of: %s", strings.Join(PetSizes, ", ")))
	}
	if !slices.Contains(PetTypes, req.PetType) {
		details = append(details, fmt.Sprintf("type must be one of: %s", strings.Join(PetTypes, ", ")))
	}

	if len(details) > 0 {
		return PriceRequest{}, &ValidationError{Details: details}
	}
	return req, nil
}

// CombineLocation builds the location string from request body fields.
// Non-empty address and zip parts take precedence over the free-text location.
func CombineLocation(address, zip, location string) string {
	var parts []string
	for _, p := range []string{address, zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return location
}
