package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/uber/h3-go/v4"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dedupResolution is the H3 resolution used to decide that two unidentified
// places share a coordinate. Resolution 11 cells are roughly 25 m across.
const dedupResolution = 11

// dedupKey identifies a candidate within one result set: its external ID when
// present, otherwise its H3 cell plus normalized address.
func dedupKey(c domain.GroomerCandidate) string {
	if c.PlaceID != "" {
		return "id:" + c.PlaceID
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Location.Lat, c.Location.Lng), dedupResolution)
	if err != nil {
		return fmt.Sprintf("loc:%.5f,%.5f|%s", c.Location.Lat, c.Location.Lng, normalizeAddress(c.Address))
	}
	return "loc:" + cell.String() + "|" + normalizeAddress(c.Address)
}

// normalizeAddress folds case, accents, punctuation and spacing.
func normalizeAddress(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToLower(s),
	)
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
