package pipeline

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

var fallbackNames = []string{
	"Pampered Paws Grooming",
	"Happy Tails Pet Spa",
	"The Dapper Dog",
	"Whiskers & Wags",
	"Fluff & Buff Pet Salon",
	"Bubbles and Bows Grooming",
	"Furever Fresh Grooming",
	"Shaggy Chic Pet Styling",
	"Clip & Clean Pet Care",
	"The Grooming Room",
	"Sudsy Paws Mobile Grooming",
	"Pet Palace Grooming",
}

var fallbackStreets = []string{
	"Main St", "Oak Ave", "Elm St", "Maple Dr", "Cedar Ln", "Park Blvd", "Pine St", "Lakeview Rd",
}

// fallbackSpreadDeg bounds the latitude offset of synthesized groomers so they
// stay well inside the smallest search radius.
const fallbackSpreadDeg = 0.08

// synthesizeFallback builds count plausible groomers around center. The same
// center always yields the same set.
func synthesizeFallback(center domain.GeocodedLocation, petType string, count int) []domain.GroomerCandidate {
	rng := rand.New(rand.NewPCG(math.Float64bits(center.Lat), math.Float64bits(center.Lng)))

	lngScale := math.Cos(center.Lat * math.Pi / 180)
	if lngScale < 0.1 {
		lngScale = 0.1
	}

	services := []string{"bath", "haircut", "nail trim"}
	if petType != "" {
		services = append(services, petType+" grooming")
	}

	out := make([]domain.GroomerCandidate, 0, count)
	for i := range count {
		loc := domain.Coordinate{
			Lat: center.Lat + (rng.Float64()*2-1)*fallbackSpreadDeg,
			Lng: center.Lng + (rng.Float64()*2-1)*fallbackSpreadDeg/lngScale,
		}
		loc.Lat = min(max(loc.Lat, -90), 90)
		if loc.Lng > 180 {
			loc.Lng -= 360
		} else if loc.Lng < -180 {
			loc.Lng += 360
		}

		rating := math.Round((3.8+rng.Float64()*1.1)*10) / 10
		address := fmt.Sprintf("%d %s", 100+rng.IntN(9900), fallbackStreets[i%len(fallbackStreets)])
		if center.FormattedAddress != "" {
			address += ", " + center.FormattedAddress
		}

		out = append(out, domain.GroomerCandidate{
			Name:         fallbackNames[i%len(fallbackNames)],
			Address:      address,
			PlaceID:      fmt.Sprintf("fallback-%d", i+1),
			Location:     loc,
			Rating:       &rating,
			Phone:        fmt.Sprintf("(555) 555-01%02d", i%100),
			Hours:        "Mon-Sat 9:00 AM - 6:00 PM",
			Services:     services,
			ServiceMatch: true,
			DistanceKm:   domain.Haversine(center.Coordinate, loc),
			Source:       domain.SourceFallback,
		})
	}
	return out
}
