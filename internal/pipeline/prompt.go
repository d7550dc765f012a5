package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

// buildPrompt renders the pricing prompt. Output depends only on its inputs.
func buildPrompt(req domain.PriceRequest, search domain.SearchResult) string {
	radius := "an unknown radius"
	if search.RadiusMiles != nil {
		radius = strconv.FormatFloat(*search.RadiusMiles, 'f', -1, 64) + " miles"
	}

	var b strings.Builder
	b.WriteString("You are a pricing assistant for pet grooming services.\n")
	fmt.Fprintf(&b, "Estimate the typical price range for grooming a %s %s near %q.\n", req.PetSize, req.PetType, req.Location)
	fmt.Fprintf(&b, "These %d groomers were found within %s:\n", len(search.Groomers), radius)
	b.WriteString(summarizeGroomers(search.Groomers))
	b.WriteString("\nBase the range on local market rates for this pet type and size.\n")
	b.WriteString("Respond with only a JSON object, no prose and no code fences, shaped exactly like:\n")
	b.WriteString(`{"min": number, "max": number, "currency": "USD", "confidence": "low" | "medium" | "high", "notes": string}`)
	b.WriteString("\n")
	return b.String()
}

func summarizeGroomers(groomers []domain.GroomerCandidate) string {
	var b strings.Builder
	for i, g := range groomers {
		rating := "unrated"
		if g.Rating != nil {
			rating = fmt.Sprintf("rated %.1f", *g.Rating)
		}
		services := "unknown"
		if len(g.Services) > 0 {
			services = strings.Join(g.Services, ", ")
		}
		address := g.Address
		if address == "" {
			address = "address unknown"
		}
		fmt.Fprintf(&b, "%d. %s, %s, %s, services: %s\n", i+1, g.Name, address, rating, services)
	}
	return b.String()
}
