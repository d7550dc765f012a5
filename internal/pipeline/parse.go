package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

const defaultCurrency = "USD"

// modelEstimate is the JSON object the model is asked to return.
type modelEstimate struct {
	Min        flexFloat `json:"min"`
	Max        flexFloat `json:"max"`
	Currency   string    `json:"currency"`
	Confidence string    `json:"confidence"`
	Notes      string    `json:"notes"`
}

// flexFloat accepts a JSON number or a numeric string such as "$45".
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.v = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.v = &n
	return nil
}

// parseEstimate decodes model output, first as-is and then from the outermost
// brace-delimited substring.
func parseEstimate(raw string) (domain.PriceEstimate, error) {
	var m modelEstimate
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &m); err != nil {
		obj, ok := extractObject(raw)
		if !ok {
			return domain.PriceEstimate{}, fmt.Errorf("%w: no JSON object in output", domain.ErrModelParse)
		}
		m = modelEstimate{}
		if err := json.Unmarshal([]byte(obj), &m); err != nil {
			return domain.PriceEstimate{}, fmt.Errorf("%w: %w", domain.ErrModelParse, err)
		}
	}
	return normalizeEstimate(m)
}

// extractObject strips markdown code fences and returns the text between the
// first '{' and the last '}'.
func extractObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// normalizeEstimate enforces PriceEstimate invariants on a decoded answer.
func normalizeEstimate(m modelEstimate) (domain.PriceEstimate, error) {
	lo, hi := m.Min.v, m.Max.v
	if lo == nil && hi == nil {
		return domain.PriceEstimate{}, fmt.Errorf("%w: no price bounds", domain.ErrModelParse)
	}
	if lo == nil {
		lo = hi
	}
	if hi == nil {
		hi = lo
	}
	for _, v := range []float64{*lo, *hi} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return domain.PriceEstimate{}, fmt.Errorf("%w: invalid price bound %v", domain.ErrModelParse, v)
		}
	}
	minV, maxV := min(*lo, *hi), max(*lo, *hi)

	currency := strings.ToUpper(strings.TrimSpace(m.Currency))
	if len(currency) != 3 {
		currency = defaultCurrency
	}

	confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(m.Confidence)))
	if confidence.Rank() < 0 {
		confidence = domain.ConfidenceMedium
	}

	return domain.PriceEstimate{
		Min:        &minV,
		Max:        &maxV,
		Currency:   currency,
		Confidence: confidence,
		Notes:      strings.TrimSpace(m.Notes),
	}, nil
}

// heuristicEstimate is the size-keyed range used when model output cannot be parsed.
func heuristicEstimate(petSize string) domain.PriceEstimate {
	lo := 80.0
	switch petSize {
	case "tiny", "small":
		lo = 30
	case "medium":
		lo = 50
	}
	hi := lo + 50
	return domain.PriceEstimate{
		Min:        &lo,
		Max:        &hi,
		Currency:   defaultCurrency,
		Confidence: domain.ConfidenceMedium,
		Notes:      "Estimated from pet size because the pricing model's answer could not be parsed.",
	}
}

// emptyEstimate is returned when there are no groomers to base a price on.
func emptyEstimate() domain.PriceEstimate {
	return domain.PriceEstimate{
		Currency:   defaultCurrency,
		Confidence: domain.ConfidenceLow,
		Notes:      "No groomers were found near this location, so no price range could be estimated.",
	}
}
