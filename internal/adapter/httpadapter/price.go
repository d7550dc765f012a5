package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
)

const maxBodyBytes = 16 << 10

type priceRequest struct {
	Address  string `json:"address"`
	Zip      string `json:"zip"`
	Location string `json:"location"`
	Size     string `json:"size"`
	Type     string `json:"type"`
}

type priceResponse struct {
	Input    priceInput                `json:"input"`
	Price    domain.PriceEstimate      `json:"price"`
	Groomers []domain.GroomerCandidate `json:"groomers"`
}

type priceInput struct {
	Location        string   `json:"location"`
	Size            string   `json:"size"`
	Type            string   `json:"type"`
	GroomersCount   int      `json:"groomersCount"`
	RadiusMilesUsed *float64 `json:"radiusMilesUsed"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    any    `json:"details,omitempty"`
	RetryAfter *int   `json:"retryAfter,omitempty"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", RequestIDFromContext(r.Context()))

	var body priceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.metrics.QuotesTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid input",
			Details: []string{"request body must be a JSON object with string fields"},
		})
		return
	}

	req, err := domain.NewPriceRequest(domain.CombineLocation(body.Address, body.Zip, body.Location), body.Size, body.Type)
	if err != nil {
		var verr *domain.ValidationError
		details := []string{err.Error()}
		if errors.As(err, &verr) {
			details = verr.Details
		}
		s.metrics.QuotesTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: details})
		return
	}

	q, err := s.quoter.Quote(r.Context(), req)
	if err != nil {
		logger.Error("quote failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Pricing service error",
			Details: "The price estimate could not be produced. Please try again later.",
		})
		return
	}

	groomers := q.Search.Groomers
	if groomers == nil {
		groomers = []domain.GroomerCandidate{}
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Input: priceInput{
			Location:        req.Location,
			Size:            req.PetSize,
			Type:            req.PetType,
			GroomersCount:   len(groomers),
			RadiusMilesUsed: q.Search.RadiusMiles,
		},
		Price:    q.Price,
		Groomers: groomers,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
