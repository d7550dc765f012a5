package main

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/spf13/cobra"
)

var estimateOpts struct {
	location string
	size     string
	petType  string
}

type estimateOutput struct {
	Location        string                    `json:"location"`
	Size            string                    `json:"size"`
	Type            string                    `json:"type"`
	RadiusMilesUsed *float64                  `json:"radiusMilesUsed"`
	FallbackUsed    bool                      `json:"fallbackUsed"`
	Price           domain.PriceEstimate      `json:"price"`
	Groomers        []domain.GroomerCandidate `json:"groomers"`
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Produce one price quote and print it as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := domain.NewPriceRequest(estimateOpts.location, estimateOpts.size, estimateOpts.petType)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		q, err := a.service.Quote(cmd.Context(), req)
		if err != nil {
			return err
		}

		groomers := q.Search.Groomers
		if groomers == nil {
			groomers = []domain.GroomerCandidate{}
		}
		out, err := json.MarshalIndent(estimateOutput{
			Location:        req.Location,
			Size:            req.PetSize,
			Type:            req.PetType,
			RadiusMilesUsed: q.Search.RadiusMiles,
			FallbackUsed:    q.Search.FallbackUsed,
			Price:           q.Price,
			Groomers:        groomers,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode quote: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estimateOpts.location, "location", "", "free-text location, address, or zip code")
	f.StringVar(&estimateOpts.size, "size", "medium", "pet size: tiny, small, medium, large, x-large")
	f.StringVar(&estimateOpts.petType, "type", "dog", "pet type")
	_ = estimateCmd.MarkFlagRequired("location")
}
