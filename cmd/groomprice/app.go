package main

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/groomer-price-service/internal/adapter/gemini"
	"github.com/couchcryptid/groomer-price-service/internal/adapter/google"
	kafkaadapter "github.com/couchcryptid/groomer-price-service/internal/adapter/kafka"
	"github.com/couchcryptid/groomer-price-service/internal/adapter/mapbox"
	"github.com/couchcryptid/groomer-price-service/internal/adapter/overpass"
	"github.com/couchcryptid/groomer-price-service/internal/admission"
	"github.com/couchcryptid/groomer-price-service/internal/config"
	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"github.com/couchcryptid/groomer-price-service/internal/pipeline"
	"golang.org/x/time/rate"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	service   *pipeline.Service
	publisher *kafkaadapter.Publisher
}

func newApp(ctx context.Context, withEvents bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var geocoder domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	default:
		geocoder = google.NewGeocoder(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, metrics, logger)
	}

	var places domain.PlaceSearcher
	switch cfg.SearchProvider {
	case config.ProviderOverpass:
		places = overpass.NewClient(cfg.OverpassURL, cfg.SearchTimeout, metrics, logger)
	default:
		places = google.NewPlaces(cfg.GoogleMapsAPIKey, cfg.SearchTimeout, metrics, logger)
	}
	logger.Info("providers configured", "geocoder", cfg.GeocoderProvider, "search", cfg.SearchProvider)

	searcher := pipeline.NewSearcher(geocoder, places,
		rate.NewLimiter(rate.Limit(cfg.SearchRatePerSecond), cfg.SearchRateBurst),
		pipeline.SearchConfig{
			RadiiMiles:    cfg.SearchRadiiMiles,
			MinResults:    cfg.SearchMinResults,
			MaxResults:    cfg.SearchMaxResults,
			FallbackCount: cfg.FallbackCount,
		}, metrics, logger)

	var generator domain.TextGenerator
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, metrics, logger)
		if err != nil {
			return nil, err
		}
		generator = client
		logger.Info("text generation enabled", "model", client.Model(), "max_concurrency", cfg.ModelMaxConcurrency)
	} else {
		logger.Warn("GEMINI_API_KEY not set, quotes with groomers will fail")
	}

	estimator := pipeline.NewEstimator(generator, admission.NewSlots(int64(cfg.ModelMaxConcurrency)),
		pipeline.EstimatorConfig{ModelTimeout: cfg.ModelTimeout, SlotTimeout: cfg.ModelSlotTimeout},
		metrics, logger)

	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	var publisher pipeline.EstimatePublisher
	if withEvents && cfg.EventsEnabled() {
		a.publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEstimatesTopic, logger)
		publisher = a.publisher
		logger.Info("estimate events enabled", "topic", cfg.KafkaEstimatesTopic)
	}

	a.service = pipeline.NewService(searcher, estimator, publisher, nil, metrics, logger)
	return a, nil
}

func (a *app) close() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("kafka publisher close error", "error", err)
	}
}
