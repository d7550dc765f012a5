package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EstimatePublisher delivers estimate events to downstream consumers.
type EstimatePublisher interface {
	PublishEstimate(ctx context.Context, event domain.EstimateEvent) error
}

// Service answers price requests: search, then estimate, then publish.
type Service struct {
	searcher  *Searcher
	estimator *Estimator
	publisher EstimatePublisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewService wires a Service. publisher and clock may be nil.
func NewService(searcher *Searcher, estimator *Estimator, publisher EstimatePublisher, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		searcher:  searcher,
		estimator: estimator,
		publisher: publisher,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckReadiness fails while no text generator is configured, since every
// quote with groomers would end in a model invocation error.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.estimator.Configured() {
		return errors.New("text generation model is not configured")
	}
	return nil
}

// Quote runs the full pipeline for a validated request. The only error it
// returns wraps domain.ErrModelInvocation.
func (s *Service) Quote(ctx context.Context, req domain.PriceRequest) (domain.Quote, error) {
	start := s.clock.Now()
	ctx, span := otel.Tracer("Service").Start(ctx, "Quote", trace.WithAttributes(
		attribute.String("pet.type", req.PetType),
		attribute.String("pet.size", req.PetSize),
	))
	defer span.End()

	search := s.searcher.FindGroomers(ctx, req.Location, req.PetType)

	price, err := s.estimator.Estimate(ctx, search, req)
	if err != nil {
		s.metrics.QuotesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		s.logger.Error("price estimate failed", "error", err, "pet_type", req.PetType, "pet_size", req.PetSize)
		return domain.Quote{}, fmt.Errorf("estimate price: %w", err)
	}

	s.metrics.QuotesTotal.WithLabelValues("success").Inc()
	s.metrics.QuoteDuration.Observe(s.clock.Since(start).Seconds())

	q := domain.Quote{Request: req, Search: search, Price: price}
	s.publish(ctx, q)

	s.logger.Info("quote served",
		"pet_type", req.PetType,
		"pet_size", req.PetSize,
		"groomers", len(search.Groomers),
		"fallback", search.FallbackUsed,
		"confidence", price.Confidence,
	)
	return q, nil
}

// publish is best-effort; failures are logged and counted only.
func (s *Service) publish(ctx context.Context, q domain.Quote) {
	if s.publisher == nil {
		return
	}

	ev := domain.EstimateEvent{
		ID:            uuid.NewString(),
		PetType:       q.Request.PetType,
		PetSize:       q.Request.PetSize,
		GroomersCount: len(q.Search.Groomers),
		RadiusMiles:   q.Search.RadiusMiles,
		FallbackUsed:  q.Search.FallbackUsed,
		Price:         q.Price,
		ProducedAt:    s.clock.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.publisher.PublishEstimate(pubCtx, ev); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish estimate event failed", "error", err, "event_id", ev.ID)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}
