package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/admission"
	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EstimatorConfig bounds the model call. A zero SlotTimeout waits for a slot
// indefinitely; a zero ModelTimeout leaves the call bounded only by ctx.
type EstimatorConfig struct {
	ModelTimeout time.Duration
	SlotTimeout  time.Duration
}

// Estimator turns a search result into a PriceEstimate via a text model.
type Estimator struct {
	generator domain.TextGenerator
	slots     *admission.Slots
	cfg       EstimatorConfig
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEstimator creates an Estimator. generator may be nil, in which case every
// estimate that needs the model fails with domain.ErrModelInvocation.
func NewEstimator(generator domain.TextGenerator, slots *admission.Slots, cfg EstimatorConfig, metrics *observability.Metrics, logger *slog.Logger) *Estimator {
	return &Estimator{
		generator: generator,
		slots:     slots,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Configured reports whether a text generator is available.
func (e *Estimator) Configured() bool {
	return e.generator != nil
}

// Estimate prices req given the groomers found for it. Only model invocation
// failures are returned; unparseable answers fall back to a size heuristic.
func (e *Estimator) Estimate(ctx context.Context, search domain.SearchResult, req domain.PriceRequest) (domain.PriceEstimate, error) {
	ctx, span := otel.Tracer("Estimator").Start(ctx, "Estimate")
	defer span.End()

	if len(search.Groomers) == 0 {
		e.metrics.EstimateSource.WithLabelValues("empty").Inc()
		return emptyEstimate(), nil
	}

	raw, err := e.generate(ctx, buildPrompt(req, search))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model invocation failed")
		return domain.PriceEstimate{}, err
	}

	est, err := parseEstimate(raw)
	if err != nil {
		e.logger.Warn("model output not parseable, using size heuristic", "error", err, "output_bytes", len(raw))
		e.metrics.EstimateSource.WithLabelValues("heuristic").Inc()
		span.SetAttributes(attribute.String("estimate.source", "heuristic"))
		return heuristicEstimate(req.PetSize), nil
	}

	e.metrics.EstimateSource.WithLabelValues("model").Inc()
	span.SetAttributes(attribute.String("estimate.source", "model"))
	return est, nil
}

// generate runs one model call while holding a slot.
func (e *Estimator) generate(ctx context.Context, prompt string) (string, error) {
	if e.generator == nil {
		return "", fmt.Errorf("%w: no text generator configured", domain.ErrModelInvocation)
	}

	acquireCtx := ctx
	if e.cfg.SlotTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.cfg.SlotTimeout)
		defer cancel()
	}

	waitStart := time.Now()
	e.metrics.ModelSlotWaiters.Set(float64(e.slots.Waiting() + 1))
	err := e.slots.Acquire(acquireCtx)
	e.metrics.ModelSlotWaiters.Set(float64(e.slots.Waiting()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrModelInvocation, err)
	}
	e.metrics.ModelSlotWait.Observe(time.Since(waitStart).Seconds())
	e.metrics.ModelSlotsInUse.Set(float64(e.slots.InUse()))
	defer func() {
		e.slots.Release()
		e.metrics.ModelSlotsInUse.Set(float64(e.slots.InUse()))
	}()

	callCtx := ctx
	if e.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.ModelTimeout)
		defer cancel()
	}

	out, err := e.generator.Generate(callCtx, prompt)
	if err != nil {
		if !errors.Is(err, domain.ErrModelInvocation) {
			err = fmt.Errorf("%w: %w", domain.ErrModelInvocation, err)
		}
		return "", err
	}
	return out, nil
}
