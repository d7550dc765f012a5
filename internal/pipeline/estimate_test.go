package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/admission"
	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"github.com/couchcryptid/groomer-price-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchWithGroomers() domain.SearchResult {
	return domain.SearchResult{
		Groomers: []domain.GroomerCandidate{
			{Name: "Paws Grooming", Address: "1 Congress Ave", Rating: ptr(4.5), Services: []string{"bath"}, DistanceKm: 0.4, Source: domain.SourceExternal},
		},
		RadiusMiles: ptr(10.0),
		Center:      &center,
	}
}

func mediumDog() domain.PriceRequest {
	return domain.PriceRequest{Location: "Austin, TX", PetSize: "medium", PetType: "dog"}
}

func newEstimator(gen domain.TextGenerator, slots int64, cfg pipeline.EstimatorConfig) (*pipeline.Estimator, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return pipeline.NewEstimator(gen, admission.NewSlots(slots), cfg, m, discardLogger()), m
}

func TestEstimator_EmptyGroomersSkipsModel(t *testing.T) {
	gen := &fakeGenerator{output: `{"min": 1, "max": 2}`}
	e, m := newEstimator(gen, 1, pipeline.EstimatorConfig{})

	est, err := e.Estimate(context.Background(), domain.SearchResult{}, mediumDog())
	require.NoError(t, err)

	assert.Nil(t, est.Min)
	assert.Nil(t, est.Max)
	assert.Equal(t, "USD", est.Currency)
	assert.Equal(t, domain.ConfidenceLow, est.Confidence)
	assert.NotEmpty(t, est.Notes)
	assert.Equal(t, 0, gen.calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EstimateSource.WithLabelValues("empty")))
}

func TestEstimator_ParsesModelOutput(t *testing.T) {
	gen := &fakeGenerator{output: `{"min": 55, "max": 90, "currency": "usd", "confidence": "High", "notes": "Typical full groom."}`}
	e, m := newEstimator(gen, 1, pipeline.EstimatorConfig{ModelTimeout: time.Second})

	est, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
	require.NoError(t, err)

	want := domain.PriceEstimate{Min: ptr(55.0), Max: ptr(90.0), Currency: "USD", Confidence: domain.ConfidenceHigh, Notes: "Typical full groom."}
	if diff := cmp.Diff(want, est); diff != "" {
		t.Errorf("estimate mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.prompts[0], "Paws Grooming")
	assert.Contains(t, gen.prompts[0], "medium dog")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EstimateSource.WithLabelValues("model")))
}

func TestEstimator_MalformedOutputUsesHeuristic(t *testing.T) {
	tests := []struct {
		size string
		min  float64
		max  float64
	}{
		{size: "tiny", min: 30, max: 80},
		{size: "small", min: 30, max: 80},
		{size: "medium", min: 50, max: 100},
		{size: "large", min: 80, max: 130},
		{size: "x-large", min: 80, max: 130},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			gen := &fakeGenerator{output: "I think grooming costs about fifty dollars."}
			e, m := newEstimator(gen, 1, pipeline.EstimatorConfig{})

			req := mediumDog()
			req.PetSize = tt.size
			est, err := e.Estimate(context.Background(), searchWithGroomers(), req)
			require.NoError(t, err)

			assert.Equal(t, tt.min, *est.Min)
			assert.Equal(t, tt.max, *est.Max)
			assert.Equal(t, "USD", est.Currency)
			assert.Equal(t, domain.ConfidenceMedium, est.Confidence)
			assert.NotEmpty(t, est.Notes)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.EstimateSource.WithLabelValues("heuristic")))
		})
	}
}

func TestEstimator_ModelErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream 503")}
	e, _ := newEstimator(gen, 1, pipeline.EstimatorConfig{})

	_, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
	require.ErrorIs(t, err, domain.ErrModelInvocation)
}

func TestEstimator_NoGenerator(t *testing.T) {
	e, _ := newEstimator(nil, 1, pipeline.EstimatorConfig{})
	assert.False(t, e.Configured())

	_, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
	require.ErrorIs(t, err, domain.ErrModelInvocation)

	est, err := e.Estimate(context.Background(), domain.SearchResult{}, mediumDog())
	require.NoError(t, err, "empty searches never need the model")
	assert.Equal(t, domain.ConfidenceLow, est.Confidence)
}

func TestEstimator_ModelTimeout(t *testing.T) {
	gen := &fakeGenerator{output: `{"min": 1, "max": 2}`, release: make(chan struct{})}
	defer close(gen.release)
	e, _ := newEstimator(gen, 1, pipeline.EstimatorConfig{ModelTimeout: 20 * time.Millisecond})

	_, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
	require.ErrorIs(t, err, domain.ErrModelInvocation)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEstimator_SlotTimeout(t *testing.T) {
	gen := &fakeGenerator{output: `{"min": 1, "max": 2}`}
	slots := admission.NewSlots(1)
	require.NoError(t, slots.Acquire(context.Background()))
	defer slots.Release()

	e := pipeline.NewEstimator(gen, slots, pipeline.EstimatorConfig{SlotTimeout: 20 * time.Millisecond},
		observability.NewMetricsForTesting(), discardLogger())

	_, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
	require.ErrorIs(t, err, domain.ErrModelInvocation)
	assert.Equal(t, 0, gen.calls())
}

func TestEstimator_ModelCallsBoundedBySlots(t *testing.T) {
	gen := &fakeGenerator{output: `{"min": 40, "max": 60}`, release: make(chan struct{})}
	e, _ := newEstimator(gen, 2, pipeline.EstimatorConfig{})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Estimate(context.Background(), searchWithGroomers(), mediumDog())
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return gen.inFlight.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), gen.inFlight.Load())

	close(gen.release)
	wg.Wait()

	assert.Equal(t, int32(2), gen.peak.Load())
	assert.Equal(t, 5, gen.calls())
}
