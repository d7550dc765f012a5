package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateContentConfig
	resp      *genai.GenerateContentResponse
	err       error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func testClient(models contentGenerator) *Client {
	return &Client{
		models:  models,
		model:   "gemini-test",
		metrics: observability.NewMetricsForTesting(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Generate(t *testing.T) {
	fake := &fakeModels{resp: textResponse(`{"min": 45, "max": 85}`)}
	c := testClient(fake)

	out, err := c.Generate(context.Background(), "price please")
	require.NoError(t, err)

	assert.JSONEq(t, `{"min": 45, "max": 85}`, out)
	assert.Equal(t, "gemini-test", fake.gotModel)
	assert.Equal(t, "price please", fake.gotPrompt)
	require.NotNil(t, fake.gotConfig)
	assert.Equal(t, "application/json", fake.gotConfig.ResponseMIMEType)
	require.NotNil(t, fake.gotConfig.Temperature)
	assert.InDelta(t, defaultTemperature, *fake.gotConfig.Temperature, 1e-6)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ModelRequests.WithLabelValues("success")))
}

func TestClient_Generate_Error(t *testing.T) {
	fake := &fakeModels{err: errors.New("quota exceeded")}
	c := testClient(fake)

	_, err := c.Generate(context.Background(), "price please")
	require.ErrorIs(t, err, domain.ErrModelInvocation)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ModelRequests.WithLabelValues("error")))
}

func TestClient_Generate_EmptyResponse(t *testing.T) {
	c := testClient(&fakeModels{resp: &genai.GenerateContentResponse{}})

	out, err := c.Generate(context.Background(), "price please")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "gemini-test", observability.NewMetricsForTesting(), slog.Default())
	require.Error(t, err)
}
