// Package gemini adapts the Gemini API to domain.TextGenerator.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	"google.golang.org/genai"
)

const (
	providerName       = "gemini"
	defaultTemperature = 0.2
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements domain.TextGenerator with a single-turn Gemini call that
// asks for a JSON response.
type Client struct {
	models  contentGenerator
	model   string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Gemini API client for model.
func NewClient(ctx context.Context, apiKey, model string, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		models:  gc.Models,
		model:   model,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Model is the configured model name.
func (c *Client) Model() string { return c.model }

// Generate sends prompt and returns the raw response text. An empty answer
// is not an error; callers decide what to do with unusable text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](defaultTemperature),
		ResponseMIMEType: "application/json",
	})
	c.metrics.ProviderLatency.WithLabelValues(providerName, "model").Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ModelRequests.WithLabelValues("error").Inc()
		c.logger.Warn("gemini generate failed", "model", c.model, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrModelInvocation, err)
	}
	c.metrics.ModelRequests.WithLabelValues("success").Inc()

	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
