package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/FGuerriero/get-volunteers-backend/internal/config"
)

const defaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI client for schema-constrained match
// suggestions. Transport and provider failures are returned to the
// caller; the matching engine decides how to recover.
type Client struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.Gemini.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Gemini.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Gemini.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:    client,
		modelName: model,
		timeout:   timeout,
		logger:    logger.With("component", "gemini"),
	}, nil
}

// matchSchema constrains the response to an array of objects carrying
// an integer id (volunteer_id or need_id, depending on the matching
// direction) and a textual match_details rationale.
func matchSchema(idField string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				idField:         {Type: genai.TypeInteger},
				"match_details": {Type: genai.TypeString},
			},
			Required: []string{idField, "match_details"},
		},
	}
}

// GenerateMatches sends the prompt to Gemini and returns the raw JSON
// array of suggestions. The call is bounded by the configured timeout.
func (c *Client) GenerateMatches(ctx context.Context, prompt, idField string) (json.RawMessage, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   matchSchema(idField),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	c.logger.Debug("gemini response received",
		"model", c.modelName,
		"id_field", idField,
		"response_length", len(output),
	)

	return json.RawMessage(output), nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}
