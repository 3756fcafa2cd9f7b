package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultOpenAIURL   = "https://api.openai.com/v1"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	BaseURL   string
	ModelName string
	client    *resty.Client
	logger    *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a client. Empty baseURL and model use the public
// API defaults.
func NewOpenAIClient(baseURL, model, apiKey string, logger *zap.Logger) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &OpenAIClient{
		BaseURL:   baseURL,
		ModelName: model,
		client:    client,
		logger:    logger,
	}
}

// Translate sends the request as a chat completion
func (c *OpenAIClient) Translate(ctx context.Context, req Request) (*Suggestion, error) {
	body := chatRequest{
		Model: c.ModelName,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(req)},
		},
		Temperature:    0.1,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var result chatResponse
	var failure apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if resp.IsError() {
		if failure.Error.Message != "" {
			return nil, fmt.Errorf("openai error (%d): %s", resp.StatusCode(), failure.Error.Message)
		}
		return nil, fmt.Errorf("openai error: status code %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return nil, ErrNoSuggestion
	}

	c.logger.Debug("openai response", zap.String("model", c.ModelName), zap.String("content", result.Choices[0].Message.Content))
	return ParseResponse(result.Choices[0].Message.Content)
}
