package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaClient provides an interface to a local Ollama server
type OllamaClient struct {
	BaseURL   string
	ModelName string
	client    *resty.Client
	logger    *zap.Logger
}

// OllamaRequest represents a request to the Ollama generate API
type OllamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
	Stream  bool                   `json:"stream"`
}

// OllamaResponse represents a response from the Ollama generate API
type OllamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(baseURL, model string, logger *zap.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaClient{
		BaseURL:   baseURL,
		ModelName: model,
		client:    resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		logger:    logger,
	}
}

// IsAvailable checks if the Ollama server answers
func (c *OllamaClient) IsAvailable(ctx context.Context) bool {
	resp, err := c.client.R().SetContext(ctx).Get("/api/tags")
	return err == nil && resp.StatusCode() == 200
}

// Translate sends a non-streaming generate request
func (c *OllamaClient) Translate(ctx context.Context, req Request) (*Suggestion, error) {
	body := OllamaRequest{
		Model:  c.ModelName,
		Prompt: UserPrompt(req),
		System: SystemPrompt(),
		Format: "json",
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 256,
		},
	}

	var result OllamaResponse
	var failure struct {
		Error string `json:"error"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return nil, fmt.Errorf("ollama error: %s", failure.Error)
		}
		return nil, fmt.Errorf("ollama error: status code %d", resp.StatusCode())
	}

	c.logger.Debug("ollama response", zap.String("model", c.ModelName), zap.String("response", result.Response))
	return ParseResponse(result.Response)
}
