package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient translates through Google's Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini-backed translator. baseURL overrides the
// API endpoint and is normally empty.
func NewGeminiClient(ctx context.Context, baseURL, model, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Translate asks the model for a JSON answer and parses it
func (g *GeminiClient) Translate(ctx context.Context, req Request) (*Suggestion, error) {
	temperature := float32(0.1)
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(UserPrompt(req)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt(), genai.RoleUser),
			Temperature:       &temperature,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	g.logger.Debug("gemini response", zap.String("model", g.model), zap.String("text", text))
	return ParseResponse(text)
}
