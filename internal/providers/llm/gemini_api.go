package llm

import (
	"context"

	"google.golang.org/genai"
)

// GeminiAPI talks to the Gemini Developer API with an API key.
type GeminiAPI struct {
	client *genai.Client
	model  string
}

func NewGeminiAPI(ctx context.Context, apiKey, modelName string) (*GeminiAPI, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiAPI{client: c, model: modelName}, nil
}

func (g *GeminiAPI) Close() error { return nil }

func (g *GeminiAPI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
