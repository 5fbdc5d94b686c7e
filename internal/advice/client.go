package advice

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"studycoach/internal/config"
)

// Client produces a study-advice report for one student. Implementations
// must be safe for sequential reuse across a batch.
type Client interface {
	// GenerateAdvice returns the report body for the prompt. The
	// context carries the per-call deadline.
	GenerateAdvice(ctx context.Context, prompt string) (string, error)

	// Model identifies the backing model for logging.
	Model() string
}

// GeminiClient calls the Gemini API through the official client.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed advice client.
func NewGeminiClient(ctx context.Context, cfg config.AdviceConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("advice API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultAdviceModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// GenerateAdvice sends the prompt and returns the model's text response.
func (c *GeminiClient) GenerateAdvice(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Gemini returned an empty response")
	}

	return text, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// MockClient returns a canned report without any network call. Used in
// tests and with STUDYCOACH_ADVICE_USE_MOCK for local dry runs.
type MockClient struct {
	// Response overrides the canned body when set.
	Response string
	// Err, when set, is returned for every call.
	Err error
	// Prompts records every prompt received, in call order.
	Prompts []string
}

func (m *MockClient) GenerateAdvice(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "## 一、 【整體表現總評】\n模擬建議內容。\n**持續加油！**", nil
}

func (m *MockClient) Model() string {
	return "mock"
}

// NewClient selects the advice backend from configuration: the mock when
// UseMock is set, Gemini otherwise.
func NewClient(ctx context.Context, cfg config.AdviceConfig) (Client, error) {
	if cfg.UseMock {
		return &MockClient{}, nil
	}
	return NewGeminiClient(ctx, cfg)
}
