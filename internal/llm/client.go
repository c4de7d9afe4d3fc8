package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNoAPIKey is returned when a client is requested without credentials.
var ErrNoAPIKey = errors.New("API key is required")

// Request is a single generation call.
type Request struct {
	System          string
	Prompt          string
	Tier            ModelTier
	Temperature     float32
	MaxOutputTokens int32
	// JSON asks for an application/json response with fences stripped.
	JSON bool
}

// Client generates text for a request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	genai  *genai.Client
	config *Config
}

// NewGeminiClient connects to Gemini with apiKey. A nil config uses DefaultConfig.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if config == nil {
		config = DefaultConfig()
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{genai: gc, config: config}, nil
}

func (c *GeminiClient) model(req Request) (*genai.GenerativeModel, error) {
	name := c.config.Model(req.Tier)
	if name == "" {
		return nil, fmt.Errorf("no model configured for tier %q", req.Tier)
	}
	m := c.genai.GenerativeModel(name)
	m.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	if req.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m, nil
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	m, err := c.model(req)
	if err != nil {
		return "", err
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text, err := firstCandidateText(resp)
	if err != nil {
		return "", err
	}
	if req.JSON {
		return CleanJSONBlock(text), nil
	}
	return text, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.genai == nil {
		return nil
	}
	return c.genai.Close()
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", errors.New("gemini returned an empty candidate")
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return sb.String(), nil
}
