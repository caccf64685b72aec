package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"google.golang.org/genai"
)

// Model represents a Google AI model identifier
type Model string

const (
	ModelGemma3_27B     Model = "gemma-3-27b-it"
	ModelGemini2Flash   Model = "gemini-2.0-flash"
	ModelGemini2_5Flash Model = "gemini-2.5-flash"
)

var DefaultModel Model = ModelGemma3_27B

type Client struct {
	client  *genai.Client
	model   Model
	timeout time.Duration
}

func NewClient(ctx context.Context, apiKey string, model Model, timeout time.Duration) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *Client) Send(ctx context.Context, req llm.GenerationRequest) (llm.RawCompletion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Gemma doesn't support system instructions natively, prepend to user message
	fullPrompt := llm.SystemPrompt + "\n\n" + req.Instruction

	result, err := c.client.Models.GenerateContent(ctx, string(c.model),
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: fullPrompt}}}},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(req.Temperature)),
			TopP:            genai.Ptr(float32(req.TopP)),
			MaxOutputTokens: int32(req.MaxTokens),
			StopSequences:   req.StopSequences,
		},
	)
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: fmt.Errorf("google API call failed: %w", err)}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return llm.RawCompletion{}, nil
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return llm.NewRawCompletion(sb.String()), nil
}
