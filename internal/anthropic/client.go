package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Re-export Model type and constants for external use
type Model = anthropic.Model

const (
	ModelClaudeSonnet4_5 Model = anthropic.ModelClaudeSonnet4_5_20250929
	ModelClaudeHaiku4_5  Model = anthropic.ModelClaudeHaiku4_5_20251001
)

var DefaultModel Model = ModelClaudeHaiku4_5

// Client is the hosted chat-mode variant of the completion client.
type Client struct {
	client anthropic.Client
	model  Model
}

func NewClient(apiKey string, model Model, timeout time.Duration, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		base = append(base, option.WithRequestTimeout(timeout))
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  model,
	}
}

// Send issues one Messages call. The API rejects temperature and top_p
// together on current models, so only temperature is forwarded.
func (c *Client) Send(ctx context.Context, req llm.GenerationRequest) (llm.RawCompletion, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(req.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: llm.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Instruction)),
		},
		Temperature:   anthropic.Float(req.Temperature),
		StopSequences: req.StopSequences,
	})
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: fmt.Errorf("anthropic API call failed: %w", err)}
	}

	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			return llm.NewRawCompletion(textBlock.Text), nil
		}
	}
	return llm.RawCompletion{}, nil
}
