package llm

import (
	"context"
	"slices"
	"strings"
)

// Mode selects how a completion service is prompted and, downstream, which
// sanitizer cleans its output.
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeInstruct Mode = "instruct"
)

// Generation defaults used when a caller does not override them.
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
	DefaultTopP        = 0.95
)

// Client sends one generation request to a completion service.
// Errors are always *TransportError or *ParseError.
type Client interface {
	Send(ctx context.Context, req GenerationRequest) (RawCompletion, error)
}

// GenerationRequest is built once with NewGenerationRequest and passed by
// value. Fields are forwarded to the service without validation.
type GenerationRequest struct {
	Instruction   string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	StopSequences []string
}

func NewGenerationRequest(text string, maxTokens int, temperature, topP float64, stop []string) GenerationRequest {
	return GenerationRequest{
		Instruction:   text,
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		TopP:          topP,
		StopSequences: slices.Clone(stop),
	}
}

// RawCompletion is the best-effort text pulled out of a service response.
// Present is false when no known response shape yielded non-blank text.
type RawCompletion struct {
	Text    string
	Present bool
}

func NewRawCompletion(text string) RawCompletion {
	if strings.TrimSpace(text) == "" {
		return RawCompletion{}
	}
	return RawCompletion{Text: text, Present: true}
}
