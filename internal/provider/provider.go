// Package provider builds the completion client selected on the command line.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/anthropic"
	"github.com/abdrabosoliman1973/Soliman25/internal/google"
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/lmstudio"
)

const (
	LMStudio  = "lmstudio"
	Anthropic = "anthropic"
	Google    = "google"
)

// Names lists the accepted provider names, default first.
var Names = []string{LMStudio, Anthropic, Google}

type Config struct {
	Provider        string
	BaseURL         string
	Model           string
	Mode            llm.Mode
	Timeout         time.Duration
	AnthropicAPIKey string
	GoogleAPIKey    string
}

// New returns the client and the prompt mode it will actually use. Hosted
// providers only accept chat messages, so they always report chat mode.
func New(ctx context.Context, cfg Config) (llm.Client, llm.Mode, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = llm.ModeChat
	}
	if mode != llm.ModeChat && mode != llm.ModeInstruct {
		return nil, "", fmt.Errorf("unknown mode %q", mode)
	}

	switch cfg.Provider {
	case "", LMStudio:
		return lmstudio.NewClient(cfg.BaseURL, cfg.Model, mode, cfg.Timeout), mode, nil
	case Anthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, "", errors.New("anthropic-api-key is required when using anthropic provider")
		}
		return anthropic.NewClient(cfg.AnthropicAPIKey, anthropic.Model(cfg.Model), cfg.Timeout), llm.ModeChat, nil
	case Google:
		if cfg.GoogleAPIKey == "" {
			return nil, "", errors.New("google-api-key is required when using google provider")
		}
		client, err := google.NewClient(ctx, cfg.GoogleAPIKey, google.Model(cfg.Model), cfg.Timeout)
		if err != nil {
			return nil, "", fmt.Errorf("creating Google client: %w", err)
		}
		return client, llm.ModeChat, nil
	}
	return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
}
