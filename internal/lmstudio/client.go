// Package lmstudio talks to a locally hosted, OpenAI-compatible completion
// server such as LM Studio, llama.cpp or Ollama's /v1 endpoints.
package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
)

const (
	DefaultBaseURL = "http://localhost:1234"
	DefaultModel   = "mistral-7b-instruct"
	DefaultTimeout = 180 * time.Second
)

// Client sends chat-formatted requests to /v1/chat/completions, or
// instruction-formatted prompts to /v1/completions in instruct mode.
type Client struct {
	baseURL    string
	model      string
	mode       llm.Mode
	httpClient *http.Client
}

func NewClient(baseURL, model string, mode llm.Mode, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if mode == "" {
		mode = llm.ModeChat
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		mode:       mode,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Mode() llm.Mode { return c.mode }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type instructRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stream      bool     `json:"stream"`
	Stop        []string `json:"stop,omitempty"`
}

func (c *Client) Send(ctx context.Context, req llm.GenerationRequest) (llm.RawCompletion, error) {
	path, payload := c.buildPayload(req)

	body, err := json.Marshal(payload)
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.RawCompletion{}, &llm.TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.RawCompletion{}, &llm.TransportError{Err: statusError(resp.StatusCode, respBody)}
	}

	return llm.ParseCompletion(respBody)
}

func (c *Client) buildPayload(req llm.GenerationRequest) (string, any) {
	if c.mode == llm.ModeInstruct {
		return "/v1/completions", instructRequest{
			Model:       c.model,
			Prompt:      llm.InstructPrompt(req.Instruction),
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			TopP:        req.TopP,
			Stream:      false,
			Stop:        req.StopSequences,
		}
	}
	return "/v1/chat/completions", chatRequest{
		Model:       c.model,
		Messages:    llm.ChatMessages(req.Instruction),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      false,
	}
}

const maxErrorBody = 200

func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	if msg == "" {
		return fmt.Errorf("status %d %s", code, http.StatusText(code))
	}
	return fmt.Errorf("status %d: %s", code, msg)
}
