package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type completionBody struct {
	Choices  []completionChoice `json:"choices"`
	Text     json.RawMessage    `json:"text"`
	Message  *chatMessage       `json:"message"`
	Response json.RawMessage    `json:"response"`
}

type completionChoice struct {
	Message *chatMessage    `json:"message"`
	Text    json.RawMessage `json:"text"`
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// extractor pulls text out of one known response shape. ok is false when
// the shape is absent, in which case the next extractor is tried.
type extractor struct {
	name    string
	extract func(b *completionBody) (text string, ok bool)
}

// Order matters: the first shape present wins, even if its text is blank.
var extractors = []extractor{
	{name: "choices.message.content", extract: func(b *completionBody) (string, bool) {
		if len(b.Choices) == 0 || b.Choices[0].Message == nil {
			return "", false
		}
		return textValue(b.Choices[0].Message.Content)
	}},
	{name: "choices.text", extract: func(b *completionBody) (string, bool) {
		if len(b.Choices) == 0 {
			return "", false
		}
		return textValue(b.Choices[0].Text)
	}},
	{name: "text", extract: func(b *completionBody) (string, bool) {
		return textValue(b.Text)
	}},
	// Ollama /api/chat
	{name: "message.content", extract: func(b *completionBody) (string, bool) {
		if b.Message == nil {
			return "", false
		}
		return textValue(b.Message.Content)
	}},
	// Ollama /api/generate
	{name: "response", extract: func(b *completionBody) (string, bool) {
		return textValue(b.Response)
	}},
}

// ParseCompletion decodes a completion service response body and extracts
// its generated text. A body that is not a JSON object yields *ParseError.
func ParseCompletion(body []byte) (RawCompletion, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return RawCompletion{}, &ParseError{Err: errors.New("response is not a JSON object")}
	}

	var b completionBody
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return RawCompletion{}, &ParseError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	for _, e := range extractors {
		if text, ok := e.extract(&b); ok {
			return NewRawCompletion(text), nil
		}
	}
	return RawCompletion{}, nil
}

// textValue accepts a JSON string or an array of {"text": ...} parts.
// null, missing and other shapes are treated as absent.
func textValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p.Text)
		}
		return sb.String(), true
	}
	return "", false
}
