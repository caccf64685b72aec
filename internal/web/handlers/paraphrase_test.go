package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abdrabosoliman1973/Soliman25/internal/paraphrase"
	"github.com/abdrabosoliman1973/Soliman25/internal/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	called bool
	text   string
	opts   paraphrase.Options
	result sanitize.Result
}

func (f *fakeRunner) Run(_ context.Context, text string, opts paraphrase.Options) sanitize.Result {
	f.called = true
	f.text = text
	f.opts = opts
	return f.result
}

func post(t *testing.T, h *ParaphraseHandler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/paraphrase", strings.NewReader(body)))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return rec, got
}

func TestCreateStatuses(t *testing.T) {
	tests := []struct {
		name       string
		result     sanitize.Result
		wantStatus int
		wantKind   string
	}{
		{"success", sanitize.Success("Reworded."), http.StatusOK, "success"},
		{"empty", sanitize.Empty(), http.StatusOK, "empty"},
		{"transport", sanitize.TransportFailure(errors.New("connection refused")), http.StatusBadGateway, "transport_error"},
		{"parse", sanitize.ParseFailure(), http.StatusBadGateway, "parse_error"},
		{"unexpected", sanitize.UnexpectedFailure(errors.New("client panic: nil map")), http.StatusInternalServerError, "unexpected_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result}
			rec, got := post(t, NewParaphraseHandler(runner, slog.New(slog.DiscardHandler)), `{"text":"Original."}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, got["result"])
			assert.Equal(t, tt.result.Text, got["text"])
		})
	}
}

func TestCreateOptions(t *testing.T) {
	runner := &fakeRunner{result: sanitize.Success("ok.")}
	h := NewParaphraseHandler(runner, slog.New(slog.DiscardHandler))

	post(t, h, `{"text":"Original."}`)
	assert.Equal(t, paraphrase.DefaultOptions(), runner.opts)

	post(t, h, `{"text":"Original.","max_tokens":128,"temperature":0}`)
	assert.Equal(t, "Original.", runner.text)
	assert.Equal(t, 128, runner.opts.MaxTokens)
	assert.Equal(t, 0.0, runner.opts.Temperature)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{"text":`, "invalid JSON body"},
		{"missing text", `{}`, "text is required"},
		{"blank text", `{"text":"   "}`, "text is required"},
		{"too long", `{"text":"` + strings.Repeat("a", maxTextChars+1) + `"}`, "text must be 20000 characters or fewer"},
		{"max tokens", `{"text":"x","max_tokens":0}`, "max_tokens must be between 1 and 32768"},
		{"temperature", `{"text":"x","temperature":2.5}`, "temperature must be between 0 and 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			rec, got := post(t, NewParaphraseHandler(runner, slog.New(slog.DiscardHandler)), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, got["error"])
			assert.False(t, runner.called)
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
