package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/abdrabosoliman1973/Soliman25/internal/paraphrase"
	"github.com/abdrabosoliman1973/Soliman25/internal/sanitize"
	"github.com/abdrabosoliman1973/Soliman25/internal/web/middleware"
)

const (
	maxTextChars = 20000
	maxBodyBytes = 1 << 20
	maxTokens    = 32768
)

// Runner is satisfied by *paraphrase.Paraphraser.
type Runner interface {
	Run(ctx context.Context, text string, opts paraphrase.Options) sanitize.Result
}

type ParaphraseHandler struct {
	runner Runner
	log    *slog.Logger
}

func NewParaphraseHandler(runner Runner, log *slog.Logger) *ParaphraseHandler {
	return &ParaphraseHandler{runner: runner, log: log}
}

type paraphraseRequest struct {
	Text        string   `json:"text"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

type paraphraseResponse struct {
	Result string `json:"result"`
	Text   string `json:"text"`
}

func (h *ParaphraseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paraphraseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts, msg := req.options()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res := h.runner.Run(r.Context(), req.Text, opts)

	status := http.StatusOK
	switch res.Kind {
	case sanitize.KindTransportError, sanitize.KindParseError:
		status = http.StatusBadGateway
	case sanitize.KindUnexpectedError:
		status = http.StatusInternalServerError
	}
	if status != http.StatusOK {
		h.log.WarnContext(r.Context(), "paraphrase failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"result", res.Kind,
			"detail", res.Text,
		)
	}

	writeJSON(w, status, paraphraseResponse{
		Result: res.Kind.String(),
		Text:   res.Text,
	})
}

func (req paraphraseRequest) options() (paraphrase.Options, string) {
	opts := paraphrase.DefaultOptions()

	if strings.TrimSpace(req.Text) == "" {
		return opts, "text is required"
	}
	if utf8.RuneCountInString(req.Text) > maxTextChars {
		return opts, "text must be 20000 characters or fewer"
	}
	if req.MaxTokens != nil {
		if *req.MaxTokens < 1 || *req.MaxTokens > maxTokens {
			return opts, "max_tokens must be between 1 and 32768"
		}
		opts.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		if *req.Temperature < 0 || *req.Temperature > 2 {
			return opts, "temperature must be between 0 and 2"
		}
		opts.Temperature = *req.Temperature
	}
	return opts, ""
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
