// Package paraphrase runs one text through a completion client and the
// sanitizer that matches the client's prompt mode.
package paraphrase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/metrics"
	"github.com/abdrabosoliman1973/Soliman25/internal/sanitize"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 180 * time.Second

// Options are the per-call generation settings. Zero MaxTokens and TopP
// fall back to the defaults; a zero Temperature is sent as is.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func DefaultOptions() Options {
	return Options{
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: llm.DefaultTemperature,
		TopP:        llm.DefaultTopP,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = llm.DefaultMaxTokens
	}
	if o.TopP <= 0 {
		o.TopP = llm.DefaultTopP
	}
	return o
}

type Paraphraser struct {
	client    llm.Client
	sanitizer sanitize.Sanitizer
	mode      llm.Mode
	provider  string
	timeout   time.Duration
	log       *slog.Logger
}

type Option func(*Paraphraser)

// WithProvider labels completion latency metrics.
func WithProvider(name string) Option {
	return func(p *Paraphraser) { p.provider = name }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Paraphraser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func New(client llm.Client, mode llm.Mode, log *slog.Logger, opts ...Option) *Paraphraser {
	if mode == "" {
		mode = llm.ModeChat
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Paraphraser{
		client:    client,
		sanitizer: sanitize.ForMode(mode),
		mode:      mode,
		provider:  "lmstudio",
		timeout:   DefaultTimeout,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Paraphraser) Mode() llm.Mode { return p.mode }

// Paraphrase returns the cleaned paraphrase, or a message starting with one
// of the sanitize failure prefixes.
func (p *Paraphraser) Paraphrase(ctx context.Context, text string, maxTokens int, temperature float64) string {
	return p.Run(ctx, text, Options{MaxTokens: maxTokens, Temperature: temperature}).String()
}

// Run performs one completion call and one sanitization pass. It never
// returns an error; every failure is encoded in the Result.
func (p *Paraphraser) Run(ctx context.Context, text string, opts Options) (res sanitize.Result) {
	opts = opts.withDefaults()

	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "completion client panicked", "panic", r)
			res = sanitize.UnexpectedFailure(fmt.Errorf("client panic: %v", r))
		}
		metrics.ParaphraseResults.WithLabelValues(string(p.mode), res.Kind.String()).Inc()
	}()

	var stop []string
	if p.mode == llm.ModeInstruct {
		stop = llm.DefaultStopSequences
	}
	req := llm.NewGenerationRequest(text, opts.MaxTokens, opts.Temperature, opts.TopP, stop)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.client.Send(ctx, req)
	elapsed := time.Since(start)
	metrics.CompletionDuration.WithLabelValues(p.provider).Observe(elapsed.Seconds())

	if err != nil {
		res = failure(err)
		p.log.WarnContext(ctx, "completion failed", "mode", p.mode, "result", res.Kind, "duration", elapsed, "error", err)
		return res
	}

	res = p.sanitizer.Sanitize(raw)
	p.log.DebugContext(ctx, "completion sanitized", "mode", p.mode, "result", res.Kind, "duration", elapsed,
		"raw_len", len(raw.Text), "clean_len", len(res.Text))
	return res
}

// failure maps a client error to its Result. Transport messages carry the
// underlying cause without the "transport:" wrapper text.
func failure(err error) sanitize.Result {
	switch {
	case llm.IsParse(err):
		return sanitize.ParseFailure()
	case llm.IsTransport(err):
		return sanitize.TransportFailure(llm.TransportCause(err))
	}
	return sanitize.UnexpectedFailure(err)
}

// RunAll paraphrases each text with an independent pipeline, at most limit
// at a time. Results are returned in input order.
func (p *Paraphraser) RunAll(ctx context.Context, texts []string, opts Options, limit int) []sanitize.Result {
	results := make([]sanitize.Result, len(texts))

	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, text := range texts {
		eg.Go(func() error {
			results[i] = p.Run(ctx, text, opts)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
