package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/envsetup"
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/logger"
	"github.com/abdrabosoliman1973/Soliman25/internal/paraphrase"
	"github.com/abdrabosoliman1973/Soliman25/internal/provider"
	"github.com/abdrabosoliman1973/Soliman25/internal/web"
	"github.com/abdrabosoliman1973/Soliman25/internal/web/middleware"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
	slog.Info("exiting without error")
}

func mainE() error {
	if envsetup.NeedsSetup() && envsetup.Interactive() {
		if _, err := envsetup.Run(); err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}
	}
	_ = godotenv.Load()

	fs := ff.NewFlagSet("paraphrase-web")

	var (
		port            = fs.Int64Long("port", 3000, "HTTP server port")
		providerName    = fs.StringEnumLong("provider", "completion provider", provider.Names...)
		completionURL   = fs.StringLong("completion-url", "", "base URL of the OpenAI-compatible completion server")
		model           = fs.StringLong("model", "", "model name (provider default when empty)")
		mode            = fs.StringEnumLong("mode", "prompt mode: chat or instruct", string(llm.ModeChat), string(llm.ModeInstruct))
		timeout         = fs.DurationLong("timeout", paraphrase.DefaultTimeout, "completion request timeout")
		anthropicAPIKey = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleAPIKey    = fs.StringLong("google-api-key", "", "Google API key")
		apiKey          = fs.StringLong("api-key", "", "require this X-API-Key on paraphrase requests")
		rateLimit       = fs.IntLong("rate-limit", 30, "paraphrase requests per IP per minute (0 disables)")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	log := logger.New()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	client, actualMode, err := provider.New(ctx, provider.Config{
		Provider:        *providerName,
		BaseURL:         *completionURL,
		Model:           *model,
		Mode:            llm.Mode(*mode),
		Timeout:         *timeout,
		AnthropicAPIKey: *anthropicAPIKey,
		GoogleAPIKey:    *googleAPIKey,
	})
	if err != nil {
		return err
	}

	p := paraphrase.New(client, actualMode, log,
		paraphrase.WithProvider(*providerName),
		paraphrase.WithTimeout(*timeout),
	)

	var limiter *middleware.IPRateLimiter
	if *rateLimit > 0 {
		limiter = middleware.NewRateLimiter(*rateLimit, time.Minute)
	}

	router := web.NewRouter(p, log, *apiKey, limiter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// completions can take up to the client timeout
		WriteTimeout: *timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.InfoContext(ctx, "received signal, shutting down gracefully", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "server shutdown error", "error", err)
		}
		cancel(errors.New("signal received"))
	}()

	log.InfoContext(ctx, "starting web server", "port", *port, "provider", *providerName, "mode", actualMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
