package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdrabosoliman1973/Soliman25/internal/envsetup"
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/logger"
	"github.com/abdrabosoliman1973/Soliman25/internal/paraphrase"
	"github.com/abdrabosoliman1973/Soliman25/internal/provider"
	"github.com/abdrabosoliman1973/Soliman25/internal/sanitize"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/samber/lo"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type input struct {
	name string
	text string
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("paraphrase")

	var (
		providerName    = fs.StringEnumLong("provider", "completion provider", provider.Names...)
		completionURL   = fs.StringLong("completion-url", "", "base URL of the OpenAI-compatible completion server")
		model           = fs.StringLong("model", "", "model name (provider default when empty)")
		mode            = fs.StringEnumLong("mode", "prompt mode: chat or instruct", string(llm.ModeChat), string(llm.ModeInstruct))
		maxTokens       = fs.IntLong("max-tokens", llm.DefaultMaxTokens, "maximum tokens to generate")
		temperature     = fs.Float64Long("temperature", llm.DefaultTemperature, "sampling temperature")
		topP            = fs.Float64Long("top-p", llm.DefaultTopP, "nucleus sampling probability")
		timeout         = fs.DurationLong("timeout", paraphrase.DefaultTimeout, "completion request timeout")
		anthropicAPIKey = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleAPIKey    = fs.StringLong("google-api-key", "", "Google API key")
		concurrency     = fs.IntLong("concurrency", 1, "files paraphrased at once")
		setup           = fs.BoolLong("setup", "run the .env setup wizard and exit")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "paraphrase [FLAGS] [FILE...]"))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if wantsSetup(*setup, envsetup.NeedsSetup(), envsetup.Interactive(), fs.GetArgs()) {
		done, err := envsetup.Run()
		if err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}
		if !done {
			return errors.New("setup cancelled")
		}
		fmt.Fprintln(os.Stderr, "wrote .env; pipe text or pass files to paraphrase")
		return nil
	}

	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	if actualMode != llm.Mode(*mode) {
		log.WarnContext(ctx, "provider only supports chat mode", "provider", *providerName, "requested", *mode)
	}

	inputs, err := readInputs(fs.GetArgs(), os.Stdin)
	if err != nil {
		return err
	}

	p := paraphrase.New(client, actualMode, log,
		paraphrase.WithProvider(*providerName),
		paraphrase.WithTimeout(*timeout),
	)
	texts := lo.Map(inputs, func(in input, _ int) string { return in.text })
	results := p.RunAll(ctx, texts, paraphrase.Options{
		MaxTokens:   *maxTokens,
		Temperature: *temperature,
		TopP:        *topP,
	}, *concurrency)

	printResults(os.Stdout, inputs, results)

	failed := lo.CountBy(results, func(r sanitize.Result) bool { return !r.OK() })
	if failed > 0 {
		return fmt.Errorf("%d of %d paraphrases failed", failed, len(results))
	}
	return nil
}

// wantsSetup decides whether to run the wizard instead of paraphrasing.
// Without --setup it is offered only on a terminal with no .env and no input
// files, where reading stdin would otherwise wait on the keyboard.
func wantsSetup(flag, needsSetup, interactive bool, args []string) bool {
	return flag || (needsSetup && interactive && len(args) == 0)
}

// readInputs reads each named file, or stdin when no files are given.
func readInputs(paths []string, stdin io.Reader) ([]input, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, errors.New("no input text: pass files or pipe text on stdin")
		}
		return []input{{name: "-", text: string(data)}}, nil
	}

	inputs := make([]input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		inputs = append(inputs, input{name: path, text: string(data)})
	}
	return inputs, nil
}

func printResults(w io.Writer, inputs []input, results []sanitize.Result) {
	for i, res := range results {
		if len(inputs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", inputs[i].name)
		}
		fmt.Fprintln(w, res.String())
	}
}
