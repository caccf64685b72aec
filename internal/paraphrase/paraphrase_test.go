package paraphrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/lmstudio"
	"github.com/abdrabosoliman1973/Soliman25/internal/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu   sync.Mutex
	reqs []llm.GenerationRequest
	send func(ctx context.Context, req llm.GenerationRequest) (llm.RawCompletion, error)
}

func (f *fakeClient) Send(ctx context.Context, req llm.GenerationRequest) (llm.RawCompletion, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.send(ctx, req)
}

func returning(raw llm.RawCompletion, err error) *fakeClient {
	return &fakeClient{send: func(context.Context, llm.GenerationRequest) (llm.RawCompletion, error) {
		return raw, err
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestParaphraseOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		want   string
	}{
		{"success", returning(llm.NewRawCompletion("ASSISTANT: Results improved\n\n\nsignificantly"), nil),
			"Results improved significantly."},
		{"empty", returning(llm.RawCompletion{}, nil), sanitize.EmptyMessage},
		{"markers only", returning(llm.NewRawCompletion("<s>[INST]</s>"), nil), sanitize.EmptyMessage},
		{"parse error", returning(llm.RawCompletion{}, &llm.ParseError{Err: errors.New("bad json")}), sanitize.MalformedMessage},
		{"transport error", returning(llm.RawCompletion{}, &llm.TransportError{Err: errors.New("dial tcp: connection refused")}),
			sanitize.ConnectionErrorPrefix + "dial tcp: connection refused"},
		{"wrapped parse error", returning(llm.RawCompletion{}, fmt.Errorf("decoding: %w", &llm.ParseError{Err: errors.New("eof")})),
			sanitize.MalformedMessage},
		{"wrapped transport error", returning(llm.RawCompletion{}, fmt.Errorf("send: %w", &llm.TransportError{Err: errors.New("EOF")})),
			sanitize.ConnectionErrorPrefix + "EOF"},
		{"unclassified error", returning(llm.RawCompletion{}, errors.New("boom")), sanitize.UnexpectedErrorPrefix + "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.client, llm.ModeChat, quietLogger())
			assert.Equal(t, tt.want, p.Paraphrase(context.Background(), "Some text.", llm.DefaultMaxTokens, llm.DefaultTemperature))
		})
	}
}

func TestRunBuildsRequest(t *testing.T) {
	client := returning(llm.NewRawCompletion("The findings were replicated in 2021."), nil)

	p := New(client, llm.ModeChat, quietLogger())
	p.Paraphrase(context.Background(), "Original text.", 0, 0)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, "Original text.", req.Instruction)
	assert.Equal(t, llm.DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, 0.0, req.Temperature)
	assert.Equal(t, llm.DefaultTopP, req.TopP)
	assert.Empty(t, req.StopSequences)
}

func TestRunInstructModeUsesStrictSanitizer(t *testing.T) {
	client := returning(llm.NewRawCompletion("Section:: junk here. Real Finding: Results improved significantly over baseline."), nil)

	p := New(client, llm.ModeInstruct, quietLogger())
	res := p.Run(context.Background(), "x", DefaultOptions())

	assert.Equal(t, sanitize.Success("Real Finding: Results improved significantly over baseline."), res)
	require.Len(t, client.reqs, 1)
	assert.Equal(t, llm.DefaultStopSequences, client.reqs[0].StopSequences)
	assert.Equal(t, llm.ModeInstruct, p.Mode())
}

func TestRunTimeout(t *testing.T) {
	client := &fakeClient{send: func(ctx context.Context, _ llm.GenerationRequest) (llm.RawCompletion, error) {
		<-ctx.Done()
		return llm.RawCompletion{}, &llm.TransportError{Err: ctx.Err()}
	}}

	p := New(client, llm.ModeChat, quietLogger(), WithTimeout(20*time.Millisecond))
	res := p.Run(context.Background(), "x", DefaultOptions())
	assert.Equal(t, sanitize.KindTransportError, res.Kind)
	assert.Contains(t, res.Text, "deadline exceeded")
}

func TestRunRecoversFromClientPanic(t *testing.T) {
	client := &fakeClient{send: func(context.Context, llm.GenerationRequest) (llm.RawCompletion, error) {
		panic("nil map")
	}}

	res := New(client, llm.ModeChat, quietLogger()).Run(context.Background(), "x", DefaultOptions())
	assert.Equal(t, sanitize.KindUnexpectedError, res.Kind)
	assert.Equal(t, sanitize.UnexpectedErrorPrefix+"client panic: nil map", res.Text)
}

func TestRunAllKeepsOrderAndLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	client := &fakeClient{send: func(_ context.Context, req llm.GenerationRequest) (llm.RawCompletion, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return llm.NewRawCompletion("Echo of " + req.Instruction), nil
	}}

	texts := []string{"one", "two", "three", "four", "five", "six"}
	results := New(client, llm.ModeChat, quietLogger()).RunAll(context.Background(), texts, DefaultOptions(), 2)

	require.Len(t, results, len(texts))
	for i, text := range texts {
		assert.Equal(t, sanitize.Success("Echo of "+text+"."), results[i])
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestParaphraseAgainstLocalServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"wait... really??"}}]}`))
	}))
	defer srv.Close()

	p := New(lmstudio.NewClient(srv.URL, "", llm.ModeChat, time.Second), llm.ModeChat, quietLogger())
	assert.Equal(t, "wait. really?", p.Paraphrase(context.Background(), "x", 100, 0.7))

	srv.Close()
	got := p.Paraphrase(context.Background(), "x", 100, 0.7)
	assert.True(t, strings.HasPrefix(got, sanitize.ConnectionErrorPrefix), got)
}
