// Package sanitize turns raw model output into clean, human-readable text.
//
// Cleanup is an ordered pipeline of independent text steps. Two strategies
// share the Sanitizer interface: Lenient for chat-formatted generations and
// Strict for instruction-formatted ones, which also cuts runaway turns,
// drops junk lines and keeps only sentence-shaped spans.
package sanitize

import (
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
)

// User-visible messages. Callers without access to Result.Kind can detect
// failures by these prefixes.
const (
	ConnectionErrorPrefix = "❌ Connection error: "
	UnexpectedErrorPrefix = "⚠️ Unexpected error: "
	MalformedMessage      = "⚠️ Response was malformed JSON. Try rerunning."
	EmptyMessage          = "⚠️ Model returned no text. Try increasing max_tokens or lowering temperature."
)

type Kind int

const (
	KindSuccess Kind = iota
	KindEmpty
	KindTransportError
	KindParseError
	KindUnexpectedError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	case KindTransportError:
		return "transport_error"
	case KindParseError:
		return "parse_error"
	case KindUnexpectedError:
		return "unexpected_error"
	}
	return "unknown"
}

// Result is the tagged outcome of one paraphrase. Text holds the cleaned
// paraphrase on success and the prefixed message otherwise.
type Result struct {
	Kind Kind
	Text string
}

func (r Result) OK() bool { return r.Kind == KindSuccess }

func (r Result) String() string { return r.Text }

func Success(text string) Result { return Result{Kind: KindSuccess, Text: text} }

func Empty() Result { return Result{Kind: KindEmpty, Text: EmptyMessage} }

func TransportFailure(err error) Result {
	return Result{Kind: KindTransportError, Text: ConnectionErrorPrefix + err.Error()}
}

func ParseFailure() Result { return Result{Kind: KindParseError, Text: MalformedMessage} }

// UnexpectedFailure reports an error that is neither a transport nor a
// parse failure, including a recovered client panic.
func UnexpectedFailure(err error) Result {
	return Result{Kind: KindUnexpectedError, Text: UnexpectedErrorPrefix + err.Error()}
}

// Sanitizer cleans one raw completion. Implementations are pure.
type Sanitizer interface {
	Sanitize(raw llm.RawCompletion) Result
}

// ForMode returns the sanitizer matching the prompt style that produced
// the text.
func ForMode(mode llm.Mode) Sanitizer {
	if mode == llm.ModeInstruct {
		return Strict{}
	}
	return Lenient{}
}

// Step is one named text transformation.
type Step struct {
	Name  string
	Apply func(string) string
}

type Pipeline []Step

func (p Pipeline) Run(text string) string {
	for _, s := range p {
		text = s.Apply(text)
	}
	return text
}

// maxPasses bounds RunUntilStable; real inputs settle in two or three.
const maxPasses = 16

// RunUntilStable repeats the pipeline until a full pass leaves the text
// unchanged. One step can expose junk an earlier step already passed over,
// as in "&a**mp;" becoming "&amp;" once the marker is stripped.
func (p Pipeline) RunUntilStable(text string) string {
	for range maxPasses {
		next := p.Run(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}
