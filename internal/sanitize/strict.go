package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/samber/lo"
)

// StopTokens mark the model starting a new turn or section on its own.
// Strict mode keeps only what comes before the first one.
var StopTokens = []string{
	"<|im_end|>", "<|im_start|>",
	"<|endoftext|>", "<|eot_id|>",
	"<|user|>", "<|assistant|>",
	"### Instruction", "### Input", "### Response",
	"Human:", "User:",
}

// StrictSteps is the instruct-mode cleanup that runs before sentence
// extraction. Its output is the lightly-cleaned fallback text.
var StrictSteps = Pipeline{
	{Name: "decode_entities", Apply: DecodeEntities},
	{Name: "truncate_at_stop_token", Apply: TruncateAtStopToken},
	{Name: "strip_markers", Apply: StripMarkers},
	{Name: "filter_lines", Apply: FilterLines},
	{Name: "remove_pseudo_markup", Apply: RemovePseudoMarkup},
	{Name: "remove_caps_runs", Apply: RemoveCapsRuns},
	{Name: "collapse_punctuation", Apply: CollapsePunctuation},
	{Name: "normalize_whitespace", Apply: NormalizeWhitespace},
}

type Strict struct{}

func (Strict) Sanitize(raw llm.RawCompletion) Result {
	if !raw.Present {
		return Empty()
	}
	light := StrictSteps.RunUntilStable(raw.Text)
	if light == "" {
		return Empty()
	}
	if sentences := ExtractSentences(light); len(sentences) > 0 {
		return Success(strings.Join(sentences, " "))
	}
	// Repair can close a trailing fragment into a sentence; extracting from
	// the repaired text keeps a second pass from finding it later.
	repaired := RepairTruncation(light)
	if sentences := ExtractSentences(repaired); len(sentences) > 0 {
		return Success(strings.Join(sentences, " "))
	}
	return Success(repaired)
}

// TruncateAtStopToken cuts the text at the first stop token. Stop tokens
// that lead the text are trimmed instead, so an echoed header does not
// erase the answer that follows it.
func TruncateAtStopToken(s string) string {
	s = trimLeadingStops(s)
	cut := len(s)
	for _, tok := range StopTokens {
		if i := strings.Index(s, tok); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

func trimLeadingStops(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		tok, ok := lo.Find(StopTokens, func(t string) bool { return strings.HasPrefix(s, t) })
		if !ok {
			return s
		}
		s = strings.TrimLeft(s[len(tok):], ":")
	}
}

var (
	hasLetter     = regexp.MustCompile(`\p{L}`)
	headerLine    = regexp.MustCompile(`^\s*#{1,6}\s`)
	tagOnlyLine   = regexp.MustCompile(`^\s*(?:\[[^\]]*\]|<[^>]*>)\s*$`)
	roleLabelLine = regexp.MustCompile(`(?i)^\s*(?:assistant|user|system|human|response|instruction|paraphrased?(?:\s+text)?)\s*:?\s*$`)
	spelledOut    = regexp.MustCompile(`\b[A-Z]\b(?:\s+[A-Z]\b){4,}`)
)

func junkLine(line string) bool {
	switch {
	case strings.TrimSpace(line) == "":
		return true
	case !hasLetter.MatchString(line):
		return true
	case headerLine.MatchString(line), tagOnlyLine.MatchString(line), roleLabelLine.MatchString(line):
		return true
	}
	return spelledOut.MatchString(line)
}

// FilterLines drops blank, letterless, header, tag-only, role-label and
// spelled-out-capitals lines, joining the survivors with single spaces.
// Stop tokens never reach it; TruncateAtStopToken runs first.
func FilterLines(s string) string {
	lines := lo.Filter(strings.Split(s, "\n"), func(line string, _ int) bool {
		return !junkLine(line)
	})
	return strings.Join(lo.Map(lines, func(line string, _ int) string {
		return strings.TrimSpace(line)
	}), " ")
}

// ExtractSentences returns the sentence-shaped spans of s: text between
// sentence boundaries that starts with an uppercase letter, holds at least
// eight non-terminator characters and ends in terminal punctuation.
func ExtractSentences(s string) []string {
	return lo.Filter(splitSentences(s), func(span string, _ int) bool {
		return sentenceShaped(span)
	})
}

const minSentenceChars = 8

// splitSentences cuts s after a run of terminators (plus an optional closing
// quote) when whitespace and an uppercase letter, or the end of the text,
// follow. "3.5", "e.g. the" and "et al. (2020)" therefore stay in one span,
// and every span starts at a word boundary.
func splitSentences(s string) []string {
	var spans []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !terminal(r) {
			i += size
			continue
		}
		end := i + size
		for end < len(s) {
			r, n := utf8.DecodeRuneInString(s[end:])
			if !terminal(r) {
				break
			}
			end += n
		}
		if r, n := utf8.DecodeRuneInString(s[end:]); closingQuote(r) {
			end += n
		}
		if boundary(s[end:]) {
			if span := strings.TrimSpace(s[start:end]); span != "" {
				spans = append(spans, span)
			}
			start = end
		}
		i = end
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		spans = append(spans, rest)
	}
	return spans
}

func closingQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '”' || r == '’'
}

func boundary(rest string) bool {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	if len(trimmed) == len(rest) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	return unicode.IsUpper(r)
}

func sentenceShaped(span string) bool {
	first, _ := utf8.DecodeRuneInString(span)
	if !unicode.IsUpper(first) {
		return false
	}
	last, size := utf8.DecodeLastRuneInString(span)
	if closingQuote(last) {
		last, _ = utf8.DecodeLastRuneInString(span[:len(span)-size])
	}
	if !terminal(last) {
		return false
	}
	content := 0
	for _, r := range span {
		if !terminal(r) {
			content++
		}
	}
	return content >= minSentenceChars
}
