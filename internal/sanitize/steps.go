package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/samber/lo"
)

// LenientSteps is the chat-mode cleanup, in order. Later steps assume the
// earlier ones already removed escaping and markup. Truncation repair runs
// once, after the steps have settled.
var LenientSteps = Pipeline{
	{Name: "decode_entities", Apply: DecodeEntities},
	{Name: "strip_markers", Apply: StripMarkers},
	{Name: "remove_pseudo_markup", Apply: RemovePseudoMarkup},
	{Name: "remove_caps_runs", Apply: RemoveCapsRuns},
	{Name: "collapse_punctuation", Apply: CollapsePunctuation},
	{Name: "normalize_whitespace", Apply: NormalizeWhitespace},
}

type Lenient struct{}

func (Lenient) Sanitize(raw llm.RawCompletion) Result {
	if !raw.Present {
		return Empty()
	}
	text := LenientSteps.RunUntilStable(raw.Text)
	if text == "" {
		return Empty()
	}
	return Success(RepairTruncation(text))
}

// DecodeEntities converts HTML/XML character entities to literal text,
// repeating until nothing decodes further so "&amp;lt;" ends up as "<".
func DecodeEntities(s string) string {
	for {
		next := html.UnescapeString(s)
		if next == s {
			return s
		}
		s = next
	}
}

// Markers are removed as exact, case-sensitive substrings.
var Markers = []string{
	"<s>", "</s>",
	"[INST]", "[/INST]",
	"<<SYS>>", "<</SYS>>",
	"ASSISTANT:", "USER:",
	"```", "**",
}

var markerReplacer = strings.NewReplacer(lo.FlatMap(Markers, func(m string, _ int) []string {
	return []string{m, ""}
})...)

// StripMarkers removes structural role and delimiter markers. Removal
// repeats until stable, so "<<s>s>" cannot leave a "<s>" behind.
func StripMarkers(s string) string {
	for {
		next := markerReplacer.Replace(s)
		if next == s {
			return s
		}
		s = next
	}
}

// junkWords is the pseudo-tag vocabulary, longest alternatives first.
const junkWords = `BLETER|BLET|ENDLIST|SECTION|LIST|LET|UL`

// pseudoMarkup is applied in order; each match becomes a single space.
// Ordinary words such as "list" or "let" survive unless they show up in a
// tag, before "::", glued to another junk word, or in an uppercase run.
var pseudoMarkup = []*regexp.Regexp{
	// symbol runs
	regexp.MustCompile(`-{2,}|#{3,}|@{3,}|\|{2,}|\\+`),
	// <ul>, </LIST>, [SECTION], [/list]
	regexp.MustCompile(`(?i)(?:</?\s*(?:` + junkWords + `)\s*/?>|\[/?\s*(?:` + junkWords + `)\s*\])+`),
	// SECTION::, list ::
	regexp.MustCompile(`(?i)\b(?:` + junkWords + `)\s*:{2,}`),
	regexp.MustCompile(`:{2,}`),
	// tokens that are never English words
	regexp.MustCompile(`(?i)\b(?:BLETER|BLET|ENDLIST)\b`),
	// BLETBLET, listlist
	regexp.MustCompile(`(?i)\b(?:` + junkWords + `){2,}\b`),
	// LIST, UL UL UL; uppercase only, so prose "list" and "let" survive
	regexp.MustCompile(`\b(?:` + junkWords + `)(?:\s+(?:` + junkWords + `))*\b`),
}

// RemovePseudoMarkup drops list pseudo-tags, section markers, double-colon
// markers and dash/pipe/backslash runs the model emits as noise.
func RemovePseudoMarkup(s string) string {
	for _, re := range pseudoMarkup {
		s = re.ReplaceAllString(s, " ")
	}
	return s
}

var capsRun = regexp.MustCompile(`\b[A-Z]{3,}(?:\s+[A-Z]{3,}\b){2,}`)

// RemoveCapsRuns deletes three or more consecutive all-uppercase tokens of
// at least three letters, the loud placeholder headers some models emit.
func RemoveCapsRuns(s string) string {
	return capsRun.ReplaceAllString(s, " ")
}

func collapsible(r rune) bool {
	switch r {
	case ':', ';', '.', ',', '-', '!', '?':
		return true
	}
	return false
}

// CollapsePunctuation reduces a run of the same punctuation mark to one.
func CollapsePunctuation(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prev := rune(-1)
	for _, r := range s {
		if r == prev && collapsible(r) {
			continue
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]{2,}`)

func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// RepairTruncation appends a period when the text does not end a sentence.
// It cannot tell a clean ending from a mid-clause cutoff; it only makes the
// output end like prose.
func RepairTruncation(s string) string {
	if s == "" || endsSentence(s) {
		return s
	}
	return s + "."
}

func terminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func endsSentence(s string) bool {
	last, size := utf8.DecodeLastRuneInString(s)
	switch {
	case terminal(last), last == '”':
		return true
	case last == '"', last == '\'', last == '’':
		prev, _ := utf8.DecodeLastRuneInString(s[:len(s)-size])
		return terminal(prev)
	}
	return false
}
