package llm

import "strings"

const SystemPrompt = `You are an expert academic writer. Paraphrase the following text while:
- Preserving all citations (e.g., Author et al., Year)
- Maintaining all numerical values and statistics
- Keeping technical terminology intact
- Enhancing clarity and readability
- Using varied sentence structures
- Maintaining the original meaning and tone.
Return only the paraphrased text. Do not include control symbols, tags, or markers.`

// DefaultStopSequences end instruct-mode generation when the model starts
// writing a new turn.
var DefaultStopSequences = []string{"</s>", "[INST]", "<|im_end|>", "<|endoftext|>", "USER:"}

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessages wraps text in the fixed system+user pair.
func ChatMessages(text string) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: text},
	}
}

// InstructPrompt renders text into the single-prompt template used by
// instruction-tuned models.
func InstructPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("[INST] <<SYS>>\n")
	sb.WriteString(SystemPrompt)
	sb.WriteString("\n<</SYS>>\n\n")
	sb.WriteString("Paraphrase the text below.\n\n")
	sb.WriteString(text)
	sb.WriteString(" [/INST]")
	return sb.String()
}
