// envsetup provides a lightweight .env configuration wizard.
// It runs on first startup when no .env file exists (or with --setup),
// collecting the completion provider, its endpoint or credentials, the
// model name and the prompt mode.
package envsetup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abdrabosoliman1973/Soliman25/internal/anthropic"
	"github.com/abdrabosoliman1973/Soliman25/internal/google"
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/lmstudio"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const envFile = ".env"

type step int

const (
	stepWelcome step = iota
	stepProvider
	stepEndpoint
	stepModel
	stepMode
	stepConfirm
	stepDone
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Values is what the wizard collects. Endpoint holds the completion URL for
// lmstudio and the API key for hosted providers.
type Values struct {
	Provider string
	Endpoint string
	Model    string
	Mode     llm.Mode
}

// EnvContent renders v as .env lines using the variable names the command
// line flags read.
func EnvContent(v Values) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROVIDER=%s\n", v.Provider)
	switch v.Provider {
	case "anthropic":
		fmt.Fprintf(&b, "ANTHROPIC_API_KEY=%s\n", v.Endpoint)
	case "google":
		fmt.Fprintf(&b, "GOOGLE_API_KEY=%s\n", v.Endpoint)
	default:
		fmt.Fprintf(&b, "COMPLETION_URL=%s\n", v.Endpoint)
	}
	fmt.Fprintf(&b, "MODEL=%s\n", v.Model)
	fmt.Fprintf(&b, "MODE=%s\n", v.Mode)
	return b.String()
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return string(anthropic.DefaultModel)
	case "google":
		return string(google.DefaultModel)
	}
	return lmstudio.DefaultModel
}

type model struct {
	step      step
	values    Values
	textInput textinput.Model
	path      string
	err       error
}

func New() model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	return model{step: stepWelcome, textInput: ti, path: envFile}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) next(s step) model {
	m.step = s
	m.textInput.Reset()
	m.textInput.EchoMode = textinput.EchoNormal
	m.textInput.Placeholder = ""
	switch s {
	case stepEndpoint:
		if m.values.Provider == "lmstudio" {
			m.textInput.Placeholder = lmstudio.DefaultBaseURL
		} else {
			m.textInput.EchoMode = textinput.EchoPassword
		}
	case stepModel:
		m.textInput.Placeholder = defaultModel(m.values.Provider)
	case stepMode:
		m.textInput.Placeholder = string(llm.ModeChat)
	}
	return m
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil
	input := strings.TrimSpace(m.textInput.Value())

	switch m.step {
	case stepWelcome:
		m = m.next(stepProvider)

	case stepProvider:
		switch strings.ToLower(input) {
		case "1", "lmstudio":
			m.values.Provider = "lmstudio"
		case "2", "anthropic":
			m.values.Provider = "anthropic"
		case "3", "google":
			m.values.Provider = "google"
		default:
			m.err = errors.New("please enter 1, 2 or 3")
			return m, nil
		}
		m = m.next(stepEndpoint)

	case stepEndpoint:
		if input == "" {
			if m.values.Provider != "lmstudio" {
				m.err = errors.New("API key is required")
				return m, nil
			}
			input = lmstudio.DefaultBaseURL
		}
		m.values.Endpoint = input
		m = m.next(stepModel)

	case stepModel:
		if input == "" {
			input = defaultModel(m.values.Provider)
		}
		m.values.Model = input
		if m.values.Provider != "lmstudio" {
			// hosted providers only speak chat
			m.values.Mode = llm.ModeChat
			m = m.next(stepConfirm)
		} else {
			m = m.next(stepMode)
		}

	case stepMode:
		switch llm.Mode(strings.ToLower(input)) {
		case "", llm.ModeChat:
			m.values.Mode = llm.ModeChat
		case llm.ModeInstruct:
			m.values.Mode = llm.ModeInstruct
		default:
			m.err = errors.New("mode must be chat or instruct")
			return m, nil
		}
		m = m.next(stepConfirm)

	case stepConfirm:
		switch strings.ToLower(input) {
		case "", "y", "yes":
			if err := os.WriteFile(m.path, []byte(EnvContent(m.values)), 0600); err != nil {
				m.err = err
				return m, nil
			}
			m.step = stepDone
			return m, tea.Quit
		case "n", "no":
			m.values = Values{}
			m = m.next(stepWelcome)
		}
	}

	return m, nil
}

func (m model) View() string {
	var s strings.Builder

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("Paraphraser - Env Setup"))
		s.WriteString("\n\n")
		s.WriteString("This wizard writes a .env file for the paraphrase tools.\n")
		s.WriteString("You'll need either a local completion server (LM Studio,\n")
		s.WriteString("llama.cpp, Ollama) or an Anthropic or Google API key.\n\n")
		s.WriteString(dimStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepProvider:
		s.WriteString(titleStyle.Render("Step 1: Completion Provider"))
		s.WriteString("\n\n")
		s.WriteString("  1. Local OpenAI-compatible server (LM Studio)\n")
		s.WriteString("  2. Anthropic (Claude)\n")
		s.WriteString("  3. Google (Gemini / Gemma)\n\n")
		s.WriteString(labelStyle.Render("Enter 1, 2 or 3:"))

	case stepEndpoint:
		s.WriteString(titleStyle.Render("Step 2: Endpoint"))
		s.WriteString("\n\n")
		switch m.values.Provider {
		case "anthropic":
			s.WriteString("Create a key at " + linkStyle.Render("https://console.anthropic.com") + "\n\n")
			s.WriteString(labelStyle.Render("Paste your Anthropic API key:"))
		case "google":
			s.WriteString("Create a key at " + linkStyle.Render("https://aistudio.google.com/apikey") + "\n\n")
			s.WriteString(labelStyle.Render("Paste your Google API key:"))
		default:
			s.WriteString(labelStyle.Render("Base URL of the completion server (Enter for default):"))
		}

	case stepModel:
		s.WriteString(titleStyle.Render("Step 3: Model"))
		s.WriteString("\n\n")
		s.WriteString(labelStyle.Render("Model name (Enter for default):"))

	case stepMode:
		s.WriteString(titleStyle.Render("Step 4: Prompt Mode"))
		s.WriteString("\n\n")
		s.WriteString("  chat      chat-tuned models, light cleanup\n")
		s.WriteString("  instruct  raw completion models, strict cleanup\n\n")
		s.WriteString(labelStyle.Render("Enter chat or instruct:"))

	case stepConfirm, stepDone:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		endpoint := m.values.Endpoint
		if m.values.Provider != "lmstudio" {
			endpoint = maskToken(endpoint)
		}
		s.WriteString("  Provider: " + successStyle.Render(m.values.Provider) + "\n")
		s.WriteString("  Endpoint: " + successStyle.Render(endpoint) + "\n")
		s.WriteString("  Model:    " + successStyle.Render(m.values.Model) + "\n")
		s.WriteString("  Mode:     " + successStyle.Render(string(m.values.Mode)) + "\n\n")
		s.WriteString(labelStyle.Render("Save this configuration? [Y/n]:"))
	}

	if m.step != stepWelcome && m.step != stepDone {
		s.WriteString("\n")
		s.WriteString(m.textInput.View())
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	s.WriteString("\n")
	return s.String()
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the setup wizard and returns true if a .env file was written.
func Run() (bool, error) {
	p := tea.NewProgram(New())
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(model)
	return m.step == stepDone, nil
}

// NeedsSetup reports whether the working directory has no .env file.
func NeedsSetup() bool {
	_, err := os.Stat(envFile)
	return os.IsNotExist(err)
}

// Interactive reports whether stdin and stdout are both terminals, the only
// case where the wizard can be offered unprompted.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}
