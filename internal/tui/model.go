package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QAPort is the TUI-facing subset of the Q&A service.
type QAPort interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Model is the Bubble Tea model for the interactive Q&A session.
type Model struct {
	service  QAPort
	input    textinput.Model
	viewport viewport.Model
	examples []string
	answer   string
	question string
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(service QAPort, examples []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the speech and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		examples: examples,
		status:   "Ready. Type a question, or q to quit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		headerLines := 2 + len(m.examples) + 1
		footerLines := 1
		reserved := headerLines + footerLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			switch strings.ToLower(q) {
			case "":
				m.status = "Please enter a question."
				return m, nil
			case "quit", "exit", "q":
				return m, tea.Quit
			}
			m.status = "Analyzing the speech..."
			answer, err := m.service.Answer(context.Background(), q)
			if err != nil {
				// One failed question never ends the session.
				m.status = "Error: " + err.Error()
				m.answer = ""
			} else {
				m.status = "Answered. Ask another question, or q to quit."
				m.answer = answer
				m.question = q
				m.input.SetValue("")
			}
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session layout and the current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("AmbedkarGPT - Q&A on \"Annihilation of Caste\"")
	sub := subtleStyle.Render("Answers come only from the speech itself.")
	var ex strings.Builder
	ex.WriteString(subtleStyle.Render("Example questions:"))
	for i, q := range m.examples {
		ex.WriteString("\n" + subtleStyle.Render("  "+strconv.Itoa(i+1)+". "+q))
	}
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + sub + "\n" + ex.String() + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == "" {
		return "No answer yet."
	}
	title := questionStyle.Render("Q: " + m.question)
	return title + "\n\n" + m.answer
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
