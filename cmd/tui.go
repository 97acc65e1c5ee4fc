package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/suderio/turnflow/internal/session"
)

type suggestion string

func (s suggestion) Title() string       { return string(s) }
func (s suggestion) Description() string { return "" }
func (s suggestion) FilterValue() string { return string(s) }

type replModel struct {
	app         *session.Session
	textInput   textinput.Model
	viewport    viewport.Model
	suggestions list.Model
	history     []string
	historyIdx  int
	logContent  string
	width       int
	height      int
	showList    bool
}

func newREPLModel(app *session.Session) replModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g., move mark 4)..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	welcome := fmt.Sprintf("Match %s of %s.\nType 'help' for commands, 'exit' to quit.", app.Info().ID, app.Info().Game)
	vp := viewport.New(0, 0)
	vp.SetContent(welcome)

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	sugList := list.New([]list.Item{}, delegate, 50, 7)
	sugList.SetShowTitle(false)
	sugList.SetShowStatusBar(false)
	sugList.SetFilteringEnabled(false) // We filter manually
	sugList.SetShowHelp(false)

	return replModel{
		app:         app,
		textInput:   ti,
		viewport:    vp,
		suggestions: sugList,
		history:     []string{},
		historyIdx:  -1,
		logContent:  welcome,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) updateSuggestions() {
	items := completions(m.app, m.textInput.Value())

	m.suggestions.SetItems(items)
	m.showList = len(items) > 0
	if m.showList {
		h := min(len(items), 10)
		m.suggestions.SetHeight(max(h, 4))
		m.suggestions.ResetSelected()
	}
}

// completions offers commands, the game's moves and events, and player ids
// after "by:" or "as:".
func completions(app *session.Session, val string) []list.Item {
	var items []list.Item
	if val == "" {
		return items
	}
	lower := strings.ToLower(val)

	for _, marker := range []string{" by: ", " as: "} {
		if i := strings.LastIndex(lower, marker); i >= 0 {
			prefix := lower[i+len(marker):]
			base := val[:i+len(marker)]
			for _, id := range app.State().Ctx.PlayOrder {
				if strings.HasPrefix(id, prefix) && len(prefix) < len(id) {
					items = append(items, suggestion(base+id))
				}
			}
			return items
		}
	}

	candidates := []string{"undo", "redo", "state", "log", "help", "exit", "quit"}
	game := app.Game()
	for _, name := range game.MoveNames() {
		candidates = append(candidates, "move "+name+" ")
	}
	for _, e := range game.Flow.EnabledEventNames() {
		candidates = append(candidates, "event "+string(e)+" ")
	}

	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) && len(val) < len(c) {
			items = append(items, suggestion(c))
		}
	}
	return items
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		lsCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.history) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.history[m.historyIdx])
				m.updateSuggestions()
			}

		case tea.KeyDown:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 && m.historyIdx != -1 {
				if m.historyIdx < len(m.history)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.history[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.updateSuggestions()
			}

		case tea.KeyTab:
			if m.showList {
				if i, ok := m.suggestions.SelectedItem().(suggestion); ok {
					m.textInput.SetValue(string(i))
					m.textInput.SetCursor(len(string(i)))
					m.updateSuggestions()
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}
			if val != "" {
				m.submit(val)
			}

		default:
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.suggestions.SetWidth(msg.Width - 6)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	titleH := lipgloss.Height(titleStyle.Render("Dummy"))
	stateH := lipgloss.Height(m.renderState())
	inputH := 1

	listAreaHeight := 0
	if m.showList {
		listAreaHeight = m.suggestions.Height() + 2 // autocompleteStyle borders
	}

	infoH := lipgloss.Height(infoStyle.Render("Dummy"))
	paddingH := 7

	overhead := titleH + stateH + inputH + listAreaHeight + infoH + paddingH + 4
	m.viewport.Height = max(m.height-overhead, 4)

	return m, tea.Batch(tiCmd, vpCmd, lsCmd)
}

// submit runs one command and appends its output to the log pane.
func (m *replModel) submit(val string) {
	if len(m.history) == 0 || m.history[len(m.history)-1] != val {
		m.history = append(m.history, val)
	}
	m.historyIdx = -1
	m.textInput.SetValue("")
	m.updateSuggestions()

	m.logContent += fmt.Sprintf("\n\n> %s\n", val)
	res, err := m.app.Execute(val)
	if err != nil {
		m.logContent += errorStyle.Render(fmt.Sprintf("Error: %v", err))
	} else {
		m.logContent += strings.Join(describeResult(res), "\n")
	}

	m.viewport.SetContent(m.logContent)
	m.viewport.GotoBottom()
}

func (m *replModel) renderState() string {
	stateView := "=== Match State ===\n\n" + describeState(m.app.State())
	return stateBoxStyle.Width(m.width - 4).Render(stateView)
}

func (m *replModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	info := m.app.Info()
	title := titleStyle.Render(fmt.Sprintf(" turnflow | %s / %s ", info.Game, info.ID))
	stateBox := m.renderState()
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	inputArea := m.textInput.View()
	if m.showList {
		inputArea = fmt.Sprintf("%s\n%s", inputArea, autocompleteStyle.Render(m.suggestions.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		stateBox,
		logBox,
		"\n",
		inputArea,
		infoStyle.Render("(esc to quit, tab to complete, up/down history)"),
	)
}

// RunTUI runs the full-screen interface until the user quits.
func RunTUI(app *session.Session) error {
	m := newREPLModel(app)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
