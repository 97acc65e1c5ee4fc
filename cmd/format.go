package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/suderio/turnflow/internal/engine"
	"github.com/suderio/turnflow/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	autocompleteStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#F25D94"))
)

// describeEntry renders one log entry as a single line.
func describeEntry(e engine.LogEntry) string {
	p := e.Action.Payload
	if p == nil {
		return fmt.Sprintf("[%d] %s", e.StateID, e.Action.Type)
	}

	who := p.PlayerID
	if who == "" {
		who = "-"
	}

	var line string
	switch e.Action.Type {
	case engine.ActionMakeMove:
		line = fmt.Sprintf("%s played %s", who, p.Type)
		if e.Redact {
			line += " (hidden)"
		} else if len(p.Args) > 0 {
			line += " " + compact(p.Args)
		}
	case engine.ActionGameEvent:
		if e.Automatic {
			line = p.Type
		} else {
			line = fmt.Sprintf("%s called %s", who, p.Type)
		}
		if len(p.Args) > 0 && p.Args[0] != nil {
			line += " " + compact(p.Args[0])
		}
	default:
		line = fmt.Sprintf("%s %s", who, strings.ToLower(string(e.Action.Type)))
	}

	if e.Metadata != nil {
		line += " " + infoStyle.Render(compact(e.Metadata))
	}
	return fmt.Sprintf("[%d] %s", e.StateID, line)
}

// describeResult renders what a command produced.
func describeResult(res *session.Result) []string {
	switch {
	case res.Help != "":
		return strings.Split(res.Help, "\n")
	case res.View != nil:
		return strings.Split(describeState(*res.View), "\n")
	case res.History != nil:
		lines := make([]string, 0, len(res.History))
		for _, e := range res.History {
			lines = append(lines, describeEntry(e))
		}
		return lines
	}

	lines := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		lines = append(lines, describeEntry(e))
	}
	return lines
}

// describeState renders the context summary followed by G.
func describeState(s engine.State) string {
	var b strings.Builder
	ctx := s.Ctx

	fmt.Fprintf(&b, "Turn %d", ctx.Turn)
	if ctx.Phase != "" {
		fmt.Fprintf(&b, " | phase %s", ctx.Phase)
	}
	fmt.Fprintf(&b, " | current %s | order %s\n", ctx.CurrentPlayer, strings.Join(ctx.PlayOrder, ","))

	if ctx.ActivePlayers != nil {
		ids := make([]string, 0, len(ctx.ActivePlayers))
		for id := range ctx.ActivePlayers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			stage := ctx.ActivePlayers[id]
			if stage == engine.StageNull {
				parts = append(parts, id)
			} else {
				parts = append(parts, id+"="+stage)
			}
		}
		fmt.Fprintf(&b, "Active: %s\n", strings.Join(parts, " "))
	}
	if ctx.IsGameOver() {
		fmt.Fprintf(&b, "Game over: %s\n", compact(ctx.Gameover))
	}

	g, err := json.MarshalIndent(s.G, "", "  ")
	if err != nil {
		g = []byte(fmt.Sprintf("%v", s.G))
	}
	b.WriteString(string(g))
	return b.String()
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
