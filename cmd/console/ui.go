package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/bgatm/replay-engine/internal/storage"
	"github.com/bgatm/replay-engine/pkg/replay"
)

// ConsoleUI is the BubbleTea model that runs the replay browser.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config   *ConsoleConfig
	client   *http.Client
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	err      error

	// Game list state
	loadingGames bool
	games        []storage.GameRecord
	selected     int

	// Detail view state
	showDetail    bool
	loadingReplay bool
	current       *replay.GameReplay
	currentJSON   []byte
	statusLine    string
}

type gamesLoadedMsg struct {
	games []storage.GameRecord
	err   error
}

type replayLoadedMsg struct {
	replay *replay.GameReplay
	raw    []byte
	err    error
}

type copiedMsg struct {
	err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	moveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		config:       cfg,
		client:       client,
		viewport:     vp,
		loadingGames: true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadGames()
}

func (m ConsoleUI) loadGames() tea.Cmd {
	return func() tea.Msg {
		games, err := listGames(m.client, m.config.APIBaseURL)
		return gamesLoadedMsg{games, err}
	}
}

func (m ConsoleUI) loadReplay(rec storage.GameRecord) tea.Cmd {
	return func() tea.Msg {
		g, raw, err := getReplay(m.client, m.config.APIBaseURL, rec.TableID, rec.Perspective)
		return replayLoadedMsg{g, raw, err}
	}
}

func (m ConsoleUI) copyJSON() tea.Cmd {
	data := string(m.currentJSON)
	return func() tea.Msg {
		return copiedMsg{clipboard.WriteAll(data)}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 4
		m.viewport.Height = m.height - 4
		m.ready = true
		if m.showDetail && m.current != nil {
			m.viewport.SetContent(m.renderReplay())
		}

	case gamesLoadedMsg:
		m.loadingGames = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.games = msg.games
			if m.selected >= len(m.games) {
				m.selected = 0
			}
		}

	case replayLoadedMsg:
		m.loadingReplay = false
		if msg.err != nil {
			m.err = msg.err
			m.showDetail = false
		} else {
			m.current = msg.replay
			m.currentJSON = msg.raw
			m.statusLine = ""
			m.viewport.SetContent(m.renderReplay())
			m.viewport.GotoTop()
		}

	case copiedMsg:
		if msg.err != nil {
			m.statusLine = errorStyle.Render("Copy failed: " + msg.err.Error())
		} else {
			m.statusLine = loadingStyle.Render("Replay JSON copied to clipboard")
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.showDetail {
				m.showDetail = false
				m.current = nil
				m.statusLine = ""
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyUp:
			if !m.showDetail && m.selected > 0 {
				m.selected--
			}
		case tea.KeyDown:
			if !m.showDetail && m.selected < len(m.games)-1 {
				m.selected++
			}
		case tea.KeyEnter:
			if !m.showDetail && len(m.games) > 0 {
				m.showDetail = true
				m.loadingReplay = true
				return m, m.loadReplay(m.games[m.selected])
			}
		}

		switch msg.String() {
		case "q":
			if !m.showDetail {
				return m, tea.Quit
			}
		case "r":
			if !m.showDetail {
				m.loadingGames = true
				m.err = nil
				return m, m.loadGames()
			}
		case "c":
			if m.showDetail && m.currentJSON != nil {
				return m, m.copyJSON()
			}
		}
	}

	if m.showDetail {
		m.viewport, vpCmd = m.viewport.Update(msg)
	}
	return m, vpCmd
}

// renderReplay writes the detail view: summary, final scores and move log.
func (m ConsoleUI) renderReplay() string {
	g := m.current
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("REPLAY "+g.ReplayID) + "\n\n")

	if g.GameDate != "" {
		b.WriteString(labelStyle.Render("Date: ") + g.GameDate + "\n")
	}
	b.WriteString(labelStyle.Render("Generations: ") + fmt.Sprintf("%d", g.Generations) + "\n")
	b.WriteString(labelStyle.Render("Moves: ") + fmt.Sprintf("%d", g.Metadata.TotalMoves) + "\n")
	if g.Metadata.GameDuration != "" {
		b.WriteString(labelStyle.Render("Duration: ") + g.Metadata.GameDuration + "\n")
	}
	if g.Winner != nil {
		name := *g.Winner
		if p, ok := g.Players[name]; ok {
			name = p.PlayerName
		}
		b.WriteString(labelStyle.Render("Winner: ") + name + "\n")
	}
	b.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", wrap)) + "\n\n")

	b.WriteString(titleStyle.Render("PLAYERS") + "\n\n")
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := g.Players[id]
		b.WriteString(labelStyle.Render(p.PlayerName) + " " + promptStyle.Render("("+id+")") + "\n")
		if p.Corporation != "" {
			b.WriteString("  Corporation: " + p.Corporation + "\n")
		}
		if p.FinalScore != nil {
			b.WriteString(fmt.Sprintf("  Final score: %d", *p.FinalScore))
			if p.FinalTR != nil {
				b.WriteString(fmt.Sprintf(" (TR %d)", *p.FinalTR))
			}
			b.WriteString("\n")
		} else {
			b.WriteString("  Final score: unavailable\n")
		}
		if p.Elo != nil && p.Elo.ArenaPoints != nil {
			b.WriteString(fmt.Sprintf("  Arena: %d pts\n", *p.Elo.ArenaPoints))
		}
		b.WriteString(fmt.Sprintf("  Cards played: %d\n", len(p.CardsPlayed)))
		b.WriteString("\n")
	}

	b.WriteString(separatorStyle.Render(strings.Repeat("─", wrap)) + "\n\n")
	b.WriteString(titleStyle.Render("MOVE LOG") + "\n\n")
	for _, mv := range g.Moves {
		head := fmt.Sprintf("#%d [%s] %s", mv.MoveNumber, mv.ActionType, mv.Timestamp)
		b.WriteString(moveStyle.Render(head) + "\n")
		b.WriteString(wordwrap.String(mv.Description, wrap) + "\n\n")
	}

	return b.String()
}

func (m ConsoleUI) renderList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("REPLAY BROWSER") + "\n\n")

	switch {
	case m.loadingGames:
		b.WriteString(loadingStyle.Render("Loading games..."))
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
		b.WriteString(promptStyle.Render("Press R to retry, Q to quit"))
	case len(m.games) == 0:
		b.WriteString("No games in the registry yet.\n\n")
		b.WriteString(promptStyle.Render("Scrape some tables first, then press R to refresh"))
	default:
		for i, rec := range m.games {
			line := rec.TableID
			if len(rec.Players) > 0 {
				line += "  " + strings.Join(rec.Players, " vs ")
			}
			if rec.ParsedAt != nil {
				line += "  [parsed]"
			}
			if i == m.selected {
				b.WriteString(selectedItemStyle.Render("▶ "+line) + "\n")
			} else {
				b.WriteString(itemStyle.Render("  "+line) + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("↑/↓ select · Enter open · R refresh · Q quit"))
	}
	return b.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.showDetail {
		if m.loadingReplay {
			return "\n  " + loadingStyle.Render("Loading replay...")
		}
		footer := promptStyle.Render("↑/↓ scroll · C copy JSON · Esc back")
		if m.statusLine != "" {
			footer = m.statusLine + "  " + footer
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			separatorStyle.Render(strings.Repeat("─", m.width-4)),
			footer,
		)
	}

	return m.renderList()
}
