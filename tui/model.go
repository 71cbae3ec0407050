// Package tui is the terminal front end: it drives the scheduler from a
// bubbletea tick, feeds key presses to keyboard agents and draws the board
// with a ranked scoreboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/brensch/snakepit/game"
	"github.com/brensch/snakepit/rules"
	"github.com/brensch/snakepit/scheduler"
)

type TickMsg time.Time

func tickCmd(frame time.Duration) tea.Cmd {
	return tea.Tick(frame, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	freshFood, _ = colorful.Hex("#7fd87f")
	staleFood, _ = colorful.Hex("#8a6d3b")
)

// foodStyle fades food from green to brown as it rots.
func foodStyle(f *game.Food) lipgloss.Style {
	c := staleFood.BlendLab(freshFood, f.Fraction()).Clamped()
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
}

type Model struct {
	sched  *scheduler.Scheduler
	frame  time.Duration
	last   time.Time
	styles []lipgloss.Style
}

func New(s *scheduler.Scheduler, frame time.Duration) Model {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	players := s.Arena().Players()
	styles := make([]lipgloss.Style, len(players))
	for i, p := range players {
		styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color))
	}
	return Model{sched: s, frame: frame, styles: styles}
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.frame)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space", "p":
			if m.sched.Paused() {
				m.sched.Resume()
			} else {
				m.sched.Pause()
			}
		case "enter", ".":
			m.sched.Step()
		default:
			m.sched.PressKey(msg.String())
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.sched.Pass(now.Sub(m.last))
		}
		m.last = now
		return m, tickCmd(m.frame)
	}
	return m, nil
}

func (m Model) View() string {
	a := m.sched.Arena()
	turn := m.sched.Turn()

	var b strings.Builder
	status := fmt.Sprintf("turn %d/%d  %s", turn.Current, turn.Max, turn.Policy)
	switch {
	case m.sched.Finished():
		status += "  game over"
	case m.sched.Paused():
		status += "  paused"
	}
	b.WriteString(titleStyle.Render(status))
	b.WriteString("\n")

	board := lipgloss.JoinHorizontal(lipgloss.Top,
		borderStyle.Render(m.board(a)),
		" ",
		borderStyle.Render(m.scoreboard(a)),
	)
	b.WriteString(board)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q quit  space pause  enter step"))
	return b.String()
}

func (m Model) board(a *game.Arena) string {
	cells := make(map[game.Point]string, len(a.Entities()))
	for _, f := range a.Food() {
		e, _ := a.Entity(f.ID)
		cells[e.Pos] = foodStyle(f).Render("()")
	}
	for _, s := range a.Snakes() {
		style := m.style(s.Owner)
		for i, p := range a.BodyOf(s) {
			if i == 0 {
				cells[p] = style.Bold(true).Render("@@")
			} else {
				cells[p] = style.Render("██")
			}
		}
	}

	var b strings.Builder
	for y := a.Grid.Height - 1; y >= 0; y-- {
		for x := 0; x < a.Grid.Width; x++ {
			if c, ok := cells[game.Point{X: x, Y: y}]; ok {
				b.WriteString(c)
			} else {
				b.WriteString(mutedStyle.Render(" ."))
			}
		}
		if y > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) scoreboard(a *game.Arena) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-3s %-12s %4s %5s %6s %4s", "#", "player", "max", "kills", "deaths", "len")))
	for rank, p := range rules.Ranking(a) {
		line := fmt.Sprintf("%-3d %-12s %4d %5d %6d %4d",
			rank+1, truncate(p.Name, 12), p.Score.MaxLength, p.Score.Kills, p.Score.Deaths, p.Score.CurrentLength)
		if p.Dead {
			line += mutedStyle.Render(fmt.Sprintf(" dead %d", p.RespawnIn))
		}
		b.WriteString("\n")
		b.WriteString(m.style(p.ID).Render(line))
	}
	return b.String()
}

func (m Model) style(id game.PlayerID) lipgloss.Style {
	if int(id) < len(m.styles) {
		return m.styles[id]
	}
	return lipgloss.NewStyle()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run shows the game until the user quits or ctx is cancelled.
func Run(ctx context.Context, s *scheduler.Scheduler, frame time.Duration) error {
	p := tea.NewProgram(New(s, frame), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
