package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/tatianab/island-adventure/internal/engine"
	"github.com/tatianab/island-adventure/internal/models"
	"github.com/tatianab/island-adventure/internal/story"
)

type sessionState int

const (
	stateTitle sessionState = iota
	stateLoading
	statePlaying
	stateEnded
	stateError
)

var titleMenu = []string{"New game", "Continue"}
var replayMenu = []string{"Yes", "No"}

// entry is one line waiting to be shown in the log.
type entry struct {
	text  string
	style lipgloss.Style
	paced bool
}

type model struct {
	state     sessionState
	engine    *engine.Engine
	logger    *slog.Logger
	delay     time.Duration
	session   engine.Session
	frame     engine.Frame
	textInput textinput.Model
	viewport  viewport.Model
	err       error
	gameLog   string
	hint      string
	width     int
	height    int

	queue    []entry
	revealed int
	ticking  bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87AF87"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

// NewModel returns the program model. delay paces narration one character
// at a time; zero shows it at once.
func NewModel(eng *engine.Engine, logger *slog.Logger, delay time.Duration) model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ti := textinput.New()
	ti.Placeholder = "Type a number and press Enter..."
	ti.Focus()
	ti.CharLimit = 8
	ti.Width = 40

	return model{
		state:     stateTitle,
		engine:    eng,
		logger:    logger,
		delay:     delay,
		textInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type tickMsg struct{}

type sessionLoadedMsg struct {
	session engine.Session
	err     error
}

type concludedMsg struct {
	session engine.Session
	err     error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.queue) > 0 {
				m.skip()
				return m, nil
			}
			input := m.textInput.Value()
			m.textInput.Reset()
			switch m.state {
			case stateTitle:
				return m.chooseTitle(input)
			case statePlaying:
				return m.choose(input)
			case stateEnded:
				return m.chooseReplay(input)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(m.logWidth(), msg.Height-6)
		} else {
			m.viewport.Width = m.logWidth()
			m.viewport.Height = msg.Height - 6
		}
		m.refresh()

	case tickMsg:
		m.ticking = false
		m.advance()
		cmd = m.tick()
		return m, cmd

	case sessionLoadedMsg:
		switch {
		case msg.err == nil:
			m.enqueueNotice("Game loaded.")
			return m.begin(msg.session)
		case errors.Is(msg.err, engine.ErrUnknownScene):
			m.state = stateLoading
			m.session = msg.session
			m.ensureViewport()
			m.enqueue(engine.UnknownStateMessage)
			cmd = tea.Batch(m.tick(), m.conclude(story.Ending{Outcome: story.OutcomeUnknown, Message: engine.UnknownStateMessage}))
			return m, cmd
		default:
			m.enqueueWarn("Could not load the saved game. Starting a new game.")
			return m.begin(m.engine.Start())
		}

	case concludedMsg:
		m.session = msg.session
		if msg.session.Outcome != story.OutcomeUnknown {
			var writeErr *engine.PersistenceWriteError
			if errors.As(msg.err, &writeErr) {
				m.enqueueWarn("Could not save the game.")
			} else {
				m.enqueueNotice("Game saved.")
			}
		}
		m.state = stateEnded
		m.enqueue("Would you like to play again?")
		m.enqueueMenu(replayMenu)
		cmd = m.tick()
		return m, cmd
	}

	if m.state == stateTitle || m.state == statePlaying || m.state == stateEnded {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) chooseTitle(input string) (tea.Model, tea.Cmd) {
	n, ok := m.parse(input, len(titleMenu))
	if !ok {
		return m, nil
	}
	if n == 2 {
		m.state = stateLoading
		return m, m.load()
	}
	return m.begin(m.engine.Start())
}

func (m model) choose(input string) (tea.Model, tea.Cmd) {
	n, ok := m.parse(input, len(m.frame.Choices))
	if !ok {
		return m, nil
	}
	m.gameLog += "\n" + userStyle.Width(m.logWidth()).Render("> "+m.frame.Choices[n-1]) + "\n\n"

	step, err := m.engine.Apply(m.session, n)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}
	for _, it := range step.Acquired {
		m.enqueueNotice("You obtained: " + it.Name)
	}
	m.session = step.Session
	return m.enter()
}

func (m model) chooseReplay(input string) (tea.Model, tea.Cmd) {
	n, ok := m.parse(input, len(replayMenu))
	if !ok {
		return m, nil
	}
	if n == 2 {
		m.logger.Info("player quit", "session", m.session.ID)
		return m, tea.Quit
	}
	m.gameLog = ""
	return m.begin(m.engine.Start())
}

// parse validates a menu answer and sets the hint shown under the input.
func (m *model) parse(input string, count int) (int, bool) {
	n, err := engine.ParseSelection(input, count)
	if err != nil {
		var selErr *engine.SelectionError
		if errors.As(err, &selErr) {
			m.hint = selErr.Hint()
		}
		return 0, false
	}
	m.hint = ""
	return n, true
}

func (m model) begin(s engine.Session) (tea.Model, tea.Cmd) {
	m.session = s
	m.state = statePlaying
	m.ensureViewport()
	return m.enter()
}

func (m *model) ensureViewport() {
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(max(m.logWidth(), 1), max(m.height-6, 1))
	}
}

// enter shows the current node and stops at its choices or ending.
func (m model) enter() (tea.Model, tea.Cmd) {
	s, f, err := m.engine.Enter(m.session)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}
	m.session = s
	m.frame = f

	if f.Title != "" {
		m.queue = append(m.queue, entry{text: f.Title, style: titleStyle})
	}
	for _, l := range f.Lines {
		if l.Kind == engine.LineAcquired {
			m.enqueueNotice("You obtained: " + l.Item.Name)
			continue
		}
		m.enqueue(l.Text)
	}

	if f.Ending != nil {
		m.enqueue(f.Ending.Message)
		m.state = stateLoading
		cmd := tea.Batch(m.tick(), m.conclude(*f.Ending))
		return m, cmd
	}
	m.enqueueMenu(f.Choices)
	cmd := m.tick()
	return m, cmd
}

func (m *model) enqueue(text string) {
	m.queue = append(m.queue, entry{text: text, style: gameStyle, paced: true})
}

func (m *model) enqueueNotice(text string) {
	m.queue = append(m.queue, entry{text: text, style: noticeStyle})
}

func (m *model) enqueueWarn(text string) {
	m.queue = append(m.queue, entry{text: text, style: warnStyle})
}

func (m *model) enqueueMenu(labels []string) {
	for i, label := range labels {
		m.enqueue(fmt.Sprintf("%d. %s", i+1, label))
	}
}

// tick schedules the next character of paced text. Without a delay the
// queue is flushed straight away.
func (m *model) tick() tea.Cmd {
	if m.delay <= 0 {
		for len(m.queue) > 0 {
			m.commit()
		}
		return nil
	}
	m.advanceUnpaced()
	if len(m.queue) == 0 || m.ticking {
		return nil
	}
	m.ticking = true
	return tea.Tick(m.delay, func(time.Time) tea.Msg { return tickMsg{} })
}

// advance reveals one more character of the line being typed.
func (m *model) advance() {
	m.advanceUnpaced()
	if len(m.queue) == 0 {
		return
	}
	m.revealed++
	if m.revealed >= utf8.RuneCountInString(m.queue[0].text) {
		m.commit()
	}
	m.refresh()
}

func (m *model) advanceUnpaced() {
	for len(m.queue) > 0 && !m.queue[0].paced {
		m.commit()
	}
}

// skip shows everything still waiting to be typed.
func (m *model) skip() {
	m.logger.Warn("render interrupted", "session", m.session.ID, "pending", len(m.queue))
	for len(m.queue) > 0 {
		m.commit()
	}
}

func (m *model) commit() {
	e := m.queue[0]
	m.queue = m.queue[1:]
	m.revealed = 0
	m.gameLog += e.style.Width(m.logWidth()).Render(e.text) + "\n"
	m.refresh()
}

func (m *model) refresh() {
	if m.viewport.Width == 0 {
		return
	}
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.75)
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateTitle:
		s = fmt.Sprintf(
			"%s\n\n1. %s\n2. %s\n\n%s\n%s",
			titleStyle.Render(m.engine.Graph().Title),
			titleMenu[0],
			titleMenu[1],
			m.textInput.View(),
			warnStyle.Render(m.hint),
		)

	case stateLoading, statePlaying, stateEnded:
		logView := m.viewport.View()
		stateView := m.renderState()

		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			logView,
			stateView,
		)

		help := helpStyle.Render("Type the number of your choice. Enter skips the text. Esc quits.")

		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.textInput.View(),
			warnStyle.Render(m.hint),
			help,
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) renderState() string {
	stateWidth := int(float64(m.width) * 0.23)
	nameWidth := max(stateWidth-4, 8)

	location := titleStyle.Render("LOCATION") + "\n" + sceneName(m.session.Scene) + "\n\n"

	invTitle := titleStyle.Render("INVENTORY") + "\n"
	inventory := ""
	items := m.session.Player.Inventory.List()
	if len(items) == 0 {
		inventory = "(empty)"
	} else {
		for _, item := range items {
			inventory += "- " + runewidth.Truncate(item.Name, nameWidth, "…") + "\n"
		}
	}

	content := location + invTitle + inventory
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

func (m model) renderLog() string {
	if len(m.queue) == 0 || !m.queue[0].paced {
		return m.gameLog
	}
	head := m.queue[0]
	partial := string([]rune(head.text)[:m.revealed])
	return m.gameLog + head.style.Width(m.logWidth()).Render(partial)
}

func (m model) load() tea.Cmd {
	return func() tea.Msg {
		s, err := m.engine.Load(context.Background())
		return sessionLoadedMsg{s, err}
	}
}

func (m model) conclude(ending story.Ending) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		s, err := m.engine.Conclude(context.Background(), s, ending)
		return concludedMsg{s, err}
	}
}

func sceneName(s models.SceneState) string {
	if s == "" {
		return "-"
	}
	return strings.ToUpper(string(s[:1])) + strings.ToLower(string(s[1:]))
}

// Run starts the full-screen game.
func Run(eng *engine.Engine, logger *slog.Logger, delay time.Duration) error {
	p := tea.NewProgram(NewModel(eng, logger, delay), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
