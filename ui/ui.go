// Package ui provides the speakblock TUI: a list of blocks, each with its
// own language and rate, read aloud on demand.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/reader"
	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

const ellipsis = "…"

type blocksLoadedMsg struct {
	blocks   []blocks.Block
	settings map[string]blocks.Props
	err      error
}

type unitMsg struct {
	unit  ttypes.SpeechUnit
	voice *ttypes.Voice
}

type settingsMsg struct {
	id    string
	props blocks.Props
	err   error
}

type (
	stateMsg         ttypes.State
	noticeMsg        string
	noticeTimeoutMsg int
	speakDoneMsg     struct{ err error }
	reloadMsg        struct{}
)

type model struct {
	cfg   Config
	svc   *reader.Service
	store blocks.Store
	keys  keyMap
	help  help.Model

	blocks   []blocks.Block
	settings map[string]blocks.Props
	cursor   int

	status   statusDisplay
	notice   string
	noticeID int

	width    int
	fatalErr error
}

// NewProgram returns a Tea program over the store's blocks. Driver and
// store events are forwarded to the program.
func NewProgram(cfg Config, svc *reader.Service, store blocks.Store) *tea.Program {
	log.Debug("starting speakblock tui", "languages", cfg.Languages)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(newModel(cfg, svc, store), opts...)

	driver := svc.Driver()
	driver.OnStateChange(func(s ttypes.State) { p.Send(stateMsg(s)) })
	driver.OnUnit(func(u ttypes.SpeechUnit, v *ttypes.Voice) { p.Send(unitMsg{unit: u, voice: v}) })
	svc.OnNotice(func(msg string) { p.Send(noticeMsg(msg)) })

	if w, ok := store.(interface{ OnChange(func()) }); ok {
		w.OnChange(func() { p.Send(reloadMsg{}) })
	}
	return p
}

func newModel(cfg Config, svc *reader.Service, store blocks.Store) model {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"ja-JP", "en-US", "auto"}
	}
	if cfg.NoticeTimeout <= 0 {
		cfg.NoticeTimeout = 4 * time.Second
	}
	return model{
		cfg:      cfg,
		svc:      svc,
		store:    store,
		keys:     newKeyMap(),
		help:     help.New(),
		settings: make(map[string]blocks.Props),
	}
}

func (m model) Init() tea.Cmd {
	return m.loadBlocks
}

func (m model) loadBlocks() tea.Msg {
	ctx := context.Background()
	list, err := m.store.List(ctx)
	if err != nil {
		return blocksLoadedMsg{err: err}
	}

	settings := make(map[string]blocks.Props, len(list))
	for _, b := range list {
		props, err := m.svc.Settings(ctx, b.ID)
		if err != nil {
			return blocksLoadedMsg{err: err}
		}
		settings[b.ID] = props
	}
	return blocksLoadedMsg{blocks: list, settings: settings}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case blocksLoadedMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, nil
		}
		m.blocks = msg.blocks
		m.settings = msg.settings
		if m.cursor >= len(m.blocks) {
			m.cursor = max(0, len(m.blocks)-1)
		}

	case reloadMsg:
		return m, m.loadBlocks

	case stateMsg:
		m.status.setState(ttypes.State(msg))

	case unitMsg:
		m.status.setUnit(msg.unit, msg.voice)

	case noticeMsg:
		return m, m.showNotice(string(msg))

	case noticeTimeoutMsg:
		if int(msg) == m.noticeID {
			m.notice = ""
		}

	case settingsMsg:
		if msg.err != nil {
			return m, m.showNotice(tts.Notice(msg.err))
		}
		m.settings[msg.id] = msg.props

	case speakDoneMsg:
		if msg.err != nil {
			log.Debug("speak failed", "error", msg.err)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.blocks)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadBlocks

	case key.Matches(msg, m.keys.Stop):
		return m, m.stop

	case key.Matches(msg, m.keys.Speak):
		b, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.status.blockID = b.ID
		return m, m.speak(b.ID)

	case key.Matches(msg, m.keys.Language):
		b, ok := m.selected()
		if !ok {
			return m, nil
		}
		next := nextLanguage(m.cfg.Languages, m.settings[b.ID].Lang)
		return m, m.setLanguage(b.ID, next)

	case key.Matches(msg, m.keys.Faster), key.Matches(msg, m.keys.Slower):
		b, ok := m.selected()
		if !ok {
			return m, nil
		}
		steps := 1
		if key.Matches(msg, m.keys.Slower) {
			steps = -1
		}
		rate := tts.StepRate(m.settings[b.ID].Rate, steps)
		return m, m.setRate(b.ID, rate)
	}

	return m, nil
}

func (m model) selected() (blocks.Block, bool) {
	if m.cursor < 0 || m.cursor >= len(m.blocks) {
		return blocks.Block{}, false
	}
	return m.blocks[m.cursor], true
}

func (m *model) showNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeID++
	id := m.noticeID
	return tea.Tick(m.cfg.NoticeTimeout, func(time.Time) tea.Msg {
		return noticeTimeoutMsg(id)
	})
}

func (m model) speak(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return speakDoneMsg{err: svc.SpeakBlock(context.Background(), id)}
	}
}

// stop runs outside Update: the driver reports the state change through
// Program.Send, which would block the event loop.
func (m model) stop() tea.Msg {
	m.svc.Stop()
	return nil
}

func (m model) setLanguage(id, lang string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		props, err := svc.SetLanguage(context.Background(), id, lang)
		return settingsMsg{id: id, props: props, err: err}
	}
}

func (m model) setRate(id string, rate float64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		props, err := svc.SetRate(context.Background(), id, rate)
		return settingsMsg{id: id, props: props, err: err}
	}
}

// nextLanguage returns the entry after current, wrapping around.
func nextLanguage(langs []string, current string) string {
	for i, l := range langs {
		if strings.EqualFold(l, current) {
			return langs[(i+1)%len(langs)]
		}
	}
	return langs[0]
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorStyle.Render(fmt.Sprintf("error: %v", m.fatalErr)) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("speakblock"))
	b.WriteString("  ")
	b.WriteString(m.status.compact(m.cfg.ShowVoice))
	b.WriteString("\n\n")

	if len(m.blocks) == 0 {
		b.WriteString(dimStyle.Render("  No blocks yet. Add one with: speakblock blocks add \"text\""))
		b.WriteString("\n")
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	titleWidth := max(10, width-40)

	for i, blk := range m.blocks {
		b.WriteString(m.renderBlock(i, blk, titleWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) renderBlock(i int, blk blocks.Block, titleWidth int) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	title := truncate.StringWithTail(blk.Title(), uint(titleWidth), ellipsis) //nolint:gosec
	title = runewidth.FillRight(title, titleWidth)

	props := m.settings[blk.ID]
	lang := runewidth.FillRight(props.Lang, 6)
	rate := tts.FormatRate(props.Rate)

	line := fmt.Sprintf("%s%s  %s %s  %s", cursor, title, lang, rate, dimStyle.Render(humanize.Time(blk.UpdatedAt)))
	if m.status.speaking(blk.ID) {
		line += speakingStatusStyle.Render(" ♪")
	}
	if i == m.cursor {
		return selectedStyle.Render(line)
	}
	return line
}
