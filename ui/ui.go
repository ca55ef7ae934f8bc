// Package ui provides the interactive translator: type or speak, see the
// moras and their pulses, and play them.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/lexicon"
	"github.com/shakes-lang/shakes/internal/mora"
	"github.com/shakes-lang/shakes/internal/speech"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"

	audioUnavailable = "Audio output is not available"
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, e *engine.Engine) *tea.Program {
	log.Debug(
		"Starting shakes",
		"mouse", cfg.EnableMouse,
		"watch", cfg.Watch,
		"dataset", cfg.Dataset.Path,
		"audio", e.CanPlay(),
		"speech", e.CanListen(),
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, e), opts...)
}

type (
	playedMsg struct {
		report engine.Report
		err    error
	}
	playedEntryMsg struct {
		entry mora.Entry
		err   error
	}
	heardMsg           speech.Result
	datasetChangedMsg  struct{}
	lexiconReloadedMsg struct {
		lx  *lexicon.Lexicon
		err error
	}
	statusMessageTimeoutMsg int
)

// focus is the part of the screen receiving keys.
type focus int

const (
	focusInput focus = iota
	focusList
)

func (f focus) String() string {
	return map[focus]string{
		focusInput: "input",
		focusList:  "list",
	}[f]
}

type model struct {
	cfg    Config
	engine *engine.Engine

	input   textinput.Model
	spinner spinner.Model
	focus   focus
	width   int
	height  int

	showHelp bool

	// Translation of the current text
	report engine.Report
	cursor int

	// Last speech result; used as the text while the input is empty
	heard string

	playing   bool
	listening bool

	statusMessage   string
	statusIsError   bool
	statusMessageID int

	watcher *watcher
}

func newModel(cfg Config, e *engine.Engine) model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "type romaji, ctrl+r to speak"
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(mintGreen)

	m := model{
		cfg:     cfg,
		engine:  e,
		input:   ti,
		spinner: sp,
		focus:   focusInput,
	}

	if cfg.Watch && cfg.Dataset.Path != "" {
		w, err := newWatcher(cfg.Dataset.Path)
		if err != nil {
			log.Error("unable to watch dataset", "path", cfg.Dataset.Path, "error", err)
		} else {
			m.watcher = w
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait)
	}
	return tea.Batch(cmds...)
}

// text is what enter plays: the input, or the last speech result when the
// input is blank. The input is passed on as typed; spaces are segmented
// like any other character.
func (m model) text() string {
	if v := m.input.Value(); strings.TrimSpace(v) != "" {
		return v
	}
	return m.heard
}

func (m *model) retranslate() {
	m.report = m.engine.Report(m.text())
	m.cursor = min(m.cursor, max(len(m.report.Entries)-1, 0))
}

func (m model) busy() bool {
	return m.playing || m.listening
}

func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isError
	m.statusMessageID++
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(id)
	})
}

func (m *model) setFocus(f focus) tea.Cmd {
	m.focus = f
	if f == focusList {
		m.input.Blur()
		return nil
	}
	return m.input.Focus()
}

func (m model) quit() tea.Cmd {
	if m.watcher != nil {
		if err := m.watcher.close(); err != nil {
			log.Debug("fsnotify close failed", "error", err)
		}
	}
	return tea.Quit
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			return m, m.quit()

		case "ctrl+z":
			return m, tea.Suspend

		case "tab", "shift+tab":
			if m.focus == focusInput {
				cmd := m.setFocus(focusList)
				return m, cmd
			}
			cmd := m.setFocus(focusInput)
			return m, cmd

		case "ctrl+r":
			cmd := m.startListening()
			return m, cmd

		case "ctrl+y":
			cmd := m.copyTranslation()
			return m, cmd

		case "enter":
			if m.focus == focusList && len(m.report.Entries) > 0 {
				cmd := m.playSelected()
				return m, cmd
			}
			cmd := m.playAll()
			return m, cmd

		case "esc":
			switch {
			case m.showHelp:
				m.showHelp = false
			case m.focus == focusList:
				cmd := m.setFocus(focusInput)
				return m, cmd
			default:
				m.input.Reset()
				m.retranslate()
			}
			return m, nil
		}

		if m.focus == focusList {
			return m.updateList(msg)
		}

		prev := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != prev {
			m.retranslate()
		}
		return m, cmd

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playedMsg:
		m.playing = false
		if msg.err != nil {
			log.Error("playback failed", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Playback failed: "+msg.err.Error(), true))
			break
		}
		status := fmt.Sprintf("Played %d of %d moras", msg.report.Played, len(msg.report.Entries))
		if n := len(msg.report.Misses); n > 0 {
			status += fmt.Sprintf(", %d without a pattern", n)
		}
		cmds = append(cmds, m.showStatusMessage(status, false))

	case playedEntryMsg:
		m.playing = false
		if msg.err != nil {
			log.Error("playback failed", "mora", msg.entry.Mora, "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Playback failed: "+msg.err.Error(), true))
		}

	case heardMsg:
		m.listening = false
		res := speech.Result(msg)
		if !res.Ok() {
			cmds = append(cmds, m.showStatusMessage("Speech failed: "+res.Err.Error(), true))
			break
		}
		m.heard = res.Text
		if strings.TrimSpace(m.input.Value()) == "" {
			m.retranslate()
		}
		cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("Heard %q", res.Text), false))

	case datasetChangedMsg:
		cmds = append(cmds, reloadLexiconCmd(m.cfg.Dataset))
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.wait)
		}

	case lexiconReloadedMsg:
		if msg.err != nil {
			log.Error("dataset reload failed", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Dataset reload failed: "+msg.err.Error(), true))
			break
		}
		m.engine.SwapLexicon(msg.lx)
		m.retranslate()
		cmds = append(cmds, m.showStatusMessage(
			fmt.Sprintf("Reloaded %s moras", humanize.Comma(int64(msg.lx.Len()))), false))

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusMessageID {
			m.statusMessage = ""
			m.statusIsError = false
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.report.Entries) - 1
	switch msg.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = max(min(m.cursor+1, last), 0)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(last, 0)
	case "l":
		cmd := m.startListening()
		return m, cmd
	case "c":
		cmd := m.copyTranslation()
		return m, cmd
	case "?":
		m.showHelp = !m.showHelp
	case "q":
		return m, m.quit()
	}
	return m, nil
}

func (m *model) playAll() tea.Cmd {
	if m.busy() {
		return m.showStatusMessage("Busy, try again in a moment", true)
	}
	if !m.engine.CanPlay() {
		return m.showStatusMessage(audioUnavailable, true)
	}
	text := m.text()
	if strings.TrimSpace(text) == "" {
		return m.showStatusMessage("Nothing to play", true)
	}
	m.retranslate()
	m.playing = true
	return tea.Batch(m.spinner.Tick, playTextCmd(m.engine, text))
}

func (m *model) playSelected() tea.Cmd {
	if m.busy() {
		return m.showStatusMessage("Busy, try again in a moment", true)
	}
	entry := m.report.Entries[m.cursor]
	if !entry.Resolved {
		return m.showStatusMessage(m.report.MissNote(entry.Mora), true)
	}
	if !m.engine.CanPlay() {
		return m.showStatusMessage(audioUnavailable, true)
	}
	m.playing = true
	return tea.Batch(m.spinner.Tick, playEntryCmd(m.engine, entry))
}

func (m *model) startListening() tea.Cmd {
	if m.busy() {
		return m.showStatusMessage("Busy, try again in a moment", true)
	}
	if !m.engine.CanListen() {
		return m.showStatusMessage("Speech input is not configured", true)
	}
	m.listening = true
	return tea.Batch(m.spinner.Tick, listenCmd(m.engine, m.cfg.ListenTimeout))
}

func (m *model) copyTranslation() tea.Cmd {
	if len(m.report.Entries) == 0 {
		return m.showStatusMessage("Nothing to copy", true)
	}
	var b strings.Builder
	for _, e := range m.report.Entries {
		b.WriteString(entryLine(e))
		b.WriteString("\n")
	}
	// Copy using OSC 52
	termenv.Copy(b.String())
	// Copy using native system clipboard
	_ = clipboard.WriteAll(b.String())
	return m.showStatusMessage("Copied translation", false)
}

// COMMANDS

func playTextCmd(e *engine.Engine, text string) tea.Cmd {
	return func() tea.Msg {
		rep, err := e.PlayText(text)
		return playedMsg{report: rep, err: err}
	}
}

func playEntryCmd(e *engine.Engine, entry mora.Entry) tea.Cmd {
	return func() tea.Msg {
		return playedEntryMsg{entry: entry, err: e.Play(entry)}
	}
}

func listenCmd(e *engine.Engine, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return heardMsg(e.Listen(ctx))
	}
}

func reloadLexiconCmd(cfg engine.DatasetConfig) tea.Cmd {
	return func() tea.Msg {
		lx, err := engine.OpenLexicon(cfg)
		return lexiconReloadedMsg{lx: lx, err: err}
	}
}
