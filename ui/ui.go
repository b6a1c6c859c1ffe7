// Package ui provides the render loop: a bubbletea program that draws the
// dog, its caption and a status bar every frame.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/anim"
	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/canvas"
	"github.com/tobysim/radiation/internal/pipeline"
	"github.com/tobysim/radiation/internal/queue"
)

const (
	frameInterval        = 30 * time.Millisecond
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied"
	statusBarHeight      = 1
	ellipsis             = "…"
)

// Deps are the collaborators the render loop reads from and hands work to.
type Deps struct {
	View    pipeline.View
	Queue   *queue.UtteranceQueue
	Sprites *canvas.Sprites
	Sounds  audio.EffectBank
	// Output plays sound effects. Nil keeps the dog silent.
	Output audio.Output
	// Prompt receives lines typed at the console prompt. Nil disables the
	// prompt.
	Prompt io.Writer
	// Start launches the workers. It is called once, when the walk-in ends.
	Start func() error
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting radiation",
		"high_perf_pipeline",
		cfg.HighPerformancePipeline,
		"input_tty",
		cfg.InputTTY,
		"prompt",
		deps.Prompt != nil,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.InputTTY {
		opts = append(opts, tea.WithInputTTY())
	}
	return tea.NewProgram(newModel(cfg, deps, time.Now), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	frameMsg                time.Time
	workersStartedMsg       struct{}
	statusMessageTimeoutMsg struct{}
)

type statusMessage struct {
	message string
	isError bool
}

// frameKey is what a rendered frame depends on.
type frameKey struct {
	pose       anim.Pose
	caption    string
	cols, rows int
}

type model struct {
	cfg      Config
	deps     Deps
	now      func() time.Time
	width    int
	height   int
	fatalErr error

	machine  *anim.Machine
	surface  *canvas.Surface
	renderer *canvas.Renderer
	spinner  spinner.Model
	prompt   textinput.Model

	prompting bool
	started   bool

	// Last rendered canvas
	frame    string
	frameKey frameKey
	frames   int

	statusMessage      statusMessage
	statusMessageTimer *time.Timer
}

func newModel(cfg Config, deps Deps, now func() time.Time) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Say something..."
	ti.CharLimit = 280

	return model{
		cfg:      cfg,
		deps:     deps,
		now:      now,
		machine:  anim.New(now()),
		surface:  canvas.NewSurface(canvas.Width, canvas.Height),
		renderer: canvas.NewRenderer(colorProfile(cfg.ColorProfile, lipgloss.ColorProfile())),
		spinner:  sp,
		prompt:   ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = max(0, msg.Width-lipgloss.Width(m.prompt.Prompt)-1)

	case frameMsg:
		cmds = append(cmds, m.advance(time.Time(msg)), tick())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case workersStartedMsg:
		log.Debug("workers started")

	case statusMessage:
		cmds = append(cmds, m.showStatusMessage(msg))

	case statusMessageTimeoutMsg:
		m.statusMessage = statusMessage{}

	case errMsg:
		log.Error("fatal error", "error", msg.err)
		m.fatalErr = msg.err

	default:
		// cursor blink and friends
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	var b strings.Builder
	if m.frame != "" {
		b.WriteString(m.frame)
		b.WriteByte('\n')
	}
	if m.prompting {
		b.WriteString(m.prompt.View())
		b.WriteByte('\n')
	}
	m.statusBarView(&b)
	return b.String()
}

// advance moves the dog to now and redraws. The workers start on the first
// frame after the walk-in.
func (m *model) advance(now time.Time) tea.Cmd {
	m.machine.Tick(now, m.deps.View.Speaking())
	m.frames++
	m.frame = m.render()

	if m.started || !m.machine.WalkDone(now) {
		return nil
	}
	m.started = true
	return startWorkers(m.deps.Start)
}

func (m *model) render() string {
	cols, rows := m.width, m.canvasRows()
	if cols <= 0 || rows <= 0 {
		return ""
	}

	cw, _ := canvas.Cell(cols, rows)
	pose := m.machine.Pose()
	lines := canvas.Wrap(m.deps.View.Caption(), canvas.TextWidth, canvas.CellMeasurer{CellWidth: cw})

	key := frameKey{
		pose:    pose,
		caption: strings.Join(lines, "\n"),
		cols:    cols,
		rows:    rows,
	}
	if m.cfg.HighPerformancePipeline && m.frame != "" && key == m.frameKey {
		return m.frame
	}
	m.frameKey = key

	m.surface.Clear(canvas.Background)
	m.surface.DrawDog(m.deps.Sprites, pose)
	return m.renderer.Render(m.surface, cols, rows, canvas.Caption{
		Lines:   lines,
		CenterX: canvas.TextCenterX,
		Bottom:  canvas.TextBottom,
	})
}

func (m model) canvasRows() int {
	rows := m.height - statusBarHeight
	if m.prompting {
		rows--
	}
	return rows
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.prompting {
		return m.handlePromptKey(msg)
	}

	now := m.now()
	switch msg.String() {
	case "q", "esc":
		return tea.Quit

	case "z":
		return m.perform(m.machine.Flip(now, m.deps.View.Speaking()))

	case "x":
		return m.perform(m.machine.TogglePoison(now))

	case "c":
		return copyCaption(m.deps.View.Words())

	case "tab":
		if m.deps.Prompt == nil {
			return nil
		}
		m.prompting = true
		return m.prompt.Focus()
	}
	return nil
}

func (m *model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyEsc:
		m.prompting = false
		m.prompt.Blur()
		return nil

	case tea.KeyEnter:
		line := m.prompt.Value()
		m.prompt.Reset()
		if strings.TrimSpace(line) == "" {
			return nil
		}
		return submitLine(m.deps.Prompt, line)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// perform turns the effects of a key press into commands.
func (m model) perform(e anim.Effects) tea.Cmd {
	if e.None() {
		return nil
	}
	var cmds []tea.Cmd
	for _, s := range e.Sounds {
		cmds = append(cmds, playEffect(m.deps.Output, m.deps.Sounds, s))
	}
	if e.ClearCaption {
		cmds = append(cmds, clearCaption(m.deps.Queue))
	}
	return tea.Batch(cmds...)
}

func (m *model) showStatusMessage(msg statusMessage) tea.Cmd {
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func startWorkers(start func() error) tea.Cmd {
	if start == nil {
		return nil
	}
	return func() tea.Msg {
		if err := start(); err != nil {
			return errMsg{fmt.Errorf("unable to start workers: %w", err)}
		}
		return workersStartedMsg{}
	}
}

func playEffect(out audio.Output, bank audio.EffectBank, e audio.Effect) tea.Cmd {
	clip, ok := bank[e]
	if out == nil || !ok {
		return nil
	}
	return func() tea.Msg {
		if _, err := out.Start(clip); err != nil {
			log.Warn("unable to play sound effect", "effect", e, "error", err)
		}
		return nil
	}
}

func enqueue(q *queue.UtteranceQueue, text string, src queue.Source) tea.Cmd {
	return func() tea.Msg {
		u := queue.NewUtterance(text, src)
		if err := q.Enqueue(u); err != nil {
			log.Warn("unable to enqueue utterance", "id", u.ID, "source", src, "error", err)
			return nil
		}
		log.Debug("enqueued", "id", u.ID, "source", src)
		return nil
	}
}

// clearCaption queues an empty utterance, which the synthesis worker (the
// only writer of the caption) treats as a clear. A pending utterance
// replaces the caption anyway, so nothing is queued behind it.
func clearCaption(q *queue.UtteranceQueue) tea.Cmd {
	return func() tea.Msg {
		if q.Len() > 0 {
			log.Debug("caption clear skipped", "pending", q.Len())
			return nil
		}
		return enqueue(q, "", queue.SourceKey)()
	}
}

func copyCaption(words []string) tea.Cmd {
	if len(words) > 0 && words[0] == pipeline.Placeholder {
		words = words[1:]
	}
	text := strings.Join(words, " ")
	return func() tea.Msg {
		if text == "" {
			return statusMessage{message: "Nothing to copy"}
		}
		if err := clipboard.WriteAll(text); err != nil {
			log.Debug("clipboard unavailable", "error", err)
			return statusMessage{message: "Clipboard unavailable", isError: true}
		}
		return statusMessage{message: "Copied caption"}
	}
}

func submitLine(w io.Writer, line string) tea.Cmd {
	return func() tea.Msg {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			log.Warn("unable to send line to console", "error", err)
			return statusMessage{message: "Console closed", isError: true}
		}
		return nil
	}
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
