// Package tui is the terminal control surface: it renders the playback
// position and feeds mouse press/drag/release events into the gesture
// recognizer and the scrub-to-seek path of the control core.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/browser"
	"github.com/samber/lo"

	"github.com/ferrith/pressplay/internal/control"
)

// Options configures the control surface.
type Options struct {
	URL   string
	Title string
}

type positionMsg float64

type durationMsg float64

type engineErrMsg struct{ err error }

type clearFlashMsg struct{}

// Model is the bubbletea model for the control surface. Presentation
// highlighting is derived purely from the recognizer's phase; engine
// commands only ever flow through the recognizer and the bridge.
type Model struct {
	session *control.Session
	url     string
	title   string

	width  int
	height int
	bar    progress.Model

	position      float64
	duration      float64
	durationKnown bool

	scrubbing bool
	flash     string
	flashErr  bool
	idleHint  string
	pressHint string
}

// NewModel builds the control surface model for a running session.
func NewModel(session *control.Session, opts Options) Model {
	title := opts.Title
	if title == "" {
		title = opts.URL
	}
	idle, press := "press and hold to play", "hold…"
	if _, ok := session.Recognizer.(*control.TapRecognizer); ok {
		idle, press = "press to play, release to pause", "playing — release to pause"
	}
	return Model{
		session:   session,
		url:       opts.URL,
		title:     title,
		bar:       progress.New(progress.WithDefaultGradient()),
		idleHint:  idle,
		pressHint: press,
	}
}

// Run wires state callbacks into a bubbletea program and blocks until
// the user quits. The session itself is closed by the caller.
func Run(session *control.Session, opts Options) error {
	p := tea.NewProgram(NewModel(session, opts), tea.WithAltScreen(), tea.WithMouseAllMotion())

	session.State.OnPositionChange(func(pos float64) {
		p.Send(positionMsg(pos))
	})
	session.State.OnDurationChange(func(seconds float64) {
		p.Send(durationMsg(seconds))
	})
	session.Controller.OnError(func(err error) {
		p.Send(engineErrMsg{err: err})
	})

	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width
		return m, nil

	case positionMsg:
		m.position = float64(msg)
		return m, nil

	case durationMsg:
		m.duration = float64(msg)
		m.durationKnown = true
		return m, nil

	case engineErrMsg:
		// Rejected commands are shown and otherwise left alone; the
		// next valid sample resyncs the display.
		return m.withFlash(msg.err.Error(), true)

	case clearFlashMsg:
		m.flash = ""
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "y":
		stamp := formatTime(m.position*m.duration, m.durationKnown)
		if err := clipboard.WriteAll(stamp); err != nil {
			return m.withFlash(fmt.Sprintf("clipboard: %v", err), true)
		}
		return m.withFlash(fmt.Sprintf("copied %s", stamp), false)
	case "o":
		if err := browser.OpenURL(m.url); err != nil {
			return m.withFlash(fmt.Sprintf("browser: %v", err), true)
		}
		return m.withFlash("opened in browser", false)
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	now := time.Now()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if msg.Y == m.barRow() {
			// Grabbing the seek bar: the user owns the position until
			// release, and the sampler stays out of it.
			m.scrubbing = true
			m.session.State.SetSeeking(true)
			m.session.State.SetPosition(m.ratioForX(msg.X))
		} else {
			m.session.Recognizer.Handle(control.Event{Kind: control.EventPress, At: now})
		}

	case tea.MouseActionMotion:
		if m.scrubbing {
			m.session.State.SetPosition(m.ratioForX(msg.X))
		} else if m.session.Recognizer.Phase().IsActive() {
			m.session.Recognizer.Handle(control.Event{Kind: control.EventMove, At: now})
		}

	case tea.MouseActionRelease:
		if m.scrubbing {
			// One authoritative seek on release.
			m.scrubbing = false
			m.session.Bridge.CommitSeek(context.Background(), m.session.State.Position())
			m.session.State.SetSeeking(false)
		} else {
			m.session.Recognizer.Handle(control.Event{Kind: control.EventRelease, At: now})
		}
	}

	return m, nil
}

func (m Model) withFlash(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.flash = text
	m.flashErr = isErr
	return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearFlashMsg{}
	})
}

// barRow is the terminal row the seek bar occupies.
func (m Model) barRow() int {
	return m.height - 3
}

func (m Model) ratioForX(x int) float64 {
	if m.width <= 1 {
		return 0
	}
	return lo.Clamp(float64(x)/float64(m.width-1), 0, 1)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height < 8 {
		return ""
	}

	title := titleStyle.Render(runewidth.Truncate(m.title, m.width-2, "…"))

	phase := m.session.Recognizer.Phase()
	surface := surfaceStyle
	label := m.idleHint
	switch {
	case m.scrubbing:
		label = "scrubbing…"
	case phase.IsDragging():
		surface = surfaceDraggingStyle
		label = "playing — release to pause"
	case phase.IsActive():
		surface = surfacePressingStyle
		label = m.pressHint
	}
	// The border adds two rows around the surface; together with the
	// title and the four footer rows the view must sum to the window
	// height so barRow() lands on the rendered bar.
	surfaceHeight := m.height - 7
	video := surface.Width(m.width - 2).Height(surfaceHeight).Render(label)

	elapsed := formatTime(m.position*m.duration, m.durationKnown)
	total := formatTime(m.duration, m.durationKnown)
	times := timeStyle.Render(fmt.Sprintf("%s / %s", elapsed, total))

	status := helpStyle.Render("y copy time • o open url • q quit")
	if m.flash != "" {
		if m.flashErr {
			status = errorStyle.Render(m.flash)
		} else {
			status = flashStyle.Render(m.flash)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		video,
		times,
		m.bar.ViewAs(m.position),
		"",
		status,
	)
}

// formatTime renders seconds as h:mm:ss, or a placeholder while the
// duration is still unknown.
func formatTime(seconds float64, known bool) string {
	if !known || seconds < 0 {
		return "--:--"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d", mm, ss)
}
