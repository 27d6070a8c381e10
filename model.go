package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
)

// stateSource is the read side of the reconciler.
type stateSource interface {
	State() nowplaying.PlaybackState
}

// dispatcher routes transport commands to the active source.
type dispatcher interface {
	Dispatch(ctx context.Context, cmd nowplaying.Command, activeSource string) error
}

// seekModeStore persists the seek-mode toggle.
type seekModeStore interface {
	SeekMode() bool
	ToggleSeekMode() (bool, error)
}

// model is the Bubble Tea model for the TUI application
type model struct {
	state     nowplaying.PlaybackState
	color     string
	width     int
	height    int
	lastError error // last failed command, cleared by the next success

	source  stateSource
	updates <-chan struct{}
	router  dispatcher
	prefs   seekModeStore
	now     func() time.Time

	seekMode   bool
	lastToggle time.Time // for play/pause debounce

	// Album artwork support
	artworkEncoded string                // Kitty protocol-encoded artwork for display
	artworkThumb   *nowplaying.Thumbnail // thumbnail artworkEncoded was built from
	supportsKitty  bool

	// Text scrolling state
	scrollOffset int
	scrollPause  int
	scrollTick   int

	showHelp bool
}

func newModel(src stateSource, updates <-chan struct{}, router dispatcher, prefs seekModeStore, supportsKitty bool) model {
	return model{
		state:         src.State(),
		color:         config.Get().UI.Color,
		source:        src,
		updates:       updates,
		router:        router,
		prefs:         prefs,
		now:           time.Now,
		seekMode:      prefs.SeekMode(),
		supportsKitty: supportsKitty,
	}
}

// UI refresh tick - drives scrolling and position interpolation
type tickMsg time.Time

// New playback state published by the reconciler
type stateMsg nowplaying.PlaybackState

// Outcome of a dispatched command
type commandResultMsg struct {
	err error
}

// Schedule next UI refresh tick
func tickCmd() tea.Cmd {
	cfg := config.Get()
	return tea.Tick(time.Duration(cfg.Timing.UIRefreshMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForState blocks until the reconciler reports a change.
func waitForState(src stateSource, updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stateMsg(src.State())
	}
}

// Dispatch a command in background (doesn't block UI)
func (m model) dispatch(cmd nowplaying.Command) tea.Cmd {
	router, source := m.router, m.state.ActiveSource
	timeout := config.Get().fetchTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return commandResultMsg{err: router.Dispatch(ctx, cmd, source)}
	}
}

func (m model) artworkVisible() bool {
	return m.supportsKitty && config.Get().Artwork.Enabled
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForState(m.source, m.updates),
		watchConfigCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case stateMsg:
		return m.applyState(nowplaying.PlaybackState(msg))

	case artworkMsg:
		// Ignore encodings for a thumbnail that was replaced meanwhile
		if msg.thumb == m.artworkThumb {
			m.artworkEncoded = msg.encoded
		}
		return m, nil

	case commandResultMsg:
		m.lastError = msg.err
		return m, nil

	case configReloadMsg:
		cfg := config.Get()
		if cfg.UI.ColorMode == "manual" {
			m.color = cfg.UI.Color
		} else if m.artworkThumb != nil && m.artworkThumb.Accent != "" {
			m.color = m.artworkThumb.Accent
		}

		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
		} else if m.artworkEncoded == "" && m.supportsKitty && m.artworkThumb != nil {
			return m, tea.Batch(watchConfigCmd(), artworkCmd(m.artworkThumb))
		}
		return m, watchConfigCmd()

	case tickMsg:
		m.scrollTick++
		cfg := config.Get()

		if m.scrollPause > 0 {
			m.scrollPause--
		} else if m.scrollTick%3 == 0 { // Scroll every 3rd tick
			m.scrollOffset++

			maxLen := cfg.Text.MaxLengthWithArt
			if !m.artworkVisible() {
				maxLen = cfg.Text.MaxLengthNoArt
			}

			if longest := longestField(m.state); longest > maxLen {
				loopPoint := longest + len([]rune(scrollSeparator))
				if m.scrollOffset >= loopPoint {
					m.scrollOffset = 0
					m.scrollPause = 30 // Pause for 3 seconds when looping back
				}
			}
		}
		return m, tickCmd()
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p":
		if !m.state.ControlsEnabled() {
			return m, nil
		}
		now := m.now()
		if !m.lastToggle.IsZero() && now.Sub(m.lastToggle) < config.Get().toggleDebounce() {
			return m, nil
		}
		m.lastToggle = now
		return m, m.dispatch(nowplaying.Command{Kind: nowplaying.TogglePlayPause})

	case "n":
		if !m.state.ControlsEnabled() {
			return m, nil
		}
		return m, m.dispatch(nowplaying.Command{Kind: nowplaying.Next})

	case "b":
		if !m.state.ControlsEnabled() {
			return m, nil
		}
		return m, m.dispatch(nowplaying.Command{Kind: nowplaying.Previous})

	case "s":
		on, err := m.prefs.ToggleSeekMode()
		if err != nil {
			m.lastError = err
			return m, nil
		}
		m.seekMode = on
		return m, nil

	case "a":
		cfg := config.Get()
		cfg.Artwork.Enabled = !cfg.Artwork.Enabled
		config.Set(cfg)
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
		} else if m.supportsKitty && m.artworkThumb != nil {
			return m, artworkCmd(m.artworkThumb)
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}
	return m, nil
}

// applyState takes a new state from the reconciler. Artwork is re-encoded
// only when the thumbnail pointer changes, which the reconciler guarantees
// happens only on a track change.
func (m model) applyState(next nowplaying.PlaybackState) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForState(m.source, m.updates)}

	if next.Track != m.state.Track {
		m.scrollOffset = 0
		m.scrollPause = 30 // Pause at start for 3 seconds
		m.scrollTick = 0
	}
	m.state = next

	if thumb := next.Thumbnail; thumb != m.artworkThumb {
		m.artworkThumb = thumb
		m.artworkEncoded = ""
		if thumb != nil {
			if config.Get().UI.ColorMode == "auto" && thumb.Accent != "" {
				m.color = thumb.Accent
			}
			if m.artworkVisible() {
				cmds = append(cmds, artworkCmd(thumb))
			}
		}
	}
	return m, tea.Batch(cmds...)
}
