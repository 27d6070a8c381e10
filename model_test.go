package main

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
)

type fakeSource struct {
	mu    sync.Mutex
	state nowplaying.PlaybackState
}

func (f *fakeSource) State() nowplaying.PlaybackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) setState(s nowplaying.PlaybackState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

type fakeDispatcher struct {
	mu      sync.Mutex
	cmds    []nowplaying.Command
	sources []string
	err     error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, cmd nowplaying.Command, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	f.sources = append(f.sources, source)
	return f.err
}

type fakePrefs struct {
	on  bool
	err error
}

func (f *fakePrefs) SeekMode() bool { return f.on }

func (f *fakePrefs) ToggleSeekMode() (bool, error) {
	if f.err != nil {
		return f.on, f.err
	}
	f.on = !f.on
	return f.on, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func playingState() nowplaying.PlaybackState {
	return nowplaying.PlaybackState{
		IsPlaying:    true,
		Track:        "Song",
		Artist:       "Artist",
		ActiveSource: "Spotify",
		SourceKind:   nowplaying.SourceResolved,
	}
}

type modelFixture struct {
	src   *fakeSource
	disp  *fakeDispatcher
	prefs *fakePrefs
	clock time.Time
}

func newModelFixture(t *testing.T, state nowplaying.PlaybackState) (*modelFixture, model) {
	t.Helper()
	cfg := validTestConfig()
	cfg.Timing.ToggleDebounceMs = 500
	cfg.Timing.FetchTimeoutMs = 1000
	cfg.Artwork.Enabled = true
	config.Set(cfg)

	f := &modelFixture{
		src:   &fakeSource{state: state},
		disp:  &fakeDispatcher{},
		prefs: &fakePrefs{},
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	m := newModel(f.src, make(chan struct{}), f.disp, f.prefs, true)
	m.now = func() time.Time { return f.clock }
	return f, m
}

func press(t *testing.T, m model, k string) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(k))
	return next.(model), cmd
}

func TestPlayPauseDebounced(t *testing.T) {
	f, m := newModelFixture(t, playingState())

	m, cmd := press(t, m, "p")
	if cmd == nil {
		t.Fatal("Expected a dispatch command")
	}
	msg := cmd().(commandResultMsg)
	assertNoError(t, msg.err)
	assertEqual(t, len(f.disp.cmds), 1, "dispatch count")
	assertEqual(t, f.disp.cmds[0].Kind, nowplaying.TogglePlayPause, "command kind")
	assertEqual(t, f.disp.sources[0], "Spotify", "routed source")

	f.clock = f.clock.Add(200 * time.Millisecond)
	m, cmd = press(t, m, "p")
	if cmd != nil {
		t.Error("Expected second press within debounce window to be ignored")
	}

	f.clock = f.clock.Add(400 * time.Millisecond)
	_, cmd = press(t, m, "p")
	if cmd == nil {
		t.Error("Expected press after debounce window to dispatch")
	}
}

func TestControlsDisabledWithoutSource(t *testing.T) {
	_, m := newModelFixture(t, nowplaying.IdleState())

	for _, k := range []string{"p", "n", "b"} {
		if _, cmd := press(t, m, k); cmd != nil {
			t.Errorf("Expected %q to be ignored with no active source", k)
		}
	}
}

func TestUnknownAppKeepsControls(t *testing.T) {
	state := playingState()
	state.ActiveSource = nowplaying.UnknownApp
	f, m := newModelFixture(t, state)

	_, cmd := press(t, m, "n")
	if cmd == nil {
		t.Fatal("Expected next to dispatch for an unidentified app")
	}
	cmd()
	assertEqual(t, f.disp.cmds[0].Kind, nowplaying.Next, "command kind")
	assertEqual(t, f.disp.sources[0], nowplaying.UnknownApp, "routed source")
}

func TestPreviousDispatches(t *testing.T) {
	f, m := newModelFixture(t, playingState())

	_, cmd := press(t, m, "b")
	if cmd == nil {
		t.Fatal("Expected a dispatch command")
	}
	cmd()
	assertEqual(t, f.disp.cmds[0].Kind, nowplaying.Previous, "command kind")
}

func TestCommandResult(t *testing.T) {
	_, m := newModelFixture(t, playingState())

	failure := errors.New("boom")
	next, _ := m.Update(commandResultMsg{err: failure})
	m = next.(model)
	if !errors.Is(m.lastError, failure) {
		t.Fatalf("Expected lastError to be set, got %v", m.lastError)
	}

	next, _ = m.Update(commandResultMsg{})
	m = next.(model)
	assertNoError(t, m.lastError)
}

func TestSeekModeToggle(t *testing.T) {
	t.Run("toggles", func(t *testing.T) {
		f, m := newModelFixture(t, playingState())
		m, _ = press(t, m, "s")
		assertEqual(t, m.seekMode, true, "seek mode after first toggle")
		assertEqual(t, f.prefs.on, true, "persisted")

		m, _ = press(t, m, "s")
		assertEqual(t, m.seekMode, false, "seek mode after second toggle")
	})

	t.Run("store failure", func(t *testing.T) {
		f, m := newModelFixture(t, playingState())
		f.prefs.err = errors.New("disk full")
		m, _ = press(t, m, "s")
		assertEqual(t, m.seekMode, false, "seek mode unchanged")
		assertError(t, m.lastError, "store failure")
	})

	t.Run("initial value from store", func(t *testing.T) {
		f, _ := newModelFixture(t, playingState())
		f.prefs.on = true
		m := newModel(f.src, make(chan struct{}), f.disp, f.prefs, false)
		assertEqual(t, m.seekMode, true, "initial seek mode")
	})
}

func TestApplyStateArtwork(t *testing.T) {
	thumb := &nowplaying.Thumbnail{
		Image:  generateTestImage(10, 10, color.RGBA{255, 0, 0, 255}),
		Accent: "#ff0000",
	}

	t.Run("new thumbnail resets encoding and sets accent", func(t *testing.T) {
		_, m := newModelFixture(t, playingState())
		cfg := config.Get()
		cfg.UI.ColorMode = "auto"
		config.Set(cfg)

		m.artworkEncoded = "stale"
		state := playingState()
		state.Thumbnail = thumb
		next, cmd := m.applyState(state)
		m = next.(model)

		if cmd == nil {
			t.Fatal("Expected commands")
		}
		assertEqual(t, m.artworkThumb, thumb, "thumbnail tracked")
		assertEqual(t, m.artworkEncoded, "", "encoding cleared")
		assertEqual(t, m.color, "#ff0000", "accent color")
	})

	t.Run("same thumbnail keeps encoding", func(t *testing.T) {
		_, m := newModelFixture(t, playingState())
		m.artworkThumb = thumb
		m.artworkEncoded = "encoded"

		state := playingState()
		state.Thumbnail = thumb
		state.IsPlaying = false
		next, _ := m.applyState(state)
		m = next.(model)

		assertEqual(t, m.artworkEncoded, "encoded", "encoding kept")
		assertEqual(t, m.state.IsPlaying, false, "state applied")
	})

	t.Run("manual color mode ignores accent", func(t *testing.T) {
		_, m := newModelFixture(t, playingState())
		state := playingState()
		state.Thumbnail = thumb
		next, _ := m.applyState(state)
		assertEqual(t, next.(model).color, "2", "manual color")
	})

	t.Run("stale artwork message ignored", func(t *testing.T) {
		_, m := newModelFixture(t, playingState())
		m.artworkThumb = thumb

		other := &nowplaying.Thumbnail{Image: thumb.Image}
		next, _ := m.Update(artworkMsg{thumb: other, encoded: "old"})
		m = next.(model)
		assertEqual(t, m.artworkEncoded, "", "stale encoding dropped")

		next, _ = m.Update(artworkMsg{thumb: thumb, encoded: "fresh"})
		assertEqual(t, next.(model).artworkEncoded, "fresh", "current encoding kept")
	})
}

func TestTrackChangeResetsScroll(t *testing.T) {
	_, m := newModelFixture(t, playingState())
	m.scrollOffset = 7

	same := playingState()
	next, _ := m.applyState(same)
	m = next.(model)
	assertEqual(t, m.scrollOffset, 7, "offset kept for same track")

	changed := playingState()
	changed.Track = "Another Song"
	next, _ = m.applyState(changed)
	m = next.(model)
	assertEqual(t, m.scrollOffset, 0, "offset reset")
	assertEqual(t, m.scrollPause, 30, "pause at start")
}

func TestWaitForState(t *testing.T) {
	src := &fakeSource{state: playingState()}
	updates := make(chan struct{}, 1)
	updates <- struct{}{}

	msg := waitForState(src, updates)()
	state, ok := msg.(stateMsg)
	if !ok {
		t.Fatalf("Expected stateMsg, got %T", msg)
	}
	assertEqual(t, state.Track, "Song", "track")
}
