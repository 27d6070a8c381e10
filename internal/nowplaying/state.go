package nowplaying

import (
	"image"
	"time"
)

// Thumbnail is decoded artwork ready for display.
type Thumbnail struct {
	Image  image.Image
	Accent string // "#rrggbb", empty when no suitable colour was found
}

// PlaybackState is the normalized view of what is playing. The Reconciler is
// its only writer; everyone else reads copies.
type PlaybackState struct {
	IsPlaying    bool
	Track        string
	Artist       string
	Album        string
	Thumbnail    *Thumbnail
	ActiveSource string
	SourceKind   SourceKind
	Elapsed      float64
	Duration     float64
	UpdatedAt    time.Time
}

// IdleState is the state before anything is observed and whenever nothing is
// playing.
func IdleState() PlaybackState {
	return PlaybackState{Track: IdleTrack}
}

// Idle reports whether the state carries no active media.
func (s PlaybackState) Idle() bool {
	return s.ActiveSource == "" && s.Track == IdleTrack
}

// ControlsEnabled reports whether transport commands can be routed. Only a
// missing source disables them; "Unknown App" and inferred labels do not.
func (s PlaybackState) ControlsEnabled() bool {
	return s.ActiveSource != ""
}

// Position interpolates the playback position at now from the last poll.
func (s PlaybackState) Position(now time.Time) float64 {
	if !s.IsPlaying || s.UpdatedAt.IsZero() {
		return s.Elapsed
	}
	pos := s.Elapsed + now.Sub(s.UpdatedAt).Seconds()
	if s.Duration > 0 && pos > s.Duration {
		pos = s.Duration
	}
	return pos
}
