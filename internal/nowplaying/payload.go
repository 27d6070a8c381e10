package nowplaying

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Canonical payload keys. Platform services translate their native keys
// (MediaRemote dictionary keys, MPRIS xesam/mpris metadata) into these.
const (
	KeyTitle                = "title"
	KeyArtist               = "artist"
	KeyAlbum                = "album"
	KeyPlaybackRate         = "playbackRate"
	KeyElapsedTime          = "elapsedTime"
	KeyDuration             = "duration"
	KeyArtworkData          = "artworkData"
	KeyClientPropertiesData = "clientPropertiesData"
	KeyMediaType            = "mediaType"
	KeyTrackNumber          = "trackNumber"
	KeyCurrentPlaybackDate  = "currentPlaybackDate"
)

// Media type values for KeyMediaType.
const (
	MediaTypeAudio = "audio"
	MediaTypeVideo = "video"
)

const (
	DefaultArtist = "Unknown Artist"
	IdleTrack     = "Nothing Playing"
	UnknownApp    = "Unknown App"
)

// Payload is the weakly-typed key/value answer of the now-playing service.
type Payload map[string]any

// Has reports whether key is present with a non-nil value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the value of key if it is a string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// SourceKind says how confident we are in Snapshot.SourceID.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceResolved
	SourceInferred
)

func (k SourceKind) String() string {
	switch k {
	case SourceResolved:
		return "resolved"
	case SourceInferred:
		return "inferred"
	default:
		return "unknown"
	}
}

// Snapshot is one normalized read of the now-playing service.
type Snapshot struct {
	Title        string
	Artist       string
	Album        string
	PlaybackRate float64
	Elapsed      float64
	HasElapsed   bool
	Duration     float64
	Artwork      []byte
	SourceID     string
	SourceKind   SourceKind
	Fields       Payload
}

// Empty reports whether the snapshot means "nothing playing".
func (s Snapshot) Empty() bool {
	return s.Title == ""
}

// Playing reports whether media is advancing.
func (s Snapshot) Playing() bool {
	return s.PlaybackRate > 0
}

// payloadFields is the one place where untyped payload keys meet Go types.
type payloadFields struct {
	Title        string   `mapstructure:"title"`
	Artist       *string  `mapstructure:"artist"`
	Album        string   `mapstructure:"album"`
	PlaybackRate *float64 `mapstructure:"playbackRate"`
	ElapsedTime  *float64 `mapstructure:"elapsedTime"`
	Duration     *float64 `mapstructure:"duration"`
	ArtworkData  []byte   `mapstructure:"artworkData"`
}

// DecodeSnapshot maps a payload onto a Snapshot, applying the defaults for
// absent optional fields. Source identification is left to the Adapter.
func DecodeSnapshot(p Payload) (Snapshot, error) {
	var f payloadFields
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &f,
	})
	if err != nil {
		return Snapshot{}, err
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return Snapshot{}, fmt.Errorf("decode payload: %w", err)
	}

	snap := Snapshot{
		Title:   f.Title,
		Artist:  DefaultArtist,
		Album:   f.Album,
		Artwork: f.ArtworkData,
		Fields:  p,
	}
	if f.Artist != nil {
		snap.Artist = *f.Artist
	}
	if f.PlaybackRate != nil {
		snap.PlaybackRate = *f.PlaybackRate
	}
	if f.ElapsedTime != nil {
		snap.Elapsed = *f.ElapsedTime
		snap.HasElapsed = true
	}
	if f.Duration != nil {
		snap.Duration = *f.Duration
	}
	if len(snap.Artwork) == 0 {
		snap.Artwork = nil
	}
	return snap, nil
}
