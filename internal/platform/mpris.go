package platform

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
)

// playerStatus is the part of the MPRIS Player interface read next to Metadata.
type playerStatus struct {
	Status      string // Playing, Paused or Stopped
	Position    int64  // microseconds
	HasPosition bool
	Rate        float64
}

// metadataPayload translates MPRIS metadata into canonical payload keys.
func metadataPayload(md map[string]dbus.Variant, st playerStatus) nowplaying.Payload {
	p := nowplaying.Payload{}

	if title, ok := variantValue[string](md, "xesam:title"); ok && title != "" {
		p[nowplaying.KeyTitle] = title
	}
	if artists, ok := variantValue[[]string](md, "xesam:artist"); ok && len(artists) > 0 {
		p[nowplaying.KeyArtist] = strings.Join(artists, ", ")
	} else if artist, ok := variantValue[string](md, "xesam:artist"); ok {
		p[nowplaying.KeyArtist] = artist
	}
	if album, ok := variantValue[string](md, "xesam:album"); ok {
		p[nowplaying.KeyAlbum] = album
	}
	if v, ok := md["mpris:length"]; ok {
		if length, ok := asInt64(v.Value()); ok && length > 0 {
			p[nowplaying.KeyDuration] = float64(length) / 1e6
		}
	}
	if v, ok := md["xesam:trackNumber"]; ok {
		if n, ok := asInt64(v.Value()); ok {
			p[nowplaying.KeyTrackNumber] = n
		}
	}

	rate := 0.0
	if st.Status == "Playing" {
		rate = st.Rate
		if rate <= 0 {
			rate = 1
		}
	}
	p[nowplaying.KeyPlaybackRate] = rate
	if st.HasPosition {
		p[nowplaying.KeyElapsedTime] = float64(st.Position) / 1e6
	}
	return p
}

func variantValue[T any](md map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := md[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

// asInt64 accepts the integer widths players use for lengths and positions.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// busIdentity derives an identifier from a bus name such as
// org.mpris.MediaPlayer2.chromium.instance1234.
func busIdentity(bus string) string {
	name := strings.TrimPrefix(bus, "org.mpris.MediaPlayer2.")
	if i := strings.Index(name, ".instance"); i >= 0 {
		name = name[:i]
	}
	return name
}
