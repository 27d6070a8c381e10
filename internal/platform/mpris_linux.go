//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
)

const (
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

var errNoPlayer = errors.New("no MPRIS player")

// MPRIS implements the now-playing service over the D-Bus session bus.
type MPRIS struct {
	conn *dbus.Conn
	art  *artLoader
	log  zerolog.Logger
}

func newCapabilities(opts Options) nowplaying.Capabilities {
	log := opts.logger("mpris")
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Warn().Err(err).Msg("session bus unavailable")
		return nowplaying.Capabilities{}
	}
	m := &MPRIS{conn: conn, art: newArtLoader(opts.httpClient()), log: log}
	return nowplaying.Capabilities{
		Info:     m,
		Client:   m,
		Commands: m,
		Elapsed:  m,
	}
}

func (m *MPRIS) property(ctx context.Context, bus, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := m.conn.Object(bus, mprisPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, iface, name).
		Store(&v)
	return v, err
}

// activePlayer returns the first playing player, else the first paused one.
func (m *MPRIS) activePlayer(ctx context.Context) (string, string, error) {
	var names []string
	if err := m.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", "", fmt.Errorf("list bus names: %w", err)
	}
	sort.Strings(names)

	var paused string
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		v, err := m.property(ctx, name, mprisPlayerIface, "PlaybackStatus")
		if err != nil {
			continue
		}
		status, _ := v.Value().(string)
		switch status {
		case "Playing":
			return name, status, nil
		case "Paused":
			if paused == "" {
				paused = name
			}
		}
	}
	if paused != "" {
		return paused, "Paused", nil
	}
	return "", "", errNoPlayer
}

func (m *MPRIS) metadata(ctx context.Context, bus string) (map[string]dbus.Variant, error) {
	v, err := m.property(ctx, bus, mprisPlayerIface, "Metadata")
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	md, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", v.Value())
	}
	return md, nil
}

// NowPlayingInfo reads the active player. No player means an empty payload.
func (m *MPRIS) NowPlayingInfo(ctx context.Context) (nowplaying.Payload, error) {
	bus, status, err := m.activePlayer(ctx)
	if errors.Is(err, errNoPlayer) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	md, err := m.metadata(ctx, bus)
	if err != nil {
		return nil, err
	}

	st := playerStatus{Status: status, Rate: 1}
	if v, err := m.property(ctx, bus, mprisPlayerIface, "Position"); err == nil {
		if pos, ok := asInt64(v.Value()); ok {
			st.Position, st.HasPosition = pos, true
		}
	}
	if v, err := m.property(ctx, bus, mprisPlayerIface, "Rate"); err == nil {
		if rate, ok := v.Value().(float64); ok {
			st.Rate = rate
		}
	}

	p := metadataPayload(md, st)
	p[nowplaying.KeyClientPropertiesData] = bus

	artURL, _ := variantString(md, "mpris:artUrl")
	trackURL, _ := variantString(md, "xesam:url")
	if data, err := m.art.Load(ctx, artURL, trackURL); err == nil {
		p[nowplaying.KeyArtworkData] = data
	} else if !errors.Is(err, errNoArtwork) {
		m.log.Debug().Err(err).Str("player", bus).Msg("artwork not loaded")
	}
	return p, nil
}

// ResolveClient maps the bus name carried in the payload to the player's
// desktop entry, falling back to its identity and finally the bus name.
func (m *MPRIS) ResolveClient(ctx context.Context, blob []byte) (string, error) {
	bus := string(blob)
	if !strings.HasPrefix(bus, mprisPrefix) {
		return "", fmt.Errorf("not an MPRIS bus name: %q", bus)
	}
	for _, prop := range []string{"DesktopEntry", "Identity"} {
		v, err := m.property(ctx, bus, mprisRootIface, prop)
		if err != nil {
			continue
		}
		if s, ok := v.Value().(string); ok && s != "" {
			return s, nil
		}
	}
	return busIdentity(bus), nil
}

var commandMethods = map[nowplaying.CommandCode]string{
	nowplaying.CommandPlay:            "Play",
	nowplaying.CommandPause:           "Pause",
	nowplaying.CommandTogglePlayPause: "PlayPause",
	nowplaying.CommandStop:            "Stop",
	nowplaying.CommandNextTrack:       "Next",
	nowplaying.CommandPreviousTrack:   "Previous",
}

// SendCommand calls the matching Player method on the active player.
func (m *MPRIS) SendCommand(ctx context.Context, code nowplaying.CommandCode) error {
	method, ok := commandMethods[code]
	if !ok {
		return fmt.Errorf("%w: %s", nowplaying.ErrCommandUnsupported, code)
	}
	bus, _, err := m.activePlayer(ctx)
	if err != nil {
		return err
	}
	call := m.conn.Object(bus, mprisPath).CallWithContext(ctx, mprisPlayerIface+"."+method, 0)
	if call.Err != nil {
		return fmt.Errorf("%s %s: %w", bus, method, call.Err)
	}
	return nil
}

// SetElapsedTime seeks the current track of the active player to seconds.
func (m *MPRIS) SetElapsedTime(ctx context.Context, seconds float64) error {
	bus, _, err := m.activePlayer(ctx)
	if err != nil {
		return err
	}
	md, err := m.metadata(ctx, bus)
	if err != nil {
		return err
	}
	trackID, ok := md["mpris:trackid"].Value().(dbus.ObjectPath)
	if !ok {
		if s, isStr := md["mpris:trackid"].Value().(string); isStr {
			trackID, ok = dbus.ObjectPath(s), true
		}
	}
	if !ok || !trackID.IsValid() {
		return fmt.Errorf("%s: no track id", bus)
	}

	call := m.conn.Object(bus, mprisPath).CallWithContext(ctx, mprisPlayerIface+".SetPosition", 0, trackID, int64(seconds*1e6))
	if call.Err != nil {
		return fmt.Errorf("%s SetPosition: %w", bus, call.Err)
	}
	return nil
}

func variantString(md map[string]dbus.Variant, key string) (string, bool) {
	v, ok := md[key]
	if !ok {
		return "", false
	}
	s, ok := v.Value().(string)
	return s, ok
}
