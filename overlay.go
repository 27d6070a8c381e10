package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
)

const overlayWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// OBS browser sources and file:// pages send no origin
		if origin == "" {
			return true
		}

		originURL, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if originURL.Host == r.Host {
			return true
		}
		return strings.HasPrefix(originURL.Host, "localhost:") ||
			strings.HasPrefix(originURL.Host, "127.0.0.1:")
	},
}

// overlayUpdate is sent to overlay clients.
type overlayUpdate struct {
	Type     string `json:"type"` // "change" or "stop"
	Song     string `json:"song,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Source   string `json:"source,omitempty"`
	Playing  bool   `json:"playing"`
	AlbumArt string `json:"albumArt,omitempty"` // PNG data URL
	Accent   string `json:"accent,omitempty"`
}

var stopUpdate = overlayUpdate{Type: "stop"}

type overlayConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *overlayConn) write(update overlayUpdate) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(update)
}

// writeLocked requires writeMu to be held.
func (c *overlayConn) writeLocked(update overlayUpdate) error {
	c.conn.SetWriteDeadline(time.Now().Add(overlayWriteTimeout))
	return c.conn.WriteJSON(update)
}

func (c *overlayConn) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// overlayServer publishes playback changes to browser overlays.
type overlayServer struct {
	log    zerolog.Logger
	encode func(*nowplaying.Thumbnail) (string, error)

	mu      sync.RWMutex
	current overlayUpdate
	thumb   *nowplaying.Thumbnail
	art     string // data URL encoded from thumb
	conns   map[*overlayConn]struct{}
}

func newOverlayServer(log zerolog.Logger) *overlayServer {
	return &overlayServer{
		log:     log.With().Str("component", "overlay").Logger(),
		encode:  thumbnailDataURL,
		current: stopUpdate,
		conns:   make(map[*overlayConn]struct{}),
	}
}

func (s *overlayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

func (s *overlayServer) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	update := s.current
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(update); err != nil {
		s.log.Warn().Err(err).Msg("state response failed")
	}
}

func (s *overlayServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1024)

	// Broadcasts queue behind the initial write so the client never sees
	// the snapshot after a newer update.
	c := &overlayConn{conn: conn}
	c.writeMu.Lock()
	s.mu.Lock()
	s.conns[c] = struct{}{}
	update := s.current
	s.mu.Unlock()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("overlay connected")

	defer func() {
		s.remove(c)
		c.close()
	}()

	err = c.writeLocked(update)
	c.writeMu.Unlock()
	if err != nil {
		s.log.Debug().Err(err).Msg("initial write failed")
		return
	}

	// Clients never send anything meaningful; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("overlay read error")
			}
			return
		}
	}
}

func (s *overlayServer) remove(c *overlayConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// report publishes state if it differs materially from the last update.
// Artwork is re-encoded only when the thumbnail pointer changes.
func (s *overlayServer) report(state nowplaying.PlaybackState) {
	s.mu.Lock()
	next := stopUpdate
	if !state.Idle() {
		next = overlayUpdate{
			Type:    "change",
			Song:    state.Track,
			Artist:  state.Artist,
			Album:   state.Album,
			Source:  state.ActiveSource,
			Playing: state.IsPlaying,
		}
		if state.Thumbnail != s.thumb {
			s.thumb = state.Thumbnail
			art, err := s.encode(state.Thumbnail)
			if err != nil {
				s.log.Warn().Err(err).Msg("thumbnail encoding failed")
			}
			s.art = art
		}
		if s.thumb != nil {
			next.AlbumArt = s.art
			next.Accent = s.thumb.Accent
		}
	} else {
		s.thumb, s.art = nil, ""
	}

	if next == s.current {
		s.mu.Unlock()
		return
	}
	s.current = next

	conns := make([]*overlayConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *overlayConn) {
			defer wg.Done()
			if err := c.write(next); err != nil {
				s.log.Debug().Err(err).Msg("overlay write failed, dropping client")
				s.remove(c)
				c.close()
			}
		}(c)
	}
	wg.Wait()
}

// run forwards reconciler changes until ctx is done.
func (s *overlayServer) run(ctx context.Context, src stateSource, updates <-chan struct{}) {
	s.report(src.State())
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			s.report(src.State())
		}
	}
}

// serveOverlay listens on addr until ctx is done.
func serveOverlay(ctx context.Context, addr string, s *overlayServer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)

		s.mu.Lock()
		for c := range s.conns {
			c.close()
		}
		s.mu.Unlock()
	}()

	s.log.Info().Str("addr", addr).Msg("overlay listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
