package nowplaying

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultPollInterval = time.Second
	DefaultFetchTimeout = 3 * time.Second
)

// ReconcilerOptions configures a Reconciler.
type ReconcilerOptions struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Decode       DecodeFunc
	Logger       *zerolog.Logger
	Now          func() time.Time
}

type fetchResult struct {
	snap Snapshot
	err  error
}

// Reconciler polls a Fetcher and folds each snapshot into PlaybackState.
// Run's goroutine is the only writer of the state.
type Reconciler struct {
	fetcher  Fetcher
	decode   DecodeFunc
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu        sync.RWMutex
	state     PlaybackState
	lastTitle string

	inflight *semaphore.Weighted
	results  chan fetchResult
	kick     chan struct{}

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// NewReconciler creates a Reconciler in the Idle state.
func NewReconciler(f Fetcher, opts ReconcilerOptions) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Decode == nil {
		opts.Decode = ThumbnailDecoder(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "reconciler").Logger()
	}
	return &Reconciler{
		fetcher:  f,
		decode:   opts.Decode,
		interval: opts.Interval,
		timeout:  opts.FetchTimeout,
		now:      opts.Now,
		log:      log,
		state:    IdleState(),
		inflight: semaphore.NewWeighted(1),
		results:  make(chan fetchResult, 1),
		kick:     make(chan struct{}, 1),
		subs:     make(map[chan struct{}]struct{}),
	}
}

// State returns a copy of the current playback state.
func (r *Reconciler) State() PlaybackState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Apply folds one fetch outcome into the state and notifies subscribers.
// Only the Run goroutine (or a test driving the Reconciler by hand) may call it.
func (r *Reconciler) Apply(snap Snapshot, err error) PlaybackState {
	r.mu.RLock()
	next := r.state
	r.mu.RUnlock()

	switch {
	case err != nil || snap.Empty():
		if err != nil && !r.Idle() {
			r.log.Debug().Err(err).Msg("fetch failed, going idle")
		}
		next = IdleState()
		r.lastTitle = ""

	case snap.Title == r.lastTitle:
		// Same track: artwork stays as decoded for this title.
		next.IsPlaying = snap.Playing()
		next.Artist = snap.Artist
		next.Album = snap.Album
		next.ActiveSource, next.SourceKind = sourceOf(snap)
		next.Elapsed = snap.Elapsed
		next.Duration = snap.Duration
		next.UpdatedAt = r.now()

	default:
		next = PlaybackState{
			IsPlaying: snap.Playing(),
			Track:     snap.Title,
			Artist:    snap.Artist,
			Album:     snap.Album,
			Elapsed:   snap.Elapsed,
			Duration:  snap.Duration,
			UpdatedAt: r.now(),
		}
		next.ActiveSource, next.SourceKind = sourceOf(snap)
		if snap.Artwork != nil {
			thumb, derr := r.decode(snap.Artwork)
			if derr != nil {
				r.log.Warn().Err(derr).Str("track", snap.Title).Msg("artwork decode failed")
			} else {
				next.Thumbnail = thumb
			}
		}
		r.lastTitle = snap.Title
		r.log.Info().
			Str("track", snap.Title).
			Str("artist", snap.Artist).
			Str("source", next.ActiveSource).
			Stringer("source_kind", next.SourceKind).
			Msg("track changed")
	}

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
	r.notify()
	return next
}

// Idle reports whether the current state is the idle state.
func (r *Reconciler) Idle() bool {
	return r.State().Idle()
}

func sourceOf(snap Snapshot) (string, SourceKind) {
	if snap.SourceID == "" {
		return UnknownApp, SourceUnknown
	}
	return snap.SourceID, snap.SourceKind
}

// Refresh asks Run for an out-of-band poll, typically after a command. It
// never blocks; requests arriving while one is pending coalesce.
func (r *Reconciler) Refresh() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel receiving a value after state changes. Bursts
// coalesce into one notification. Call cancel to unsubscribe.
func (r *Reconciler) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()
	return ch, func() {
		r.subMu.Lock()
		delete(r.subs, ch)
		r.subMu.Unlock()
	}
}

func (r *Reconciler) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Run polls immediately and then every interval until ctx is done. At most
// one fetch is in flight; ticks arriving meanwhile are skipped, while a
// Refresh arriving meanwhile runs once that fetch completes.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	pending := false
	r.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.poll(ctx)
		case <-r.kick:
			if !r.poll(ctx) {
				pending = true
			}
		case res := <-r.results:
			r.Apply(res.snap, res.err)
			r.inflight.Release(1)
			if pending {
				pending = false
				r.poll(ctx)
			}
		}
	}
}

// poll starts a fetch unless one is already in flight.
func (r *Reconciler) poll(ctx context.Context) bool {
	if !r.inflight.TryAcquire(1) {
		r.log.Debug().Msg("previous fetch still in flight, skipping tick")
		return false
	}
	go func() {
		fctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		snap, err := r.fetcher.Fetch(fctx)
		select {
		case r.results <- fetchResult{snap: snap, err: err}:
		case <-ctx.Done():
			r.inflight.Release(1)
		}
	}()
	return true
}
