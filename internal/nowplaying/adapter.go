package nowplaying

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Fetcher produces snapshots. The Adapter is the production implementation;
// tests substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Adapter wraps the privileged now-playing service.
type Adapter struct {
	caps  Capabilities
	ident *Identifier
	log   zerolog.Logger
	group singleflight.Group
}

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	Rules  []Rule
	Logger *zerolog.Logger
}

// NewAdapter creates an Adapter over caps.
func NewAdapter(caps Capabilities, opts AdapterOptions) *Adapter {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "adapter").Logger()
	}
	return &Adapter{
		caps:  caps,
		ident: NewIdentifier(opts.Rules),
		log:   log,
	}
}

// Fetch reads one snapshot. Concurrent callers share a single in-flight call
// to the service.
func (a *Adapter) Fetch(ctx context.Context) (Snapshot, error) {
	if !a.caps.Available() {
		return Snapshot{}, ErrServiceUnavailable
	}
	v, err, _ := a.group.Do("fetch", func() (any, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (a *Adapter) fetch(ctx context.Context) (Snapshot, error) {
	payload, err := a.caps.Info.NowPlayingInfo(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(payload) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, ErrNothingPlaying)
	}

	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if id, err := a.resolveClient(ctx, payload); err == nil {
		snap.SourceID = id
		snap.SourceKind = SourceResolved
	} else {
		a.log.Debug().Err(err).Msg("client identifier not resolved, inferring")
		if label := a.ident.Infer(payload); label != "" {
			snap.SourceID = label
			snap.SourceKind = SourceInferred
		}
	}
	return snap, nil
}

// resolveClient is best effort; any failure reports ErrIdentifierUnresolved.
func (a *Adapter) resolveClient(ctx context.Context, p Payload) (id string, err error) {
	if a.caps.Client == nil {
		return "", ErrIdentifierUnresolved
	}
	blob, ok := p[KeyClientPropertiesData]
	if !ok || blob == nil {
		return "", ErrIdentifierUnresolved
	}

	var data []byte
	switch b := blob.(type) {
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		return "", fmt.Errorf("%w: blob of type %T", ErrIdentifierUnresolved, blob)
	}
	if len(data) == 0 {
		return "", ErrIdentifierUnresolved
	}

	defer func() {
		if r := recover(); r != nil {
			id, err = "", fmt.Errorf("%w: %v", ErrIdentifierUnresolved, r)
		}
	}()
	id, err = a.caps.Client.ResolveClient(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentifierUnresolved, err)
	}
	if id == "" {
		return "", ErrIdentifierUnresolved
	}
	return id, nil
}
