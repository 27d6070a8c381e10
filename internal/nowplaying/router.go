package nowplaying

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CommandKind tags a Command.
type CommandKind int

const (
	TogglePlayPause CommandKind = iota
	Previous
	Next
	SeekRelative
)

// Command is a backend-agnostic transport request.
type Command struct {
	Kind  CommandKind
	Delta float64 // seconds, SeekRelative only
}

// Seek returns a SeekRelative command.
func Seek(delta float64) Command {
	return Command{Kind: SeekRelative, Delta: delta}
}

func (c Command) String() string {
	switch c.Kind {
	case TogglePlayPause:
		return "toggle-play-pause"
	case Previous:
		return "previous"
	case Next:
		return "next"
	case SeekRelative:
		return "seek(" + strconv.FormatFloat(c.Delta, 'f', -1, 64) + ")"
	default:
		return "unknown"
	}
}

// Strategy is how a command reaches the media source.
type Strategy int

const (
	StrategyDirect     Strategy = iota // discrete command through the service
	StrategyElapsed                    // read elapsed, write clamped absolute time
	StrategyAutomation                 // scripted automation in a browser tab
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyElapsed:
		return "elapsed"
	case StrategyAutomation:
		return "automation"
	default:
		return "unknown"
	}
}

// Plan is the routing decision for one command.
type Plan struct {
	Command  Command // after seek-mode reinterpretation
	Strategy Strategy
	Code     CommandCode // StrategyDirect only
	Profile  SourceProfile
}

// Preferences exposes the externally persisted seek-mode flag.
type Preferences interface {
	SeekMode() bool
}

const defaultTargetDomain = "youtube.com"

// RouterOptions configures a Router.
type RouterOptions struct {
	Profiles     *Profiles
	Preferences  Preferences
	TargetDomain string
	// OnDispatched runs after every successful dispatch, typically
	// Reconciler.Refresh.
	OnDispatched func()
	Logger       *zerolog.Logger
}

// Router picks the execution strategy for commands.
type Router struct {
	caps         Capabilities
	fetcher      Fetcher
	prefs        Preferences
	onDispatched func()
	log          zerolog.Logger

	mu           sync.RWMutex
	profiles     *Profiles
	targetDomain string
}

// NewRouter creates a Router. fetcher provides the fresh read needed by
// privileged relative seeks.
func NewRouter(caps Capabilities, fetcher Fetcher, opts RouterOptions) *Router {
	if opts.Profiles == nil {
		opts.Profiles = NewProfiles(DefaultProfileOptions())
	}
	if opts.TargetDomain == "" {
		opts.TargetDomain = defaultTargetDomain
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "router").Logger()
	}
	return &Router{
		caps:         caps,
		fetcher:      fetcher,
		profiles:     opts.Profiles,
		prefs:        opts.Preferences,
		targetDomain: opts.TargetDomain,
		onDispatched: opts.OnDispatched,
		log:          log,
	}
}

// Reconfigure swaps the profile table and automation target domain, for
// example after a config reload. Dispatches already planned are unaffected.
func (r *Router) Reconfigure(profiles *Profiles, targetDomain string) {
	if profiles == nil {
		profiles = NewProfiles(DefaultProfileOptions())
	}
	if targetDomain == "" {
		targetDomain = defaultTargetDomain
	}
	r.mu.Lock()
	r.profiles, r.targetDomain = profiles, targetDomain
	r.mu.Unlock()
}

func (r *Router) settings() (*Profiles, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles, r.targetDomain
}

func (r *Router) seekMode() bool {
	return r.prefs != nil && r.prefs.SeekMode()
}

// Plan decides how cmd would be executed for activeSource without doing it.
func (r *Router) Plan(cmd Command, activeSource string) (Plan, error) {
	if activeSource == "" {
		return Plan{}, ErrNoActiveSource
	}
	profiles, _ := r.settings()
	prof := profiles.Lookup(activeSource)
	plan := Plan{Command: cmd, Profile: prof}

	if r.seekMode() {
		switch cmd.Kind {
		case Previous:
			plan.Command = Seek(-prof.SeekStep)
		case Next:
			plan.Command = Seek(prof.SeekStep)
		}
	}

	switch plan.Command.Kind {
	case TogglePlayPause:
		plan.Strategy, plan.Code = StrategyDirect, CommandTogglePlayPause
	case Previous:
		plan.Strategy, plan.Code = StrategyDirect, CommandPreviousTrack
	case Next:
		plan.Strategy, plan.Code = StrategyDirect, CommandNextTrack
	case SeekRelative:
		if prof.SeekVia == SeekAutomation && r.caps.Automation != nil {
			plan.Strategy = StrategyAutomation
		} else {
			plan.Strategy = StrategyElapsed
		}
	default:
		return Plan{}, fmt.Errorf("%w: %s", ErrCommandUnsupported, cmd)
	}
	return plan, nil
}

// Dispatch executes cmd against whichever backend owns activeSource.
// Failures are logged and returned; nothing is retried and no state is
// touched.
func (r *Router) Dispatch(ctx context.Context, cmd Command, activeSource string) error {
	reqID := uuid.NewString()
	log := r.log.With().Str("request_id", reqID).Stringer("command", cmd).Str("source", activeSource).Logger()

	plan, err := r.Plan(cmd, activeSource)
	if err != nil {
		if errors.Is(err, ErrNoActiveSource) {
			log.Debug().Msg("no active source, command ignored")
		} else {
			log.Warn().Err(err).Msg("command not routed")
		}
		return &DispatchError{Command: cmd, Source: activeSource, Err: err}
	}

	switch plan.Strategy {
	case StrategyDirect:
		err = r.direct(ctx, plan.Code)
	case StrategyElapsed:
		err = r.seekElapsed(ctx, plan.Command.Delta)
	case StrategyAutomation:
		err = r.seekAutomation(ctx, plan)
	}
	if err != nil {
		log.Warn().Err(err).Stringer("strategy", plan.Strategy).Msg("command dispatch failed")
		return &DispatchError{Command: plan.Command, Source: activeSource, Err: err}
	}

	log.Debug().Stringer("strategy", plan.Strategy).Stringer("routed", plan.Command).Msg("command dispatched")
	if r.onDispatched != nil {
		r.onDispatched()
	}
	return nil
}

func (r *Router) direct(ctx context.Context, code CommandCode) error {
	if r.caps.Commands == nil {
		return ErrServiceUnavailable
	}
	if err := r.caps.Commands.SendCommand(ctx, code); err != nil {
		return fmt.Errorf("send %s: %w", code, err)
	}
	return nil
}

func (r *Router) seekElapsed(ctx context.Context, delta float64) error {
	if r.caps.Elapsed == nil {
		return ErrSetterUnavailable
	}
	if r.fetcher == nil {
		return ErrServiceUnavailable
	}
	snap, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if !snap.HasElapsed {
		return ErrElapsedUnavailable
	}
	target := max(0, snap.Elapsed+delta)
	if err := r.caps.Elapsed.SetElapsedTime(ctx, target); err != nil {
		return fmt.Errorf("set elapsed time %.1f: %w", target, err)
	}
	return nil
}

func (r *Router) seekAutomation(ctx context.Context, plan Plan) error {
	if r.caps.Automation == nil {
		return ErrAutomationUnavailable
	}
	_, domain := r.settings()
	script := SeekScript(plan.Profile.AutomationApp, domain, plan.Profile.Dialect, plan.Command.Delta)
	return r.caps.Automation.Run(ctx, script)
}
