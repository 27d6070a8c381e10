package nowplaying

import "context"

// CommandCode is a discrete transport command understood by the privileged
// service. Values follow the MediaRemote numbering.
type CommandCode int

const (
	CommandPlay            CommandCode = 0
	CommandPause           CommandCode = 1
	CommandTogglePlayPause CommandCode = 2
	CommandStop            CommandCode = 3
	CommandNextTrack       CommandCode = 4
	CommandPreviousTrack   CommandCode = 5
)

func (c CommandCode) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandTogglePlayPause:
		return "play-pause"
	case CommandStop:
		return "stop"
	case CommandNextTrack:
		return "next"
	case CommandPreviousTrack:
		return "previous"
	default:
		return "unknown"
	}
}

// InfoProvider returns the raw now-playing payload, keyed by the canonical
// Key* constants. An empty payload means nothing is playing.
type InfoProvider interface {
	NowPlayingInfo(ctx context.Context) (Payload, error)
}

// ClientResolver turns the opaque client-properties blob of a payload into a
// stable application identifier.
type ClientResolver interface {
	ResolveClient(ctx context.Context, blob []byte) (string, error)
}

// CommandSender delivers discrete transport commands.
type CommandSender interface {
	SendCommand(ctx context.Context, code CommandCode) error
}

// ElapsedSetter moves the playback position to an absolute offset in seconds.
type ElapsedSetter interface {
	SetElapsedTime(ctx context.Context, seconds float64) error
}

// Automator runs a generated automation script against an application.
type Automator interface {
	Run(ctx context.Context, script AutomationScript) error
}

// Capabilities is built once at startup and shared read-only. A nil field
// means that entry point could not be resolved on this system.
type Capabilities struct {
	Info       InfoProvider
	Client     ClientResolver
	Commands   CommandSender
	Elapsed    ElapsedSetter
	Automation Automator
}

// Available reports whether the privileged service answered the startup probe.
func (c Capabilities) Available() bool {
	return c.Info != nil
}
