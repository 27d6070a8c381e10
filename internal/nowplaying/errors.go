package nowplaying

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable means the now-playing service entry points could
	// not be resolved at startup. It never recovers for the process lifetime.
	ErrServiceUnavailable = errors.New("now-playing service unavailable")

	// ErrFetchFailed is a transient failure of a single poll.
	ErrFetchFailed = errors.New("now-playing fetch failed")

	// ErrNothingPlaying is returned by services that answered but have no media.
	ErrNothingPlaying = errors.New("nothing playing")

	ErrIdentifierUnresolved  = errors.New("source identifier unresolved")
	ErrNoActiveSource        = errors.New("no active source")
	ErrCommandUnsupported    = errors.New("command not supported")
	ErrElapsedUnavailable    = errors.New("elapsed time unavailable")
	ErrSetterUnavailable     = errors.New("elapsed time setter unavailable")
	ErrAutomationUnavailable = errors.New("scripted automation unavailable")
	ErrAutomationResult      = errors.New("automation script reported failure")
)

// DispatchError reports a command that could not be carried out.
type DispatchError struct {
	Command Command
	Source  string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %q: %v", e.Command, e.Source, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// AutomationError is raised by an automation backend when the script itself
// failed. Description carries whatever the backend printed.
type AutomationError struct {
	App         string
	Description string
	Err         error
}

func (e *AutomationError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("automation %s: %v", e.App, e.Err)
	}
	return fmt.Sprintf("automation %s: %s", e.App, e.Description)
}

func (e *AutomationError) Unwrap() error { return e.Err }
