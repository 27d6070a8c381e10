// Package platform builds the now-playing capabilities for the running OS.
package platform

import (
	"net/http"
	"time"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
)

// Options configures the platform backends.
type Options struct {
	Logger *zerolog.Logger
	// HTTPClient downloads remote artwork. Defaults to a client with a short
	// timeout.
	HTTPClient *http.Client
}

func (o Options) logger(component string) zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return o.Logger.With().Str("component", component).Logger()
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 5 * time.Second}
}

// New probes the system once and returns the capability object. Entry points
// that could not be resolved are left nil.
func New(opts Options) nowplaying.Capabilities {
	return newCapabilities(opts)
}
