//go:build !linux && !darwin

package platform

import "github.com/justinmdickey/goplaying/internal/nowplaying"

func newCapabilities(opts Options) nowplaying.Capabilities {
	log := opts.logger("platform")
	log.Warn().Msg("no now-playing service on this platform")
	return nowplaying.Capabilities{}
}
