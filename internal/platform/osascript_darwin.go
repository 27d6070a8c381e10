//go:build darwin

package platform

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
)

// Osascript runs browser automation scripts as AppleScript.
type Osascript struct {
	log zerolog.Logger
}

func (o *Osascript) Run(ctx context.Context, script nowplaying.AutomationScript) error {
	out, err := runOsascript(ctx, "AppleScript", script.String())
	if err != nil {
		aerr := &nowplaying.AutomationError{App: script.App, Err: err}
		var oerr *osascriptError
		if errors.As(err, &oerr) {
			aerr.Description = oerr.msg
		}
		o.log.Debug().Err(aerr).Str("app", script.App).Msg("automation script failed")
		return aerr
	}
	if err := script.Check(out); err != nil {
		o.log.Debug().Err(err).Str("app", script.App).Msg("automation script reported failure")
		return err
	}
	o.log.Debug().Str("app", script.App).Msg("automation script ran")
	return nil
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
