package nowplaying

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the scripting vocabulary of a browser.
type Dialect int

const (
	DialectChromium Dialect = iota
	DialectSafari
)

// AutomationScript targets the first tab, across all windows of App, whose
// URL contains URLMatch and evaluates Body inside it.
type AutomationScript struct {
	App      string
	URLMatch string
	Body     string
	Dialect  Dialect
}

// String renders the AppleScript source. Body must evaluate to "ok" on
// success; any other result is raised as a script error.
func (s AutomationScript) String() string {
	var run string
	switch s.Dialect {
	case DialectSafari:
		run = fmt.Sprintf(`do JavaScript "%s" in t`, escapeAppleScript(s.Body))
	default:
		run = fmt.Sprintf(`execute t javascript "%s"`, escapeAppleScript(s.Body))
	}

	return fmt.Sprintf(`tell application "%s"
	repeat with w in windows
		repeat with t in tabs of w
			if URL of t contains "%s" then
				set r to (%s)
				if r is not "%s" then error r
				return r
			end if
		end repeat
	end repeat
end tell
error "no tab matching %s"`,
		escapeAppleScript(s.App),
		escapeAppleScript(s.URLMatch),
		run,
		automationOK,
		escapeAppleScript(s.URLMatch))
}

const automationOK = "ok"

// Check turns the printed output of a script run into an error unless the
// script reported success.
func (s AutomationScript) Check(out string) error {
	out = strings.TrimSpace(out)
	if out == automationOK {
		return nil
	}
	if out == "" {
		out = "no result"
	}
	return &AutomationError{App: s.App, Description: out, Err: ErrAutomationResult}
}

// SeekScript builds the script moving the first media element of the
// matching tab by delta seconds, never before zero.
func SeekScript(app, urlMatch string, dialect Dialect, delta float64) AutomationScript {
	d := strconv.FormatFloat(delta, 'f', -1, 64)
	body := "(function(){var v=document.querySelector('video, audio');" +
		"if(!v){return 'no-media';}" +
		"v.currentTime=Math.max(0,v.currentTime+(" + d + "));" +
		"return 'ok';})()"
	return AutomationScript{
		App:      app,
		URLMatch: urlMatch,
		Body:     body,
		Dialect:  dialect,
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
