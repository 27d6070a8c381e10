package nowplaying

import "strings"

// SeekVia selects how a relative seek is carried out for a source.
type SeekVia int

const (
	SeekPrivileged SeekVia = iota
	SeekAutomation
)

// SourceProfile holds per-source behaviour. Profiles are derived from the
// active source on every dispatch and never persisted.
type SourceProfile struct {
	Name          string
	Identifiers   []string
	SeekStep      float64
	SeekVia       SeekVia
	Known         bool
	AutomationApp string
	Dialect       Dialect
}

// ProfileOptions are the tunable parts of the built-in profile table.
type ProfileOptions struct {
	StreamingStep float64
	BrowserStep   float64
	DefaultStep   float64
	// BrowserApp is scripted when the browser is only known heuristically.
	BrowserApp string
}

// DefaultProfileOptions mirrors the config defaults.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		StreamingStep: 15,
		BrowserStep:   5,
		DefaultStep:   10,
		BrowserApp:    "Google Chrome",
	}
}

// Profiles resolves the active source to a SourceProfile.
type Profiles struct {
	table    []SourceProfile
	fallback SourceProfile
}

// NewProfiles builds the profile table. Identifiers cover macOS bundle ids,
// MPRIS desktop entries and the heuristic labels.
func NewProfiles(opts ProfileOptions) *Profiles {
	def := DefaultProfileOptions()
	if opts.StreamingStep <= 0 {
		opts.StreamingStep = def.StreamingStep
	}
	if opts.BrowserStep <= 0 {
		opts.BrowserStep = def.BrowserStep
	}
	if opts.DefaultStep <= 0 {
		opts.DefaultStep = def.DefaultStep
	}
	if opts.BrowserApp == "" {
		opts.BrowserApp = def.BrowserApp
	}

	browser := func(name, app string, dialect Dialect, ids ...string) SourceProfile {
		return SourceProfile{
			Name:          name,
			Identifiers:   ids,
			SeekStep:      opts.BrowserStep,
			SeekVia:       SeekAutomation,
			Known:         true,
			AutomationApp: app,
			Dialect:       dialect,
		}
	}

	table := []SourceProfile{
		{
			Name:        LabelSpotify,
			Identifiers: []string{"com.spotify.client", "spotify"},
			SeekStep:    opts.StreamingStep,
			SeekVia:     SeekPrivileged,
			Known:       true,
		},
		{
			Name:        LabelSpotify,
			Identifiers: []string{LabelSpotify},
			SeekStep:    opts.StreamingStep,
			SeekVia:     SeekPrivileged,
		},
		browser("Google Chrome", "Google Chrome", DialectChromium, "com.google.Chrome", "google-chrome", "chromium", "chromium-browser"),
		browser("Brave Browser", "Brave Browser", DialectChromium, "com.brave.Browser", "brave-browser"),
		browser("Microsoft Edge", "Microsoft Edge", DialectChromium, "com.microsoft.edgemac", "microsoft-edge"),
		browser("Arc", "Arc", DialectChromium, "company.thebrowser.Browser"),
		browser("Safari", "Safari", DialectSafari, "com.apple.Safari"),
	}
	inferred := browser(LabelWebBrowser, opts.BrowserApp, DialectChromium, LabelWebBrowser)
	inferred.Known = false
	table = append(table, inferred)

	return &Profiles{
		table: table,
		fallback: SourceProfile{
			Name:     "default",
			SeekStep: opts.DefaultStep,
			SeekVia:  SeekPrivileged,
		},
	}
}

// Lookup returns the profile whose identifiers contain source, or the generic
// default. Exact matches win over case-insensitive ones so that a heuristic
// label never shadows a real identifier spelled the same way.
func (p *Profiles) Lookup(source string) SourceProfile {
	for _, prof := range p.table {
		for _, id := range prof.Identifiers {
			if id == source {
				return prof
			}
		}
	}
	for _, prof := range p.table {
		for _, id := range prof.Identifiers {
			if strings.EqualFold(id, source) {
				return prof
			}
		}
	}
	fb := p.fallback
	fb.Known = source != "" && source != UnknownApp
	return fb
}

// IsBrowser reports whether source belongs to the browser family.
func (p *Profiles) IsBrowser(source string) bool {
	return p.Lookup(source).SeekVia == SeekAutomation
}
