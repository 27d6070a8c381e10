package nowplaying

import "fmt"

// Op is the test a Condition applies to one payload key.
type Op int

const (
	OpPresent Op = iota
	OpAbsent
	OpEquals
	OpEmpty
)

// Condition is a single signal a payload must show for a Rule to match.
type Condition struct {
	Key   string
	Op    Op
	Value string
}

func (c Condition) holds(p Payload) bool {
	switch c.Op {
	case OpPresent:
		return p.Has(c.Key)
	case OpAbsent:
		return !p.Has(c.Key)
	case OpEquals:
		if !p.Has(c.Key) {
			return false
		}
		return fmt.Sprint(p[c.Key]) == c.Value
	case OpEmpty:
		if !p.Has(c.Key) {
			return true
		}
		s, ok := p.String(c.Key)
		return ok && s == ""
	}
	return false
}

// Rule labels a payload when all of its conditions hold.
type Rule struct {
	Label string
	When  []Condition
}

func (r Rule) matches(p Payload) bool {
	for _, c := range r.When {
		if !c.holds(p) {
			return false
		}
	}
	return len(r.When) > 0
}

// Heuristic source labels.
const (
	LabelSpotify    = "Spotify"
	LabelWebBrowser = "Web Browser"
)

// DefaultRules is evaluated in order; the first match wins. New sources are
// added by appending entries.
var DefaultRules = []Rule{
	{
		Label: LabelSpotify,
		When: []Condition{
			{Key: KeyMediaType, Op: OpEquals, Value: MediaTypeAudio},
			{Key: KeyTrackNumber, Op: OpPresent},
		},
	},
	{
		Label: LabelWebBrowser,
		When: []Condition{
			{Key: KeyCurrentPlaybackDate, Op: OpPresent},
			{Key: KeyAlbum, Op: OpEmpty},
			{Key: KeyMediaType, Op: OpAbsent},
		},
	},
}

// Identifier infers a probable source from the shape of a payload.
type Identifier struct {
	rules []Rule
}

// NewIdentifier returns an Identifier over rules, or DefaultRules when nil.
func NewIdentifier(rules []Rule) *Identifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Identifier{rules: rules}
}

// Infer returns the label of the first matching rule, or "" when nothing
// matches.
func (id *Identifier) Infer(p Payload) string {
	for _, r := range id.rules {
		if r.matches(p) {
			return r.Label
		}
	}
	return ""
}

// Infer runs DefaultRules.
func Infer(p Payload) string {
	return NewIdentifier(nil).Infer(p)
}
