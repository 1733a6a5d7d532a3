package services

import "go.uber.org/atomic"

// Preferences holds the view-local settings shared by the session service
// and the renderer. None of them is sent as part of the stored state.
type Preferences struct {
	ignoreCooldown atomic.Bool
	search         atomic.String
	highlight      atomic.String
}

func NewPreferences() *Preferences {
	return &Preferences{}
}

func (p *Preferences) IgnoreCooldown() bool { return p.ignoreCooldown.Load() }
func (p *Preferences) Search() string       { return p.search.Load() }

// TakeHighlight returns the history entry to highlight once and clears it.
func (p *Preferences) TakeHighlight() string {
	return p.highlight.Swap("")
}

func (p *Preferences) setHighlight(entryID string) {
	if entryID != "" {
		p.highlight.Store(entryID)
	}
}
