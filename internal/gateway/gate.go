package gateway

import "go.uber.org/atomic"

// Gate holds the advisory busy and animating flags shared by the UI surfaces.
type Gate struct {
	busy      atomic.Bool
	animating atomic.Bool
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) SetBusy(v bool)      { g.busy.Store(v) }
func (g *Gate) SetAnimating(v bool) { g.animating.Store(v) }
func (g *Gate) Busy() bool          { return g.busy.Load() }
func (g *Gate) Animating() bool     { return g.animating.Load() }

// Blocked is true while a request or an animation is in progress.
func (g *Gate) Blocked() bool {
	return g.busy.Load() || g.animating.Load()
}

// TryAcquire sets busy unless the gate is already blocked.
func (g *Gate) TryAcquire() bool {
	if g.animating.Load() {
		return false
	}
	return g.busy.CompareAndSwap(false, true)
}

// Release clears busy unless an animation still owns the gate.
func (g *Gate) Release() {
	if !g.animating.Load() {
		g.busy.Store(false)
	}
}
