package animator

import (
	"sync"
	"time"
)

// ManualTimers is a Timers implementation driven by Advance, for tests and
// for replaying an animation without waiting.
type ManualTimers struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func NewManualTimers() *ManualTimers {
	return &ManualTimers{}
}

func (m *ManualTimers) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

func (m *ManualTimers) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *ManualTimers) add(d, period time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{at: m.now + d, period: period, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return handleFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		t.stopped = true
	})
}

// Advance moves the clock forward and fires every callback that comes due,
// in time order. Callbacks run without the internal lock held.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			next.stopped = true
		}
		m.mu.Unlock()
		next.fn()
		m.mu.Lock()
	}
	m.now = target
	m.prune()
	m.mu.Unlock()
}

func (m *ManualTimers) nextDue(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.stopped || t.at > target {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *ManualTimers) prune() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}

// Active returns the number of scheduled, unstopped callbacks.
func (m *ManualTimers) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
