package render

import (
	"pickme/internal/providers"
	"pickme/internal/structures"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Renderer draws the whole view from the current snapshot and selection.
type Renderer interface {
	Render()
}

type RendererFunc func()

func (f RendererFunc) Render() { f() }

type SchedulerInterface interface {
	Init()
	Stop()
	Request()
	Immediate()
	Pending() bool
}

// Scheduler coalesces render requests. Any number of Request calls between
// two ticks results in one render.
type Scheduler struct {
	pending  atomic.Bool
	renderMu sync.Mutex
	renderer Renderer
	interval time.Duration
	logger   providers.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(conf *structures.Config, renderer Renderer, logger providers.Logger) *Scheduler {
	return &Scheduler{
		renderer: renderer,
		interval: conf.Render.Interval,
		logger:   logger,
	}
}

func (s *Scheduler) Init() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := time.NewTicker(s.interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.flush()
			case <-s.stop:
				return
			}
		}
	}()
	s.logger.Debugf(providers.TypeApp, "Render loop started, interval %s", s.interval)
}

// Stop ends the loop and renders a request that was still pending.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.flush()
}

// Request marks the view dirty. It is a no-op while a render is pending.
func (s *Scheduler) Request() {
	s.pending.CompareAndSwap(false, true)
}

// Immediate renders synchronously and drops any pending request.
func (s *Scheduler) Immediate() {
	s.pending.Store(false)
	s.draw()
}

func (s *Scheduler) Pending() bool {
	return s.pending.Load()
}

func (s *Scheduler) flush() {
	if s.pending.CompareAndSwap(true, false) {
		s.draw()
	}
}

func (s *Scheduler) draw() {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.renderer.Render()
}
