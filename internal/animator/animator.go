package animator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/state"
	"pickme/internal/structures"
	"strconv"
	"sync"
	"time"
)

const placeholderLabel = "--"

// ErrSuperseded is returned by an animation that was replaced by a newer one.
var ErrSuperseded = errors.New("animation superseded")

// FrameSink receives every frame as it is shown. It is called with the
// animator lock held and must not call back into the animator.
type FrameSink interface {
	Frame(frame models.Frame)
}

// SelectionReader exposes the last revealed selection.
type SelectionReader interface {
	Selection() *models.Selection
}

type AnimatorInterface interface {
	SelectionReader
	Play(ctx context.Context, result models.PickResult) (*models.Selection, error)
	Start(ctx context.Context, result models.PickResult) <-chan Outcome
	Animating() bool
	Sync()
	Reset()
}

type Outcome struct {
	Selection *models.Selection
	Err       error
}

type run struct {
	ctx     context.Context
	result  models.PickResult
	finals  []string
	frames  []models.Frame
	index   int
	group   *int
	ticker  Handle
	timeout Handle
	done    chan Outcome
}

// Animator plays the reveal sequence for a pick result. At most one run is
// active; Start stops the previous run before scheduling the new one.
type Animator struct {
	mu        sync.Mutex
	current   *run
	selection *models.Selection

	timers   Timers
	sink     FrameSink
	view     state.ViewInterface
	gate     *gateway.Gate
	rng      *rand.Rand
	interval time.Duration
	settle   time.Duration
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewAnimator(conf *structures.Config, timers Timers, sink FrameSink, view state.ViewInterface, gate *gateway.Gate, logger providers.Logger, metrics providers.MetricsProviderInterface) AnimatorInterface {
	seed := uint64(time.Now().UnixNano())
	return newAnimator(conf, timers, sink, view, gate, logger, metrics, rand.New(rand.NewPCG(seed, seed>>1|1)))
}

func newAnimator(conf *structures.Config, timers Timers, sink FrameSink, view state.ViewInterface, gate *gateway.Gate, logger providers.Logger, metrics providers.MetricsProviderInterface, rng *rand.Rand) *Animator {
	return &Animator{
		timers:   timers,
		sink:     sink,
		view:     view,
		gate:     gate,
		rng:      rng,
		interval: conf.Animation.Interval,
		settle:   conf.Animation.SettleDelay,
		logger:   logger,
		metrics:  metrics,
	}
}

// Play blocks until the animation for result is revealed, superseded or
// ctx is done. A result without resolvable ids clears the selection and
// returns (nil, nil).
func (a *Animator) Play(ctx context.Context, result models.PickResult) (*models.Selection, error) {
	done := a.Start(ctx, result)
	select {
	case out := <-done:
		return out.Selection, out.Err
	case <-ctx.Done():
		a.mu.Lock()
		a.abortLocked(ctx, ctx.Err())
		a.mu.Unlock()
		out := <-done
		return out.Selection, out.Err
	}
}

func (a *Animator) Start(ctx context.Context, result models.PickResult) <-chan Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		a.stopLocked(a.current, ErrSuperseded)
	}

	done := make(chan Outcome, 1)
	r := a.plan(ctx, result, done)
	if len(r.frames) == 0 {
		a.logger.Debugf(providers.TypeAnimation, "Nothing to reveal, clearing selection")
		a.selection = nil
		done <- Outcome{}
		return done
	}

	a.current = r
	a.gate.SetAnimating(true)
	a.metrics.IncAnimationsTotal(result.Mode.String())
	a.logger.Debugf(providers.TypeAnimation, "Animating %s pick with %d frames", result.Mode, len(r.frames))

	a.emitLocked(r)
	if len(r.frames) == 1 {
		r.timeout = a.timers.After(a.settle, func() { a.finish(r) })
	} else {
		r.ticker = a.timers.Every(a.interval, func() { a.step(r) })
	}
	return done
}

func (a *Animator) step(r *run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != r {
		return
	}
	if err := r.ctx.Err(); err != nil {
		a.stopLocked(r, fmt.Errorf("animation cancelled: %w", err))
		return
	}
	// A tick that raced the last frame finds the ticker already released.
	if r.ticker == nil || r.index >= len(r.frames) {
		return
	}
	a.emitLocked(r)
	if r.index >= len(r.frames) {
		r.ticker.Stop()
		r.ticker = nil
		r.timeout = a.timers.After(a.settle, func() { a.finish(r) })
	}
}

func (a *Animator) finish(r *run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != r {
		return
	}
	if err := r.ctx.Err(); err != nil {
		a.stopLocked(r, fmt.Errorf("animation cancelled: %w", err))
		return
	}

	sel := a.resolveLocked(r)
	a.selection = sel
	a.current = nil
	a.gate.SetAnimating(false)
	a.metrics.IncAnimationFrames(len(r.frames))
	a.logger.Debugf(providers.TypeAnimation, "Revealed %v", sel.IDs)
	r.done <- Outcome{Selection: sel}
}

func (a *Animator) emitLocked(r *run) {
	f := r.frames[r.index]
	r.index++
	if a.sink != nil {
		a.sink.Frame(f)
	}
}

// abortLocked stops the run started with ctx, if it is still active.
func (a *Animator) abortLocked(ctx context.Context, cause error) {
	if a.current != nil && a.current.ctx == ctx {
		a.stopLocked(a.current, fmt.Errorf("animation cancelled: %w", cause))
	}
}

func (a *Animator) stopLocked(r *run, err error) {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.timeout != nil {
		r.timeout.Stop()
	}
	if a.current == r {
		a.current = nil
		a.gate.SetAnimating(false)
	}
	a.logger.Debugf(providers.TypeAnimation, "Animation stopped: %s", err)
	r.done <- Outcome{Err: err}
}

func (a *Animator) plan(ctx context.Context, result models.PickResult, done chan Outcome) *run {
	r := &run{ctx: ctx, result: result, finals: result.IDs, done: done}
	if len(result.IDs) == 0 {
		return r
	}
	snap := a.view.Snapshot()

	if result.Mode == models.ModeGroup {
		if g := groupOf(result, snap); g != nil {
			r.group = g
			hint := result.PoolGroups
			if len(hint) == 0 {
				hint = snap.Groups().Values()
			}
			seq := buildSequence(hint, false, []int{*g}, a.rng)
			r.frames = make([]models.Frame, len(seq))
			for i, v := range seq {
				r.frames[i] = models.Frame{Index: i, Total: len(seq), Subject: strconv.Itoa(v), Label: GroupLabel(v), Final: i == len(seq)-1}
			}
			return r
		}
	}

	seq := buildSequence(result.PoolStudents, result.HasPool, result.IDs, a.rng)
	tail := len(seq) - len(result.IDs)
	r.frames = make([]models.Frame, len(seq))
	for i, id := range seq {
		r.frames[i] = models.Frame{Index: i, Total: len(seq), Subject: id, Label: studentLabel(id, snap, result), Final: i >= tail}
	}
	return r
}

func (a *Animator) resolveLocked(r *run) *models.Selection {
	snap := a.view.Snapshot()
	sel := &models.Selection{
		Mode:           r.result.Mode,
		IDs:            append([]string(nil), r.finals...),
		Students:       make([]models.HistoryStudent, 0, len(r.finals)),
		RequestedCount: r.result.RequestedCount,
		IgnoreCooldown: r.result.IgnoreCooldown,
		HistoryEntryID: r.result.HistoryEntryID,
	}
	for _, id := range r.finals {
		sel.Students = append(sel.Students, resolveStudent(id, snap, r.result))
	}
	switch {
	case r.group != nil:
		g := *r.group
		sel.Group = &g
	case sel.Mode == models.ModeSingle && len(sel.Students) > 0:
		sel.Group = sel.Students[0].Group
	}
	return sel
}

func (a *Animator) Selection() *models.Selection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection
}

func (a *Animator) Animating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Sync refreshes the names and groups of the current selection from the
// latest snapshot.
func (a *Animator) Sync() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.selection == nil {
		return
	}
	snap := a.view.Snapshot()
	next := *a.selection
	next.Students = make([]models.HistoryStudent, len(a.selection.Students))
	for i, s := range a.selection.Students {
		next.Students[i] = s
		if live, ok := snap.Student(s.ID); ok {
			g := live.Group
			next.Students[i] = models.HistoryStudent{ID: live.ID, Name: live.Name, Group: &g}
		}
	}
	if next.Mode == models.ModeSingle && len(next.Students) > 0 {
		next.Group = next.Students[0].Group
	}
	a.selection = &next
}

// Reset clears the selection.
func (a *Animator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selection = nil
}

func GroupLabel(group int) string {
	return "Group " + strconv.Itoa(group)
}

func resolveStudent(id string, snap *state.Snapshot, result models.PickResult) models.HistoryStudent {
	if live, ok := snap.Student(id); ok {
		g := live.Group
		return models.HistoryStudent{ID: id, Name: live.Name, Group: &g}
	}
	if s, ok := result.Student(id); ok {
		return s
	}
	return models.HistoryStudent{ID: id}
}

func studentLabel(id string, snap *state.Snapshot, result models.PickResult) string {
	if name := resolveStudent(id, snap, result).Name; name != "" {
		return name
	}
	return placeholderLabel
}

// groupOf prefers the group the server reported, then the group of the
// first final student that can be resolved.
func groupOf(result models.PickResult, snap *state.Snapshot) *int {
	if result.Group != nil {
		g := *result.Group
		return &g
	}
	for _, id := range result.IDs {
		if g := resolveStudent(id, snap, result).Group; g != nil {
			v := *g
			return &v
		}
	}
	return nil
}
