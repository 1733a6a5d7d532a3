package animator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/state"
	"pickme/internal/structures"
	"pickme/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testInterval = 80 * time.Millisecond
	testSettle   = 300 * time.Millisecond
)

const classroom = `{"students":[
	{"id":"s1","name":"Ann","group":1},
	{"id":"s2","name":"Bob","group":2},
	{"id":"s3","name":"Cid","group":2},
	{"id":"s4","name":"Dee","group":3},
	{"id":"s5","name":"Eve","group":3}
]}`

type recordingSink struct {
	mu     sync.Mutex
	frames []models.Frame
}

func (s *recordingSink) Frame(f models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *recordingSink) all() []models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Frame(nil), s.frames...)
}

type fixture struct {
	animator *Animator
	timers   *ManualTimers
	sink     *recordingSink
	store    state.StoreInterface
	gate     *gateway.Gate
	metrics  *testutil.MockMetrics
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	conf := &structures.Config{
		Animation: structures.AnimationConfig{Interval: testInterval, SettleDelay: testSettle},
		Locale:    structures.LocaleConfig{Collation: "en"},
	}
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	store := state.NewStore(conf, logger, metrics, testutil.NewMockMirror())
	raw, err := state.Decode([]byte(doc))
	require.NoError(t, err)
	store.Reconcile(raw)

	f := &fixture{
		timers:  NewManualTimers(),
		sink:    &recordingSink{},
		store:   store,
		gate:    gateway.NewGate(),
		metrics: metrics,
	}
	f.animator = newAnimator(conf, f.timers, f.sink, store, f.gate, logger, metrics, testRand())
	return f
}

func outcomeNow(t *testing.T, done <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-done:
		return out
	default:
		t.Fatal("animation has not finished")
		return Outcome{}
	}
}

func assertPending(t *testing.T, done <-chan Outcome) {
	t.Helper()
	select {
	case out := <-done:
		t.Fatalf("animation finished early: %+v", out)
	default:
	}
}

func singlePick(id string, pool ...string) models.PickResult {
	return models.PickResult{Mode: models.ModeSingle, IDs: []string{id}, PoolStudents: pool, HasPool: pool != nil}
}

func TestAnimator_SingleRevealsAfterLastFrame(t *testing.T) {
	f := newFixture(t, classroom)
	done := f.animator.Start(context.Background(), singlePick("s2", "s1", "s2", "s3", "s4", "s5"))

	require.Len(t, f.sink.all(), 1)
	assert.True(t, f.gate.Animating())
	assert.True(t, f.animator.Animating())
	assert.Nil(t, f.animator.Selection())

	f.timers.Advance(5 * testInterval)
	frames := f.sink.all()
	require.Len(t, frames, 6)
	last := frames[5]
	assert.True(t, last.Final)
	assert.Equal(t, "s2", last.Subject)
	assert.Equal(t, "Bob", last.Label)
	for _, fr := range frames[:5] {
		assert.False(t, fr.Final)
		assert.Equal(t, 6, fr.Total)
	}
	assertPending(t, done)
	assert.Nil(t, f.animator.Selection(), "selection stays hidden until the settle delay")

	f.timers.Advance(testSettle)
	out := outcomeNow(t, done)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Selection)
	assert.Equal(t, []string{"s2"}, out.Selection.IDs)
	assert.Equal(t, "Bob", out.Selection.Students[0].Name)
	require.NotNil(t, out.Selection.Group)
	assert.Equal(t, 2, *out.Selection.Group)
	assert.Same(t, out.Selection, f.animator.Selection())

	assert.False(t, f.gate.Animating())
	assert.False(t, f.animator.Animating())
	assert.Equal(t, 1, f.metrics.Animations["single"])
	assert.Equal(t, 6, f.metrics.Frames)
	assert.Equal(t, 0, f.timers.Active())
}

func TestAnimator_EmptyPoolShowsFinalOnly(t *testing.T) {
	f := newFixture(t, classroom)
	done := f.animator.Start(context.Background(), singlePick("s1", []string{}...))

	frames := f.sink.all()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Final)

	f.timers.Advance(testSettle)
	out := outcomeNow(t, done)
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"s1"}, out.Selection.IDs)
}

func TestAnimator_BatchKeepsFinalOrder(t *testing.T) {
	f := newFixture(t, classroom)
	result := models.PickResult{Mode: models.ModeBatch, IDs: []string{"s4", "s1", "s3"}}
	done := f.animator.Start(context.Background(), result)

	f.timers.Advance(time.Second)
	out := outcomeNow(t, done)
	require.NoError(t, out.Err)

	frames := f.sink.all()
	require.Len(t, frames, 6)
	var tail []string
	for _, fr := range frames[3:] {
		assert.True(t, fr.Final)
		tail = append(tail, fr.Subject)
	}
	assert.Equal(t, []string{"s4", "s1", "s3"}, tail)
	assert.Equal(t, []string{"Dee", "Ann", "Cid"}, out.Selection.Names())
	assert.Nil(t, out.Selection.Group)
}

func TestAnimator_EmptyResultClearsSelection(t *testing.T) {
	f := newFixture(t, classroom)
	done := f.animator.Start(context.Background(), singlePick("s1", []string{}...))
	f.timers.Advance(testSettle)
	require.NotNil(t, outcomeNow(t, done).Selection)

	done = f.animator.Start(context.Background(), models.PickResult{Mode: models.ModeSingle})
	out := outcomeNow(t, done)
	assert.NoError(t, out.Err)
	assert.Nil(t, out.Selection)
	assert.Nil(t, f.animator.Selection())
	assert.False(t, f.gate.Animating())
}

func TestAnimator_NewRunSupersedesOld(t *testing.T) {
	f := newFixture(t, classroom)
	first := f.animator.Start(context.Background(), singlePick("s1"))
	f.timers.Advance(testInterval)

	second := f.animator.Start(context.Background(), singlePick("s2"))
	out := outcomeNow(t, first)
	assert.ErrorIs(t, out.Err, ErrSuperseded)
	assert.True(t, f.gate.Animating())

	f.timers.Advance(time.Second)
	out = outcomeNow(t, second)
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"s2"}, out.Selection.IDs)
	assertPending(t, first)
}

func TestAnimator_ContextCancelStopsRun(t *testing.T) {
	f := newFixture(t, classroom)
	ctx, cancel := context.WithCancel(context.Background())
	done := f.animator.Start(ctx, singlePick("s3", "s1", "s2", "s3"))

	cancel()
	f.timers.Advance(testInterval)

	out := outcomeNow(t, done)
	assert.True(t, errors.Is(out.Err, context.Canceled))
	assert.Nil(t, f.animator.Selection())
	assert.False(t, f.gate.Animating())
	assert.Len(t, f.sink.all(), 1)
}

func TestAnimator_PlayReturnsOnCancel(t *testing.T) {
	f := newFixture(t, classroom)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sel, err := f.animator.Play(ctx, singlePick("s1"))
	assert.Nil(t, sel)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.animator.Animating())
}

func TestAnimator_PlayWaitsForReveal(t *testing.T) {
	f := newFixture(t, classroom)
	type played struct {
		sel *models.Selection
		err error
	}
	res := make(chan played, 1)
	go func() {
		sel, err := f.animator.Play(context.Background(), singlePick("s5"))
		res <- played{sel, err}
	}()

	require.Eventually(t, f.animator.Animating, time.Second, time.Millisecond)
	f.timers.Advance(time.Second)

	select {
	case p := <-res:
		require.NoError(t, p.err)
		assert.Equal(t, "Eve", p.sel.Students[0].Name)
	case <-time.After(time.Second):
		t.Fatal("Play did not return")
	}
}

func TestAnimator_GroupMode(t *testing.T) {
	f := newFixture(t, classroom)
	group := 2
	result := models.PickResult{Mode: models.ModeGroup, IDs: []string{"s2", "s3"}, Group: &group, PoolGroups: []int{1, 2, 3}}
	done := f.animator.Start(context.Background(), result)
	f.timers.Advance(time.Second)

	out := outcomeNow(t, done)
	require.NoError(t, out.Err)
	frames := f.sink.all()
	require.Len(t, frames, 4)
	assert.Equal(t, "Group 2", frames[3].Label)
	assert.True(t, frames[3].Final)
	for _, fr := range frames[:3] {
		assert.Contains(t, []string{"Group 1", "Group 2", "Group 3"}, fr.Label)
	}
	require.NotNil(t, out.Selection.Group)
	assert.Equal(t, 2, *out.Selection.Group)
	assert.Equal(t, []string{"Bob", "Cid"}, out.Selection.Names())
}

func TestAnimator_GroupModeInfersGroup(t *testing.T) {
	f := newFixture(t, classroom)
	done := f.animator.Start(context.Background(), models.PickResult{Mode: models.ModeGroup, IDs: []string{"s4", "s5"}})
	f.timers.Advance(time.Second)

	out := outcomeNow(t, done)
	require.NotNil(t, out.Selection.Group)
	assert.Equal(t, 3, *out.Selection.Group)
	frames := f.sink.all()
	assert.Equal(t, "Group 3", frames[len(frames)-1].Label)
}

func TestAnimator_UnknownStudentLabels(t *testing.T) {
	f := newFixture(t, classroom)
	result := models.PickResult{
		Mode:     models.ModeBatch,
		IDs:      []string{"ghost", "s9"},
		Students: []models.HistoryStudent{{ID: "s9", Name: "Nine"}},
		HasPool:  true,
	}
	done := f.animator.Start(context.Background(), result)
	f.timers.Advance(time.Second)
	out := outcomeNow(t, done)

	frames := f.sink.all()
	require.Len(t, frames, 2)
	assert.Equal(t, placeholderLabel, frames[0].Label)
	assert.Equal(t, "Nine", frames[1].Label)
	assert.Equal(t, "ghost", out.Selection.Students[0].ID)
	assert.Empty(t, out.Selection.Students[0].Name)
}

func TestAnimator_SyncAndReset(t *testing.T) {
	f := newFixture(t, classroom)
	done := f.animator.Start(context.Background(), singlePick("s1", []string{}...))
	f.timers.Advance(testSettle)
	outcomeNow(t, done)

	raw, err := state.Decode([]byte(`{"students":[{"id":"s1","name":"Annie","group":4}]}`))
	require.NoError(t, err)
	f.store.Reconcile(raw)
	f.animator.Sync()

	sel := f.animator.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, "Annie", sel.Students[0].Name)
	require.NotNil(t, sel.Group)
	assert.Equal(t, 4, *sel.Group)

	f.animator.Reset()
	assert.Nil(t, f.animator.Selection())
	f.animator.Sync()
	assert.Nil(t, f.animator.Selection())
}

type slowSink struct {
	recordingSink
	delay time.Duration
}

func (s *slowSink) Frame(f models.Frame) {
	time.Sleep(s.delay)
	s.recordingSink.Frame(f)
}

func TestPlay_RealTimersWithSlowSink(t *testing.T) {
	conf := &structures.Config{
		Animation: structures.AnimationConfig{Interval: 2 * time.Millisecond, SettleDelay: time.Millisecond},
		Locale:    structures.LocaleConfig{Collation: "en"},
	}
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	store := state.NewStore(conf, logger, metrics, testutil.NewMockMirror())
	raw, err := state.Decode([]byte(classroom))
	require.NoError(t, err)
	store.Reconcile(raw)

	gate := gateway.NewGate()
	sink := &slowSink{delay: 6 * time.Millisecond}
	a := newAnimator(conf, NewTimers(), sink, store, gate, logger, metrics, testRand())

	for i := range 40 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		sel, err := a.Play(ctx, singlePick("s3", "s1", "s2", "s3", "s4", "s5"))
		cancel()

		require.NoError(t, err, "play %d", i)
		require.NotNil(t, sel, "play %d", i)
		assert.Equal(t, "Cid", sel.Students[0].Name)
		assert.False(t, gate.Animating(), "play %d left the gate held", i)
	}
	assert.Len(t, sink.all(), 40*6, "each play emits its frames exactly once")
}
