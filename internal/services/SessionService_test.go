package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pickme/internal/animator"
	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/state"
	"pickme/internal/structures"
	"pickme/internal/testutil"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roster = `{
	"current_class_id": "c1",
	"classes": [{"id":"c1","name":"One","order":0},{"id":"c2","name":"Two","order":1}],
	"payload": {
		"cooldown_days": 3,
		"students": [
			{"id":"s1","name":"Ann","group":1,"pick_history":[1700000000]},
			{"id":"s2","name":"Bob","group":2,"is_cooling":true},
			{"id":"s3","name":"Cid","group":2}
		],
		"history": {"entries": [{"id":"h1","timestamp":1700000000,"mode":"single","students":[{"id":"s1","name":"Ann"}]}]}
	}
}`

func object(t *testing.T, doc string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	return out
}

type fakeGateway struct {
	mu         sync.Mutex
	actions    []gateway.Action
	DispatchFn func(ctx context.Context, action gateway.Action) (*gateway.Response, error)
}

func (g *fakeGateway) Dispatch(ctx context.Context, action gateway.Action) (*gateway.Response, error) {
	g.mu.Lock()
	g.actions = append(g.actions, action)
	fn := g.DispatchFn
	g.mu.Unlock()
	if fn == nil {
		return &gateway.Response{}, nil
	}
	return fn(ctx, action)
}

func (g *fakeGateway) CancelAll()   {}
func (g *fakeGateway) Pending() int { return 0 }

func (g *fakeGateway) sent() []gateway.Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.Action(nil), g.actions...)
}

type fakeAnimator struct {
	selection *models.Selection
	played    []models.PickResult
	syncs     int
	resets    int
	PlayFn    func(ctx context.Context, result models.PickResult) (*models.Selection, error)
}

func (a *fakeAnimator) Selection() *models.Selection { return a.selection }
func (a *fakeAnimator) Play(ctx context.Context, result models.PickResult) (*models.Selection, error) {
	a.played = append(a.played, result)
	if a.PlayFn != nil {
		return a.PlayFn(ctx, result)
	}
	a.selection = &models.Selection{Mode: result.Mode, IDs: result.IDs, HistoryEntryID: result.HistoryEntryID}
	return a.selection, nil
}
func (a *fakeAnimator) Start(context.Context, models.PickResult) <-chan animator.Outcome {
	return nil
}
func (a *fakeAnimator) Animating() bool { return false }
func (a *fakeAnimator) Sync()           { a.syncs++ }
func (a *fakeAnimator) Reset() {
	a.resets++
	a.selection = nil
}

type fakeRender struct{ requests int }

func (r *fakeRender) Init()         {}
func (r *fakeRender) Stop()         {}
func (r *fakeRender) Request()      { r.requests++ }
func (r *fakeRender) Immediate()    {}
func (r *fakeRender) Pending() bool { return r.requests > 0 }

type fakeNotifier struct {
	notices  []string
	failures []error
}

func (n *fakeNotifier) Notice(message string) { n.notices = append(n.notices, message) }
func (n *fakeNotifier) Failure(err error)     { n.failures = append(n.failures, err) }

type fixture struct {
	service  *SessionService
	gateway  *fakeGateway
	store    state.StoreInterface
	animator *fakeAnimator
	gate     *gateway.Gate
	render   *fakeRender
	notifier *fakeNotifier
	prefs    *Preferences
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conf := &structures.Config{Locale: structures.LocaleConfig{Collation: "en"}}
	logger := &testutil.MockLogger{}
	store := state.NewStore(conf, logger, testutil.NewMockMetrics(), testutil.NewMockMirror())
	store.Reconcile(object(t, roster))

	f := &fixture{
		gateway:  &fakeGateway{},
		store:    store,
		animator: &fakeAnimator{},
		gate:     gateway.NewGate(),
		render:   &fakeRender{},
		notifier: &fakeNotifier{},
		prefs:    NewPreferences(),
	}
	f.service = NewSessionService(f.gateway, store, f.animator, f.gate, f.render, f.notifier, f.prefs, logger).(*SessionService)
	return f
}

// replyWith answers every action with doc as the new state.
func (f *fixture) replyWith(t *testing.T, doc string, result map[string]any) {
	st := object(t, doc)
	f.gateway.DispatchFn = func(context.Context, gateway.Action) (*gateway.Response, error) {
		return &gateway.Response{State: st, Result: result}, nil
	}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, field, verr.Field)
}

func TestPick_AnimatesThenReconciles(t *testing.T) {
	f := newFixture(t)
	var seenRevision uint64
	f.animator.PlayFn = func(_ context.Context, result models.PickResult) (*models.Selection, error) {
		seenRevision = f.store.Snapshot().Revision
		assert.True(t, f.gate.Busy(), "gate is held for the whole pick")
		return &models.Selection{IDs: result.IDs}, nil
	}
	f.replyWith(t, roster, map[string]any{
		"mode":             "single",
		"students":         []any{map[string]any{"id": "s3", "name": "Cid"}},
		"history_entry_id": "h2",
	})
	f.prefs.ignoreCooldown.Store(true)

	require.NoError(t, f.service.Pick(context.Background(), models.ModeSingle))

	sent := f.gateway.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, gateway.KindRandomPick, sent[0].Kind)
	assert.Equal(t, "single", sent[0].Params["mode"])
	assert.Equal(t, true, sent[0].Params["ignore_cooldown"])

	require.Len(t, f.animator.played, 1)
	assert.Equal(t, []string{"s3"}, f.animator.played[0].IDs)
	assert.Equal(t, uint64(1), seenRevision, "state is applied after the animation")
	assert.Equal(t, uint64(2), f.store.Snapshot().Revision)
	assert.Equal(t, 1, f.animator.syncs)
	assert.Equal(t, "h2", f.prefs.TakeHighlight())
	assert.Empty(t, f.prefs.TakeHighlight())
	assert.False(t, f.gate.Busy())
	assert.Positive(t, f.render.requests)
	assert.Empty(t, f.notifier.failures)
}

func TestPick_ErrorResetsSelection(t *testing.T) {
	f := newFixture(t)
	f.animator.selection = &models.Selection{IDs: []string{"s1"}}
	f.gateway.DispatchFn = func(context.Context, gateway.Action) (*gateway.Response, error) {
		return nil, &gateway.HTTPError{Status: 409, Message: "no students available"}
	}

	err := f.service.PickGroup(context.Background())

	var httpErr *gateway.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Nil(t, f.animator.selection)
	require.Len(t, f.notifier.failures, 1)
	assert.Equal(t, "no students available", f.notifier.failures[0].Error())
	assert.False(t, f.gate.Busy())
	assert.Empty(t, f.animator.played)
	assert.Equal(t, uint64(1), f.store.Snapshot().Revision)
}

func TestPick_AbortIsSilent(t *testing.T) {
	f := newFixture(t)
	f.animator.selection = &models.Selection{IDs: []string{"s1"}}
	f.gateway.DispatchFn = func(context.Context, gateway.Action) (*gateway.Response, error) {
		return nil, gateway.ErrAborted
	}

	err := f.service.Pick(context.Background(), models.ModeSingle)

	assert.ErrorIs(t, err, gateway.ErrAborted)
	assert.Empty(t, f.notifier.failures)
	assert.NotNil(t, f.animator.selection)
}

func TestPick_BlockedWhileBusy(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.gate.TryAcquire())

	assert.ErrorIs(t, f.service.Pick(context.Background(), models.ModeSingle), ErrBusy)
	assert.ErrorIs(t, f.service.ClearCooldown(context.Background()), ErrBusy)
	assert.Empty(t, f.gateway.sent())

	f.gate.Release()
	f.gate.SetAnimating(true)
	assert.ErrorIs(t, f.service.PickBatch(context.Background(), 1), ErrBusy)
	assert.Empty(t, f.gateway.sent())
}

func TestPickBatch_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.PickBatch(ctx, 0), "count")
	assertValidation(t, f.service.PickBatch(ctx, 3), "count")
	assert.Empty(t, f.gateway.sent())
	assert.Len(t, f.notifier.failures, 2)

	f.service.SetIgnoreCooldown(true)
	assert.Equal(t, 3, f.service.Available())
	f.replyWith(t, roster, map[string]any{"mode": "batch", "student_ids": []any{"s1", "s2", "s3"}})
	require.NoError(t, f.service.PickBatch(ctx, 3))

	sent := f.gateway.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, 3, sent[0].Params["count"])
	assert.Equal(t, "batch", sent[0].Params["mode"])
}

func TestPickBatch_NothingAvailable(t *testing.T) {
	f := newFixture(t)
	f.store.Reconcile(object(t, `{"students":[{"id":"s1","is_cooling":true}]}`))

	err := f.service.PickBatch(context.Background(), 1)
	assertValidation(t, err, "count")
	assert.Equal(t, "no students are available to pick", err.Error())
}

func TestDefaultBatchCount(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 2, f.service.DefaultBatchCount())

	f.animator.selection = &models.Selection{Mode: models.ModeBatch, IDs: []string{"a", "b", "c"}}
	assert.Equal(t, 2, f.service.DefaultBatchCount(), "clamped to available students")

	f.service.SetIgnoreCooldown(true)
	assert.Equal(t, 3, f.service.DefaultBatchCount())
}

func TestSetCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.SetCooldown(ctx, 0), "days")
	assertValidation(t, f.service.SetCooldown(ctx, -2), "days")
	require.NoError(t, f.service.SetCooldown(ctx, 3.2), "unchanged value is a no-op")
	assert.Empty(t, f.gateway.sent())

	f.replyWith(t, roster, nil)
	require.NoError(t, f.service.SetCooldown(ctx, 4.6))
	sent := f.gateway.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, gateway.KindSetCooldown, sent[0].Kind)
	assert.Equal(t, 5, sent[0].Params["days"])
	assert.Equal(t, []string{"Cooldown updated"}, f.notifier.notices)
}

func TestCreateStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.CreateStudent(ctx, "", "  ", 1), "name")
	assertValidation(t, f.service.CreateStudent(ctx, "S1", "New", 1), "id")
	assertValidation(t, f.service.CreateStudent(ctx, "", "ann", 1), "name")
	assert.Empty(t, f.gateway.sent())

	f.replyWith(t, roster, nil)
	require.NoError(t, f.service.CreateStudent(ctx, " s9 ", " Dee ", "-3"))
	sent := f.gateway.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, map[string]any{"student_id": "s9", "name": "Dee", "group": 0}, sent[0].Params)
	assert.Equal(t, []string{"Student added"}, f.notifier.notices)
}

func TestUpdateStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.UpdateStudent(ctx, "missing", "", "X", 0), "id")
	assertValidation(t, f.service.UpdateStudent(ctx, "s1", "s2", "Ann", 0), "new_id")
	assertValidation(t, f.service.UpdateStudent(ctx, "s1", "", "BOB", 0), "name")

	f.replyWith(t, roster, nil)
	require.NoError(t, f.service.UpdateStudent(ctx, "s1", "", "Ann", 2.6))
	sent := f.gateway.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, map[string]any{"student_id": "s1", "new_id": "s1", "name": "Ann", "group": 3}, sent[0].Params)
}

func TestStudentActionsRequireKnownStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.DeleteStudent(ctx, "nope"), "id")
	assertValidation(t, f.service.ForceCooldown(ctx, "nope"), "id")
	assertValidation(t, f.service.ReleaseCooldown(ctx, "nope"), "id")
	assertValidation(t, f.service.RemoveStudentHistory(ctx, "nope", 1), "id")
	assertValidation(t, f.service.ClearStudentHistory(ctx, "s3"), "id")
	assert.Empty(t, f.gateway.sent())

	f.replyWith(t, roster, nil)
	require.NoError(t, f.service.ForceCooldown(ctx, "s3"))
	require.NoError(t, f.service.ReleaseCooldown(ctx, "s2"))
	require.NoError(t, f.service.ClearStudentHistory(ctx, "s1"))
	require.NoError(t, f.service.RemoveStudentHistory(ctx, "s1", 1700000000))
	require.NoError(t, f.service.DeleteStudent(ctx, "s3"))

	var kinds []string
	for _, a := range f.gateway.sent() {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []string{
		gateway.KindStudentForceCooldown,
		gateway.KindStudentReleaseCooldown,
		gateway.KindStudentHistoryClear,
		gateway.KindStudentHistoryRemove,
		gateway.KindStudentDelete,
	}, kinds)
	assert.Equal(t, 1700000000.0, f.gateway.sent()[3].Params["timestamp"])
}

func TestClassActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.SwitchClass(ctx, "c1"), "switching to the current class is a no-op")
	assertValidation(t, f.service.SwitchClass(ctx, "c9"), "class_id")
	assertValidation(t, f.service.CreateClass(ctx, " "), "name")
	assertValidation(t, f.service.DeleteClass(ctx, "c9"), "class_id")
	require.NoError(t, f.service.ReorderClasses(ctx, []string{"c1", "c2"}))
	assert.Empty(t, f.gateway.sent())

	f.replyWith(t, `{"current_class_id":"c2","classes":[{"id":"c1","name":"One"},{"id":"c2","name":"Two"}]}`, nil)
	require.NoError(t, f.service.SwitchClass(ctx, "c2"))
	assert.Equal(t, "Switched to Two", f.notifier.notices[0])

	require.NoError(t, f.service.ReorderClasses(ctx, []string{"c2", "c1"}))
	sent := f.gateway.sent()
	assert.Equal(t, []string{"c2", "c1"}, sent[1].Params["order"])

	require.NoError(t, f.service.CreateClass(ctx, "  Three "))
	assert.Equal(t, "Three", f.gateway.sent()[2].Params["name"])
}

func TestHistoryEntryActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertValidation(t, f.service.SetHistoryNote(ctx, "nope", "x"), "entry_id")
	long := make([]rune, models.MaxNoteLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assertValidation(t, f.service.SetHistoryNote(ctx, "h1", string(long)), "note")
	assertValidation(t, f.service.DeleteHistoryEntry(ctx, "nope"), "entry_id")

	f.replyWith(t, roster, nil)
	require.NoError(t, f.service.SetHistoryNote(ctx, "h1", "  went well "))
	assert.Equal(t, "went well", f.gateway.sent()[0].Params["note"])
	assert.Equal(t, "h1", f.prefs.TakeHighlight())

	require.NoError(t, f.service.DeleteHistoryEntry(ctx, "h1"))
	assert.Equal(t, map[string]any{"entry_id": "h1"}, f.gateway.sent()[1].Params)
}

func TestRun_NetworkErrorKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot()
	f.gateway.DispatchFn = func(context.Context, gateway.Action) (*gateway.Response, error) {
		return nil, &gateway.NetworkError{Err: errors.New("connection refused")}
	}

	err := f.service.ClearCooldown(context.Background())

	var netErr *gateway.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.Same(t, before, f.store.Snapshot())
	require.Len(t, f.notifier.failures, 1)
	assert.Equal(t, "network request failed", gateway.UserMessage(f.notifier.failures[0]))
	assert.False(t, f.gate.Busy())
}

func TestRun_ReplyWithoutStateKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot()

	require.NoError(t, f.service.ClearCooldown(context.Background()))
	assert.Same(t, before, f.store.Snapshot())
	assert.Equal(t, []string{"Cooldown list cleared"}, f.notifier.notices)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	all := f.service.Search("")
	assert.Len(t, all, 3)

	found := f.service.Search("  BO ")
	require.Len(t, found, 1)
	assert.Equal(t, "s2", found[0].ID)
	assert.Equal(t, "BO", f.prefs.Search())
}

func TestSanitizeGroup(t *testing.T) {
	assert.Equal(t, 0, SanitizeGroup("abc"))
	assert.Equal(t, 0, SanitizeGroup(-4))
	assert.Equal(t, 3, SanitizeGroup("2.5"))
	assert.Equal(t, 7, SanitizeGroup(7))
	assert.Equal(t, 0, SanitizeGroup(nil))
}
