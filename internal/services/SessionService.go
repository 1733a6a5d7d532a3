package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"pickme/internal/animator"
	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/render"
	"pickme/internal/state"

	"github.com/spf13/cast"
)

const defaultBatchCount = 2

// Notifier is the single surface user-facing notices go through.
type Notifier interface {
	Notice(message string)
	Failure(err error)
}

type SessionServiceInterface interface {
	Pick(ctx context.Context, mode models.DrawMode) error
	PickBatch(ctx context.Context, count int) error
	PickGroup(ctx context.Context) error
	SetIgnoreCooldown(ignore bool)
	SetCooldown(ctx context.Context, days float64) error
	ClearCooldown(ctx context.Context) error
	CreateStudent(ctx context.Context, id, name string, group any) error
	UpdateStudent(ctx context.Context, id, newID, name string, group any) error
	DeleteStudent(ctx context.Context, id string) error
	ForceCooldown(ctx context.Context, id string) error
	ReleaseCooldown(ctx context.Context, id string) error
	ClearStudentHistory(ctx context.Context, id string) error
	RemoveStudentHistory(ctx context.Context, id string, timestamp float64) error
	SwitchClass(ctx context.Context, id string) error
	CreateClass(ctx context.Context, name string) error
	DeleteClass(ctx context.Context, id string) error
	ReorderClasses(ctx context.Context, ids []string) error
	SetHistoryNote(ctx context.Context, entryID, note string) error
	DeleteHistoryEntry(ctx context.Context, entryID string) error
	Search(keyword string) []models.StudentRecord
	Available() int
	DefaultBatchCount() int
}

// SessionService runs user actions against the remote handler and applies
// the returned state. Only one action runs at a time.
type SessionService struct {
	gateway  gateway.GatewayInterface
	store    state.StoreInterface
	animator animator.AnimatorInterface
	gate     *gateway.Gate
	render   render.SchedulerInterface
	notifier Notifier
	prefs    *Preferences
	logger   providers.Logger
}

func NewSessionService(gw gateway.GatewayInterface, store state.StoreInterface, anim animator.AnimatorInterface, gate *gateway.Gate, scheduler render.SchedulerInterface, notifier Notifier, prefs *Preferences, logger providers.Logger) SessionServiceInterface {
	return &SessionService{
		gateway:  gw,
		store:    store,
		animator: anim,
		gate:     gate,
		render:   scheduler,
		notifier: notifier,
		prefs:    prefs,
		logger:   logger,
	}
}

func (s *SessionService) Pick(ctx context.Context, mode models.DrawMode) error {
	if mode == models.ModeBatch {
		return s.PickBatch(ctx, s.DefaultBatchCount())
	}
	return s.pick(ctx, mode, nil)
}

func (s *SessionService) PickBatch(ctx context.Context, count int) error {
	if s.gate.Blocked() {
		return ErrBusy
	}
	available := s.Available()
	switch {
	case available == 0:
		return s.reject(invalid("count", "no students are available to pick"))
	case count < 1:
		return s.reject(invalid("count", "enter a valid number of students"))
	case count > available:
		return s.reject(invalid("count", "count exceeds the number of available students"))
	}
	return s.pick(ctx, models.ModeBatch, map[string]any{"count": count})
}

func (s *SessionService) PickGroup(ctx context.Context) error {
	return s.pick(ctx, models.ModeGroup, nil)
}

// Available is the number of students a pick may draw from.
func (s *SessionService) Available() int {
	total, _, available := s.store.Snapshot().Counts()
	if s.prefs.IgnoreCooldown() {
		return total
	}
	return available
}

// DefaultBatchCount repeats the size of the last batch, clamped to what is
// available.
func (s *SessionService) DefaultBatchCount() int {
	count := defaultBatchCount
	if sel := s.animator.Selection(); sel != nil && sel.Mode == models.ModeBatch && len(sel.IDs) > 0 {
		count = len(sel.IDs)
	}
	return max(1, min(s.Available(), count))
}

func (s *SessionService) pick(ctx context.Context, mode models.DrawMode, extra map[string]any) error {
	if !s.gate.TryAcquire() {
		return ErrBusy
	}
	defer s.gate.Release()

	params := map[string]any{
		"mode":            mode.String(),
		"ignore_cooldown": s.prefs.IgnoreCooldown(),
	}
	for k, v := range extra {
		params[k] = v
	}

	resp, err := s.gateway.Dispatch(ctx, gateway.Action{Kind: gateway.KindRandomPick, Params: params})
	if err != nil {
		if !errors.Is(err, gateway.ErrAborted) {
			s.animator.Reset()
		}
		return s.fail(gateway.KindRandomPick, err)
	}

	result, _ := animator.ParsePickResult(resp.Result)
	_, playErr := s.animator.Play(ctx, result)

	s.apply(resp)
	s.prefs.setHighlight(result.HistoryEntryID)
	s.render.Request()

	if playErr != nil {
		s.logger.Debugf(providers.TypeAnimation, "Pick animation did not finish: %s", playErr)
		return playErr
	}
	return nil
}

func (s *SessionService) SetIgnoreCooldown(ignore bool) {
	s.prefs.ignoreCooldown.Store(ignore)
	s.render.Request()
}

func (s *SessionService) SetCooldown(ctx context.Context, days float64) error {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 1 {
		return s.reject(invalid("days", "cooldown days must be a positive integer"))
	}
	target := max(1, int(math.Round(days)))
	if target == s.store.Snapshot().State.Payload.CooldownDays {
		return nil
	}
	return s.run(ctx, gateway.KindSetCooldown, map[string]any{"days": target}, func(*state.Snapshot) string {
		return "Cooldown updated"
	})
}

func (s *SessionService) ClearCooldown(ctx context.Context) error {
	return s.run(ctx, gateway.KindClearCooldown, nil, fixed("Cooldown list cleared"))
}

func (s *SessionService) CreateStudent(ctx context.Context, id, name string, group any) error {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	snap := s.store.Snapshot()
	switch {
	case name == "":
		return s.reject(invalid("name", "name is required"))
	case id != "" && snap.StudentIDTaken(id, ""):
		return s.reject(invalid("id", "student id already exists"))
	case snap.StudentNameTaken(name, ""):
		return s.reject(invalid("name", "student name already exists"))
	}
	params := map[string]any{"student_id": id, "name": name, "group": SanitizeGroup(group)}
	return s.run(ctx, gateway.KindStudentCreate, params, fixed("Student added"))
}

func (s *SessionService) UpdateStudent(ctx context.Context, id, newID, name string, group any) error {
	id, newID, name = strings.TrimSpace(id), strings.TrimSpace(newID), strings.TrimSpace(name)
	snap := s.store.Snapshot()
	if _, ok := snap.Student(id); !ok {
		return s.reject(invalid("id", "student not found"))
	}
	if newID == "" {
		newID = id
	}
	switch {
	case name == "":
		return s.reject(invalid("name", "name is required"))
	case newID != id && snap.StudentIDTaken(newID, id):
		return s.reject(invalid("new_id", "student id already exists"))
	case snap.StudentNameTaken(name, id):
		return s.reject(invalid("name", "student name already exists"))
	}
	params := map[string]any{"student_id": id, "new_id": newID, "name": name, "group": SanitizeGroup(group)}
	return s.run(ctx, gateway.KindStudentUpdate, params, fixed("Changes saved"))
}

func (s *SessionService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.requireStudent(id); err != nil {
		return err
	}
	return s.run(ctx, gateway.KindStudentDelete, map[string]any{"student_id": id}, fixed("Student deleted"))
}

func (s *SessionService) ForceCooldown(ctx context.Context, id string) error {
	if err := s.requireStudent(id); err != nil {
		return err
	}
	return s.run(ctx, gateway.KindStudentForceCooldown, map[string]any{"student_id": id}, fixed("Marked as cooling"))
}

func (s *SessionService) ReleaseCooldown(ctx context.Context, id string) error {
	if err := s.requireStudent(id); err != nil {
		return err
	}
	return s.run(ctx, gateway.KindStudentReleaseCooldown, map[string]any{"student_id": id}, fixed("Cooldown released"))
}

func (s *SessionService) ClearStudentHistory(ctx context.Context, id string) error {
	st, ok := s.store.Snapshot().Student(id)
	if !ok {
		return s.reject(invalid("id", "student not found"))
	}
	if len(st.PickHistory) == 0 {
		return s.reject(invalid("id", "no records"))
	}
	return s.run(ctx, gateway.KindStudentHistoryClear, map[string]any{"student_id": id}, fixed("History cleared"))
}

func (s *SessionService) RemoveStudentHistory(ctx context.Context, id string, timestamp float64) error {
	if err := s.requireStudent(id); err != nil {
		return err
	}
	params := map[string]any{"student_id": id, "timestamp": timestamp}
	return s.run(ctx, gateway.KindStudentHistoryRemove, params, fixed("Record removed"))
}

func (s *SessionService) SwitchClass(ctx context.Context, id string) error {
	snap := s.store.Snapshot()
	if id == "" || id == snap.State.CurrentClassID {
		return nil
	}
	if _, ok := snap.Class(id); !ok {
		return s.reject(invalid("class_id", "class not found"))
	}
	return s.run(ctx, gateway.KindClassSwitch, map[string]any{"class_id": id}, func(next *state.Snapshot) string {
		return "Switched to " + next.State.CurrentClassName
	})
}

func (s *SessionService) CreateClass(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.reject(invalid("name", "class name is required"))
	}
	return s.run(ctx, gateway.KindClassCreate, map[string]any{"name": name}, func(next *state.Snapshot) string {
		return "Created class " + next.State.CurrentClassName
	})
}

func (s *SessionService) DeleteClass(ctx context.Context, id string) error {
	if _, ok := s.store.Snapshot().Class(id); !ok {
		return s.reject(invalid("class_id", "class not found"))
	}
	return s.run(ctx, gateway.KindClassDelete, map[string]any{"class_id": id}, fixed("Class deleted"))
}

func (s *SessionService) ReorderClasses(ctx context.Context, ids []string) error {
	current := make([]string, 0, len(s.store.Snapshot().State.Classes))
	for _, c := range s.store.Snapshot().State.Classes {
		current = append(current, c.ID)
	}
	if len(ids) == 0 || slices.Equal(ids, current) {
		return nil
	}
	return s.run(ctx, gateway.KindClassReorder, map[string]any{"order": ids}, fixed("Class order updated"))
}

func (s *SessionService) SetHistoryNote(ctx context.Context, entryID, note string) error {
	if _, ok := s.store.Snapshot().HistoryEntry(entryID); !ok {
		return s.reject(invalid("entry_id", "history entry not found"))
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > models.MaxNoteLength {
		return s.reject(invalid("note", "note must be at most 200 characters"))
	}
	params := map[string]any{"entry_id": entryID, "note": note}
	err := s.run(ctx, gateway.KindHistoryEntryNote, params, fixed("Note saved"))
	if err == nil {
		s.prefs.setHighlight(entryID)
	}
	return err
}

func (s *SessionService) DeleteHistoryEntry(ctx context.Context, entryID string) error {
	if _, ok := s.store.Snapshot().HistoryEntry(entryID); !ok {
		return s.reject(invalid("entry_id", "history entry not found"))
	}
	return s.run(ctx, gateway.KindHistoryEntryDelete, map[string]any{"entry_id": entryID}, fixed("History entry deleted"))
}

// Search remembers keyword for the renderer and returns the matching
// students in display order. A blank keyword matches everyone.
func (s *SessionService) Search(keyword string) []models.StudentRecord {
	keyword = strings.TrimSpace(keyword)
	s.prefs.search.Store(keyword)
	s.render.Request()
	return s.store.Snapshot().Search(keyword)
}

func (s *SessionService) run(ctx context.Context, kind string, params map[string]any, success func(*state.Snapshot) string) error {
	if !s.gate.TryAcquire() {
		return ErrBusy
	}
	defer s.gate.Release()

	resp, err := s.gateway.Dispatch(ctx, gateway.Action{Kind: kind, Params: params})
	if err != nil {
		return s.fail(kind, err)
	}
	snap := s.apply(resp)
	s.render.Request()
	s.notifier.Notice(success(snap))
	return nil
}

// apply publishes the returned state. A reply without state keeps the last
// snapshot.
func (s *SessionService) apply(resp *gateway.Response) *state.Snapshot {
	if resp.State == nil {
		s.logger.Warnf(providers.TypeState, "Action reply carried no state, keeping revision %d", s.store.Snapshot().Revision)
		return s.store.Snapshot()
	}
	snap := s.store.Reconcile(resp.State)
	s.animator.Sync()
	return snap
}

func (s *SessionService) fail(kind string, err error) error {
	if errors.Is(err, gateway.ErrAborted) {
		s.logger.Debugf(providers.TypeAction, "%s aborted", kind)
		return err
	}
	s.logger.Warnf(providers.TypeAction, "%s failed: %s", kind, err)
	s.notifier.Failure(err)
	return err
}

func (s *SessionService) reject(err error) error {
	s.notifier.Failure(err)
	return err
}

func (s *SessionService) requireStudent(id string) error {
	if _, ok := s.store.Snapshot().Student(id); !ok {
		return s.reject(invalid("id", "student not found"))
	}
	return nil
}

func fixed(message string) func(*state.Snapshot) string {
	return func(*state.Snapshot) string { return message }
}

// SanitizeGroup turns user input into a group number: rounded, at least 0,
// and 0 for anything that is not a number.
func SanitizeGroup(value any) int {
	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return max(0, int(math.Round(f)))
}
