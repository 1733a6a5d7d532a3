package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pickme/internal/models"
	"pickme/internal/services"
	"pickme/internal/state"
	"pickme/internal/structures"
	"pickme/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classroom = `{
	"current_class_id": "c1",
	"classes": [{"id":"c1","name":"Room A"},{"id":"c2","name":"Room B"}],
	"payload": {
		"cooldown_days": 3,
		"students": [
			{"id":"s1","name":"Ann","group":1,"pick_count":2},
			{"id":"s2","name":"Bob","group":2,"is_cooling":true,"remaining_cooldown":90000,"last_pick":1700000000}
		],
		"history": {"entries": [
			{"id":"h1","timestamp":1700000000,"mode":"single","students":[{"id":"s2","name":"Bob"}],"note":"good answer"},
			{"id":"h2","timestamp":1699980000,"mode":"batch","students":[{"id":"s1","name":"Ann"},{"id":"s2","name":"Bob"}],"ignore_cooldown":true}
		]}
	}
}`

type staticSelection struct{ sel *models.Selection }

func (s staticSelection) Selection() *models.Selection { return s.sel }

func newTestStore(t *testing.T, doc string) state.StoreInterface {
	t.Helper()
	conf := &structures.Config{Locale: structures.LocaleConfig{Collation: "en"}}
	store := state.NewStore(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), testutil.NewMockMirror())
	raw, err := state.Decode([]byte(doc))
	require.NoError(t, err)
	store.Reconcile(raw)
	return store
}

func renderOnce(t *testing.T, sel *models.Selection, prefs *services.Preferences) string {
	t.Helper()
	var out bytes.Buffer
	r := NewRenderer(&out, newTestStore(t, classroom), staticSelection{sel}, prefs, time.UTC)
	r.now = func() time.Time { return time.Unix(1_700_000_600, 0) }
	r.Render()
	return out.String()
}

func TestRenderer_FullView(t *testing.T) {
	out := renderOnce(t, nil, services.NewPreferences())

	assert.Contains(t, out, "== Room A (2 students) · cooldown 3 days ==")
	assert.Contains(t, out, "Total 2 · Cooling 1 · Available 1 · Ignore cooldown off")
	assert.Contains(t, out, "*Room A [c1]")
	assert.Contains(t, out, "picked 2x")
	assert.Contains(t, out, "cooling 1 day 1 hour")
	assert.Contains(t, out, "remaining 1 day 1 hour · last 2023-11-14 22:13:20")
	assert.Contains(t, out, "--\n  waiting for a pick")
	assert.Contains(t, out, "Today")
	assert.Contains(t, out, "Random pick: Bob")
	assert.Contains(t, out, "note: good answer")
	assert.Contains(t, out, "Batch pick: Ann, Bob")
	assert.Contains(t, out, "2 students | ignored cooldown")
	assert.Contains(t, out, "10 minutes ago")

	assert.Less(t, strings.Index(out, "Random pick"), strings.Index(out, "Batch pick"), "newest entry first")
	assert.Less(t, strings.Index(out, "Evening"), strings.Index(out, "Afternoon"))
}

func TestRenderer_SearchFilter(t *testing.T) {
	prefs := services.NewPreferences()
	svc := services.NewSessionService(nil, newTestStore(t, classroom), nil, nil, noopScheduler{}, nil, prefs, &testutil.MockLogger{})
	svc.Search("zzz")

	out := renderOnce(t, nil, prefs)
	assert.Contains(t, out, `-- Students matching "zzz" --`)
	assert.Contains(t, out, "no matching students")
}

func TestDescribeSelection(t *testing.T) {
	group := 3
	tests := []struct {
		name        string
		sel         *models.Selection
		title, note string
	}{
		{"none", nil, "--", "waiting for a pick"},
		{"single with group", &models.Selection{Mode: models.ModeSingle, IDs: []string{"s1"}, Students: []models.HistoryStudent{{ID: "s1", Name: "Ann"}}, Group: &group}, "Ann", "from group 3"},
		{"single unknown", &models.Selection{Mode: models.ModeSingle}, "--", "random pick"},
		{"batch", &models.Selection{Mode: models.ModeBatch, IDs: []string{"a", "b"}, Students: []models.HistoryStudent{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}, "A, B", "batch pick · 2 students"},
		{"group", &models.Selection{Mode: models.ModeGroup, Group: &group, IDs: []string{"a"}, Students: []models.HistoryStudent{{ID: "a", Name: "A"}}}, "Group 3", "A"},
		{"group without members", &models.Selection{Mode: models.ModeGroup}, "group pick", "members moved to cooldown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, note := DescribeSelection(tt.sel)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.note, note)
		})
	}
}

type noopScheduler struct{}

func (noopScheduler) Init()         {}
func (noopScheduler) Stop()         {}
func (noopScheduler) Request()      {}
func (noopScheduler) Immediate()    {}
func (noopScheduler) Pending() bool { return false }
