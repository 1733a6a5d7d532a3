package controllers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/state"
	"pickme/internal/structures"
	"pickme/internal/testutil"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classroom = `{
	"current_class_id": "c1",
	"classes": [{"id":"c1","name":"Room A"}],
	"payload": {
		"cooldown_days": 2,
		"students": [
			{"id":"s2","name":"Bob","group":1,"pick_count":1},
			{"id":"s1","name":"Ann","group":1,"pick_count":4,"is_cooling":true}
		],
		"history": {"entries": [
			{"id":"h1","timestamp":1700000000,"mode":"single","students":[{"id":"s1","name":"Ann"}]},
			{"id":"h2","timestamp":1699960000,"mode":"single","students":[{"id":"s2","name":"Bob"}]}
		]}
	}
}`

// --- local mocks (scoped to controller tests) ---

type cacheSlot struct {
	revision uint64
	key      string
}

type countingCache struct {
	mu   sync.Mutex
	data map[cacheSlot][]byte
	sets int
}

func newCountingCache() *countingCache { return &countingCache{data: make(map[cacheSlot][]byte)} }

func (c *countingCache) Get(revision uint64, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[cacheSlot{revision, key}]
	return v, ok
}

func (c *countingCache) Set(revision uint64, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[cacheSlot{revision, key}] = value
}

type staticSelection struct{ sel *models.Selection }

func (s staticSelection) Selection() *models.Selection { return s.sel }

// --- helpers ---

func newTestStore(t *testing.T) state.StoreInterface {
	t.Helper()
	conf := &structures.Config{Locale: structures.LocaleConfig{Collation: "en"}}
	store := state.NewStore(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), testutil.NewMockMirror())
	raw, err := state.Decode([]byte(classroom))
	require.NoError(t, err)
	store.Reconcile(raw)
	return store
}

func newTestController(t *testing.T, cache *countingCache, sel *models.Selection) (*ApiController, state.StoreInterface) {
	store := newTestStore(t)
	ac := NewApiController(&testutil.MockLogger{}, store, staticSelection{sel}, cache, time.UTC)
	ac.now = func() time.Time { return time.Unix(1_700_000_600, 0) }
	return ac, store
}

func get(t *testing.T, handler http.HandlerFunc, target string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// --- tests ---

func TestGetState_PersistedEncoding(t *testing.T) {
	ac, _ := newTestController(t, newCountingCache(), nil)

	body := get(t, ac.GetState, "/state")
	assert.Equal(t, "c1", body["current_class_id"])
	current := body["current_class"].(map[string]any)
	payload := current["payload"].(map[string]any)
	assert.Len(t, payload["students"], 2)
	assert.Contains(t, body, "classes_data")
}

func TestGetStudents_SortedAndFiltered(t *testing.T) {
	ac, _ := newTestController(t, newCountingCache(), nil)

	body := get(t, ac.GetStudents, "/students")
	students := body["students"].([]any)
	require.Len(t, students, 2)
	assert.Equal(t, "s1", students[0].(map[string]any)["id"], "most picked first")
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["cooling"])

	body = get(t, ac.GetStudents, "/students?q=bo")
	students = body["students"].([]any)
	require.Len(t, students, 1)
	assert.Equal(t, "Bob", students[0].(map[string]any)["name"])
	assert.Equal(t, "bo", body["keyword"])
}

func TestGetHistory_Grouped(t *testing.T) {
	ac, _ := newTestController(t, newCountingCache(), nil)

	body := get(t, ac.GetHistory, "/history")
	days := body["days"].([]any)
	require.Len(t, days, 1)
	day := days[0].(map[string]any)
	assert.Equal(t, "2023-11-14", day["key"])
	assert.Equal(t, "Today", day["label"])
	periods := day["periods"].([]any)
	require.Len(t, periods, 2)
	assert.Equal(t, "evening", periods[0].(map[string]any)["key"])
	assert.Equal(t, "morning", periods[1].(map[string]any)["key"])
}

func TestGetSelection(t *testing.T) {
	group := 1
	ac, _ := newTestController(t, newCountingCache(), &models.Selection{Mode: models.ModeSingle, IDs: []string{"s1"}, Group: &group})

	body := get(t, ac.GetSelection, "/selection")
	sel := body["selection"].(map[string]any)
	assert.Equal(t, []any{"s1"}, sel["ids"])
	assert.Equal(t, float64(1), sel["group"])

	empty, _ := newTestController(t, newCountingCache(), nil)
	body = get(t, empty.GetSelection, "/selection")
	assert.Nil(t, body["selection"])
}

func TestCache_KeyedByRevision(t *testing.T) {
	cache := newCountingCache()
	ac, store := newTestController(t, cache, nil)

	get(t, ac.GetState, "/state")
	get(t, ac.GetState, "/state")
	assert.Equal(t, 1, cache.sets, "second request served from cache")

	raw, err := state.Decode([]byte(`{"students":[{"id":"x","name":"Xena"}]}`))
	require.NoError(t, err)
	store.Reconcile(raw)

	body := get(t, ac.GetState, "/state")
	assert.Equal(t, 2, cache.sets)
	payload := body["current_class"].(map[string]any)["payload"].(map[string]any)
	assert.Len(t, payload["students"], 1)
}

func TestHealth_ReportsSessionFlags(t *testing.T) {
	gate := gateway.NewGate()
	gate.SetAnimating(true)
	hc := NewHealthController(newTestStore(t), gate)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	hc.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "busy", resp["status"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp, "uptime_seconds")
	assert.Equal(t, false, resp["busy"])
	assert.Equal(t, true, resp["animating"])
	assert.Equal(t, float64(1), resp["revision"])
	assert.Equal(t, "c1", resp["class_id"])
	assert.Equal(t, map[string]interface{}{"total": float64(2), "cooling": float64(1), "available": float64(1)}, resp["students"])
}

func TestHealth_IdleIsOK(t *testing.T) {
	hc := NewHealthController(newTestStore(t), gateway.NewGate())

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rr := httptest.NewRecorder()
		hc.Health(rr, httptest.NewRequest(method, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code, method)
	}

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	hc := NewHealthController(newTestStore(t), gateway.NewGate())

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rr := httptest.NewRecorder()
	hc.Health(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0h0m0s"},
		{"one minute", 60 * time.Second, "0h1m0s"},
		{"one hour", time.Hour, "1h0m0s"},
		{"mixed", time.Hour + time.Minute + time.Second, "1h1m1s"},
		{"sub second dropped", 1500 * time.Millisecond, "0h0m1s"},
		{"past a day", 26 * time.Hour, "26h0m0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
