package controllers

import (
	"net/http"
	"strings"
	"time"

	"pickme/internal/animator"
	"pickme/internal/history"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/state"

	json "github.com/goccy/go-json"
)

// ApiController serves read-only views of the session. Responses derived
// from the snapshot are cached under its revision.
type ApiController struct {
	logger    providers.Logger
	view      state.ViewInterface
	selection animator.SelectionReader
	cache     providers.CacheProviderInterface
	loc       *time.Location
	now       func() time.Time
}

func NewApiController(logger providers.Logger, view state.ViewInterface, selection animator.SelectionReader, cache providers.CacheProviderInterface, loc *time.Location) *ApiController {
	return &ApiController{
		logger:    logger,
		view:      view,
		selection: selection,
		cache:     cache,
		loc:       loc,
		now:       time.Now,
	}
}

type studentsResponse struct {
	Revision uint64                 `json:"revision"`
	ClassID  string                 `json:"class_id"`
	Keyword  string                 `json:"keyword,omitempty"`
	Total    int                    `json:"total"`
	Cooling  int                    `json:"cooling"`
	Students []models.StudentRecord `json:"students"`
}

type historyPeriod struct {
	Key     string                `json:"key"`
	Label   string                `json:"label"`
	Entries []models.HistoryEntry `json:"entries"`
}

type historyDay struct {
	Key     string                `json:"key"`
	Label   string                `json:"label"`
	Entries []models.HistoryEntry `json:"entries,omitempty"`
	Periods []historyPeriod       `json:"periods,omitempty"`
}

type historyResponse struct {
	Revision uint64       `json:"revision"`
	Days     []historyDay `json:"days"`
}

type selectionResponse struct {
	Selection *models.Selection `json:"selection"`
}

func cacheKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, revision uint64, key string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(revision, key); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeHTTP, "Unable to build %s: %s", key, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.logger.Errorf(providers.TypeHTTP, "Unable to encode %s: %s", key, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(revision, key, gson)
	writeJSON(w, http.StatusOK, gson)
}

// GetState returns the canonical state in its persisted encoding.
func (ac *ApiController) GetState(w http.ResponseWriter, r *http.Request) {
	snap := ac.view.Snapshot()
	ac.serveFromCacheOrCompute(w, snap.Revision, cacheKey("state"), func() (any, error) {
		return snap.State.Persist(), nil
	})
}

// GetStudents returns the sorted student list, filtered by ?q= when given.
func (ac *ApiController) GetStudents(w http.ResponseWriter, r *http.Request) {
	snap := ac.view.Snapshot()
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	ac.serveFromCacheOrCompute(w, snap.Revision, cacheKey("students", strings.ToLower(keyword)), func() (any, error) {
		total, cooling, _ := snap.Counts()
		return studentsResponse{
			Revision: snap.Revision,
			ClassID:  snap.State.CurrentClassID,
			Keyword:  keyword,
			Total:    total,
			Cooling:  cooling,
			Students: snap.Search(keyword),
		}, nil
	})
}

// GetHistory returns the history grouped by day and period. Relative
// day labels depend on the current date, so it is part of the key.
func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	snap := ac.view.Snapshot()
	now := ac.now().In(ac.loc)
	ac.serveFromCacheOrCompute(w, snap.Revision, cacheKey("history", now.Format(time.DateOnly)), func() (any, error) {
		groups := history.Group(snap.State.Payload.History.Entries, now, ac.loc)
		days := make([]historyDay, 0, len(groups))
		for _, g := range groups {
			day := historyDay{Key: g.Key, Label: g.Label, Entries: g.Entries}
			for _, p := range g.Periods {
				day.Periods = append(day.Periods, historyPeriod{Key: p.Key, Label: p.Label, Entries: p.Entries})
			}
			days = append(days, day)
		}
		return historyResponse{Revision: snap.Revision, Days: days}, nil
	})
}

// GetSelection is not cached: the selection changes without a new revision.
func (ac *ApiController) GetSelection(w http.ResponseWriter, r *http.Request) {
	gson, err := json.Marshal(selectionResponse{Selection: ac.selection.Selection()})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}
