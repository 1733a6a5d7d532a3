package controllers

import (
	"fmt"
	"net/http"
	"time"

	"pickme/internal/gateway"
	"pickme/internal/state"

	json "github.com/goccy/go-json"
)

// HealthController reports liveness plus the session flags an operator
// looks at when a pick seems stuck.
type HealthController struct {
	view      state.ViewInterface
	gate      *gateway.Gate
	startTime time.Time
}

type rosterCounts struct {
	Total     int `json:"total"`
	Cooling   int `json:"cooling"`
	Available int `json:"available"`
}

type healthResponse struct {
	Status        string       `json:"status"`
	Uptime        string       `json:"uptime"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Busy          bool         `json:"busy"`
	Animating     bool         `json:"animating"`
	Revision      uint64       `json:"revision"`
	ClassID       string       `json:"class_id"`
	Students      rosterCounts `json:"students"`
}

// Health answers GET and HEAD. Status reads "busy" while an action or an
// animation holds the gate.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := hc.view.Snapshot()
	total, cooling, available := snap.Counts()
	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Busy:          hc.gate.Busy(),
		Animating:     hc.gate.Animating(),
		Revision:      snap.Revision,
		ClassID:       snap.State.CurrentClassID,
		Students:      rosterCounts{Total: total, Cooling: cooling, Available: available},
	}
	if hc.gate.Blocked() {
		resp.Status = "busy"
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func NewHealthController(view state.ViewInterface, gate *gateway.Gate) *HealthController {
	return &HealthController{
		view:      view,
		gate:      gate,
		startTime: time.Now(),
	}
}
