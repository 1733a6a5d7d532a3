package animator

import (
	"math"
	"strings"

	"pickme/internal/models"

	"github.com/spf13/cast"
)

// ParsePickResult reads the "result" object of a random_pick reply. Both the
// current layout (students, pool) and the legacy one (type, student_id,
// student_ids, pool_ids) are understood. ok is false when result is not an
// object at all.
func ParsePickResult(raw map[string]any) (models.PickResult, bool) {
	if raw == nil {
		return models.PickResult{}, false
	}

	mode := models.ParseDrawMode(cast.ToString(raw["mode"]))
	if _, present := raw["mode"]; !present {
		mode = models.ParseDrawMode(cast.ToString(raw["type"]))
	}

	res := models.PickResult{
		Mode:           mode,
		ClassID:        strings.TrimSpace(cast.ToString(raw["class_id"])),
		Group:          optionalInt(raw["group"]),
		RequestedCount: optionalInt(raw["requested_count"]),
		IgnoreCooldown: cast.ToBool(raw["ignore_cooldown"]),
		HistoryEntryID: strings.TrimSpace(cast.ToString(raw["history_entry_id"])),
	}

	if students, ok := raw["students"].([]any); ok {
		for _, item := range students {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id := strings.TrimSpace(cast.ToString(entry["id"]))
			if id == "" {
				id = strings.TrimSpace(cast.ToString(entry["student_id"]))
			}
			if id == "" {
				continue
			}
			res.Students = append(res.Students, models.HistoryStudent{
				ID:    id,
				Name:  strings.TrimSpace(cast.ToString(entry["name"])),
				Group: optionalInt(entry["group"]),
			})
			res.IDs = append(res.IDs, id)
		}
	}
	if len(res.IDs) == 0 {
		res.IDs = stringList(raw["student_ids"])
	}
	if len(res.IDs) == 0 {
		if id := strings.TrimSpace(cast.ToString(raw["student_id"])); id != "" {
			res.IDs = []string{id}
		}
	}
	if mode == models.ModeSingle && len(res.IDs) > 1 {
		res.IDs = res.IDs[:1]
	}

	if pool, ok := raw["pool"].(map[string]any); ok {
		res.HasPool = true
		res.PoolStudents = stringList(pool["students"])
		res.PoolGroups = intList(pool["groups"])
	} else if ids, ok := raw["pool_ids"].([]any); ok {
		res.HasPool = true
		res.PoolStudents = stringList(ids)
	}
	return res, true
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(cast.ToString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intList(value any) []int {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n := optionalInt(item); n != nil {
			out = append(out, *n)
		}
	}
	return out
}

func optionalInt(value any) *int {
	if value == nil {
		return nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Round(max(-math.MaxInt32, min(math.MaxInt32, f))))
	return &n
}
