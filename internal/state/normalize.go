package state

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"pickme/internal/models"
)

const (
	defaultClassID           = "default"
	defaultClassCooldownDays = 3
)

type normalizer struct {
	now float64
}

// Normalize converts an arbitrary decoded JSON value into the canonical
// AppState. It never fails: malformed parts degrade to defaults.
func Normalize(raw any) models.AppState {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with an explicit clock for missing timestamps and
// cooldown checks.
func NormalizeAt(raw any, now time.Time) models.AppState {
	n := normalizer{now: float64(now.UnixNano()) / float64(time.Second)}
	return n.state(raw)
}

func (n normalizer) state(raw any) models.AppState {
	source, ok := object(raw)
	if !ok {
		source = map[string]any{}
	}

	classes, storedRaw := n.classes(source)
	exists := func(id string) bool {
		return id != "" && slices.ContainsFunc(classes, func(c models.ClassMeta) bool { return c.ID == id })
	}

	currentClass, ok := object(source["current_class"])
	if !ok {
		currentClass = map[string]any{}
	}
	currentID := text(source["current_class_id"])
	if !exists(currentID) {
		currentID = ""
	}
	if currentID == "" && exists(text(currentClass["id"])) {
		currentID = text(currentClass["id"])
	}
	if currentID == "" && len(classes) > 0 {
		currentID = classes[0].ID
	}
	// A current_class block describing some other class does not carry our payload.
	if id := text(currentClass["id"]); id != "" && len(classes) > 0 && id != currentID {
		currentClass = map[string]any{}
	}

	shape := classifyPayload(source, currentClass, storedRaw[currentID])
	// A payload without cooldown_days inherits it from its class meta.
	cooldown := max(1, intOr(source["cooldown_days"], defaultClassCooldownDays))
	for _, c := range classes {
		if c.ID == currentID {
			cooldown = c.CooldownDays
			break
		}
	}
	payload := n.payload(shape.payload(), cooldown)

	if len(classes) == 0 {
		currentID = textOr(currentClass["id"], textOr(source["current_class_id"], defaultClassID))
		classes = append(classes, models.ClassMeta{
			ID:           currentID,
			Name:         textOr(currentClass["name"], models.DefaultClassName),
			Order:        0,
			StudentCount: len(payload.Students),
			CooldownDays: payload.CooldownDays,
			CreatedAt:    numberOr(source["created_at"], 0),
			UpdatedAt:    numberOr(source["updated_at"], 0),
			LastUsedAt:   numberOr(source["last_used_at"], 0),
		})
	}

	data := make(map[string]models.ClassPayload, len(classes))
	for i := range classes {
		id := classes[i].ID
		if id == currentID {
			classes[i].StudentCount = len(payload.Students)
			classes[i].CooldownDays = payload.CooldownDays
			data[id] = payload
			continue
		}
		if rawPayload, ok := storedRaw[id]; ok {
			data[id] = n.payload(rawPayload, classes[i].CooldownDays)
		}
	}

	name := models.DefaultClassName
	for _, c := range classes {
		if c.ID == currentID {
			name = c.Name
			break
		}
	}

	return models.AppState{
		Version:          max(0, intOr(source["version"], 0)),
		CurrentClassID:   currentID,
		CurrentClassName: name,
		Classes:          classes,
		Payload:          payload,
		ClassDataByID:    data,
	}
}

// classes returns the deduplicated class list sorted by order together with
// any raw payloads stored alongside it.
func (n normalizer) classes(source map[string]any) ([]models.ClassMeta, map[string]map[string]any) {
	items, _ := list(source["classes"])
	classes := make([]models.ClassMeta, 0, len(items))
	stored := make(map[string]map[string]any)
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		meta := n.classMeta(item, i)
		if _, dup := seen[meta.ID]; dup {
			continue
		}
		seen[meta.ID] = struct{}{}
		classes = append(classes, meta)
		if entry, ok := object(item); ok {
			if data, ok := object(entry["data"]); ok {
				stored[meta.ID] = data
			}
		}
	}
	if byID, ok := object(source["classes_data"]); ok {
		for id, value := range byID {
			if data, ok := object(value); ok {
				stored[strings.TrimSpace(id)] = data
			}
		}
	}
	slices.SortStableFunc(classes, func(a, b models.ClassMeta) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return classes, stored
}

func (n normalizer) classMeta(value any, index int) models.ClassMeta {
	item, ok := object(value)
	if !ok {
		item = map[string]any{}
	}
	return models.ClassMeta{
		ID:           textOr(item["id"], fallbackClassID(index)),
		Name:         textOr(item["name"], models.DefaultClassName),
		Order:        intOr(item["order"], index),
		StudentCount: max(0, intOr(item["student_count"], 0)),
		CooldownDays: max(1, intOr(item["cooldown_days"], defaultClassCooldownDays)),
		CreatedAt:    numberOr(item["created_at"], 0),
		UpdatedAt:    numberOr(item["updated_at"], 0),
		LastUsedAt:   numberOr(item["last_used_at"], 0),
	}
}

func fallbackClassID(index int) string {
	return "class-" + strconv.Itoa(index+1)
}

func (n normalizer) payload(source map[string]any, fallbackCooldown int) models.ClassPayload {
	if source == nil {
		source = map[string]any{}
	}
	items, _ := list(source["students"])
	students := make([]models.StudentRecord, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		student, ok := n.student(item)
		if !ok {
			continue
		}
		if _, dup := seen[student.ID]; dup {
			continue
		}
		seen[student.ID] = struct{}{}
		students = append(students, student)
	}

	generatedAt, ok := number(source["generated_at"])
	if !ok || generatedAt == 0 {
		generatedAt = n.now
	}

	return models.ClassPayload{
		CooldownDays: max(1, intOr(source["cooldown_days"], fallbackCooldown)),
		Students:     students,
		GeneratedAt:  generatedAt,
		History:      n.history(source["history"]),
	}
}

func (n normalizer) student(value any) (models.StudentRecord, bool) {
	item, ok := object(value)
	if !ok {
		return models.StudentRecord{}, false
	}
	id := text(item["id"])
	if id == "" {
		return models.StudentRecord{}, false
	}

	history := n.pickHistory(item["pick_history"])
	remaining := max(0, numberOr(item["remaining_cooldown"], 0))
	startedAt := max(0, numberOr(item["cooldown_started_at"], 0))
	expiresAt := max(startedAt, numberOr(item["cooldown_expires_at"], 0))

	var cooling bool
	if explicit, present := item["is_cooling"]; present && explicit != nil {
		cooling = truthy(explicit)
	} else {
		cooling = remaining > 0 || expiresAt > n.now
	}

	return models.StudentRecord{
		ID:                id,
		Name:              textOr(item["name"], id),
		Group:             sanitizeGroup(item["group"]),
		LastPick:          max(0, numberOr(item["last_pick"], 0)),
		RemainingCooldown: remaining,
		CooldownStartedAt: startedAt,
		CooldownExpiresAt: expiresAt,
		PickCount:         max(0, intOr(item["pick_count"], len(history))),
		PickHistory:       history,
		IsCooling:         cooling,
	}, true
}

// pickHistory keeps finite positive timestamps, de-duplicated and ascending.
func (n normalizer) pickHistory(value any) []float64 {
	items, _ := list(value)
	history := make([]float64, 0, len(items))
	for _, item := range items {
		if ts, ok := number(item); ok && ts > 0 {
			history = append(history, ts)
		}
	}
	slices.Sort(history)
	return slices.Compact(history)
}

func (n normalizer) history(value any) models.HistoryData {
	container, _ := object(value)
	items, ok := list(container["entries"])
	if !ok {
		items, _ = list(value)
	}

	entries := make([]models.HistoryEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		entry, ok := n.historyEntry(item)
		if !ok {
			continue
		}
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}
		entries = append(entries, entry)
	}

	updatedAt, ok := number(container["updated_at"])
	if !ok || updatedAt <= 0 {
		updatedAt = n.now
	}
	return models.HistoryData{Entries: entries, UpdatedAt: updatedAt}
}

func (n normalizer) historyEntry(value any) (models.HistoryEntry, bool) {
	item, ok := object(value)
	if !ok {
		return models.HistoryEntry{}, false
	}
	id := textOr(item["id"], text(item["entry_id"]))
	timestamp, ok := number(item["timestamp"])
	if id == "" || !ok || timestamp <= 0 {
		return models.HistoryEntry{}, false
	}

	rawStudents, _ := list(item["students"])
	students := make([]models.HistoryStudent, 0, len(rawStudents))
	for _, rs := range rawStudents {
		if s, ok := historyStudent(rs); ok {
			students = append(students, s)
		}
	}

	mode := models.ModeSingle
	if m, ok := item["mode"].(string); ok {
		mode = models.ParseDrawMode(m)
	}

	return models.HistoryEntry{
		ID:             id,
		Timestamp:      timestamp,
		Mode:           mode,
		Students:       students,
		Group:          optionalInt(item["group"]),
		Count:          max(0, intOr(item["count"], len(students))),
		RequestedCount: optionalInt(item["requested_count"]),
		IgnoreCooldown: truthy(item["ignore_cooldown"]),
		Note:           TruncateNote(text(item["note"])),
	}, true
}

func historyStudent(value any) (models.HistoryStudent, bool) {
	item, ok := object(value)
	if !ok {
		return models.HistoryStudent{}, false
	}
	return models.HistoryStudent{
		ID:    textOr(item["id"], text(item["student_id"])),
		Name:  text(item["name"]),
		Group: optionalInt(item["group"]),
	}, true
}

// TruncateNote trims a history note and cuts it to MaxNoteLength characters.
func TruncateNote(note string) string {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) <= models.MaxNoteLength {
		return note
	}
	return strings.TrimSpace(string([]rune(note)[:models.MaxNoteLength]))
}

// HasStoredState reports whether a cached raw state is worth restoring: it
// must carry at least one class or one student.
func HasStoredState(raw any) bool {
	source, ok := object(raw)
	if !ok {
		return false
	}
	if classes, ok := list(source["classes"]); ok && len(classes) > 0 {
		return true
	}
	if current, ok := object(source["current_class"]); ok {
		if payload, ok := object(current["payload"]); ok {
			if students, ok := list(payload["students"]); ok && len(students) > 0 {
				return true
			}
		}
	}
	students, ok := list(source["students"])
	return ok && len(students) > 0
}
