package models

const DefaultClassName = "Default class"

// AppState is the canonical, normalized application state. It is replaced
// wholesale on every reconciliation and never mutated in place.
type AppState struct {
	Version          int
	CurrentClassID   string
	CurrentClassName string
	Classes          []ClassMeta
	Payload          ClassPayload
	ClassDataByID    map[string]ClassPayload
}

type ClassMeta struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Order        int     `json:"order"`
	StudentCount int     `json:"student_count"`
	CooldownDays int     `json:"cooldown_days"`
	CreatedAt    float64 `json:"created_at"`
	UpdatedAt    float64 `json:"updated_at"`
	LastUsedAt   float64 `json:"last_used_at"`
}

type ClassPayload struct {
	CooldownDays int             `json:"cooldown_days"`
	Students     []StudentRecord `json:"students"`
	GeneratedAt  float64         `json:"generated_at"`
	History      HistoryData     `json:"history"`
}

type HistoryData struct {
	Entries   []HistoryEntry `json:"entries"`
	UpdatedAt float64        `json:"updated_at"`
}

// PersistedState is the wire and mirror encoding of AppState. Feeding it back
// through normalization yields the same AppState.
type PersistedState struct {
	Version        int                     `json:"version"`
	CurrentClassID string                  `json:"current_class_id"`
	CurrentClass   PersistedCurrentClass   `json:"current_class"`
	Classes        []PersistedClass        `json:"classes"`
	ClassesData    map[string]ClassPayload `json:"classes_data"`
}

type PersistedCurrentClass struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Payload ClassPayload `json:"payload"`
}

type PersistedClass struct {
	ClassMeta
	Data *ClassPayload `json:"data"`
}

// Persist converts the state into its persisted encoding.
func (s AppState) Persist() PersistedState {
	data := make(map[string]ClassPayload, len(s.ClassDataByID))
	for id, payload := range s.ClassDataByID {
		data[id] = payload
	}
	classes := make([]PersistedClass, 0, len(s.Classes))
	for _, meta := range s.Classes {
		item := PersistedClass{ClassMeta: meta}
		if payload, ok := data[meta.ID]; ok {
			p := payload
			item.Data = &p
		}
		classes = append(classes, item)
	}
	return PersistedState{
		Version:        s.Version,
		CurrentClassID: s.CurrentClassID,
		CurrentClass: PersistedCurrentClass{
			ID:      s.CurrentClassID,
			Name:    s.CurrentClassName,
			Payload: s.Payload,
		},
		Classes:     classes,
		ClassesData: data,
	}
}
