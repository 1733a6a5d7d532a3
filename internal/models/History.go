package models

const MaxNoteLength = 200

type HistoryEntry struct {
	ID             string           `json:"id"`
	Timestamp      float64          `json:"timestamp"`
	Mode           DrawMode         `json:"mode"`
	Students       []HistoryStudent `json:"students"`
	Group          *int             `json:"group"`
	Count          int              `json:"count"`
	RequestedCount *int             `json:"requested_count"`
	IgnoreCooldown bool             `json:"ignore_cooldown"`
	Note           string           `json:"note"`
}

type HistoryStudent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group *int   `json:"group"`
}

// Names returns the display names of the entry, skipping blanks.
func (e HistoryEntry) Names() []string {
	names := make([]string, 0, len(e.Students))
	for _, s := range e.Students {
		if s.Name != "" {
			names = append(names, s.Name)
		} else if s.ID != "" {
			names = append(names, s.ID)
		}
	}
	return names
}
