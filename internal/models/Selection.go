package models

// Selection is the revealed outcome of the last pick.
type Selection struct {
	Mode           DrawMode         `json:"mode"`
	IDs            []string         `json:"ids"`
	Students       []HistoryStudent `json:"students"`
	Group          *int             `json:"group"`
	RequestedCount *int             `json:"requested_count"`
	IgnoreCooldown bool             `json:"ignore_cooldown"`
	HistoryEntryID string           `json:"history_entry_id"`
}

func (s *Selection) Empty() bool {
	return s == nil || len(s.IDs) == 0
}

// Names returns display names, falling back to ids for unresolved students.
func (s *Selection) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Students))
	for _, st := range s.Students {
		if st.Name != "" {
			names = append(names, st.Name)
		} else {
			names = append(names, st.ID)
		}
	}
	return names
}
