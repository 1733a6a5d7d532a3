package models

// PickResult is the authoritative outcome of a random_pick action as
// returned by the remote handler.
type PickResult struct {
	Mode           DrawMode
	ClassID        string
	IDs            []string
	Students       []HistoryStudent
	PoolStudents   []string
	PoolGroups     []int
	HasPool        bool
	Group          *int
	RequestedCount *int
	IgnoreCooldown bool
	HistoryEntryID string
}

// Student returns the snapshot the server sent for id.
func (r *PickResult) Student(id string) (HistoryStudent, bool) {
	for _, s := range r.Students {
		if s.ID == id {
			return s, true
		}
	}
	return HistoryStudent{}, false
}
