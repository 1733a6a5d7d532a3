package state

import (
	"strings"

	"pickme/internal/models"
)

// Snapshot is the published, read-only view of the canonical state together
// with its derived indices. A Snapshot is never modified after publication.
type Snapshot struct {
	Revision uint64
	State    models.AppState

	classes  map[string]models.ClassMeta
	students map[string]models.StudentRecord
	sorted   []models.StudentRecord
	history  map[string]models.HistoryEntry
	groups   GroupSet
}

func buildSnapshot(revision uint64, st models.AppState, cmp *Comparator) *Snapshot {
	snap := &Snapshot{
		Revision: revision,
		State:    st,
		classes:  make(map[string]models.ClassMeta, len(st.Classes)),
		students: make(map[string]models.StudentRecord, len(st.Payload.Students)),
		history:  make(map[string]models.HistoryEntry, len(st.Payload.History.Entries)),
	}
	for _, c := range st.Classes {
		snap.classes[c.ID] = c
	}
	groups := make([]int, 0, len(st.Payload.Students))
	for _, s := range st.Payload.Students {
		snap.students[s.ID] = s
		groups = append(groups, s.Group)
	}
	for _, e := range st.Payload.History.Entries {
		snap.history[e.ID] = e
	}
	snap.sorted = cmp.Sort(st.Payload.Students)
	snap.groups = NewGroupSet(groups...)
	return snap
}

func (s *Snapshot) Class(id string) (models.ClassMeta, bool) {
	c, ok := s.classes[id]
	return c, ok
}

func (s *Snapshot) Student(id string) (models.StudentRecord, bool) {
	st, ok := s.students[id]
	return st, ok
}

func (s *Snapshot) HistoryEntry(id string) (models.HistoryEntry, bool) {
	e, ok := s.history[id]
	return e, ok
}

// Students returns the sorted student list. Callers must not modify it.
func (s *Snapshot) Students() []models.StudentRecord {
	return s.sorted
}

func (s *Snapshot) Groups() GroupSet {
	return s.groups
}

func (s *Snapshot) Cooling() []models.StudentRecord {
	out := make([]models.StudentRecord, 0)
	for _, st := range s.sorted {
		if st.IsCooling {
			out = append(out, st)
		}
	}
	return out
}

// Counts returns the total, cooling and available student counts.
func (s *Snapshot) Counts() (total, cooling, available int) {
	total = len(s.sorted)
	for _, st := range s.sorted {
		if st.IsCooling {
			cooling++
		}
	}
	return total, cooling, total - cooling
}

// Search filters the sorted list by a case-insensitive substring of the
// name or id. A blank keyword returns everything.
func (s *Snapshot) Search(keyword string) []models.StudentRecord {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return s.sorted
	}
	out := make([]models.StudentRecord, 0)
	for _, st := range s.sorted {
		if strings.Contains(strings.ToLower(st.Name), keyword) || strings.Contains(strings.ToLower(st.ID), keyword) {
			out = append(out, st)
		}
	}
	return out
}

// StudentIDTaken reports a case-insensitive id clash, ignoring exclude.
func (s *Snapshot) StudentIDTaken(id, exclude string) bool {
	return s.studentTaken(func(st models.StudentRecord) string { return st.ID }, id, exclude)
}

// StudentNameTaken reports a case-insensitive name clash, ignoring exclude.
func (s *Snapshot) StudentNameTaken(name, exclude string) bool {
	return s.studentTaken(func(st models.StudentRecord) string { return st.Name }, name, exclude)
}

func (s *Snapshot) studentTaken(field func(models.StudentRecord) string, value, exclude string) bool {
	lowered := strings.ToLower(strings.TrimSpace(value))
	for id, st := range s.students {
		if exclude != "" && id == exclude {
			continue
		}
		if strings.ToLower(field(st)) == lowered {
			return true
		}
	}
	return false
}
