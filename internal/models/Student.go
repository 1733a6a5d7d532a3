package models

import "slices"

type StudentRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Group             int       `json:"group"`
	LastPick          float64   `json:"last_pick"`
	RemainingCooldown float64   `json:"remaining_cooldown"`
	CooldownStartedAt float64   `json:"cooldown_started_at"`
	CooldownExpiresAt float64   `json:"cooldown_expires_at"`
	PickCount         int       `json:"pick_count"`
	PickHistory       []float64 `json:"pick_history"`
	IsCooling         bool      `json:"is_cooling"`
}

// HasPick reports whether timestamp is one of the recorded picks.
func (s StudentRecord) HasPick(timestamp float64) bool {
	_, found := slices.BinarySearch(s.PickHistory, timestamp)
	return found
}
