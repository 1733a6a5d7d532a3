package models

import "strings"

type DrawMode string

const (
	ModeSingle DrawMode = "single"
	ModeBatch  DrawMode = "batch"
	ModeGroup  DrawMode = "group"
)

// ParseDrawMode maps the wire vocabulary onto a draw mode. Legacy "any" and
// "student" as well as anything unknown become ModeSingle.
func ParseDrawMode(value string) DrawMode {
	switch DrawMode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeBatch:
		return ModeBatch
	case ModeGroup:
		return ModeGroup
	default:
		return ModeSingle
	}
}

func (m DrawMode) String() string {
	return string(m)
}
