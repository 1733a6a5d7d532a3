package state

// rawShape classifies where the active class payload lives in a raw state.
type rawShape interface {
	payload() map[string]any
}

// currentShape is a payload found under current_class.payload, the top-level
// payload, classes_data or classes[i].data.
type currentShape struct {
	raw map[string]any
}

func (s currentShape) payload() map[string]any {
	return s.raw
}

// legacyShape is the flat single-class layout with students and
// cooldown_days at the top level.
type legacyShape struct {
	cooldownDays any
	students     []any
	generatedAt  any
	history      any
}

func (s legacyShape) payload() map[string]any {
	return map[string]any{
		"cooldown_days": s.cooldownDays,
		"students":      s.students,
		"generated_at":  s.generatedAt,
		"history":       s.history,
	}
}

type emptyShape struct{}

func (emptyShape) payload() map[string]any {
	return map[string]any{}
}

// classifyPayload picks the payload source for the active class. The current
// layout wins unless it carries no students and the legacy layout does.
func classifyPayload(source, currentClass map[string]any, stored map[string]any) rawShape {
	var current map[string]any
	if p, ok := object(currentClass["payload"]); ok {
		current = p
	} else if p, ok := object(source["payload"]); ok {
		current = p
	} else if stored != nil {
		current = stored
	}

	legacyStudents, hasLegacy := list(source["students"])
	_, hasLegacyCooldown := source["cooldown_days"]
	legacy := legacyShape{
		cooldownDays: source["cooldown_days"],
		students:     legacyStudents,
		generatedAt:  source["generated_at"],
		history:      source["history"],
	}

	if current != nil {
		students, _ := list(current["students"])
		if len(students) == 0 && len(legacyStudents) > 0 {
			return legacy
		}
		return currentShape{raw: current}
	}
	if hasLegacy || hasLegacyCooldown {
		return legacy
	}
	return emptyShape{}
}
