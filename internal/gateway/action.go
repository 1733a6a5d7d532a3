package gateway

const (
	KindRandomPick             = "random_pick"
	KindSetCooldown            = "set_cooldown"
	KindClearCooldown          = "clear_cooldown"
	KindStudentForceCooldown   = "student_force_cooldown"
	KindStudentReleaseCooldown = "student_release_cooldown"
	KindStudentCreate          = "student_create"
	KindStudentUpdate          = "student_update"
	KindStudentDelete          = "student_delete"
	KindStudentHistoryClear    = "student_history_clear"
	KindStudentHistoryRemove   = "student_history_remove"
	KindClassSwitch            = "class_switch"
	KindClassCreate            = "class_create"
	KindClassDelete            = "class_delete"
	KindClassReorder           = "class_reorder"
	KindHistoryEntryNote       = "history_entry_note"
	KindHistoryEntryDelete     = "history_entry_delete"
)

// Action is one request to the remote action endpoint. Params are merged
// into the top level of the request body next to "action".
type Action struct {
	Kind   string
	Params map[string]any
}

// Response is the success body of the action endpoint.
type Response struct {
	State   map[string]any `json:"state"`
	Result  map[string]any `json:"result"`
	Message string         `json:"message"`
}
