package interfaces

// SchedulerInterface restores the mirror file on start and writes it back
// periodically and on Stop. Stop reports the error of its final write.
type SchedulerInterface interface {
	Init()
	Stop() error
	Restore() error
	Persist() error
}
