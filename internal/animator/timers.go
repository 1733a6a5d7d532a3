package animator

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Stop is idempotent.
type Handle interface {
	Stop()
}

// Timers schedules animation steps.
type Timers interface {
	Every(d time.Duration, fn func()) Handle
	After(d time.Duration, fn func()) Handle
}

type handleFunc func()

func (h handleFunc) Stop() { h() }

type realTimers struct{}

func NewTimers() Timers {
	return realTimers{}
}

func (realTimers) Every(d time.Duration, fn func()) Handle {
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			case <-stop:
				return
			}
		}
	}()
	var once sync.Once
	return handleFunc(func() { once.Do(func() { close(stop) }) })
}

func (realTimers) After(d time.Duration, fn func()) Handle {
	t := time.AfterFunc(d, fn)
	return handleFunc(func() { t.Stop() })
}
