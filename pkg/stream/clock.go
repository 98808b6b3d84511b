package stream

import "time"

// Timer is a pending callback created by a Clock.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The Scheduler uses it for its debounce timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is a Clock backed by time.AfterFunc.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
