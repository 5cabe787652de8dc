package core

import "time"

// ParkCurrent parks the calling coroutine (or blocks the calling OS
// thread) indefinitely until Unpark or cancellation.
func ParkCurrent(p *Park) error {
	co, _ := Current()
	return p.Wait(co, -1)
}

// ParkTimeout parks the calling coroutine (or blocks the calling OS
// thread) until Unpark, cancellation, or dur elapses.
func ParkTimeout(p *Park, dur time.Duration) error {
	co, _ := Current()
	return p.Wait(co, dur)
}
