package engine

import "time"

// Status is the observable connectivity state.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOnline     Status = "online"
	StatusPolling    Status = "polling"
	StatusOffline    Status = "offline"
)

type livenessEvent int

const (
	evSubscribed livenessEvent = iota
	evSubscribeFailed
	evFeedClosed
	evFetchFailed
	evFetchSucceeded
)

// nextStatus is the liveness state machine. subscribed tells whether the
// change feed is currently confirmed.
func nextStatus(cur Status, ev livenessEvent, subscribed bool) Status {
	switch ev {
	case evSubscribed:
		return StatusOnline
	case evSubscribeFailed:
		if cur == StatusConnecting {
			return StatusPolling
		}
		return cur
	case evFeedClosed:
		if cur == StatusOnline || cur == StatusConnecting {
			return StatusPolling
		}
		return cur
	case evFetchFailed:
		return StatusOffline
	case evFetchSucceeded:
		if cur == StatusOffline {
			if subscribed {
				return StatusOnline
			}
			return StatusPolling
		}
		return cur
	}
	return cur
}

// Cadence is the timing of the scheduler loop.
type Cadence struct {
	PollOnline   time.Duration // safety poll while realtime works
	PollDegraded time.Duration // fast recovery poll otherwise
	Reconnect    time.Duration // resubscribe attempts while not online
}

func DefaultCadence() Cadence {
	return Cadence{
		PollOnline:   60 * time.Second,
		PollDegraded: 10 * time.Second,
		Reconnect:    30 * time.Second,
	}
}

func (c Cadence) pollInterval(s Status) time.Duration {
	if s == StatusOnline {
		return c.PollOnline
	}
	return c.PollDegraded
}

func (c Cadence) withDefaults() Cadence {
	def := DefaultCadence()
	if c.PollOnline <= 0 {
		c.PollOnline = def.PollOnline
	}
	if c.PollDegraded <= 0 {
		c.PollDegraded = def.PollDegraded
	}
	if c.Reconnect <= 0 {
		c.Reconnect = def.Reconnect
	}
	return c
}
