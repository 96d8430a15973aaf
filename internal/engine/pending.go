package engine

import (
	"posync/internal/gateway"
)

// pendingWrite is the side-table entry of a record that was changed locally
// and not yet confirmed by the store.
type pendingWrite struct {
	seq       uint64 // bumped on every local edit
	attempts  int
	lastError string
	inFlight  bool
	failed    bool // RemoteError: parked until retried by hand
}

type outcome int

const (
	outcomeConfirmed outcome = iota // clear pending
	outcomeResend                   // confirmed, but a newer local edit must go out
	outcomeKeep                     // offline, the sweep will retry
	outcomeConflict                 // clear pending and refresh the collection
	outcomeFailed                   // parked, dead-lettered
)

// settle records the result of the write that carried seq.
func (p *pendingWrite) settle(seq uint64, err error) outcome {
	p.inFlight = false
	switch gateway.KindOf(err) {
	case gateway.KindNone:
		if p.seq != seq {
			return outcomeResend
		}
		return outcomeConfirmed
	case gateway.Conflict:
		return outcomeConflict
	case gateway.Offline:
		p.attempts++
		p.lastError = err.Error()
		return outcomeKeep
	default:
		p.attempts++
		p.lastError = err.Error()
		p.failed = true
		return outcomeFailed
	}
}

// due reports whether the sweep may resend this entry.
func (p *pendingWrite) due() bool { return !p.inFlight && !p.failed }

// Tracked is a record as seen by readers: the record plus its sync state.
type Tracked[D any] struct {
	Record      D      `json:"record"`
	PendingSync bool   `json:"pending_sync"`
	Attempts    int    `json:"attempts,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// PendingView describes one unconfirmed write.
type PendingView struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	InFlight   bool   `json:"in_flight"`
	Failed     bool   `json:"failed"`
}

func viewOf(collection, id string, p *pendingWrite) PendingView {
	return PendingView{
		Collection: collection,
		ID:         id,
		Attempts:   p.attempts,
		LastError:  p.lastError,
		InFlight:   p.inFlight,
		Failed:     p.failed,
	}
}
