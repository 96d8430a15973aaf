// Package domain holds the local shapes of the business records a POS device
// works against. Records carry no transport state; pending-write tracking lives
// in the sync engine.
package domain

// Record is implemented by every synced collection entry. RecordRevision is
// the store revision the local copy is based on, 0 when never confirmed.
type Record interface {
	RecordID() string
	RecordRevision() int64
}
