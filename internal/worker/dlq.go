package worker

// dlq.go: dead letter queue
// Writes the store rejected for good are parked here for manual inspection.
// One Redis list per collection: dlq:{collection}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a rejected write with metadata for debugging.
type DLQEntry struct {
	Collection string          `json:"collection"`
	RecordID   string          `json:"record_id"`
	Origin     string          `json:"origin"`
	Payload    json.RawMessage `json:"payload"`
	Reason     string          `json:"reason"`
	FailedAt   string          `json:"failed_at"` // ISO 8601
	Attempts   int             `json:"attempts"`
}

// DLQ pushes entries to Redis. A nil client turns it into a log-only sink.
type DLQ struct {
	rdb    *redis.Client
	origin string
	now    func() time.Time
}

func NewDLQ(rdb *redis.Client, origin string) *DLQ {
	return &DLQ{rdb: rdb, origin: origin, now: time.Now}
}

// Send parks a rejected write. Failures are logged, never returned: the
// pending entry stays visible on the device either way.
func (d *DLQ) Send(ctx context.Context, collection, id string, payload []byte, reason string, attempts int) {
	if len(payload) == 0 {
		payload = []byte("null")
	}
	entry := DLQEntry{
		Collection: collection,
		RecordID:   id,
		Origin:     d.origin,
		Payload:    payload,
		Reason:     reason,
		FailedAt:   d.now().UTC().Format(time.RFC3339),
		Attempts:   attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("dlq: failed to marshal entry")
		return
	}

	if d.rdb != nil {
		dlqKey := DLQPrefix + collection
		if err := d.rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
			log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
			return
		}
	}

	log.Warn().
		Str("collection", collection).
		Str("record_id", id).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: write moved to dead letter queue")
}

// Length returns the number of entries of a collection's DLQ.
func (d *DLQ) Length(ctx context.Context, collection string) (int64, error) {
	return d.rdb.LLen(ctx, DLQPrefix+collection).Result()
}

// List returns up to limit entries, newest first. Undecodable entries are
// skipped.
func (d *DLQ) List(ctx context.Context, collection string, limit int64) ([]DLQEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := d.rdb.LRange(ctx, DLQPrefix+collection, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			log.Debug().Err(err).Str("collection", collection).Msg("dlq: undecodable entry skipped")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
