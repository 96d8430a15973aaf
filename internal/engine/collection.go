package engine

import (
	"context"
	"encoding/json"
	"time"

	"posync/internal/domain"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/mapper"
	"posync/internal/model"

	"github.com/rs/zerolog/log"
)

// syncer is what the scheduler drives for every collection.
// Methods ending in Locked require e.mu.
type syncer interface {
	name() string
	owns(table string) bool
	refresh(ctx context.Context) error
	handle(ctx context.Context, ev infra.ChangeEvent)
	purge(ctx context.Context) error
	sweepLocked() int
	retryLocked(id string) error
	resetLocked() int
	pendingViewsLocked() []PendingView
}

// collection holds one record collection of the current store together
// with its pending side-table.
type collection[R model.Row, D domain.Record] struct {
	e       *Engine
	gw      gateway.Gateway[R]
	codec   mapper.Codec[R, D]
	newRow  func() R
	withRev func(D, int64) D
	items   []D
	pending map[string]*pendingWrite
}

func newCollection[R model.Row, D domain.Record](e *Engine, gw gateway.Gateway[R], codec mapper.Codec[R, D],
	newRow func() R, withRev func(D, int64) D) *collection[R, D] {
	return &collection[R, D]{
		e:       e,
		gw:      gw,
		codec:   codec,
		newRow:  newRow,
		withRev: withRev,
		pending: make(map[string]*pendingWrite),
	}
}

func (c *collection[R, D]) name() string           { return c.codec.Collection }
func (c *collection[R, D]) owns(table string) bool { return table == c.codec.Collection }

// ── Snapshot ──────────────────────────────────────────────────────────────────

func (c *collection[R, D]) refresh(ctx context.Context) error {
	storeID, epoch, ok := c.e.scope()
	if !ok {
		return ErrNoStore
	}
	rows, err := c.gw.FetchAll(ctx, storeID)
	if err != nil {
		return err
	}

	snapshot := make([]D, 0, len(rows))
	for _, r := range rows {
		d, err := c.codec.ToDomain(r)
		if err != nil {
			log.Warn().Err(err).Str("collection", c.name()).Str("store_id", storeID).Msg("engine: row skipped")
			continue
		}
		snapshot = append(snapshot, d)
	}

	c.e.locked(func() {
		if c.e.epoch != epoch {
			return
		}
		next := reconcileSnapshot(c.items, c.pending, snapshot)
		if !sameContent(c.items, next) {
			c.items = next
			c.e.bumpLocked()
		}
	})
	return nil
}

// ── Realtime events ───────────────────────────────────────────────────────────

func (c *collection[R, D]) handle(ctx context.Context, ev infra.ChangeEvent) {
	storeID, epoch, ok := c.e.scope()
	if !ok || ev.StoreID != storeID {
		return
	}

	if ev.Type == infra.EventDelete {
		c.e.locked(func() {
			if c.e.epoch != epoch {
				return
			}
			if ev.ID == "" {
				// bulk delete: the snapshot tells what is left
				c.e.launchLocked(func(ctx context.Context) { c.e.refresh(ctx, c) })
				return
			}
			delete(c.pending, ev.ID)
			if next, changed := removeRecord(c.items, ev.ID); changed {
				c.items = next
				c.e.bumpLocked()
			}
		})
		return
	}

	if c.isOwnEcho(ev) {
		return
	}
	row, ok := c.eventRow(ctx, storeID, ev)
	if !ok {
		return
	}
	rec, err := c.codec.ToDomain(row)
	if err != nil {
		log.Debug().Err(err).Str("collection", c.name()).Str("record_id", ev.ID).Msg("engine: event dropped")
		return
	}

	c.e.locked(func() {
		if c.e.epoch != epoch {
			return
		}
		if next, changed := applyUpsertEvent(c.items, c.pending, ev.Type, rec); changed {
			c.items = next
			c.e.bumpLocked()
		}
	})
}

// isOwnEcho reports an event this device caused and already holds.
func (c *collection[R, D]) isOwnEcho(ev infra.ChangeEvent) bool {
	if ev.Origin == "" || ev.Origin != c.e.cfg.DeviceID {
		return false
	}
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	idx := indexOf(c.items, ev.ID)
	return idx >= 0 && c.items[idx].RecordRevision() >= ev.Revision
}

// eventRow returns the row carried by ev, point-fetching it when the body was
// left out. A failed fetch drops the event.
func (c *collection[R, D]) eventRow(ctx context.Context, storeID string, ev infra.ChangeEvent) (R, bool) {
	if len(ev.Row) > 0 {
		row := c.newRow()
		if err := json.Unmarshal(ev.Row, row); err == nil {
			return row, true
		}
	}
	row, err := c.gw.FetchOne(ctx, storeID, ev.ID)
	if err != nil {
		log.Debug().Err(err).Str("collection", c.name()).Str("record_id", ev.ID).Msg("engine: point-fetch failed, event dropped")
		var zero R
		return zero, false
	}
	return row, true
}

// ── Local writes ──────────────────────────────────────────────────────────────

// put stores the record built by build as a pending local write.
func (c *collection[R, D]) put(build func(storeID string, now time.Time) D) (D, error) {
	var out D
	var err error
	c.e.locked(func() {
		if c.e.storeID == "" {
			err = ErrNoStore
			return
		}
		out = c.putLocked(build(c.e.storeID, c.e.now()))
	})
	return out, err
}

// mutate applies fn to the current copy of id as one local write.
func (c *collection[R, D]) mutate(id string, fn func(D, time.Time) (D, error)) (D, error) {
	var out D
	var err error
	c.e.locked(func() {
		idx := indexOf(c.items, id)
		if idx < 0 {
			err = ErrNotFound
			return
		}
		var next D
		if next, err = fn(c.items[idx], c.e.now()); err != nil {
			return
		}
		out = c.putLocked(next)
	})
	return out, err
}

func (c *collection[R, D]) putLocked(rec D) D {
	if idx := indexOf(c.items, rec.RecordID()); idx >= 0 {
		rec = c.withRev(rec, c.items[idx].RecordRevision())
	}
	c.items = putRecord(c.items, rec)
	c.markLocked(rec.RecordID())
	c.e.bumpLocked()
	return rec
}

func (c *collection[R, D]) markLocked(id string) {
	p := c.pending[id]
	if p == nil {
		p = &pendingWrite{}
		c.pending[id] = p
	}
	c.e.seq++
	p.seq = c.e.seq
	p.failed = false
	if !p.inFlight {
		p.inFlight = true
		c.sendLocked(id)
	}
}

// sendLocked pushes the current local copy of id. The copy is read when the
// goroutine runs so a burst of edits goes out as the latest state.
func (c *collection[R, D]) sendLocked(id string) {
	epoch := c.e.epoch
	c.e.launchLocked(func(ctx context.Context) {
		c.e.mu.Lock()
		p, idx := c.pending[id], indexOf(c.items, id)
		if c.e.epoch != epoch || p == nil || idx < 0 {
			if p != nil {
				p.inFlight = false
			}
			c.e.mu.Unlock()
			return
		}
		seq, rec := p.seq, c.items[idx]
		c.e.mu.Unlock()

		rev, err := c.gw.Upsert(ctx, c.codec.ToRemote(rec), rec.RecordRevision())
		c.complete(epoch, id, seq, rec, rev, err)
	})
}

func (c *collection[R, D]) complete(epoch uint64, id string, seq uint64, sent D, rev int64, err error) {
	var dead bool
	var attempts int
	c.e.locked(func() {
		if c.e.epoch != epoch {
			return
		}
		p := c.pending[id]
		if p == nil {
			// deleted while in flight
			return
		}
		switch p.settle(seq, err) {
		case outcomeConfirmed:
			delete(c.pending, id)
			c.setRevisionLocked(id, rev)
		case outcomeResend:
			c.setRevisionLocked(id, rev)
			p.inFlight = true
			c.sendLocked(id)
		case outcomeKeep:
			log.Warn().Err(err).Str("collection", c.name()).Str("record_id", id).
				Int("attempt", p.attempts).Msg("engine: write kept pending")
		case outcomeConflict:
			delete(c.pending, id)
			log.Warn().Err(err).Str("collection", c.name()).Str("record_id", id).
				Msg("engine: write conflicted, refreshing collection")
			c.e.launchLocked(func(ctx context.Context) { c.e.refresh(ctx, c) })
		case outcomeFailed:
			dead, attempts = true, p.attempts
		}
		c.e.bumpLocked()
	})
	if dead {
		payload, _ := json.Marshal(c.codec.ToRemote(sent))
		c.e.deadLetter(c.name(), id, payload, err, attempts)
	}
}

func (c *collection[R, D]) setRevisionLocked(id string, rev int64) {
	idx := indexOf(c.items, id)
	if idx < 0 || rev <= c.items[idx].RecordRevision() {
		return
	}
	c.items = putRecord(c.items, c.withRev(c.items[idx], rev))
}

// ── Queue maintenance ─────────────────────────────────────────────────────────

func (c *collection[R, D]) sweepLocked() int {
	n := 0
	for id, p := range c.pending {
		if p.due() {
			p.inFlight = true
			c.sendLocked(id)
			n++
		}
	}
	return n
}

func (c *collection[R, D]) retryLocked(id string) error {
	p := c.pending[id]
	if p == nil {
		return ErrNotFound
	}
	p.failed = false
	if !p.inFlight {
		p.inFlight = true
		c.sendLocked(id)
	}
	return nil
}

// resetLocked forgets everything; returns the number of pending writes lost.
func (c *collection[R, D]) resetLocked() int {
	lost := len(c.pending)
	c.items = nil
	c.pending = make(map[string]*pendingWrite)
	return lost
}

func (c *collection[R, D]) pendingViewsLocked() []PendingView {
	views := make([]PendingView, 0, len(c.pending))
	for id, p := range c.pending {
		views = append(views, viewOf(c.name(), id, p))
	}
	return views
}

// purge deletes the whole collection of the store remotely and locally.
func (c *collection[R, D]) purge(ctx context.Context) error {
	storeID, epoch, ok := c.e.scope()
	if !ok {
		return ErrNoStore
	}
	if err := c.gw.Delete(ctx, storeID); err != nil {
		return err
	}
	c.e.locked(func() {
		if c.e.epoch == epoch {
			c.pending = make(map[string]*pendingWrite)
		}
	})
	return c.e.refresh(ctx, c)
}

func (c *collection[R, D]) trackedLocked() []Tracked[D] {
	out := make([]Tracked[D], 0, len(c.items))
	for _, d := range c.items {
		out = append(out, c.trackOne(d))
	}
	return out
}

func (c *collection[R, D]) trackOne(d D) Tracked[D] {
	t := Tracked[D]{Record: d}
	if p, ok := c.pending[d.RecordID()]; ok {
		t.PendingSync = true
		t.Attempts = p.attempts
		t.LastError = p.lastError
	}
	return t
}
