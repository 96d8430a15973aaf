package engine

import (
	"context"
	"time"

	"posync/internal/domain"

	"github.com/google/uuid"
)

// ── Reads ─────────────────────────────────────────────────────────────────────

// Sales returns the sales of the current store, newest first.
func (e *Engine) Sales() []Tracked[domain.Sale] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sales.trackedLocked()
}

func (e *Engine) Sale(id string) (Tracked[domain.Sale], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := indexOf(e.sales.items, id)
	if idx < 0 {
		return Tracked[domain.Sale]{}, ErrNotFound
	}
	return e.sales.trackOne(e.sales.items[idx].Clone()), nil
}

func (e *Engine) Closures() []Tracked[domain.DayClosure] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closures.trackedLocked()
}

func (e *Engine) Expenses() []Tracked[domain.Expense] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expenses.trackedLocked()
}

func (e *Engine) Injections() []Tracked[domain.CashInjection] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.injections.trackedLocked()
}

// Settings returns the settings of the current store; ErrNotFound until the
// first snapshot or save.
func (e *Engine) Settings() (Tracked[domain.Settings], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := indexOf(e.settings.items, e.storeID)
	if idx < 0 {
		return Tracked[domain.Settings]{}, ErrNotFound
	}
	return e.settings.trackOne(e.settings.items[idx]), nil
}

// Menu returns the catalog and whether an unconfirmed publish is pending.
func (e *Engine) Menu() (domain.Menu, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.menu.menu.Clone(), e.menu.pending != nil
}

// ── Writes ────────────────────────────────────────────────────────────────────

// RecordSale stores s locally and pushes it. A sale without id is a new
// ticket: it gets an id and the fields the caller left empty are defaulted.
// Notes, type, audit notes and a non-zero total are kept as given.
func (e *Engine) RecordSale(s domain.Sale) (domain.Sale, error) {
	return e.sales.put(func(storeID string, now time.Time) domain.Sale {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.StoreID = storeID
		if s.Date == "" || s.Time == "" {
			s.Date, s.Time = stamp(s.Date, s.Time, now)
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now.UTC()
		}
		if s.Type == "" {
			s.Type = domain.SaleTypeSale
		}
		if s.Notes == "" {
			s.Notes = domain.NotesPending
		}
		if s.Total.IsZero() && len(s.Order) > 0 {
			s.Total = s.ComputeTotal()
		}
		return s
	})
}

func (e *Engine) RecordClosure(c domain.DayClosure) (domain.DayClosure, error) {
	return e.closures.put(func(storeID string, now time.Time) domain.DayClosure {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.StoreID = storeID
		if c.ClosedAt.IsZero() {
			c.ClosedAt = now.UTC()
		}
		if c.Date == "" {
			c.Date = now.Format("2006-01-02")
		}
		return c
	})
}

func (e *Engine) RecordExpense(x domain.Expense) (domain.Expense, error) {
	return e.expenses.put(func(storeID string, now time.Time) domain.Expense {
		if x.ID == "" {
			x.ID = uuid.NewString()
		}
		x.StoreID = storeID
		x.Date, x.Time = stamp(x.Date, x.Time, now)
		return x
	})
}

func (e *Engine) RecordInjection(i domain.CashInjection) (domain.CashInjection, error) {
	return e.injections.put(func(storeID string, now time.Time) domain.CashInjection {
		if i.ID == "" {
			i.ID = uuid.NewString()
		}
		i.StoreID = storeID
		i.Date, i.Time = stamp(i.Date, i.Time, now)
		return i
	})
}

// SaveSettings replaces the settings of the current store.
func (e *Engine) SaveSettings(s domain.Settings) (domain.Settings, error) {
	return e.settings.put(func(storeID string, _ time.Time) domain.Settings {
		s.StoreID = storeID
		return s
	})
}

// PublishMenu replaces the catalog locally and remotely. It also switches the
// engine to the remote menu source.
func (e *Engine) PublishMenu(m domain.Menu) (domain.Menu, error) {
	var out domain.Menu
	var err error
	e.locked(func() {
		if e.storeID == "" {
			err = ErrNoStore
			return
		}
		out = e.menu.publishLocked(m)
	})
	return out, err
}

// SetMenuSource picks where the catalog comes from and reloads it.
func (e *Engine) SetMenuSource(ctx context.Context, source string) error {
	e.mu.Lock()
	e.menu.source = source
	e.mu.Unlock()
	return e.refresh(ctx, e.menu)
}

// ── Sale lifecycle ────────────────────────────────────────────────────────────

func (e *Engine) VoidSale(id, by, reason string) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, now time.Time) error {
		s.Void(now, by, reason)
		return nil
	})
}

func (e *Engine) PaySale(id, method, by string) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, now time.Time) error {
		s.Pay(now, method, by)
		return nil
	})
}

func (e *Engine) ReopenSale(id, by string) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, now time.Time) error {
		s.Reopen(now, by)
		return nil
	})
}

func (e *Engine) SetKitchenStatus(id string, line int, station, status string) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, _ time.Time) error {
		return s.SetKitchenStatus(line, station, status)
	})
}

func (e *Engine) MarkServed(id string, line int) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, _ time.Time) error {
		return s.MarkServed(line)
	})
}

func (e *Engine) RemoveItem(id string, line int, by string) (domain.Sale, error) {
	return e.editSale(id, func(s *domain.Sale, now time.Time) error {
		return s.RemoveItem(now, line, by)
	})
}

func (e *Engine) editSale(id string, fn func(*domain.Sale, time.Time) error) (domain.Sale, error) {
	return e.sales.mutate(id, func(cur domain.Sale, now time.Time) (domain.Sale, error) {
		s := cur.Clone()
		if err := fn(&s, now); err != nil {
			return domain.Sale{}, err
		}
		return s, nil
	})
}

// CloseDay records a closure over every sale still on the floor and marks
// those sales closed.
func (e *Engine) CloseDay(by string, admin bool) (domain.DayClosure, error) {
	var closure domain.DayClosure
	var err error
	e.locked(func() {
		if e.storeID == "" {
			err = ErrNoStore
			return
		}
		now := e.now()
		closure = domain.SummarizeDay(e.storeID, by, admin, e.sales.items, now)
		closure = e.closures.putLocked(closure)
		for _, id := range closure.ReportIDs {
			idx := indexOf(e.sales.items, id)
			if idx < 0 {
				continue
			}
			s := e.sales.items[idx].Clone()
			s.Closed = true
			cid := closure.ID
			s.ClosureID = &cid
			e.sales.putLocked(s)
		}
	})
	return closure, err
}

// PurgeStore deletes every record of collection for the current store.
func (e *Engine) PurgeStore(ctx context.Context, collection string) error {
	s, err := e.syncer(collection)
	if err != nil {
		return err
	}
	return s.purge(ctx)
}

// Collections lists the names accepted by PurgeStore and RetryPending.
func (e *Engine) Collections() []string {
	out := make([]string, 0, len(e.syncers))
	for _, s := range e.syncers {
		out = append(out, s.name())
	}
	return out
}

func stamp(date, clock string, now time.Time) (string, string) {
	if date == "" {
		date = now.Format("2006-01-02")
	}
	if clock == "" {
		clock = now.Format("15:04")
	}
	return date, clock
}
