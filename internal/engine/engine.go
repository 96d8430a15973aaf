// Package engine keeps the collections of one store consistent between this
// device and the remote record store. Three inputs feed it: periodic
// snapshots, realtime change events and local writes. All collection state
// sits behind one mutex; gateway I/O always runs outside it.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"posync/internal/domain"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/mapper"
	"posync/internal/model"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrNoStore           = errors.New("no store selected")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidLine       = domain.ErrInvalidLine
)

// Signals is what a presentation layer watches to know when to re-derive
// its views.
type Signals struct {
	Status           Status    `json:"status"`
	LastSyncTime     time.Time `json:"last_sync_time"`
	RenderGeneration uint64    `json:"render_generation"`
}

type Config struct {
	StoreID    string
	DeviceID   string
	Cadence    Cadence
	MenuSource string // domain.MenuSourceRemote or domain.MenuSourceDemo
}

// Gateways is the remote side of every collection.
type Gateways struct {
	Sales      gateway.Gateway[*model.SaleRow]
	Closures   gateway.Gateway[*model.DayClosureRow]
	Expenses   gateway.Gateway[*model.ExpenseRow]
	Injections gateway.Gateway[*model.CashInjectionRow]
	Settings   gateway.Gateway[*model.SettingsRow]
	Menu       gateway.MenuGateway
}

// DeadLetters receives writes the store rejected for good.
type DeadLetters interface {
	Send(ctx context.Context, collection, id string, payload []byte, reason string, attempts int)
}

type Engine struct {
	mu         sync.Mutex
	cfg        Config
	storeID    string
	epoch      uint64 // bumped on store switch; stale async results compare against it
	seq        uint64
	status     Status
	subscribed bool
	visible    bool
	lastSync   time.Time
	generation uint64
	lastSignal Signals
	listeners  []func(Signals)

	sales      *collection[*model.SaleRow, domain.Sale]
	closures   *collection[*model.DayClosureRow, domain.DayClosure]
	expenses   *collection[*model.ExpenseRow, domain.Expense]
	injections *collection[*model.CashInjectionRow, domain.CashInjection]
	settings   *collection[*model.SettingsRow, domain.Settings]
	menu       *menuState
	syncers    []syncer

	feed infra.ChangeFeed
	sub  infra.Subscription
	dlq  DeadLetters
	now  func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}
	running bool
	stopped bool
}

// New builds an engine for cfg.StoreID. feed and dlq may be nil.
func New(cfg Config, gws Gateways, feed infra.ChangeFeed, dlq DeadLetters) *Engine {
	cfg.Cadence = cfg.Cadence.withDefaults()
	if cfg.MenuSource == "" {
		cfg.MenuSource = domain.MenuSourceRemote
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:     cfg,
		storeID: cfg.StoreID,
		status:  StatusConnecting,
		visible: true,
		feed:    feed,
		dlq:     dlq,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
	}
	e.lastSignal = e.signalsLocked()

	e.sales = newCollection(e, gws.Sales, mapper.Sales,
		func() *model.SaleRow { return &model.SaleRow{} },
		func(s domain.Sale, rev int64) domain.Sale { s.Revision = rev; return s })
	e.closures = newCollection(e, gws.Closures, mapper.Closures,
		func() *model.DayClosureRow { return &model.DayClosureRow{} },
		func(c domain.DayClosure, rev int64) domain.DayClosure { c.Revision = rev; return c })
	e.expenses = newCollection(e, gws.Expenses, mapper.Expenses,
		func() *model.ExpenseRow { return &model.ExpenseRow{} },
		func(x domain.Expense, rev int64) domain.Expense { x.Revision = rev; return x })
	e.injections = newCollection(e, gws.Injections, mapper.Injections,
		func() *model.CashInjectionRow { return &model.CashInjectionRow{} },
		func(i domain.CashInjection, rev int64) domain.CashInjection { i.Revision = rev; return i })
	e.settings = newCollection(e, gws.Settings, mapper.SettingsCodec,
		func() *model.SettingsRow { return &model.SettingsRow{} },
		func(s domain.Settings, rev int64) domain.Settings { s.Revision = rev; return s })
	e.menu = &menuState{e: e, gw: gws.Menu, source: cfg.MenuSource}

	e.syncers = []syncer{e.sales, e.closures, e.expenses, e.injections, e.settings, e.menu}
	return e
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Start launches the scheduler. Cancelling ctx has the same effect as Stop
// minus the wait.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.stopped {
		return
	}
	e.running = true
	context.AfterFunc(ctx, e.cancel)
	e.wg.Add(1)
	go e.run()
}

// Stop cancels every background goroutine and waits for them.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()

	e.cancel()
	if sub != nil {
		_ = sub.Close()
	}
	e.wg.Wait()
}

// run is the single scheduler: safety poll, resubscribe attempts and
// out-of-cycle refreshes all happen here.
func (e *Engine) run() {
	defer e.wg.Done()
	ctx := e.ctx
	log.Info().Str("store_id", e.StoreID()).Msg("engine: scheduler started")

	e.connect(ctx)
	_ = e.RefreshAll(ctx)

	cad := e.cfg.Cadence
	poll := time.NewTimer(cad.pollInterval(e.Status()))
	reconnect := time.NewTicker(cad.Reconnect)
	defer poll.Stop()
	defer reconnect.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("engine: scheduler shutting down")
			return
		case <-poll.C:
			if e.isVisible() {
				_ = e.RefreshAll(ctx)
			}
			poll.Reset(cad.pollInterval(e.Status()))
		case <-reconnect.C:
			if !e.isSubscribed() {
				e.connect(ctx)
			}
		case <-e.wake:
			if !e.isSubscribed() {
				e.connect(ctx)
			}
			_ = e.RefreshAll(ctx)
			if !poll.Stop() {
				select {
				case <-poll.C:
				default:
				}
			}
			poll.Reset(cad.pollInterval(e.Status()))
		}
	}
}

func (e *Engine) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// SetVisible reports whether the UI is in the foreground. Polling pauses
// while hidden; becoming visible forces an immediate refresh.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	was := e.visible
	e.visible = visible
	e.mu.Unlock()
	if visible && !was {
		log.Debug().Msg("engine: foregrounded, refreshing")
		e.nudge()
	}
}

// SwitchStore drops every collection and pending write and starts over
// for storeID.
func (e *Engine) SwitchStore(storeID string) error {
	if storeID == "" {
		return ErrNoStore
	}
	var old infra.Subscription
	lost := 0
	e.locked(func() {
		if storeID == e.storeID {
			return
		}
		e.storeID = storeID
		e.epoch++
		e.subscribed = false
		old, e.sub = e.sub, nil
		for _, s := range e.syncers {
			lost += s.resetLocked()
		}
		e.setStatusLocked(StatusConnecting)
		e.bumpLocked()
	})
	if old != nil {
		_ = old.Close()
	}
	if lost > 0 {
		log.Warn().Int("pending", lost).Str("store_id", storeID).Msg("engine: store switched, unconfirmed writes dropped")
	}
	e.nudge()
	return nil
}

// ── Change feed ───────────────────────────────────────────────────────────────

func (e *Engine) connect(ctx context.Context) {
	e.mu.Lock()
	storeID, epoch := e.storeID, e.epoch
	old := e.sub
	e.sub = nil
	e.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	if storeID == "" {
		return
	}
	if e.feed == nil {
		e.locked(func() { e.setStatusLocked(nextStatus(e.status, evSubscribeFailed, false)) })
		return
	}

	sub, err := e.feed.Subscribe(ctx, storeID, infra.FeedHandler{
		OnChange: func(ev infra.ChangeEvent) { e.dispatch(ctx, epoch, ev) },
		OnState:  func(st infra.FeedState, err error) { e.feedState(epoch, st, err) },
	})
	if err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("engine: subscribe failed")
		e.locked(func() {
			if e.epoch == epoch {
				e.setStatusLocked(nextStatus(e.status, evSubscribeFailed, false))
			}
		})
		return
	}

	e.mu.Lock()
	stale := e.epoch != epoch || e.stopped
	if !stale {
		e.sub = sub
	}
	e.mu.Unlock()
	if stale {
		_ = sub.Close()
	}
}

func (e *Engine) feedState(epoch uint64, st infra.FeedState, err error) {
	e.locked(func() {
		if e.epoch != epoch {
			return
		}
		switch st {
		case infra.FeedSubscribed:
			e.subscribed = true
			e.setStatusLocked(nextStatus(e.status, evSubscribed, true))
		case infra.FeedClosed:
			e.subscribed = false
			e.setStatusLocked(nextStatus(e.status, evFeedClosed, false))
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("engine: change feed error")
	}
}

func (e *Engine) dispatch(ctx context.Context, epoch uint64, ev infra.ChangeEvent) {
	e.mu.Lock()
	current := e.epoch == epoch
	e.mu.Unlock()
	if !current {
		return
	}
	for _, s := range e.syncers {
		if s.owns(ev.Table) {
			s.handle(ctx, ev)
			return
		}
	}
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// RefreshAll fetches a snapshot of every collection. Collections refresh
// independently; any failure moves the status to offline.
func (e *Engine) RefreshAll(ctx context.Context) error {
	return e.refresh(ctx, e.syncers...)
}

func (e *Engine) refresh(ctx context.Context, targets ...syncer) error {
	if _, _, ok := e.scope(); !ok {
		return ErrNoStore
	}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, s := range targets {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.refresh(ctx)
		}()
	}
	wg.Wait()

	err := errors.Join(errs...)
	e.locked(func() {
		if err != nil {
			e.setStatusLocked(nextStatus(e.status, evFetchFailed, e.subscribed))
			return
		}
		e.lastSync = e.now()
		e.setStatusLocked(nextStatus(e.status, evFetchSucceeded, e.subscribed))
	})
	if err != nil {
		log.Warn().Err(err).Msg("engine: snapshot refresh failed")
	}
	return err
}

// ── Pending queue ─────────────────────────────────────────────────────────────

// SweepPending resends every pending write that is neither in flight nor
// parked. It does nothing unless the status is online.
func (e *Engine) SweepPending() int {
	n := 0
	e.locked(func() {
		if e.status != StatusOnline || e.storeID == "" {
			return
		}
		for _, s := range e.syncers {
			n += s.sweepLocked()
		}
	})
	return n
}

// RetryPending re-arms a parked write.
func (e *Engine) RetryPending(collection, id string) error {
	s, err := e.syncer(collection)
	if err != nil {
		return err
	}
	e.locked(func() { err = s.retryLocked(id) })
	return err
}

func (e *Engine) PendingWrites() []PendingView {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []PendingView
	for _, s := range e.syncers {
		out = append(out, s.pendingViewsLocked()...)
	}
	return out
}

func (e *Engine) syncer(collection string) (syncer, error) {
	for _, s := range e.syncers {
		if s.name() == collection {
			return s, nil
		}
	}
	return nil, ErrUnknownCollection
}

func (e *Engine) deadLetter(collection, id string, payload []byte, err error, attempts int) {
	log.Error().Err(err).Str("collection", collection).Str("record_id", id).Int("attempt", attempts).
		Msg("engine: write rejected by store, parked")
	if e.dlq != nil {
		e.dlq.Send(context.WithoutCancel(e.ctx), collection, id, payload, err.Error(), attempts)
	}
}

// ── Signals ───────────────────────────────────────────────────────────────────

func (e *Engine) Signals() Signals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signalsLocked()
}

// OnSignal registers fn to be called after every signal change. Calls happen
// outside the engine lock, possibly from several goroutines.
func (e *Engine) OnSignal(fn func(Signals)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Online() bool { return e.Status() == StatusOnline }

func (e *Engine) StoreID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storeID
}

func (e *Engine) signalsLocked() Signals {
	return Signals{Status: e.status, LastSyncTime: e.lastSync, RenderGeneration: e.generation}
}

// locked runs fn under the lock and then notifies listeners if the signals
// moved.
func (e *Engine) locked(fn func()) {
	e.mu.Lock()
	fn()
	sig := e.signalsLocked()
	changed := sig != e.lastSignal
	var listeners []func(Signals)
	if changed {
		e.lastSignal = sig
		listeners = append(listeners, e.listeners...)
	}
	e.mu.Unlock()
	for _, l := range listeners {
		l(sig)
	}
}

// bumpLocked marks an accepted change.
func (e *Engine) bumpLocked() {
	e.generation++
	e.lastSync = e.now()
}

func (e *Engine) setStatusLocked(s Status) {
	if s == e.status {
		return
	}
	log.Info().Str("from", string(e.status)).Str("status", string(s)).Msg("engine: sync status changed")
	e.status = s
}

func (e *Engine) launchLocked(fn func(context.Context)) {
	if e.stopped {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(e.ctx)
	}()
}

func (e *Engine) scope() (storeID string, epoch uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.storeID, e.epoch, e.storeID != ""
}

func (e *Engine) isVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

func (e *Engine) isSubscribed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subscribed
}
