package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"posync/internal/domain"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/mapper"
	"posync/internal/model"
	"posync/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStore  = "store-1"
	testDevice = "device-a"
	waitFor    = 2 * time.Second
	tick       = 10 * time.Millisecond
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// fakeGateway keeps rows newest first and enforces base revisions the way the
// record store does.
type fakeGateway[R model.Row] struct {
	mu         sync.Mutex
	collection string
	rows       []R
	fetches    int
	upserts    int
	fetchErr   error
	upsertErr  error
}

var _ gateway.Gateway[*model.SaleRow] = (*fakeGateway[*model.SaleRow])(nil)

func newFakeGateway[R model.Row](collection string) *fakeGateway[R] {
	return &fakeGateway[R]{collection: collection}
}

func (g *fakeGateway[R]) Collection() string { return g.collection }

func (g *fakeGateway[R]) FetchAll(_ context.Context, _ string) ([]R, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return append([]R(nil), g.rows...), nil
}

func (g *fakeGateway[R]) FetchOne(_ context.Context, _ string, id string) (R, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rows {
		if r.RowID() == id {
			return r, nil
		}
	}
	var zero R
	return zero, &gateway.Failure{Kind: gateway.RemoteError, Op: "fetch_one", Collection: g.collection, Err: errors.New("not found")}
}

func (g *fakeGateway[R]) Upsert(_ context.Context, row R, base int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upserts++
	if g.upsertErr != nil {
		return 0, g.upsertErr
	}
	for i, r := range g.rows {
		if r.RowID() != row.RowID() {
			continue
		}
		cur := r.Meta().Revision
		if cur != base {
			return 0, &gateway.Failure{Kind: gateway.Conflict, Op: "upsert", Collection: g.collection, Err: repository.ErrRevisionMismatch}
		}
		row.Meta().Revision = cur + 1
		g.rows[i] = row
		return cur + 1, nil
	}
	row.Meta().Revision = 1
	g.rows = append([]R{row}, g.rows...)
	return 1, nil
}

func (g *fakeGateway[R]) Delete(_ context.Context, _ string, ids ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(ids) == 0 {
		g.rows = nil
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := g.rows[:0]
	for _, r := range g.rows {
		if !drop[r.RowID()] {
			kept = append(kept, r)
		}
	}
	g.rows = kept
	return nil
}

func (g *fakeGateway[R]) seed(rows ...R) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = append(g.rows, rows...)
}

// replace swaps the stored copy of a row as another device would.
func (g *fakeGateway[R]) replace(row R) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, r := range g.rows {
		if r.RowID() == row.RowID() {
			g.rows[i] = row
			return
		}
	}
	g.rows = append([]R{row}, g.rows...)
}

func (g *fakeGateway[R]) setUpsertErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertErr = err
}

func (g *fakeGateway[R]) setFetchErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchErr = err
}

func (g *fakeGateway[R]) fetchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetches
}

func (g *fakeGateway[R]) upsertCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.upserts
}

func (g *fakeGateway[R]) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows)
}

type fakeMenuGateway struct {
	mu       sync.Mutex
	rows     model.MenuRows
	replaced int
}

var _ gateway.MenuGateway = (*fakeMenuGateway)(nil)

func (g *fakeMenuGateway) Fetch(_ context.Context, _ string) (model.MenuRows, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows, nil
}

func (g *fakeMenuGateway) Replace(_ context.Context, _ string, rows model.MenuRows) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = rows
	g.replaced++
	return nil
}

type fakeFeed struct {
	mu      sync.Mutex
	handler infra.FeedHandler
	err     error
}

var _ infra.ChangeFeed = (*fakeFeed)(nil)

func (f *fakeFeed) Publish(_ context.Context, ev infra.ChangeEvent) error {
	f.emit(ev)
	return nil
}

func (f *fakeFeed) Subscribe(_ context.Context, _ string, h infra.FeedHandler) (infra.Subscription, error) {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return nil, f.err
	}
	f.handler = h
	f.mu.Unlock()
	h.OnState(infra.FeedSubscribed, nil)
	return fakeSub{}, nil
}

func (f *fakeFeed) emit(ev infra.ChangeEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h.OnChange != nil {
		h.OnChange(ev)
	}
}

func (f *fakeFeed) drop() {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h.OnState(infra.FeedClosed, errors.New("connection reset"))
}

type fakeSub struct{}

func (fakeSub) Close() error { return nil }

type recordingDLQ struct {
	mu      sync.Mutex
	entries []string
}

var _ DeadLetters = (*recordingDLQ)(nil)

func (d *recordingDLQ) Send(_ context.Context, collection, id string, _ []byte, _ string, _ int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, collection+"/"+id)
}

func (d *recordingDLQ) list() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.entries...)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type harness struct {
	e          *Engine
	sales      *fakeGateway[*model.SaleRow]
	closures   *fakeGateway[*model.DayClosureRow]
	expenses   *fakeGateway[*model.ExpenseRow]
	injections *fakeGateway[*model.CashInjectionRow]
	settings   *fakeGateway[*model.SettingsRow]
	menu       *fakeMenuGateway
	feed       *fakeFeed
	dlq        *recordingDLQ
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		sales:      newFakeGateway[*model.SaleRow](model.TableSales),
		closures:   newFakeGateway[*model.DayClosureRow](model.TableDayClosures),
		expenses:   newFakeGateway[*model.ExpenseRow](model.TableExpenses),
		injections: newFakeGateway[*model.CashInjectionRow](model.TableCashInjections),
		settings:   newFakeGateway[*model.SettingsRow](model.TableSettings),
		menu:       &fakeMenuGateway{},
		feed:       &fakeFeed{},
		dlq:        &recordingDLQ{},
	}
	if cfg.StoreID == "" {
		cfg.StoreID = testStore
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = testDevice
	}
	h.e = New(cfg, Gateways{
		Sales:      h.sales,
		Closures:   h.closures,
		Expenses:   h.expenses,
		Injections: h.injections,
		Settings:   h.settings,
		Menu:       h.menu,
	}, h.feed, h.dlq)
	t.Cleanup(h.e.Stop)
	return h
}

// online subscribes the engine and loads the first snapshot.
func (h *harness) online(t *testing.T) {
	t.Helper()
	h.e.connect(context.Background())
	require.NoError(t, h.e.RefreshAll(context.Background()))
	require.Equal(t, StatusOnline, h.e.Status())
}

func remoteSale(id, notes string, rev int64) *model.SaleRow {
	now := time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)
	s := domain.NewSale(testStore, "ana", 4, []domain.OrderItem{
		{Name: "Muzzarella", Price: decimal.RequireFromString("9.50"), Quantity: 2},
	}, now)
	s.ID = id
	s.Notes = notes
	s.Revision = rev
	return mapper.SaleToRemote(s)
}

func newTicket() domain.Sale {
	return domain.Sale{
		Waiter:      "ana",
		TableNumber: 7,
		Order: []domain.OrderItem{
			{Name: "Napolitana", Price: decimal.RequireFromString("11.00"), Quantity: 1},
			{Name: "Agua", Price: decimal.RequireFromString("1.50"), Quantity: 2},
		},
	}
}

func offline() error {
	return &gateway.Failure{Kind: gateway.Offline, Op: "upsert", Err: errors.New("dial tcp: connection refused")}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func pendingOf(e *Engine, id string) (PendingView, bool) {
	for _, v := range e.PendingWrites() {
		if v.ID == id {
			return v, true
		}
	}
	return PendingView{}, false
}

func saleIDs(e *Engine) []string {
	var ids []string
	for _, s := range e.Sales() {
		ids = append(ids, s.Record.ID)
	}
	return ids
}

// ── Local writes ──────────────────────────────────────────────────────────────

func TestRecordSale_ConfirmsAndStoresRevision(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, testStore, s.StoreID)
	assert.Equal(t, domain.NotesPending, s.Notes)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("14.00")))

	require.Eventually(t, func() bool {
		_, pending := pendingOf(h.e, s.ID)
		return !pending
	}, waitFor, tick)

	got, err := h.e.Sale(s.ID)
	require.NoError(t, err)
	assert.False(t, got.PendingSync)
	assert.EqualValues(t, 1, got.Record.Revision)
	assert.Equal(t, 1, h.sales.size())
}

func TestRecordSale_KeepsCallerFields(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	refund := newTicket()
	refund.Type = domain.SaleTypeRefund
	s, err := h.e.RecordSale(refund)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleTypeRefund, s.Type)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("-14.00")), s.Total.String())

	paid := newTicket()
	paid.Notes = "EFECTIVO"
	paid.AuditNotes = []string{"cobrado al cerrar la mesa"}
	s, err = h.e.RecordSale(paid)
	require.NoError(t, err)
	assert.Equal(t, "EFECTIVO", s.Notes)
	assert.Equal(t, domain.StatusPaid, s.Status())
	assert.Equal(t, []string{"cobrado al cerrar la mesa"}, s.AuditNotes)

	s, err = h.e.RecordSale(domain.Sale{Notes: domain.NotesPending, Total: decimal.RequireFromString("25.00"), Date: "2024-03-01", Time: "21:15"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("25.00")), s.Total.String())
	assert.Equal(t, "2024-03-01", s.Date)
	assert.Equal(t, "21:15", s.Time)
	assert.Equal(t, domain.SaleTypeSale, s.Type)
	assert.False(t, s.CreatedAt.IsZero())

	got, err := h.e.Sale(s.ID)
	require.NoError(t, err)
	assert.True(t, got.Record.Total.Equal(decimal.RequireFromString("25.00")))
}

func TestRecordSale_NoStore(t *testing.T) {
	h := newHarness(t, Config{})
	h.e.storeID = ""

	_, err := h.e.RecordSale(newTicket())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestRecordSale_InsertEchoDoesNotDuplicate(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.sales.size() == 1 }, waitFor, tick)

	// the peer relay and our own echo of the same INSERT
	h.feed.emit(infra.ChangeEvent{Table: model.TableSales, Type: infra.EventInsert, StoreID: testStore, ID: s.ID, Revision: 1, Origin: "device-b"})
	h.feed.emit(infra.ChangeEvent{Table: model.TableSales, Type: infra.EventInsert, StoreID: testStore, ID: s.ID, Revision: 1, Origin: testDevice})

	assert.Equal(t, []string{s.ID}, saleIDs(h.e))
}

func TestRecordSale_OfflineKeepsPendingUntilSweep(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)
	h.sales.setUpsertErr(offline())

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, ok := pendingOf(h.e, s.ID)
		return ok && v.Attempts == 1 && !v.InFlight
	}, waitFor, tick)
	got, _ := h.e.Sale(s.ID)
	assert.True(t, got.PendingSync)
	assert.Contains(t, got.LastError, "connection refused")

	h.sales.setUpsertErr(nil)
	assert.Equal(t, 1, h.e.SweepPending())
	require.Eventually(t, func() bool {
		_, ok := pendingOf(h.e, s.ID)
		return !ok
	}, waitFor, tick)
	assert.Equal(t, 1, h.sales.size())
}

func TestSweepPending_OnlyWhileOnline(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.setUpsertErr(offline())

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, ok := pendingOf(h.e, s.ID)
		return ok && !v.InFlight
	}, waitFor, tick)

	require.Equal(t, StatusConnecting, h.e.Status())
	assert.Equal(t, 0, h.e.SweepPending())
	assert.Equal(t, 1, h.sales.upsertCount())
}

func TestRecordSale_RemoteErrorIsParkedAndDeadLettered(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)
	h.sales.setUpsertErr(&gateway.Failure{Kind: gateway.RemoteError, Op: "upsert", Err: errors.New("permission denied")})

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(h.dlq.list()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{model.TableSales + "/" + s.ID}, h.dlq.list())

	v, ok := pendingOf(h.e, s.ID)
	require.True(t, ok)
	assert.True(t, v.Failed)
	assert.Equal(t, 0, h.e.SweepPending())

	h.sales.setUpsertErr(nil)
	require.NoError(t, h.e.RetryPending(model.TableSales, s.ID))
	require.Eventually(t, func() bool {
		_, ok := pendingOf(h.e, s.ID)
		return !ok
	}, waitFor, tick)
}

func TestRecordSale_CancelledCallStaysPending(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)
	h.sales.setUpsertErr(fmt.Errorf("upsert: %w", context.Canceled))

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, ok := pendingOf(h.e, s.ID)
		return ok && v.Attempts == 1 && !v.InFlight
	}, waitFor, tick)
	v, _ := pendingOf(h.e, s.ID)
	assert.False(t, v.Failed)
	assert.Empty(t, h.dlq.list())
}

func TestRetryPending_Unknown(t *testing.T) {
	h := newHarness(t, Config{})

	assert.ErrorIs(t, h.e.RetryPending("tips", "x"), ErrUnknownCollection)
	assert.ErrorIs(t, h.e.RetryPending(model.TableSales, "missing"), ErrNotFound)
}

// ── Pending precedence ────────────────────────────────────────────────────────

func TestPendingWinsOverSnapshot(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)

	h.sales.setUpsertErr(offline())
	_, err := h.e.PaySale("s-1", "efectivo", "ana")
	require.NoError(t, err)

	// the store still holds the unpaid copy
	require.NoError(t, h.e.RefreshAll(context.Background()))

	got, err := h.e.Sale("s-1")
	require.NoError(t, err)
	assert.True(t, got.PendingSync)
	assert.Equal(t, "efectivo", got.Record.Notes)
}

func TestPendingRecordMissingFromSnapshotIsKept(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)
	h.sales.setUpsertErr(offline())

	s, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)
	require.NoError(t, h.e.RefreshAll(context.Background()))

	assert.Equal(t, []string{s.ID, "s-1"}, saleIDs(h.e))
}

func TestPendingWinsOverVoidUpdate(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)
	h.sales.setUpsertErr(offline())

	_, err := h.e.PaySale("s-1", "tarjeta", "ana")
	require.NoError(t, err)

	voided := remoteSale("s-1", domain.NotesVoided, 2)
	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventUpdate, StoreID: testStore,
		ID: "s-1", Revision: 2, Row: mustJSON(t, voided), Origin: "device-b",
	})

	got, err := h.e.Sale("s-1")
	require.NoError(t, err)
	assert.Equal(t, "tarjeta", got.Record.Notes)
	assert.True(t, got.PendingSync)
}

// ── Realtime events ───────────────────────────────────────────────────────────

func TestUpdateEvent_AppliesNewerRevision(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)
	gen := h.e.Signals().RenderGeneration

	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventUpdate, StoreID: testStore,
		ID: "s-1", Revision: 2, Row: mustJSON(t, remoteSale("s-1", domain.NotesVoided, 2)), Origin: "device-b",
	})

	got, err := h.e.Sale("s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVoided, got.Record.Status())
	assert.Greater(t, h.e.Signals().RenderGeneration, gen)

	// late delivery of an older revision
	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventUpdate, StoreID: testStore,
		ID: "s-1", Revision: 1, Row: mustJSON(t, remoteSale("s-1", "efectivo", 1)), Origin: "device-b",
	})
	got, _ = h.e.Sale("s-1")
	assert.Equal(t, domain.NotesVoided, got.Record.Notes)
}

func TestUpdateEvent_UnknownIDIsPrepended(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)

	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventUpdate, StoreID: testStore,
		ID: "s-2", Revision: 3, Row: mustJSON(t, remoteSale("s-2", domain.NotesPending, 3)), Origin: "device-b",
	})

	assert.Equal(t, []string{"s-2", "s-1"}, saleIDs(h.e))
}

func TestEvent_WithoutBodyIsPointFetched(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)
	h.sales.seed(remoteSale("s-big", domain.NotesPending, 1))

	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventInsert, StoreID: testStore,
		ID: "s-big", Revision: 1, Origin: "device-b",
	})

	assert.Equal(t, []string{"s-big"}, saleIDs(h.e))
}

func TestEvent_OtherStoreIgnored(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	h.feed.emit(infra.ChangeEvent{
		Table: model.TableSales, Type: infra.EventInsert, StoreID: "store-2",
		ID: "s-9", Revision: 1, Row: mustJSON(t, remoteSale("s-9", domain.NotesPending, 1)),
	})

	assert.Empty(t, saleIDs(h.e))
}

func TestDeleteEvent_RemovesRecordAndPending(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1), remoteSale("s-2", domain.NotesPending, 1))
	h.online(t)
	h.sales.setUpsertErr(offline())
	_, err := h.e.VoidSale("s-1", "ana", "error de carga")
	require.NoError(t, err)

	h.feed.emit(infra.ChangeEvent{Table: model.TableSales, Type: infra.EventDelete, StoreID: testStore, ID: "s-1", Origin: "device-b"})

	assert.Equal(t, []string{"s-2"}, saleIDs(h.e))
	_, pending := pendingOf(h.e, "s-1")
	assert.False(t, pending)
}

func TestBulkDeleteEvent_EmptiesCollection(t *testing.T) {
	h := newHarness(t, Config{})
	for i := 0; i < 12; i++ {
		h.sales.seed(remoteSale(fmt.Sprintf("s-%02d", i), domain.NotesPending, 1))
	}
	h.online(t)
	require.Len(t, h.e.Sales(), 12)

	// another device purged the store
	require.NoError(t, h.sales.Delete(context.Background(), testStore))
	h.feed.emit(infra.ChangeEvent{Table: model.TableSales, Type: infra.EventDelete, StoreID: testStore, Origin: "device-b"})

	require.Eventually(t, func() bool { return len(h.e.Sales()) == 0 }, waitFor, tick)
}

func TestPurgeStore_EmptiesCollection(t *testing.T) {
	h := newHarness(t, Config{})
	for i := 0; i < 12; i++ {
		h.sales.seed(remoteSale(fmt.Sprintf("s-%02d", i), domain.NotesPending, 1))
	}
	h.online(t)

	require.NoError(t, h.e.PurgeStore(context.Background(), model.TableSales))

	assert.Empty(t, h.e.Sales())
	assert.Equal(t, 0, h.sales.size())
	assert.ErrorIs(t, h.e.PurgeStore(context.Background(), "tips"), ErrUnknownCollection)
}

// ── Conflicts ─────────────────────────────────────────────────────────────────

func TestConcurrentVoid_ConflictRefreshesToStoreCopy(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)

	// device B voided first and the event never reached us
	winner := remoteSale("s-1", domain.NotesVoided, 2)
	winner.AuditNotes = `["2026-03-14T20:40:00Z bruno: anulado: duplicado"]`
	h.sales.replace(winner)

	_, err := h.e.VoidSale("s-1", "ana", "cliente se fue")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := h.e.Sale("s-1")
		return err == nil && !got.PendingSync && got.Record.Revision == 2
	}, waitFor, tick)

	got, _ := h.e.Sale("s-1")
	assert.Equal(t, domain.NotesVoided, got.Record.Notes)
	assert.Equal(t, []string{"2026-03-14T20:40:00Z bruno: anulado: duplicado"}, got.Record.AuditNotes)
	assert.Empty(t, h.dlq.list())
}

func TestEditsDuringFlightAreResent(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)

	_, err := h.e.SetKitchenStatus("s-1", 0, "horno", domain.KitchenPreparing)
	require.NoError(t, err)
	_, err = h.e.SetKitchenStatus("s-1", 0, "horno", domain.KitchenReady)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := pendingOf(h.e, "s-1")
		return !ok
	}, waitFor, tick)

	rows, _ := h.sales.FetchAll(context.Background(), testStore)
	stored, err := mapper.SaleToDomain(rows[0])
	require.NoError(t, err)
	assert.Equal(t, domain.KitchenReady, stored.Order[0].KitchenStatus["horno"])
}

// ── Snapshots & liveness ──────────────────────────────────────────────────────

func TestRefreshAll_ConvergesToSnapshot(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("a", domain.NotesPending, 1), remoteSale("b", domain.NotesPending, 1))
	h.online(t)
	assert.Equal(t, []string{"a", "b"}, saleIDs(h.e))

	require.NoError(t, h.sales.Delete(context.Background(), testStore, "b"))
	h.sales.replace(remoteSale("c", "efectivo", 1))
	require.NoError(t, h.e.RefreshAll(context.Background()))

	assert.Equal(t, []string{"c", "a"}, saleIDs(h.e))
	assert.False(t, h.e.Signals().LastSyncTime.IsZero())
}

func TestRefreshAll_FailureGoesOfflineAndRecovers(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	h.expenses.setFetchErr(offline())
	assert.Error(t, h.e.RefreshAll(context.Background()))
	assert.Equal(t, StatusOffline, h.e.Status())

	h.expenses.setFetchErr(nil)
	require.NoError(t, h.e.RefreshAll(context.Background()))
	assert.Equal(t, StatusOnline, h.e.Status())

	h.feed.drop()
	assert.Equal(t, StatusPolling, h.e.Status())
}

func TestSubscribeFailure_FallsBackToPolling(t *testing.T) {
	h := newHarness(t, Config{})
	h.feed.err = errors.New("redis: connection refused")

	h.e.connect(context.Background())

	assert.Equal(t, StatusPolling, h.e.Status())
}

func TestScheduler_VisibleAgainFetchesImmediately(t *testing.T) {
	h := newHarness(t, Config{Cadence: Cadence{PollOnline: time.Hour, PollDegraded: time.Hour, Reconnect: time.Hour}})
	h.e.Start(context.Background())

	require.Eventually(t, func() bool { return h.sales.fetchCount() == 1 }, waitFor, tick)

	h.e.SetVisible(false)
	h.e.SetVisible(true)

	require.Eventually(t, func() bool { return h.sales.fetchCount() == 2 }, waitFor, tick)
}

func TestSignals_ListenerSeesChanges(t *testing.T) {
	h := newHarness(t, Config{})
	var mu sync.Mutex
	var seen []Signals
	h.e.OnSignal(func(s Signals) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	h.online(t)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, StatusOnline, seen[len(seen)-1].Status)
}

func TestSwitchStore_DropsEverything(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)
	h.sales.setUpsertErr(offline())
	_, err := h.e.RecordSale(newTicket())
	require.NoError(t, err)

	require.NoError(t, h.e.SwitchStore("store-2"))

	assert.Empty(t, h.e.Sales())
	assert.Empty(t, h.e.PendingWrites())
	assert.Equal(t, "store-2", h.e.StoreID())
	assert.Equal(t, StatusConnecting, h.e.Status())
	assert.ErrorIs(t, h.e.SwitchStore(""), ErrNoStore)
}

// ── Intents ───────────────────────────────────────────────────────────────────

func TestCloseDay_ClosesFloorSales(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(
		remoteSale("paid", "efectivo", 1),
		remoteSale("open", domain.NotesPending, 1),
		remoteSale("void", domain.NotesVoided, 1),
	)
	h.online(t)

	c, err := h.e.CloseDay("ana", false)
	require.NoError(t, err)
	assert.Equal(t, 3, c.SalesCount)
	assert.True(t, c.TotalPaid.Equal(decimal.RequireFromString("19.00")))

	for _, s := range h.e.Sales() {
		assert.True(t, s.Record.Closed, s.Record.ID)
		require.NotNil(t, s.Record.ClosureID)
		assert.Equal(t, c.ID, *s.Record.ClosureID)
	}
	require.Eventually(t, func() bool { return len(h.e.PendingWrites()) == 0 }, waitFor, tick)
	assert.Equal(t, 1, h.closures.size())
}

func TestSaleIntents_InvalidLineAndMissingSale(t *testing.T) {
	h := newHarness(t, Config{})
	h.sales.seed(remoteSale("s-1", domain.NotesPending, 1))
	h.online(t)

	_, err := h.e.MarkServed("s-1", 5)
	assert.ErrorIs(t, err, ErrInvalidLine)
	_, err = h.e.RemoveItem("nope", 0, "ana")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, h.e.PendingWrites())
}

func TestLedgerAndSettingsWrites(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	x, err := h.e.RecordExpense(domain.Expense{Amount: decimal.NewFromInt(1200), Description: "hielo", User: "ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, x.ID)
	assert.NotEmpty(t, x.Date)

	_, err = h.e.RecordInjection(domain.CashInjection{Amount: decimal.NewFromInt(5000), Description: "cambio", User: "ana"})
	require.NoError(t, err)

	_, err = h.e.Settings()
	assert.ErrorIs(t, err, ErrNotFound)
	saved, err := h.e.SaveSettings(domain.Settings{BusinessName: "La Esquina"})
	require.NoError(t, err)
	assert.Equal(t, testStore, saved.StoreID)

	require.Eventually(t, func() bool { return len(h.e.PendingWrites()) == 0 }, waitFor, tick)
	got, err := h.e.Settings()
	require.NoError(t, err)
	assert.Equal(t, "La Esquina", got.Record.BusinessName)
	assert.Equal(t, 1, h.expenses.size())
	assert.Equal(t, 1, h.injections.size())
}

// ── Menu ──────────────────────────────────────────────────────────────────────

func TestMenu_DemoSource(t *testing.T) {
	h := newHarness(t, Config{MenuSource: domain.MenuSourceDemo})
	h.online(t)

	m, pending := h.e.Menu()
	assert.False(t, pending)
	assert.Equal(t, domain.MenuSourceDemo, m.Source)
	assert.Len(t, m.Categories, 2)
}

func TestMenu_PublishReplacesRemote(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	demo := domain.DemoMenu(testStore)
	_, err := h.e.PublishMenu(demo)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, pending := h.e.Menu()
		return !pending
	}, waitFor, tick)
	assert.Len(t, h.menu.rows.Categories, 2)
	assert.Len(t, h.menu.rows.Items, 4)

	require.NoError(t, h.e.RefreshAll(context.Background()))
	m, _ := h.e.Menu()
	assert.Equal(t, domain.MenuSourceRemote, m.Source)
	assert.Equal(t, "Muzzarella", m.Categories[0].Items[0].Name)
}

func TestMenu_SetMenuSource(t *testing.T) {
	h := newHarness(t, Config{MenuSource: domain.MenuSourceDemo})
	h.online(t)

	own := domain.Menu{StoreID: testStore, Categories: []domain.MenuCategory{{
		ID: "pizzas", Name: "Pizzas",
		Items: []domain.MenuItem{{ID: "fugazza", CategoryID: "pizzas", Name: "Fugazza", Price: decimal.RequireFromString("10"), Available: true}},
	}}}
	h.menu.mu.Lock()
	h.menu.rows = mapper.MenuToRemote(own)
	h.menu.mu.Unlock()

	require.NoError(t, h.e.SetMenuSource(context.Background(), domain.MenuSourceRemote))
	m, _ := h.e.Menu()
	assert.Equal(t, domain.MenuSourceRemote, m.Source)
	require.Len(t, m.Categories, 1)
	assert.Equal(t, "Fugazza", m.Categories[0].Items[0].Name)

	require.NoError(t, h.e.SetMenuSource(context.Background(), domain.MenuSourceDemo))
	m, _ = h.e.Menu()
	assert.Equal(t, domain.MenuSourceDemo, m.Source)
	assert.Len(t, m.Categories, 2)
}

func TestMenu_PublishDoesNotAliasCaller(t *testing.T) {
	h := newHarness(t, Config{})
	h.online(t)

	in := domain.DemoMenu(testStore)
	out, err := h.e.PublishMenu(in)
	require.NoError(t, err)

	in.Categories[0].Name = "changed by caller"
	in.Categories[0].Items[0].Price = decimal.NewFromInt(1)
	out.Categories[0].Items[0].Name = "changed by reader"
	read, _ := h.e.Menu()
	read.ModifierGroups[0].Options[0].Name = "changed too"

	m, _ := h.e.Menu()
	assert.Equal(t, "Pizzas", m.Categories[0].Name)
	assert.Equal(t, "9.5", m.Categories[0].Items[0].Price.String())
	assert.Equal(t, "Muzzarella", m.Categories[0].Items[0].Name)
	assert.Equal(t, "Chica", m.ModifierGroups[0].Options[0].Name)
}
