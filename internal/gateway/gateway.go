package gateway

import (
	"context"
	"encoding/json"

	"posync/internal/infra"
	"posync/internal/model"
	"posync/internal/repository"

	"github.com/rs/zerolog/log"
)

// Gateway is the remote side of one collection.
type Gateway[R model.Row] interface {
	Collection() string
	FetchAll(ctx context.Context, storeID string) ([]R, error)
	FetchOne(ctx context.Context, storeID, id string) (R, error)
	// Upsert returns the revision the store now holds for the row.
	Upsert(ctx context.Context, row R, baseRevision int64) (int64, error)
	// Delete removes the given ids, or every row of the store when ids is empty.
	Delete(ctx context.Context, storeID string, ids ...string) error
}

// Deps are shared by every gateway of one agent.
type Deps struct {
	Breaker *infra.CircuitBreaker
	Feed    infra.ChangeFeed // nil disables change publishing
	Origin  string           // device id stamped on published events
}

type collectionGateway[R model.Row] struct {
	collection string
	store      repository.RecordStore[R]
	deps       Deps
}

func New[R model.Row](collection string, store repository.RecordStore[R], deps Deps) Gateway[R] {
	return &collectionGateway[R]{collection: collection, store: store, deps: deps}
}

func (g *collectionGateway[R]) Collection() string { return g.collection }

func (g *collectionGateway[R]) FetchAll(ctx context.Context, storeID string) ([]R, error) {
	var rows []R
	err := g.deps.run(func() error {
		var err error
		rows, err = g.store.FetchAll(ctx, storeID)
		return err
	})
	return rows, fail("fetch", g.collection, err)
}

func (g *collectionGateway[R]) FetchOne(ctx context.Context, storeID, id string) (R, error) {
	var row R
	err := g.deps.run(func() error {
		var err error
		row, err = g.store.FetchOne(ctx, storeID, id)
		return err
	})
	return row, fail("fetch_one", g.collection, err)
}

func (g *collectionGateway[R]) Upsert(ctx context.Context, row R, baseRevision int64) (int64, error) {
	var rev int64
	err := g.deps.run(func() error {
		var err error
		rev, err = g.store.Upsert(ctx, row, baseRevision)
		return err
	})
	if err != nil {
		return 0, fail("upsert", g.collection, err)
	}

	typ := infra.EventUpdate
	if rev == 1 {
		typ = infra.EventInsert
	}
	body, _ := json.Marshal(row)
	g.deps.publish(ctx, infra.ChangeEvent{
		Table: g.collection, Type: typ, StoreID: row.Tenant(), ID: row.RowID(), Revision: rev, Row: body,
	})
	return rev, nil
}

func (g *collectionGateway[R]) Delete(ctx context.Context, storeID string, ids ...string) error {
	err := g.deps.run(func() error {
		_, err := g.store.Delete(ctx, storeID, ids...)
		return err
	})
	if err != nil {
		return fail("delete", g.collection, err)
	}
	if len(ids) == 0 {
		// an empty id tells subscribers the whole collection changed
		g.deps.publish(ctx, infra.ChangeEvent{Table: g.collection, Type: infra.EventDelete, StoreID: storeID})
		return nil
	}
	for _, id := range ids {
		g.deps.publish(ctx, infra.ChangeEvent{Table: g.collection, Type: infra.EventDelete, StoreID: storeID, ID: id})
	}
	return nil
}

func (d Deps) run(fn func() error) error {
	if d.Breaker == nil {
		return fn()
	}
	return d.Breaker.Execute(fn)
}

// publish never fails the write it follows: subscribers that miss the event
// converge on their next snapshot.
func (d Deps) publish(ctx context.Context, ev infra.ChangeEvent) {
	if d.Feed == nil {
		return
	}
	ev.Origin = d.Origin
	if err := d.Feed.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("collection", ev.Table).Str("record_id", ev.ID).Msg("gateway: publish change failed")
	}
}

func logBreaker(from, to infra.CBState) {
	log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("gateway: circuit breaker state changed")
}
