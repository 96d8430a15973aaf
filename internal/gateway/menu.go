package gateway

import (
	"context"

	"posync/internal/infra"
	"posync/internal/model"
	"posync/internal/repository"
)

// MenuGateway reads and replaces a store's catalog as one unit.
type MenuGateway interface {
	Fetch(ctx context.Context, storeID string) (model.MenuRows, error)
	Replace(ctx context.Context, storeID string, rows model.MenuRows) error
}

type menuGateway struct {
	repo repository.MenuRepository
	deps Deps
}

func NewMenu(repo repository.MenuRepository, deps Deps) MenuGateway {
	return &menuGateway{repo: repo, deps: deps}
}

func (g *menuGateway) Fetch(ctx context.Context, storeID string) (model.MenuRows, error) {
	var rows model.MenuRows
	err := g.deps.run(func() error {
		var err error
		rows, err = g.repo.Fetch(ctx, storeID)
		return err
	})
	return rows, fail("fetch", model.TableMenuCategories, err)
}

func (g *menuGateway) Replace(ctx context.Context, storeID string, rows model.MenuRows) error {
	err := g.deps.run(func() error { return g.repo.Replace(ctx, storeID, rows) })
	if err != nil {
		return fail("replace", model.TableMenuCategories, err)
	}
	g.deps.publish(ctx, infra.ChangeEvent{Table: model.TableMenuCategories, Type: infra.EventUpdate, StoreID: storeID})
	return nil
}
