package engine

import (
	"context"
	"encoding/json"

	"posync/internal/domain"
	"posync/internal/gateway"
	"posync/internal/infra"
	"posync/internal/mapper"
	"posync/internal/model"

	"github.com/rs/zerolog/log"
)

// CollectionMenu names the catalog in pending views and purge requests.
const CollectionMenu = "menu"

// menuState is the catalog of the current store. It is one unit: every
// snapshot and every publish replaces it whole.
type menuState struct {
	e       *Engine
	gw      gateway.MenuGateway
	source  string
	menu    domain.Menu
	loaded  bool
	pending *pendingWrite
}

func (m *menuState) name() string { return CollectionMenu }

func (m *menuState) owns(table string) bool {
	switch table {
	case model.TableMenuCategories, model.TableMenuItems, model.TableModifierGroups:
		return true
	}
	return false
}

func (m *menuState) refresh(ctx context.Context) error {
	storeID, epoch, ok := m.e.scope()
	if !ok {
		return ErrNoStore
	}

	m.e.mu.Lock()
	demo := m.source == domain.MenuSourceDemo
	m.e.mu.Unlock()

	var next domain.Menu
	if demo {
		next = domain.DemoMenu(storeID)
	} else {
		rows, err := m.gw.Fetch(ctx, storeID)
		if err != nil {
			return err
		}
		var errs []error
		next, errs = mapper.MenuToDomain(storeID, rows)
		for _, err := range errs {
			log.Warn().Err(err).Str("collection", CollectionMenu).Str("store_id", storeID).Msg("engine: menu row skipped")
		}
	}

	m.e.locked(func() {
		if m.e.epoch != epoch || m.pending != nil {
			return
		}
		if !m.loaded || !sameContent(m.menu, next) {
			m.menu, m.loaded = next, true
			m.e.bumpLocked()
		}
	})
	return nil
}

// handle reloads the catalog on any menu event; events carry no menu body.
func (m *menuState) handle(_ context.Context, ev infra.ChangeEvent) {
	storeID, _, ok := m.e.scope()
	if !ok || ev.StoreID != storeID || ev.Origin == m.e.cfg.DeviceID {
		return
	}
	m.e.locked(func() {
		m.e.launchLocked(func(ctx context.Context) { m.e.refresh(ctx, m) })
	})
}

func (m *menuState) publishLocked(in domain.Menu) domain.Menu {
	menu := in.Clone()
	menu.StoreID = m.e.storeID
	menu.Source = domain.MenuSourceRemote
	for i := range menu.Categories {
		menu.Categories[i].StoreID = menu.StoreID
		for j := range menu.Categories[i].Items {
			menu.Categories[i].Items[j].CategoryID = menu.Categories[i].ID
		}
	}
	for i := range menu.ModifierGroups {
		menu.ModifierGroups[i].StoreID = menu.StoreID
	}
	m.source = domain.MenuSourceRemote
	m.menu, m.loaded = menu, true

	if m.pending == nil {
		m.pending = &pendingWrite{}
	}
	m.e.seq++
	m.pending.seq = m.e.seq
	m.pending.failed = false
	if !m.pending.inFlight {
		m.pending.inFlight = true
		m.sendLocked()
	}
	m.e.bumpLocked()
	return menu.Clone()
}

func (m *menuState) sendLocked() {
	epoch := m.e.epoch
	m.e.launchLocked(func(ctx context.Context) {
		m.e.mu.Lock()
		if m.e.epoch != epoch || m.pending == nil {
			m.e.mu.Unlock()
			return
		}
		seq, menu, storeID := m.pending.seq, m.menu, m.e.storeID
		m.e.mu.Unlock()

		err := m.gw.Replace(ctx, storeID, mapper.MenuToRemote(menu))
		m.complete(epoch, seq, menu, err)
	})
}

func (m *menuState) complete(epoch, seq uint64, sent domain.Menu, err error) {
	var dead bool
	var attempts int
	m.e.locked(func() {
		if m.e.epoch != epoch || m.pending == nil {
			return
		}
		switch m.pending.settle(seq, err) {
		case outcomeConfirmed:
			m.pending = nil
		case outcomeResend:
			m.pending.inFlight = true
			m.sendLocked()
		case outcomeKeep:
			log.Warn().Err(err).Str("collection", CollectionMenu).Int("attempt", m.pending.attempts).
				Msg("engine: menu publish kept pending")
		case outcomeConflict:
			m.pending = nil
			m.e.launchLocked(func(ctx context.Context) { m.e.refresh(ctx, m) })
		case outcomeFailed:
			dead, attempts = true, m.pending.attempts
		}
		m.e.bumpLocked()
	})
	if dead {
		payload, _ := json.Marshal(sent)
		m.e.deadLetter(CollectionMenu, sent.StoreID, payload, err, attempts)
	}
}

func (m *menuState) sweepLocked() int {
	if m.pending == nil || !m.pending.due() {
		return 0
	}
	m.pending.inFlight = true
	m.sendLocked()
	return 1
}

func (m *menuState) retryLocked(id string) error {
	if m.pending == nil || id != m.e.storeID {
		return ErrNotFound
	}
	m.pending.failed = false
	if !m.pending.inFlight {
		m.pending.inFlight = true
		m.sendLocked()
	}
	return nil
}

func (m *menuState) resetLocked() int {
	lost := 0
	if m.pending != nil {
		lost = 1
	}
	m.menu, m.loaded, m.pending = domain.Menu{}, false, nil
	return lost
}

func (m *menuState) pendingViewsLocked() []PendingView {
	if m.pending == nil {
		return nil
	}
	return []PendingView{viewOf(CollectionMenu, m.e.storeID, m.pending)}
}

// purge publishes an empty catalog.
func (m *menuState) purge(ctx context.Context) error {
	storeID, epoch, ok := m.e.scope()
	if !ok {
		return ErrNoStore
	}
	if err := m.gw.Replace(ctx, storeID, model.MenuRows{}); err != nil {
		return err
	}
	m.e.locked(func() {
		if m.e.epoch == epoch {
			m.pending = nil
		}
	})
	return m.e.refresh(ctx, m)
}
