package repofakes

import (
	"context"
	"sort"
	"sync"

	"github.com/possuite/go-pos-server/stores"
)

var _ stores.Repo = (*FakeStoreRepo)(nil)

type FakeStoreRepo struct {
	byID map[string]*stores.Store
	lock sync.RWMutex
}

func NewFakeStoreRepo() *FakeStoreRepo {
	return &FakeStoreRepo{byID: make(map[string]*stores.Store)}
}

func (r *FakeStoreRepo) Create(_ context.Context, store *stores.Store) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.byID[store.ID] = store
	return nil
}

func (r *FakeStoreRepo) Update(_ context.Context, store *stores.Store) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byID[store.ID]; !ok {
		return stores.ErrNotFound
	}
	r.byID[store.ID] = store
	return nil
}

func (r *FakeStoreRepo) Get(_ context.Context, id string) (*stores.Store, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	store, ok := r.byID[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	return store, nil
}

func (r *FakeStoreRepo) List(_ context.Context, offset, limit int) ([]*stores.Store, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	all := make([]*stores.Store, 0, len(r.byID))
	for _, s := range r.byID {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
