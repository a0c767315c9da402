package kvfakes

import (
	"context"
	"sync"
	"time"

	"github.com/possuite/go-pos-server/session"
)

var _ session.KV = (*FakeKV)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

// FakeKV is an in-memory session.KV with TTL semantics, for tests. A forced
// error can be injected to simulate store unavailability, and the clock can
// be overridden so expiry is deterministic.
type FakeKV struct {
	values  map[string]entry
	lock    sync.RWMutex
	err     error
	nowFunc func() time.Time
}

func NewFakeKV() *FakeKV {
	return &FakeKV{
		values:  make(map[string]entry),
		nowFunc: time.Now,
	}
}

// SetErr makes every subsequent operation fail with err. Pass nil to heal.
func (f *FakeKV) SetErr(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeKV) SetNowFunc(now func() time.Time) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.nowFunc = now
}

func (f *FakeKV) Get(_ context.Context, key string) (string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.err != nil {
		return "", f.err
	}

	e, ok := f.values[key]
	if !ok || f.nowFunc().After(e.expiresAt) {
		return "", session.ErrNotFound
	}
	return e.value, nil
}

func (f *FakeKV) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.err != nil {
		return f.err
	}

	f.values[key] = entry{value: value, expiresAt: f.nowFunc().Add(ttl)}
	return nil
}

func (f *FakeKV) Del(_ context.Context, key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.err != nil {
		return f.err
	}

	delete(f.values, key)
	return nil
}

// TTL reports the remaining lifetime of a key, for assertions.
func (f *FakeKV) TTL(key string) (time.Duration, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	e, ok := f.values[key]
	if !ok {
		return 0, false
	}
	return e.expiresAt.Sub(f.nowFunc()), true
}

// Len reports the number of stored keys, expired or not.
func (f *FakeKV) Len() int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return len(f.values)
}
