// Package memory implements store.Store in process memory. It is the default
// backend and the one used by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/custody"
	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	custodystore "github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

var _ custodystore.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	policy   *policy.Policy
	assets   map[types.AssetID]*asset.Asset
	balances map[balance.Key]*balance.Balance
	history  map[uint64]*history.Record

	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		assets:   make(map[types.AssetID]*asset.Asset),
		balances: make(map[balance.Key]*balance.Balance),
		history:  make(map[uint64]*history.Record),
	}
}

// ==================== Policy Store ====================

func (s *Store) GetPolicy(_ context.Context) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, custody.ErrStoreClosed
	}
	if s.policy == nil {
		return nil, custody.ErrNotFound
	}
	return s.policy.Clone(), nil
}

func (s *Store) SavePolicy(_ context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	s.policy = p.Clone()
	return nil
}

// ==================== Asset Store ====================

func (s *Store) AddAsset(_ context.Context, a *asset.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	if _, ok := s.assets[a.ID]; ok {
		return nil
	}
	c := *a
	s.assets[a.ID] = &c
	return nil
}

func (s *Store) RemoveAsset(_ context.Context, assetID types.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	delete(s.assets, assetID)
	return nil
}

func (s *Store) ListAssets(_ context.Context) ([]*asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, custody.ErrStoreClosed
	}
	result := make([]*asset.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		c := *a
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ==================== Balance Store ====================

func (s *Store) PutBalances(_ context.Context, balances []*balance.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	for _, b := range balances {
		c := *b
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = time.Now().UTC()
		}
		s.balances[b.Key()] = &c
	}
	return nil
}

func (s *Store) ListBalances(_ context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, custody.ErrStoreClosed
	}

	var result []*balance.Balance
	for _, b := range s.balances {
		if opts.User != "" && b.User != opts.User {
			continue
		}
		if opts.Asset != "" && b.Asset != opts.Asset {
			continue
		}
		c := *b
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].User != result[j].User {
			return result[i].User < result[j].User
		}
		return result[i].Asset < result[j].Asset
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== History Store ====================

func (s *Store) AppendHistory(_ context.Context, records []*history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	for _, r := range records {
		if _, ok := s.history[r.ID]; ok {
			return custody.ErrAlreadyExists
		}
	}
	for _, r := range records {
		c := *r
		s.history[r.ID] = &c
	}
	return nil
}

func (s *Store) GetHistory(_ context.Context, kind history.Kind, recordID uint64) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, custody.ErrStoreClosed
	}
	r, ok := s.history[recordID]
	if !ok || r.Kind != kind {
		return nil, custody.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *Store) ListHistory(_ context.Context, opts history.ListOpts) ([]*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, custody.ErrStoreClosed
	}

	var result []*history.Record
	for _, r := range s.history {
		if opts.Kind != "" && r.Kind != opts.Kind {
			continue
		}
		if opts.User != "" && r.User != opts.User {
			continue
		}
		if opts.AfterID != nil && r.ID <= *opts.AfterID {
			continue
		}
		c := *r
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, 0, opts.Limit), nil
}

func (s *Store) PurgeHistory(_ context.Context, before uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, custody.ErrStoreClosed
	}
	var n int64
	for recordID := range s.history {
		if recordID < before {
			delete(s.history, recordID)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteHistory(_ context.Context, recordID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return custody.ErrStoreClosed
	}
	delete(s.history, recordID)
	return nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return custody.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
