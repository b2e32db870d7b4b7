package memory

import (
	"context"
	"sort"
	"sync"

	"filemeta/internal/model"
	"filemeta/internal/repository"
)

// InvocationMemory keeps invocation records in process memory. It is used when
// no database is configured; records are lost on restart.
type InvocationMemory struct {
	mu    sync.RWMutex
	items map[string]model.Invocation
}

// NewInvocationMemory returns an empty repository.
func NewInvocationMemory() *InvocationMemory {
	return &InvocationMemory{items: make(map[string]model.Invocation)}
}

var _ repository.InvocationRepository = (*InvocationMemory)(nil)

func (r *InvocationMemory) Create(_ context.Context, inv *model.Invocation) (*model.Invocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inv.ID] = *inv
	out := *inv
	return &out, nil
}

func (r *InvocationMemory) FindByID(_ context.Context, id string) (*model.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

// List orders like the postgres implementation: newest first, ties broken by ID descending.
func (r *InvocationMemory) List(_ context.Context, pq repository.PageQuery) (*repository.PageResult[model.Invocation], error) {
	r.mu.RLock()
	all := make([]model.Invocation, 0, len(r.items))
	for _, inv := range r.items {
		all = append(all, inv)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].StartedAt.After(all[j].StartedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := min(max(pq.Offset, 0), len(all))
	end := len(all)
	if pq.Limit > 0 {
		end = min(start+pq.Limit, len(all))
	}
	return &repository.PageResult[model.Invocation]{
		Items: append([]model.Invocation{}, all[start:end]...),
		Total: len(all),
	}, nil
}

func (r *InvocationMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *InvocationMemory) Ping(context.Context) error { return nil }
