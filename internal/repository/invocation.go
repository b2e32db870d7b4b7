package repository

import (
	"context"

	"filemeta/internal/model"
)

// InvocationRepository persists function invocation records.
// No business logic here, only persistence operations.
type InvocationRepository interface {
	// Create inserts a new invocation record and returns the stored record.
	Create(ctx context.Context, inv *model.Invocation) (*model.Invocation, error)

	// FindByID returns an invocation by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Invocation, error)

	// List returns a page of invocations, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Invocation], error)

	// Delete removes an invocation by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
