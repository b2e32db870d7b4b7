// Package function holds the blob-triggered functions hosted by the service.
package function

import (
	"context"

	"filemeta/internal/binding"
	"filemeta/internal/storage"
)

// Context is what a function sees of one trigger event.
type Context struct {
	Trigger binding.Trigger
	Store   storage.Storage
}

// Name returns the bound {name} of the triggering blob.
func (c *Context) Name() string {
	return c.Trigger.Name()
}

// Result summarises a successful run.
type Result struct {
	BytesWritten int64
}

// Func is a blob-triggered function. Run is called once per matching event and
// must not retry on its own; failures are returned to the dispatcher.
type Func interface {
	Name() string
	Run(ctx context.Context, fc *Context) (Result, error)
}
