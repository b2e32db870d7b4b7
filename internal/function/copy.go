package function

import (
	"context"
	"fmt"
	"io"

	"filemeta/internal/copier"
	"filemeta/internal/storage"
)

// CopyFile streams the triggering blob unchanged into the output blob.
type CopyFile struct {
	// BufferSize is a hint for the transfer buffer; non-positive uses the default.
	BufferSize int
}

func (CopyFile) Name() string { return "CopyFile" }

// Run pipes the source stream through copier.Copy into the destination upload.
// Both streams are released on every return path.
func (f CopyFile) Run(ctx context.Context, fc *Context) (Result, error) {
	src, info, err := fc.Store.Get(ctx, fc.Trigger.Source)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open source: %w", copier.ErrCopyInterrupted, err)
	}
	defer src.Close()

	size := info.Size
	if size < 0 {
		size = -1
	}

	pr, pw := io.Pipe()
	putDone := make(chan error, 1)
	go func() {
		_, err := fc.Store.Put(ctx, fc.Trigger.Output, pr, storage.PutObjectOptions{
			Size:        size,
			ContentType: info.ContentType,
		})
		// Unblock the copier if the upload gave up early.
		pr.CloseWithError(err)
		putDone <- err
	}()

	n, copyErr := copier.Copy(ctx, pw, src, f.BufferSize)
	pw.CloseWithError(copyErr)
	putErr := <-putDone

	if copyErr != nil {
		return Result{BytesWritten: n}, copyErr
	}
	if putErr != nil {
		return Result{BytesWritten: n}, fmt.Errorf("%w: write destination: %w", copier.ErrCopyInterrupted, putErr)
	}
	return Result{BytesWritten: n}, nil
}
