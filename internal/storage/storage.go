// Package storage contains blob storage abstractions over S3-compatible (MinIO) and Azure Blob backends.
// Implementations must avoid using local disk and rely on streaming I/O only.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"filemeta/internal/model"
)

// ErrNotFound is returned when a blob or its container does not exist.
var ErrNotFound = errors.New("blob not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a blob in storage.
type ObjectInfo struct {
	Ref          model.BlobRef
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Properties returns the content type and metadata snapshot of the blob.
func (i ObjectInfo) Properties() model.ObjectProperties {
	return model.ObjectProperties{ContentType: i.ContentType, Metadata: i.Metadata}
}

// Storage is a reusable blob storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
type Storage interface {
	// Put uploads a blob using the provided reader and options.
	Put(ctx context.Context, ref model.BlobRef, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves a blob's content as a streaming reader alongside its info.
	Get(ctx context.Context, ref model.BlobRef) (io.ReadCloser, ObjectInfo, error)
	// Stat retrieves a blob's properties without its content.
	Stat(ctx context.Context, ref model.BlobRef) (ObjectInfo, error)
	// Delete removes a blob.
	Delete(ctx context.Context, ref model.BlobRef) error
	// PresignGet returns a time-limited URL that can be used to download the blob without credentials.
	PresignGet(ctx context.Context, ref model.BlobRef, expiry time.Duration) (string, error)
	// EnsureContainer creates the container (bucket) if it does not exist yet.
	EnsureContainer(ctx context.Context, container string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
