package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"filemeta/internal/config"
	"filemeta/internal/model"
)

const unknownSizePartSize = 16 << 20

// MinIO implements the Storage interface using an S3-compatible backend (MinIO, AWS S3, etc.).
// Containers map to buckets. It is safe for concurrent use by multiple goroutines.
type MinIO struct {
	client *minio.Client
	region string
}

var _ Storage = (*MinIO)(nil)

// NewMinIO creates a new S3-compatible storage client backed by MinIO.
func NewMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}

	tr, err := minio.DefaultTransport(cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("create minio transport: %w", err)
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: otelhttp.NewTransport(tr),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIO{client: cli, region: cfg.Region}, nil
}

// Client exposes the underlying client for bucket notifications.
func (m *MinIO) Client() *minio.Client {
	return m.client
}

// EnsureContainer creates the bucket if it is missing.
func (m *MinIO) EnsureContainer(ctx context.Context, container string) error {
	exists, err := m.client.BucketExists(ctx, container)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, container, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Ping issues a cheap authenticated request against the endpoint.
func (m *MinIO) Ping(ctx context.Context) error {
	if _, err := m.client.BucketExists(ctx, "filemeta-ping"); err != nil {
		return fmt.Errorf("minio ping: %w", err)
	}
	return nil
}

// Put uploads an object using streaming I/O only (no local disk).
func (m *MinIO) Put(ctx context.Context, ref model.BlobRef, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	putOpts := minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
	}
	if opt.Size < 0 {
		// Unknown length: bound the multipart buffer instead of using the SDK's maximum part size.
		putOpts.PartSize = unknownSizePartSize
	}
	info, err := m.client.PutObject(ctx, ref.Container, ref.Name, r, opt.Size, putOpts)
	if err != nil {
		return ObjectInfo{}, minioError(err)
	}
	modified := info.LastModified
	if modified.IsZero() {
		modified = time.Now()
	}
	return ObjectInfo{
		Ref:          ref,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  opt.ContentType,
		LastModified: modified,
		Metadata:     opt.Metadata,
	}, nil
}

// Get downloads an object content as a ReadCloser along with basic info.
func (m *MinIO) Get(ctx context.Context, ref model.BlobRef) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, ref.Container, ref.Name, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, minioError(err)
	}
	// Fetch stat to populate info; avoid reading content into memory.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, minioError(err)
	}
	return obj, objectInfo(ref, st), nil
}

// Stat fetches object properties with a HEAD request.
func (m *MinIO) Stat(ctx context.Context, ref model.BlobRef) (ObjectInfo, error) {
	st, err := m.client.StatObject(ctx, ref.Container, ref.Name, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, minioError(err)
	}
	return objectInfo(ref, st), nil
}

// Delete removes an object.
func (m *MinIO) Delete(ctx context.Context, ref model.BlobRef) error {
	return minioError(m.client.RemoveObject(ctx, ref.Container, ref.Name, minio.RemoveObjectOptions{}))
}

// PresignGet generates a pre-signed URL for GET with the specified expiry.
func (m *MinIO) PresignGet(ctx context.Context, ref model.BlobRef, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, ref.Container, ref.Name, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func objectInfo(ref model.BlobRef, st minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Ref:          ref,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}
}

func minioError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// IsNotFound reports whether err means the blob or container is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
