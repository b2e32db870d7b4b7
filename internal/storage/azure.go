package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"filemeta/internal/config"
	"filemeta/internal/model"
)

// Azure implements the Storage interface on Azure Blob Storage (or Azurite).
// It is safe for concurrent use by multiple goroutines.
type Azure struct {
	client *azblob.Client
}

var _ Storage = (*Azure)(nil)

// NewAzure builds a blob client from a connection string, a shared key or,
// when enabled, the default Azure credential chain (managed identity included).
func NewAzure(cfg config.AzureConfig) (*Azure, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		},
	}

	serviceURL := cfg.Endpoint
	if serviceURL == "" && cfg.AccountName != "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
		if err != nil {
			return nil, fmt.Errorf("create azure client from connection string: %w", err)
		}
	case cfg.AccountKey != "":
		if cfg.AccountName == "" {
			return nil, fmt.Errorf("azure account name is required with an account key")
		}
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("create azure client: %w", err)
		}
	case cfg.UseManagedIdentity:
		if serviceURL == "" {
			return nil, fmt.Errorf("azure account name or endpoint is required")
		}
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, opts)
		if err != nil {
			return nil, fmt.Errorf("create azure client: %w", err)
		}
	default:
		return nil, fmt.Errorf("no azure authentication method provided")
	}

	return &Azure{client: client}, nil
}

func (a *Azure) blobClient(ref model.BlobRef) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(ref.Container).NewBlobClient(ref.Name)
}

// EnsureContainer creates the container, tolerating one that already exists.
func (a *Azure) EnsureContainer(ctx context.Context, container string) error {
	_, err := a.client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container: %w", err)
	}
	return nil
}

// Ping fetches the account's service properties.
func (a *Azure) Ping(ctx context.Context) error {
	if _, err := a.client.ServiceClient().GetProperties(ctx, nil); err != nil {
		return fmt.Errorf("azure ping: %w", err)
	}
	return nil
}

// Put uploads a block blob from a stream of unknown length.
func (a *Azure) Put(ctx context.Context, ref model.BlobRef, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	cr := &countingReader{r: r}
	uploadOpts := &azblob.UploadStreamOptions{
		Metadata: toAzureMetadata(opt.Metadata),
	}
	if opt.ContentType != "" {
		uploadOpts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(opt.ContentType)}
	}

	resp, err := a.client.UploadStream(ctx, ref.Container, ref.Name, cr, uploadOpts)
	if err != nil {
		return ObjectInfo{}, azureError(err)
	}

	info := ObjectInfo{
		Ref:          ref,
		Size:         cr.n,
		ContentType:  opt.ContentType,
		LastModified: time.Now(),
		Metadata:     opt.Metadata,
	}
	if resp.ETag != nil {
		info.ETag = string(*resp.ETag)
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	return info, nil
}

// Get downloads a blob as a stream.
func (a *Azure) Get(ctx context.Context, ref model.BlobRef) (io.ReadCloser, ObjectInfo, error) {
	resp, err := a.client.DownloadStream(ctx, ref.Container, ref.Name, nil)
	if err != nil {
		return nil, ObjectInfo{}, azureError(err)
	}
	info := ObjectInfo{
		Ref:         ref,
		ContentType: deref(resp.ContentType),
		Metadata:    fromAzureMetadata(resp.Metadata),
	}
	if resp.ContentLength != nil {
		info.Size = *resp.ContentLength
	}
	if resp.ETag != nil {
		info.ETag = string(*resp.ETag)
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	return resp.Body, info, nil
}

// Stat fetches blob properties and metadata without content.
func (a *Azure) Stat(ctx context.Context, ref model.BlobRef) (ObjectInfo, error) {
	props, err := a.blobClient(ref).GetProperties(ctx, nil)
	if err != nil {
		return ObjectInfo{}, azureError(err)
	}
	info := ObjectInfo{
		Ref:         ref,
		ContentType: deref(props.ContentType),
		Metadata:    fromAzureMetadata(props.Metadata),
	}
	if props.ContentLength != nil {
		info.Size = *props.ContentLength
	}
	if props.ETag != nil {
		info.ETag = string(*props.ETag)
	}
	if props.LastModified != nil {
		info.LastModified = *props.LastModified
	}
	return info, nil
}

// Delete removes a blob.
func (a *Azure) Delete(ctx context.Context, ref model.BlobRef) error {
	if _, err := a.client.DeleteBlob(ctx, ref.Container, ref.Name, nil); err != nil {
		return azureError(err)
	}
	return nil
}

// PresignGet returns a read-only SAS URL. It requires shared key credentials.
func (a *Azure) PresignGet(ctx context.Context, ref model.BlobRef, expiry time.Duration) (string, error) {
	u, err := a.blobClient(ref).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate sas url: %w", err)
	}
	return u, nil
}

func azureError(err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func toAzureMetadata(m map[string]string) map[string]*string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = to.Ptr(v)
	}
	return out
}

func fromAzureMetadata(m map[string]*string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = deref(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
