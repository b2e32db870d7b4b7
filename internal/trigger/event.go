// Package trigger turns storage notifications into blob references for dispatch.
package trigger

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/minio/minio-go/v7/pkg/notification"

	"filemeta/internal/model"
)

// Event types understood by FromCloudEvent.
const (
	AzureBlobCreated = "Microsoft.Storage.BlobCreated"
	S3ObjectCreated  = "com.amazonaws.s3.ObjectCreated"
)

const minioCreatedPrefix = "s3:ObjectCreated:"

var ErrMalformedEvent = errors.New("malformed storage event")

// objectData is the flat payload carried by S3 style cloud events.
type objectData struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// FromCloudEvent extracts the created blob from e. ok is false for events that
// do not announce a blob creation; those should be acknowledged and ignored.
func FromCloudEvent(e event.Event) (ref model.BlobRef, ok bool, err error) {
	if e.Type() == AzureBlobCreated {
		ref, err := parseAzureSubject(e.Subject())
		if err != nil {
			return model.BlobRef{}, false, err
		}
		return ref, true, nil
	}

	if len(e.Data()) == 0 {
		return model.BlobRef{}, false, nil
	}
	var data objectData
	if err := e.DataAs(&data); err != nil {
		if e.Type() == S3ObjectCreated {
			return model.BlobRef{}, false, fmt.Errorf("%w: %s data: %w", ErrMalformedEvent, e.Type(), err)
		}
		return model.BlobRef{}, false, nil
	}
	if data.Bucket == "" || data.Key == "" {
		if e.Type() == S3ObjectCreated {
			return model.BlobRef{}, false, fmt.Errorf("%w: %s without bucket and key", ErrMalformedEvent, e.Type())
		}
		return model.BlobRef{}, false, nil
	}
	return model.BlobRef{Container: data.Bucket, Name: data.Key}, true, nil
}

// parseAzureSubject parses "/blobServices/default/containers/{c}/blobs/{b}".
// The blob name keeps any further slashes.
func parseAzureSubject(subject string) (model.BlobRef, error) {
	rest, found := strings.CutPrefix(subject, "/blobServices/default/containers/")
	if !found {
		return model.BlobRef{}, fmt.Errorf("%w: unexpected subject %q", ErrMalformedEvent, subject)
	}
	container, name, found := strings.Cut(rest, "/blobs/")
	if !found || container == "" || name == "" {
		return model.BlobRef{}, fmt.Errorf("%w: unexpected subject %q", ErrMalformedEvent, subject)
	}
	return model.BlobRef{Container: container, Name: name}, nil
}

// FromMinIO returns the created objects in info. Keys arrive URL-encoded and are
// unescaped; records that fail to decode are skipped and reported in the error.
func FromMinIO(info notification.Info) ([]model.BlobRef, error) {
	if info.Err != nil {
		return nil, info.Err
	}

	var (
		refs []model.BlobRef
		errs []error
	)
	for _, rec := range info.Records {
		if !strings.HasPrefix(rec.EventName, minioCreatedPrefix) {
			continue
		}
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: object key %q: %w", ErrMalformedEvent, rec.S3.Object.Key, err))
			continue
		}
		if rec.S3.Bucket.Name == "" || key == "" {
			errs = append(errs, fmt.Errorf("%w: record without bucket or key", ErrMalformedEvent))
			continue
		}
		refs = append(refs, model.BlobRef{Container: rec.S3.Bucket.Name, Name: key})
	}
	return refs, errors.Join(errs...)
}
