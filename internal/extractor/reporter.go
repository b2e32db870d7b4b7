// Package extractor derives the text report for a triggering blob from its properties.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/containerd/log"

	"filemeta/internal/model"
)

// ErrPropertiesUnavailable is returned when the property fetch fails or is cancelled.
var ErrPropertiesUnavailable = errors.New("blob properties unavailable")

// PropertiesFetcher fetches a properties snapshot of one blob.
type PropertiesFetcher interface {
	FetchProperties(ctx context.Context) (model.ObjectProperties, error)
}

// PropertiesFetcherFunc adapts a function to PropertiesFetcher.
type PropertiesFetcherFunc func(ctx context.Context) (model.ObjectProperties, error)

func (f PropertiesFetcherFunc) FetchProperties(ctx context.Context) (model.ObjectProperties, error) {
	return f(ctx)
}

// FormatReport renders the report for name and props. It is a pure function.
func FormatReport(name string, props model.ObjectProperties) string {
	return fmt.Sprintf("File: %s\nContentType: %s\n", name, props.ContentType)
}

// GenerateReport fetches the blob properties once, logs the name, the content
// type and every metadata entry at info level, and returns the report.
//
// name is reported exactly as given. Log records go to the logger carried by ctx.
func GenerateReport(ctx context.Context, name string, fetcher PropertiesFetcher) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPropertiesUnavailable, err)
	}

	props, err := fetcher.FetchProperties(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPropertiesUnavailable, err)
	}

	logger := log.G(ctx)
	logger.Infof("Name: %s", name)
	logger.Infof("ContentType: %s", props.ContentType)
	for k, v := range props.Metadata {
		logger.WithField("metadata_key", k).Infof("Metadata: %s = %s", k, v)
	}

	return FormatReport(name, props), nil
}
