package function

import (
	"context"
	"fmt"
	"strings"

	"filemeta/internal/extractor"
	"filemeta/internal/model"
	"filemeta/internal/storage"
)

// ReportContentType is the content type of written reports.
const ReportContentType = "text/plain; charset=utf-8"

// ExtractMetadata logs a blob's properties and writes a short text report to the output blob.
type ExtractMetadata struct{}

func (ExtractMetadata) Name() string { return "ExtractMetadata" }

func (ExtractMetadata) Run(ctx context.Context, fc *Context) (Result, error) {
	fetcher := extractor.PropertiesFetcherFunc(func(ctx context.Context) (model.ObjectProperties, error) {
		info, err := fc.Store.Stat(ctx, fc.Trigger.Source)
		if err != nil {
			return model.ObjectProperties{}, err
		}
		return info.Properties(), nil
	})

	report, err := extractor.GenerateReport(ctx, fc.Name(), fetcher)
	if err != nil {
		return Result{}, err
	}

	size := int64(len(report))
	if _, err := fc.Store.Put(ctx, fc.Trigger.Output, strings.NewReader(report), storage.PutObjectOptions{
		Size:        size,
		ContentType: ReportContentType,
	}); err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}
	return Result{BytesWritten: size}, nil
}
