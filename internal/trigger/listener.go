package trigger

import (
	"context"
	"fmt"

	"github.com/containerd/log"
	"github.com/minio/minio-go/v7/pkg/notification"
	"golang.org/x/sync/errgroup"

	"filemeta/internal/model"
)

// NotificationSource streams bucket notifications. *minio.Client implements it.
type NotificationSource interface {
	ListenBucketNotification(ctx context.Context, bucketName, prefix, suffix string, events []string) <-chan notification.Info
}

// Dispatcher runs the functions bound to a blob.
type Dispatcher interface {
	Dispatch(ctx context.Context, ref model.BlobRef) ([]model.Invocation, error)
}

// Listener pulls object-created notifications for a set of containers and
// dispatches each created blob, with at most Concurrency dispatches in flight.
type Listener struct {
	source      NotificationSource
	dispatcher  Dispatcher
	containers  []string
	concurrency int
}

func NewListener(source NotificationSource, d Dispatcher, containers []string, concurrency int) *Listener {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Listener{
		source:      source,
		dispatcher:  d,
		containers:  containers,
		concurrency: concurrency,
	}
}

// Run blocks until ctx is done or a notification stream ends unexpectedly.
// In-flight dispatches are awaited before returning.
func (l *Listener) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var dispatches errgroup.Group
	dispatches.SetLimit(l.concurrency)

	for _, c := range l.containers {
		g.Go(func() error {
			return l.listen(gctx, c, &dispatches)
		})
	}

	err := g.Wait()
	dispatches.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (l *Listener) listen(ctx context.Context, container string, dispatches *errgroup.Group) error {
	logger := log.G(ctx).WithField("container", container)
	logger.Info("listening for bucket notifications")

	ch := l.source.ListenBucketNotification(ctx, container, "", "", []string{string(notification.ObjectCreatedAll)})
	for info := range ch {
		refs, err := FromMinIO(info)
		if err != nil {
			logger.WithError(err).Warn("bucket notification error")
		}
		for _, ref := range refs {
			dispatches.Go(func() error {
				if _, err := l.dispatcher.Dispatch(ctx, ref); err != nil {
					log.G(ctx).WithField("blob", ref.Path()).WithError(err).Warn("dispatch failed")
				}
				return nil
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("notification stream for %q closed", container)
}
