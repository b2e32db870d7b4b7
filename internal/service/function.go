package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/containerd/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"filemeta/internal/binding"
	"filemeta/internal/function"
	"filemeta/internal/model"
	"filemeta/internal/repository"
	"filemeta/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("invocation not found")
	ErrNoOutput   = errors.New("invocation has no output")
)

const tracerName = "filemeta/internal/service"

// InvocationListResult is the service-level DTO for paginated invocations.
type InvocationListResult struct {
	Items []model.Invocation `json:"data"`
	Total int                `json:"total"`
}

// Registration binds a function to its trigger and output patterns.
type Registration struct {
	Func    function.Func
	Binding binding.Binding
}

// FunctionService defines the use cases of the function host.
type FunctionService interface {
	// Dispatch runs every registered function whose trigger matches ref, once each,
	// in registration order. It returns one record per run and the joined errors of
	// the failed runs. Nothing is retried.
	Dispatch(ctx context.Context, ref model.BlobRef) ([]model.Invocation, error)

	// List returns invocation records using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*InvocationListResult, error)

	// Get returns a single invocation record by its ID.
	Get(ctx context.Context, id string) (*model.Invocation, error)

	// Delete removes the output blob of a succeeded invocation, then its record.
	Delete(ctx context.Context, id string) error

	// OutputURL returns a time-limited download URL for a succeeded invocation's output.
	OutputURL(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Ready checks the storage backend and the invocation repository.
	Ready(ctx context.Context) error

	// Registrations lists the hosted functions.
	Registrations() []Registration
}

// functionService is a concrete implementation of FunctionService.
type functionService struct {
	store   storage.Storage
	repo    repository.InvocationRepository
	metrics *Metrics
	regs    []Registration
	tracer  trace.Tracer
}

// NewFunctionService constructs a new FunctionService. metrics may be nil.
func NewFunctionService(store storage.Storage, repo repository.InvocationRepository, metrics *Metrics, regs ...Registration) FunctionService {
	return &functionService{
		store:   store,
		repo:    repo,
		metrics: metrics,
		regs:    regs,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *functionService) Registrations() []Registration {
	return append([]Registration(nil), s.regs...)
}

func (s *functionService) Dispatch(ctx context.Context, ref model.BlobRef) ([]model.Invocation, error) {
	invs := make([]model.Invocation, 0, 1)
	var errs []error
	for _, reg := range s.regs {
		trig, ok := reg.Binding.Bind(ref)
		if !ok {
			continue
		}
		inv, err := s.invoke(ctx, reg, trig)
		invs = append(invs, inv)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", reg.Func.Name(), inv.ID, err))
		}
	}
	if len(invs) == 0 {
		log.G(ctx).WithField("blob", ref.Path()).Debug("no function bound to blob")
	}
	return invs, errors.Join(errs...)
}

func (s *functionService) invoke(ctx context.Context, reg Registration, trig binding.Trigger) (model.Invocation, error) {
	name := reg.Func.Name()
	inv := model.Invocation{
		ID:          uuid.NewString(),
		Function:    name,
		TriggerPath: trig.Source.Path(),
		OutputPath:  trig.Output.Path(),
		StartedAt:   time.Now().UTC(),
	}

	ctx, span := s.tracer.Start(ctx, "function "+name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("function.name", name),
			attribute.String("function.invocation_id", inv.ID),
			attribute.String("blob.trigger_path", inv.TriggerPath),
			attribute.String("blob.output_path", inv.OutputPath),
		),
	)
	defer span.End()

	ctx = log.WithLogger(ctx, log.G(ctx).WithFields(logrus.Fields{
		"function":      name,
		"invocation_id": inv.ID,
		"trigger":       inv.TriggerPath,
	}))
	log.G(ctx).Debug("invocation started")

	start := time.Now()
	res, err := reg.Func.Run(ctx, &function.Context{Trigger: trig, Store: s.store})
	elapsed := time.Since(start)

	inv.DurationMs = elapsed.Milliseconds()
	inv.BytesWritten = res.BytesWritten
	if err != nil {
		inv.Status = model.InvocationFailed
		inv.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "invocation failed")
		log.G(ctx).WithError(err).Error("invocation failed")
	} else {
		inv.Status = model.InvocationSucceeded
		span.SetAttributes(attribute.Int64("function.bytes_written", res.BytesWritten))
		log.G(ctx).WithFields(logrus.Fields{
			"output":        inv.OutputPath,
			"bytes_written": res.BytesWritten,
			"duration_ms":   inv.DurationMs,
		}).Info("invocation succeeded")
	}
	s.metrics.observe(name, inv.Status, elapsed, res.BytesWritten)

	// Record even when the trigger context was cancelled.
	if _, rerr := s.repo.Create(context.WithoutCancel(ctx), &inv); rerr != nil {
		log.G(ctx).WithError(rerr).Warn("failed to record invocation")
	}
	return inv, err
}

// List returns paginated invocations without exposing repository types.
func (s *functionService) List(ctx context.Context, limit, offset int) (*InvocationListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &InvocationListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns an invocation by ID.
func (s *functionService) Get(ctx context.Context, id string) (*model.Invocation, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// Delete removes the output artifact first, then the record; if the storage delete
// fails the record is kept so the artifact is not orphaned.
func (s *functionService) Delete(ctx context.Context, id string) error {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == model.InvocationSucceeded && inv.OutputPath != "" {
		err := s.store.Delete(ctx, binding.SplitPath(inv.OutputPath))
		if err != nil && !storage.IsNotFound(err) {
			return fmt.Errorf("delete output: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *functionService) OutputURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if inv.Status != model.InvocationSucceeded || inv.OutputPath == "" {
		return "", ErrNoOutput
	}
	return s.store.PresignGet(ctx, binding.SplitPath(inv.OutputPath), expiry)
}

func (s *functionService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	return nil
}
