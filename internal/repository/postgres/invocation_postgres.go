package postgres

import (
	"context"
	"database/sql"
	"errors"

	"filemeta/internal/model"
	"filemeta/internal/repository"
)

// InvocationPostgres is a PostgreSQL implementation of repository.InvocationRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type InvocationPostgres struct {
	db *sql.DB
}

// NewInvocationPostgres creates a new InvocationPostgres repository.
func NewInvocationPostgres(db *sql.DB) *InvocationPostgres {
	return &InvocationPostgres{db: db}
}

var _ repository.InvocationRepository = (*InvocationPostgres)(nil)

const invocationColumns = `id, function, trigger_path, output_path, status, error, bytes_written, started_at, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(s scanner) (*model.Invocation, error) {
	var (
		inv    model.Invocation
		status string
	)
	if err := s.Scan(
		&inv.ID,
		&inv.Function,
		&inv.TriggerPath,
		&inv.OutputPath,
		&status,
		&inv.Error,
		&inv.BytesWritten,
		&inv.StartedAt,
		&inv.DurationMs,
	); err != nil {
		return nil, err
	}
	inv.Status = model.InvocationStatus(status)
	return &inv, nil
}

// Create inserts a new invocation row and returns the stored record.
func (r *InvocationPostgres) Create(ctx context.Context, inv *model.Invocation) (*model.Invocation, error) {
	const q = `
		INSERT INTO invocations (` + invocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + invocationColumns
	row := r.db.QueryRowContext(ctx, q,
		inv.ID,
		inv.Function,
		inv.TriggerPath,
		inv.OutputPath,
		string(inv.Status),
		inv.Error,
		inv.BytesWritten,
		inv.StartedAt,
		inv.DurationMs,
	)
	return scanInvocation(row)
}

// FindByID fetches a single invocation by its ID.
func (r *InvocationPostgres) FindByID(ctx context.Context, id string) (*model.Invocation, error) {
	const q = `SELECT ` + invocationColumns + ` FROM invocations WHERE id = $1`
	inv, err := scanInvocation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// List returns invocations using LIMIT/OFFSET pagination and a total count.
func (r *InvocationPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Invocation], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM invocations`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `SELECT ` + invocationColumns + `
		FROM invocations
		ORDER BY started_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Invocation, 0)
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Invocation]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes an invocation by ID. It does not return an error if the row does not exist.
func (r *InvocationPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM invocations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Ping verifies the database connection.
func (r *InvocationPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
