package mocks

import (
	"context"

	"filemeta/internal/model"
	"filemeta/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockInvocationRepository struct {
	mock.Mock
}

func (m *MockInvocationRepository) Create(ctx context.Context, inv *model.Invocation) (*model.Invocation, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invocation), args.Error(1)
}

func (m *MockInvocationRepository) FindByID(ctx context.Context, id string) (*model.Invocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invocation), args.Error(1)
}

func (m *MockInvocationRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Invocation], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Invocation]), args.Error(1)
}

func (m *MockInvocationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvocationRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
