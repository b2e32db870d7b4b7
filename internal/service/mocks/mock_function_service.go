package mocks

import (
	"context"
	"time"

	"filemeta/internal/model"
	"filemeta/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockFunctionService struct {
	mock.Mock
}

func (m *MockFunctionService) Dispatch(ctx context.Context, ref model.BlobRef) ([]model.Invocation, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invocation), args.Error(1)
}

func (m *MockFunctionService) List(ctx context.Context, limit, offset int) (*service.InvocationListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvocationListResult), args.Error(1)
}

func (m *MockFunctionService) Get(ctx context.Context, id string) (*model.Invocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invocation), args.Error(1)
}

func (m *MockFunctionService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFunctionService) OutputURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockFunctionService) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFunctionService) Registrations() []service.Registration {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]service.Registration)
}

var _ service.FunctionService = (*MockFunctionService)(nil)
