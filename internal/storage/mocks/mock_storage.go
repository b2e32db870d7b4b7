package mocks

import (
	"context"
	"io"
	"time"

	"filemeta/internal/model"
	"filemeta/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, ref model.BlobRef, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, ref, r, opt)
	if f, ok := args.Get(0).(func(context.Context, model.BlobRef, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, ref, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, ref model.BlobRef) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Stat(ctx context.Context, ref model.BlobRef) (storage.ObjectInfo, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, ref model.BlobRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, ref model.BlobRef, expiry time.Duration) (string, error) {
	args := m.Called(ctx, ref, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) EnsureContainer(ctx context.Context, container string) error {
	args := m.Called(ctx, container)
	return args.Error(0)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
