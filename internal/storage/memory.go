package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"maps"
	"sync"
	"time"

	"filemeta/internal/model"
)

// ErrPresignUnsupported is returned by backends that cannot hand out URLs.
var ErrPresignUnsupported = errors.New("presigned urls are not supported by this backend")

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// Memory is an in-process Storage used for local runs and tests.
type Memory struct {
	mu         sync.RWMutex
	containers map[string]map[string]*memoryObject
}

var _ Storage = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{containers: make(map[string]map[string]*memoryObject)}
}

func (m *Memory) EnsureContainer(_ context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container]; !ok {
		m.containers[container] = make(map[string]*memoryObject)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Put reads r fully and stores it. Writing into a missing container fails like the real backends.
func (m *Memory) Put(ctx context.Context, ref model.BlobRef, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	sum := md5.Sum(data)
	info := ObjectInfo{
		Ref:          ref,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     maps.Clone(opt.Metadata),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.containers[ref.Container]
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}
	c[ref.Name] = &memoryObject{data: data, info: info}
	return info, nil
}

func (m *Memory) Get(ctx context.Context, ref model.BlobRef) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.lookup(ctx, ref)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), cloneInfo(obj.info), nil
}

func (m *Memory) Stat(ctx context.Context, ref model.BlobRef) (ObjectInfo, error) {
	obj, err := m.lookup(ctx, ref)
	if err != nil {
		return ObjectInfo{}, err
	}
	return cloneInfo(obj.info), nil
}

func (m *Memory) Delete(_ context.Context, ref model.BlobRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[ref.Container]; ok {
		delete(c, ref.Name)
	}
	return nil
}

func (m *Memory) PresignGet(context.Context, model.BlobRef, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func (m *Memory) lookup(ctx context.Context, ref model.BlobRef) (*memoryObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.containers[ref.Container][ref.Name]
	if !ok {
		return nil, ErrNotFound
	}
	return obj, nil
}

func cloneInfo(i ObjectInfo) ObjectInfo {
	i.Metadata = maps.Clone(i.Metadata)
	return i
}
