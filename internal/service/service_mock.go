package service

import (
	"context"
	"sync/atomic"

	"github.com/UnendingLoop/BgRemover/internal/model"
)

// MOCK REMOVER

type mockRemover struct {
	calls    atomic.Int32
	removeFn func(ctx context.Context, source string, box *model.BoundingBox) (*model.ProcessedImage, error)
}

func (m *mockRemover) Remove(ctx context.Context, source string, box *model.BoundingBox) (*model.ProcessedImage, error) {
	m.calls.Add(1)
	return m.removeFn(ctx, source, box)
}

// MOCK STORAGE

type mockStorage struct {
	calls atomic.Int32
	putFn func(ctx context.Context, data []byte, contentType string) (*model.StoredImageReference, error)
}

func (m *mockStorage) Put(ctx context.Context, data []byte, contentType string) (*model.StoredImageReference, error) {
	m.calls.Add(1)
	return m.putFn(ctx, data, contentType)
}

// MOCK CACHE

type mockCache struct {
	getFn  func(ctx context.Context, key string) (*model.PipelineResult, error)
	saveFn func(ctx context.Context, key string, res *model.PipelineResult) error
}

func (m *mockCache) Get(ctx context.Context, key string) (*model.PipelineResult, error) {
	return m.getFn(ctx, key)
}

func (m *mockCache) Save(ctx context.Context, key string, res *model.PipelineResult) error {
	return m.saveFn(ctx, key, res)
}

// MOCK PUBLISHER

type mockPublisher struct {
	publishFn func(ctx context.Context, e *model.ProcessedEvent) error
}

func (m *mockPublisher) Publish(ctx context.Context, e *model.ProcessedEvent) error {
	return m.publishFn(ctx, e)
}
