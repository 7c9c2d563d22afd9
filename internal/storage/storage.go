// Package storage connects the app to its image blob store
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/config"
	"github.com/UnendingLoop/BgRemover/internal/storage/miniostorage"
)

// NewBlobStore connects to the storage and makes sure the bucket exists, retrying up to cfg.ConnectAttempts times.
func NewBlobStore(ctx context.Context, cfg config.StorageConfig) (*miniostorage.MinioBlobStore, error) {
	var lastErr error

	for i := range cfg.ConnectAttempts {
		if i > 0 {
			log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", lastErr, cfg.ConnectDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.ConnectDelay):
			}
		}

		log.Println("Connecting to IMG-storage...")
		store, err := miniostorage.NewMinioClient(cfg)
		if err != nil {
			lastErr = err
			continue
		}

		// создаем бакет если его нет
		if err := store.EnsureBucket(ctx); err != nil {
			lastErr = fmt.Errorf("failed to ensure bucket %q: %w", cfg.Bucket, err)
			continue
		}

		log.Println("Successfully connected IMG-storage!")
		return store, nil
	}

	return nil, fmt.Errorf("IMG-storage is unreachable after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}
