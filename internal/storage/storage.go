package storage

import (
	"context"
	"fmt"

	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/go-errors/errors"
)

// Fixed keys for the saved-places lists.
const (
	BookmarksKey = "saved.bookmarks"
	HistoryKey   = "saved.history"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage is a small key-value persistence layer. Values are opaque blobs;
// callers own the encoding.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Persistence.Driver {
	case config.StorageDriverSQLite, config.StorageDriverMySQL, config.StorageDriverPostgres:
		return newDatabase(cfg)
	case config.StorageDriverFilesystem:
		return newFilesystem(cfg.Persistence.Directory)
	case config.StorageDriverS3:
		return newS3(ctx, cfg.Persistence.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Persistence.Driver)
	}
}
