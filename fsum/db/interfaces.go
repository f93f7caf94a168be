package db

import (
	"context"

	"github.com/ZanzyTHEbar/filesum/fsum/models"
)

// MetadataStore is the interface for file metadata persistence
type MetadataStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, record *models.FileRecord) error
	Get(ctx context.Context, filePath string) (*models.FileRecord, error)
	List(ctx context.Context) ([]*models.FileRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
