package db

import (
	"context"
	"sort"
	"sync"
	"time"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
	"github.com/ZanzyTHEbar/filesum/fsum/models"
)

// MockStore is an in-memory MetadataStore with failure injection for tests
type MockStore struct {
	mu           sync.Mutex
	records      map[string]*models.FileRecord
	nextID       int64
	schemaCalls  int
	SchemaErr    error
	UpsertErrors map[string]error
}

func NewMockStore() *MockStore {
	return &MockStore{
		records:      make(map[string]*models.FileRecord),
		UpsertErrors: make(map[string]error),
	}
}

func (m *MockStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaCalls++
	if m.SchemaErr != nil {
		return common.StoreError("ensure schema", "", m.SchemaErr)
	}
	return nil
}

// SchemaCalls returns how many times EnsureSchema ran
func (m *MockStore) SchemaCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schemaCalls
}

func (m *MockStore) Upsert(ctx context.Context, record *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record == nil || record.FilePath == "" {
		return common.StoreError("upsert", "", common.ErrPathEmpty)
	}
	if err, ok := m.UpsertErrors[record.FilePath]; ok {
		return common.StoreError("upsert", record.FilePath, err)
	}

	stored := *record
	if stored.Status == "" {
		stored.Status = internal.StatusProcessed
	}
	stored.ProcessedAt = time.Now().UTC()
	if existing, ok := m.records[record.FilePath]; ok {
		stored.ID = existing.ID
	} else {
		m.nextID++
		stored.ID = m.nextID
	}
	m.records[record.FilePath] = &stored
	return nil
}

func (m *MockStore) Get(ctx context.Context, filePath string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[filePath]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *MockStore) List(ctx context.Context) ([]*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]*models.FileRecord, 0, len(m.records))
	for _, record := range m.records {
		copied := *record
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FilePath < records[j].FilePath })
	return records, nil
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *MockStore) Close() error {
	return nil
}

var _ MetadataStore = (*MockStore)(nil)
