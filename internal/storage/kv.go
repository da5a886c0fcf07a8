package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrEmptyKey indicates a blank storage key.
	ErrEmptyKey = errors.New("storage: key must not be empty")
	// ErrMissingDatabase indicates the gorm handle was not provided.
	ErrMissingDatabase = errors.New("storage: database handle is required")
)

// KeyValueStore is the minimal asynchronous key-value contract the domain
// stores persist through. Any conforming store is sufficient.
type KeyValueStore interface {
	// GetItem returns the stored value for key and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem writes value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value string) error
}

// Entry is the row backing one stored document.
type Entry struct {
	Key              string `gorm:"column:key;primaryKey;size:190;not null"`
	Value            string `gorm:"column:value;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore persists entries through a gorm-managed SQLite table.
type GormStore struct {
	db    *gorm.DB
	clock func() time.Time
}

// GormStoreConfig describes the dependencies of a GormStore.
type GormStoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// NewGormStore constructs a GormStore.
func NewGormStore(cfg GormStoreConfig) (*GormStore, error) {
	if cfg.Database == nil {
		return nil, ErrMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &GormStore{db: cfg.Database, clock: clock}, nil
}

// GetItem returns the value stored under key, reporting absence without error.
func (s *GormStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, ErrEmptyKey
	}
	var entry Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// SetItem writes value under key, replacing any previous value.
func (s *GormStore) SetItem(ctx context.Context, key string, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	entry := Entry{
		Key:              key,
		Value:            value,
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}
	return s.db.WithContext(ctx).Save(&entry).Error
}

// MemoryStore is an in-memory KeyValueStore used by tests. The failure hooks
// let tests simulate storage I/O errors per call.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	GetErr  error
	SetErr  error
	SetCnt  int
	GetCnt  int
	Written map[string]int
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]string),
		Written: make(map[string]int),
	}
}

// GetItem returns the stored value, or the configured failure.
func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCnt++
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

// SetItem stores the value, or returns the configured failure.
func (s *MemoryStore) SetItem(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetCnt++
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = value
	s.Written[key]++
	return nil
}

// Peek returns the raw stored value without counting as a read.
func (s *MemoryStore) Peek(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Seed places a raw value under key without counting as a write.
func (s *MemoryStore) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
