package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/pkg/logger"
	"github.com/okian/quals/pkg/metrics"
)

// Default cache configuration constants.
const (
	DefaultTTL             = 7200 * time.Second
	defaultCleanupInterval = 10 * time.Minute
	fileExt                = ".json"
)

// diskEntry is the on-disk layout of one cached report.
type diskEntry struct {
	ExpiresAt time.Time         `json:"expires_at"`
	Report    model.EventReport `json:"report"`
}

// CacheStore implements Store on top of go-cache. When a directory is
// configured every entry is mirrored to <dir>/<key>.json.
type CacheStore struct {
	mu              sync.Mutex
	mem             *gocache.Cache
	ttl             time.Duration
	cleanupInterval time.Duration
	dir             string
	logger          logger.Logger
}

// NewCacheStore creates the store and loads valid entries from disk.
func NewCacheStore(ctx context.Context, opts ...Option) (*CacheStore, error) {
	s := &CacheStore{
		ttl:             DefaultTTL,
		cleanupInterval: defaultCleanupInterval,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mem = gocache.New(s.ttl, s.cleanupInterval)

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		if err := s.load(ctx); err != nil {
			return nil, err
		}
		s.mem.OnEvicted(func(key string, _ any) {
			_ = os.Remove(s.path(key))
		})
	}
	metrics.UpdateCacheEntries(s.mem.ItemCount())
	return s, nil
}

// Get returns a live report from memory, falling back to disk.
func (s *CacheStore) Get(ctx context.Context, key string) (model.EventReport, bool) {
	if validKey(key) != nil {
		return model.EventReport{}, false
	}
	if v, ok := s.mem.Get(key); ok {
		metrics.RecordCacheHit()
		return v.(model.EventReport), true
	}
	if s.dir == "" {
		metrics.RecordCacheMiss()
		return model.EventReport{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.readDisk(ctx, key)
	if !ok {
		metrics.RecordCacheMiss()
		return model.EventReport{}, false
	}
	s.mem.Set(key, entry.Report, time.Until(entry.ExpiresAt))
	metrics.RecordCacheHit()
	s.logger.Debug(ctx, "report restored from disk", logger.String("key", key))
	return entry.Report, true
}

// Set stores report unless a still valid entry exists for key.
func (s *CacheStore) Set(ctx context.Context, key string, report model.EventReport) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mem.Get(key); ok {
		return nil
	}
	if s.dir != "" {
		if entry, ok := s.readDisk(ctx, key); ok {
			s.mem.Set(key, entry.Report, time.Until(entry.ExpiresAt))
			return nil
		}
	}

	s.mem.Set(key, report, s.ttl)
	metrics.UpdateCacheEntries(s.mem.ItemCount())
	if s.dir == "" {
		return nil
	}
	return s.writeDisk(key, diskEntry{ExpiresAt: time.Now().Add(s.ttl).UTC(), Report: report})
}

// Count returns the number of reports held in memory.
func (s *CacheStore) Count(ctx context.Context) int {
	return s.mem.ItemCount()
}

func (s *CacheStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// readDisk returns a live disk entry. Expired or unreadable files are removed.
func (s *CacheStore) readDisk(ctx context.Context, key string) (diskEntry, bool) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn(ctx, "cache file unreadable", logger.String("key", key), logger.Error(err))
		}
		return diskEntry{}, false
	}
	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn(ctx, "cache file corrupt", logger.String("key", key), logger.Error(err))
		_ = os.Remove(s.path(key))
		return diskEntry{}, false
	}
	if !time.Now().Before(entry.ExpiresAt) {
		s.logger.Debug(ctx, "cache file expired", logger.String("key", key))
		_ = os.Remove(s.path(key))
		return diskEntry{}, false
	}
	return entry, true
}

func (s *CacheStore) writeDisk(key string, entry diskEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// load restores every live entry of the cache directory into memory.
func (s *CacheStore) load(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)
		if validKey(key) != nil {
			continue
		}
		if entry, ok := s.readDisk(ctx, key); ok {
			s.mem.Set(key, entry.Report, time.Until(entry.ExpiresAt))
		}
	}
	s.logger.Info(ctx, "report cache loaded", logger.String("dir", s.dir), logger.Int("entries", s.mem.ItemCount()))
	return nil
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
