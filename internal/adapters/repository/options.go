package repository

import (
	"time"

	"github.com/okian/quals/pkg/logger"
)

// Option applies a configuration option to the CacheStore.
type Option func(*CacheStore)

// WithTTL sets how long a report stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *CacheStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithDir enables disk persistence under dir.
func WithDir(dir string) Option {
	return func(s *CacheStore) {
		s.dir = dir
	}
}

// WithCleanupInterval sets how often expired entries are purged from memory.
func WithCleanupInterval(interval time.Duration) Option {
	return func(s *CacheStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *CacheStore) {
		if l != nil {
			s.logger = l
		}
	}
}
