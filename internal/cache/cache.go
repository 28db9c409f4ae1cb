// Package cache holds resolved track metadata in Redis so repeated lookups
// for the same video skip the extraction tool. The cache is best-effort: if
// Redis is unreachable at startup the store degrades to a no-op and every
// lookup goes straight to the resolver.
package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/songlift/songlift/internal/extract"
)

const keyPrefix = "songlift:meta:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New connects to Redis and returns a ready store. A failed ping is not
// fatal; the returned store is disabled and reports every lookup as a miss.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &Store{ttl: ttl, log: log}
	if addr == "" {
		return s
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, metadata cache disabled")
		_ = client.Close()
		return s
	}
	s.client = client
	log.WithField("addr", addr).Info("metadata cache connected")
	return s
}

func (s *Store) Enabled() bool { return s != nil && s.client != nil }

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

// Get returns cached metadata for url, or nil on a miss. Redis errors are
// logged and treated as misses.
func (s *Store) Get(ctx context.Context, url string) *extract.Metadata {
	if !s.Enabled() {
		return nil
	}
	val, err := s.client.Get(ctx, cacheKey(url)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).Debug("cache read failed")
		}
		return nil
	}
	var meta extract.Metadata
	if err := json.Unmarshal(val, &meta); err != nil {
		s.log.WithError(err).Debug("cache entry corrupt, ignoring")
		return nil
	}
	return &meta
}

// Put stores metadata for url. Failures are logged and otherwise ignored.
func (s *Store) Put(ctx context.Context, url string, meta *extract.Metadata) {
	if !s.Enabled() || meta == nil {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKey(url), data, s.ttl).Err(); err != nil {
		s.log.WithError(err).Debug("cache write failed")
	}
}

// cacheKey canonicalizes the watch URL so tracking-parameter variants of the
// same video share one entry.
func cacheKey(url string) string {
	return keyPrefix + extract.CanonicalURL(url)
}

type metadataResolver interface {
	Resolve(ctx context.Context, url string) (*extract.Metadata, error)
}

// CachingResolver consults the store before delegating to the wrapped
// resolver, and fills the store on successful lookups.
type CachingResolver struct {
	inner metadataResolver
	store *Store
}

func NewCachingResolver(inner metadataResolver, store *Store) *CachingResolver {
	return &CachingResolver{inner: inner, store: store}
}

func (r *CachingResolver) Resolve(ctx context.Context, url string) (*extract.Metadata, error) {
	if meta := r.store.Get(ctx, url); meta != nil {
		return meta, nil
	}
	meta, err := r.inner.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	r.store.Put(ctx, url, meta)
	return meta, nil
}
