package appctx

import (
	"context"
	"sync"

	"github.com/hackgods/doctor-booking-web/internal/backend"
)

const doctorsCacheKey = "doctors:list"

// DoctorStore holds the cached doctor collection shared by all requests.
type DoctorStore interface {
	Load(ctx context.Context) (docs []backend.Doctor, ok bool, err error)
	Save(ctx context.Context, docs []backend.Doctor) error
}

// MemoryStore keeps the collection in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   []backend.Doctor
	loaded bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]backend.Doctor, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, false, nil
	}
	out := make([]backend.Doctor, len(s.docs))
	copy(out, s.docs)
	return out, true, nil
}

func (s *MemoryStore) Save(_ context.Context, docs []backend.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make([]backend.Doctor, len(docs))
	copy(s.docs, docs)
	s.loaded = true
	return nil
}

// JSONCache is the subset of redisclient.JSONCache the store needs.
type JSONCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// CacheStore keeps the collection in a shared cache such as Redis.
type CacheStore struct {
	cache JSONCache
}

func NewCacheStore(cache JSONCache) *CacheStore {
	return &CacheStore{cache: cache}
}

func (s *CacheStore) Load(ctx context.Context) ([]backend.Doctor, bool, error) {
	var docs []backend.Doctor
	ok, err := s.cache.Get(ctx, doctorsCacheKey, &docs)
	if err != nil || !ok {
		return nil, false, err
	}
	return docs, true, nil
}

func (s *CacheStore) Save(ctx context.Context, docs []backend.Doctor) error {
	return s.cache.Set(ctx, doctorsCacheKey, docs)
}
