package db

import (
	"context"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
)

type memEntry struct {
	resp    *api.TranscriptionResponse
	expires time.Time
}

// MemoryResultCache keeps completed transcription responses in process
// memory, keyed by audio content hash plus request parameters.
type MemoryResultCache struct {
	data map[string]memEntry
	ttl  time.Duration

	lock sync.RWMutex
}

func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	return &MemoryResultCache{data: make(map[string]memEntry), ttl: ttl}
}

func (mc *MemoryResultCache) Get(ctx context.Context, key string) (*api.TranscriptionResponse, error) {
	mc.lock.RLock()
	e, ok := mc.data[key]
	mc.lock.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expires) {
		mc.lock.Lock()
		delete(mc.data, key)
		mc.lock.Unlock()
		return nil, nil
	}
	cp := *e.resp
	return &cp, nil
}

func (mc *MemoryResultCache) Save(ctx context.Context, key string, resp *api.TranscriptionResponse) error {
	goapp.Log.Trace().Str("key", key).Msg("cache result")
	cp := *resp
	mc.lock.Lock()
	defer mc.lock.Unlock()
	mc.data[key] = memEntry{resp: &cp, expires: time.Now().Add(mc.ttl)}
	return nil
}
