package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/secure"
	"github.com/redis/go-redis/v9"
)

// RedisResultCache stores completed transcription responses in Redis so
// repeated uploads of the same audio skip recognition. Values are encrypted
// before leaving the process.
type RedisResultCache struct {
	client  *redis.Client
	ttl     time.Duration
	crypter *secure.Crypter
}

// NewRedisResultCache creates a new RedisResultCache with connection pooling.
func NewRedisResultCache(connStr string, encryptionKey string, ttl time.Duration) (*RedisResultCache, error) {
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	goapp.Log.Info().Str("redis", opt.Addr).Int("db", opt.DB).Send()
	rdb := redis.NewClient(opt)

	crypter, err := secure.NewCrypter(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("create crypter: %w", err)
	}

	return &RedisResultCache{
		client:  rdb,
		ttl:     ttl,
		crypter: crypter,
	}, nil
}

func (r *RedisResultCache) key(id string) string {
	return fmt.Sprintf("result:%s", id)
}

func (r *RedisResultCache) Get(ctx context.Context, key string) (*api.TranscriptionResponse, error) {
	goapp.Log.Trace().Str("key", key).Msg("get cached result")
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	decrypted, err := r.crypter.Decrypt(b)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	var resp api.TranscriptionResponse
	if err := json.Unmarshal(decrypted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *RedisResultCache) Save(ctx context.Context, key string, resp *api.TranscriptionResponse) error {
	goapp.Log.Trace().Str("key", key).Msg("cache result")
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	encrypted, err := r.crypter.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return r.client.Set(ctx, r.key(key), encrypted, r.ttl).Err()
}

func (r *RedisResultCache) Close() error {
	return r.client.Close()
}
