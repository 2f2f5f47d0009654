package service

import (
	"context"
	"sync"
	"time"
)

// CacheService — in-memory кэш с TTL. Используется для отсечения повторных webhook событий.
type CacheService struct {
	mu    sync.Mutex
	cache map[string]time.Time
	now   func() time.Time
}

func NewCacheService() *CacheService {
	return &CacheService{
		cache: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Seen атомарно проверяет ключ и запоминает его на ttl.
// Возвращает true, если ключ уже был запомнен и ещё не истёк.
func (cs *CacheService) Seen(key string, ttl time.Duration) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if expiresAt, ok := cs.cache[key]; ok && now.Before(expiresAt) {
		return true
	}
	cs.cache[key] = now.Add(ttl)
	return false
}

// Forget удаляет ключ, например когда обработка события завершилась ошибкой и его нужно принять повторно.
func (cs *CacheService) Forget(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.cache, key)
}

func (cs *CacheService) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.cache)
}

// RunCleanup периодически удаляет истёкшие записи до отмены ctx.
func (cs *CacheService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.purgeExpired()
		}
	}
}

func (cs *CacheService) purgeExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	for key, expiresAt := range cs.cache {
		if !now.Before(expiresAt) {
			delete(cs.cache, key)
		}
	}
}
