// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"brand-studio-api/internal/domain/entity"
)

var profileTracer = otel.Tracer("redis.profile_store")

// ProfileStore Redis 实现的品牌画像存储。
// 画像按会话 ID 存放并带 TTL；变更回调仅覆盖本进程内的写入。
type ProfileStore struct {
	client *Client
	ttl    time.Duration

	mu          sync.RWMutex
	subscribers map[int]func(sessionID string, profile *entity.BrandProfile)
	nextSubID   int
}

func NewProfileStore(client *Client, ttl time.Duration) *ProfileStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ProfileStore{
		client:      client,
		ttl:         ttl,
		subscribers: make(map[int]func(string, *entity.BrandProfile)),
	}
}

// profileKey 画像键独立命名空间，必须落在 InvalidateSession 的
// session:<sid>:* 失效范围之外：画像不是派生缓存，不随轮次写入失效。
func profileKey(sessionID string) string {
	return fmt.Sprintf("profile:%s", sessionID)
}

func (s *ProfileStore) Get(ctx context.Context, sessionID string) (*entity.BrandProfile, error) {
	ctx, span := profileTracer.Start(ctx, "redis.ProfileStore.Get")
	defer span.End()

	val, err := s.client.Get(ctx, profileKey(sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile entity.BrandProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStore) Set(ctx context.Context, sessionID string, profile *entity.BrandProfile) error {
	ctx, span := profileTracer.Start(ctx, "redis.ProfileStore.Set")
	defer span.End()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.client.Set(ctx, profileKey(sessionID), data, s.ttl); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set profile: %w", err)
	}

	s.mu.RLock()
	subs := make([]func(string, *entity.BrandProfile), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(sessionID, profile)
	}
	return nil
}

func (s *ProfileStore) Subscribe(fn func(sessionID string, profile *entity.BrandProfile)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
