package session

import (
	"context"
	"sync"

	"brand-studio-api/internal/domain/entity"
)

// ProfileStore 品牌画像的注入式存取能力。
// 引擎不依赖具体存储：生产环境由 Redis 实现承载，测试使用内存实现。
type ProfileStore interface {
	Get(ctx context.Context, sessionID string) (*entity.BrandProfile, error)
	Set(ctx context.Context, sessionID string, profile *entity.BrandProfile) error
	// Subscribe 注册画像变更回调，返回取消函数
	Subscribe(fn func(sessionID string, profile *entity.BrandProfile)) (cancel func())
}

// MemoryProfileStore 进程内画像存储
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*entity.BrandProfile
	subs     map[int]func(string, *entity.BrandProfile)
	nextSub  int
}

// NewMemoryProfileStore 创建内存画像存储
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]*entity.BrandProfile),
		subs:     make(map[int]func(string, *entity.BrandProfile)),
	}
}

func (s *MemoryProfileStore) Get(_ context.Context, sessionID string) (*entity.BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryProfileStore) Set(_ context.Context, sessionID string, profile *entity.BrandProfile) error {
	s.mu.Lock()
	s.profiles[sessionID] = profile
	fns := make([]func(string, *entity.BrandProfile), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sessionID, profile)
	}
	return nil
}

func (s *MemoryProfileStore) Subscribe(fn func(string, *entity.BrandProfile)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
