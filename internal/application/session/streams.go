package session

import (
	"context"
	"sync"
)

// StreamRegistry 跨请求追踪每个会话的活跃生成流。
// 不变式：同一会话最多一条活跃流。新流登记时取消旧流的上下文，
// 旧流的 Reconciler 随取消丢弃未关闭轮次。
type StreamRegistry struct {
	mu     sync.Mutex
	nextID uint64
	active map[string]streamHandle
}

type streamHandle struct {
	id     uint64
	cancel context.CancelFunc
}

// NewStreamRegistry 创建流注册表
func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{active: make(map[string]streamHandle)}
}

// Begin 登记新的活跃流并中断同一会话的上一条流。
// 返回的 release 在流结束后调用；后继流已登记时 release 不动注册表。
func (r *StreamRegistry) Begin(sessionID string, cancel context.CancelFunc) (release func()) {
	r.mu.Lock()
	if prev, ok := r.active[sessionID]; ok {
		prev.cancel()
	}
	r.nextID++
	id := r.nextID
	r.active[sessionID] = streamHandle{id: id, cancel: cancel}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if cur, ok := r.active[sessionID]; ok && cur.id == id {
			delete(r.active, sessionID)
		}
		r.mu.Unlock()
	}
}

// Active 会话当前是否存在活跃流
func (r *StreamRegistry) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[sessionID]
	return ok
}

// CancelActive 取消会话的活跃流（若有）。非流式消息到达时调用，
// 保证新消息使未关闭流的效果作废。
func (r *StreamRegistry) CancelActive(sessionID string) {
	r.mu.Lock()
	handle, ok := r.active[sessionID]
	if ok {
		delete(r.active, sessionID)
	}
	r.mu.Unlock()

	if ok {
		handle.cancel()
	}
}
