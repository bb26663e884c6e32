// Package session 维护单个漏斗对话的运行期状态：
// 轮次日志（Turn Log）、流式写入协调器与项目/会话身份管理。
package session

import (
	"strings"
	"sync"
	"time"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/pkg/errors"
)

// TurnLog 一个对话上下文独占的 append-only 轮次序列。
// 不变式：轮次严格按创建顺序排列；最多只有一个“未关闭”的助手轮次，
// 且未关闭轮次永远位于末尾。关闭后的轮次不可变。
type TurnLog struct {
	mu        sync.RWMutex
	sessionID string
	turns     []*entity.ConversationTurn
	open      *entity.ConversationTurn
}

// NewTurnLog 创建空的轮次日志
func NewTurnLog(sessionID string) *TurnLog {
	return &TurnLog{sessionID: sessionID}
}

// Restore 从持久化历史重建轮次日志。历史轮次全部视为已关闭。
func Restore(sessionID string, turns []*entity.ConversationTurn) *TurnLog {
	l := NewTurnLog(sessionID)
	l.turns = append(l.turns, turns...)
	return l
}

// SessionID 返回归属会话 ID
func (l *TurnLog) SessionID() string {
	return l.sessionID
}

// Append 追加一条已关闭的轮次。存在未关闭轮次时违反顺序不变式。
func (l *TurnLog) Append(turn *entity.ConversationTurn) error {
	if turn == nil {
		return errors.New(errors.CodeInvalidParam, "turn is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open != nil {
		return errors.New(errors.CodeInvalidState, "cannot append while an assistant turn is open")
	}
	if turn.SessionID == "" {
		turn.SessionID = l.sessionID
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	l.turns = append(l.turns, turn)
	return nil
}

// OpenAssistant 打开唯一的可变助手轮次并追加到末尾。
// 已存在未关闭轮次时返回 InvalidState：这是协调器缺陷，不是用户可见错误。
func (l *TurnLog) OpenAssistant(initial string) (*entity.ConversationTurn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open != nil {
		return nil, errors.New(errors.CodeInvalidState, "assistant turn already open")
	}
	turn := entity.NewConversationTurn(l.sessionID, entity.RoleAssistant, initial, nil, entity.MarkerNone)
	l.turns = append(l.turns, turn)
	l.open = turn
	return turn, nil
}

// AppendToOpen 向未关闭轮次追加增量文本，保持到达顺序。
func (l *TurnLog) AppendToOpen(delta string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return errors.New(errors.CodeInvalidState, "no open assistant turn")
	}
	l.open.Content += delta
	return nil
}

// SetOpenAttachments 为未关闭轮次设置资产引用，不改动已到达文本。
func (l *TurnLog) SetOpenAttachments(refs []entity.AssetRef) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return errors.New(errors.CodeInvalidState, "no open assistant turn")
	}
	l.open.Attachments = refs
	return nil
}

// SetOpenMarker 为未关闭轮次打阶段标记
func (l *TurnLog) SetOpenMarker(marker entity.TurnMarker) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return errors.New(errors.CodeInvalidState, "no open assistant turn")
	}
	l.open.Marker = marker
	return nil
}

// CloseOpen 无条件关闭未关闭轮次并返回它。没有未关闭轮次时返回 nil。
func (l *TurnLog) CloseOpen() *entity.ConversationTurn {
	l.mu.Lock()
	defer l.mu.Unlock()

	closed := l.open
	l.open = nil
	return closed
}

// DiscardOpen 丢弃未关闭轮次（连同已到达的部分文本）。
// 用于新流中断旧流、或首个增量到达前的传输失败。
func (l *TurnLog) DiscardOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return false
	}
	// 未关闭轮次必然在末尾
	l.turns = l.turns[:len(l.turns)-1]
	l.open = nil
	return true
}

// HasOpen 是否存在未关闭轮次
func (l *TurnLog) HasOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.open != nil
}

// OpenText 未关闭轮次当前已到达的文本（渲染“生成中”气泡用）
func (l *TurnLog) OpenText() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.open == nil {
		return "", false
	}
	return l.open.Content, true
}

// All 按创建顺序返回全部轮次的快照
func (l *TurnLog) All() []*entity.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*entity.ConversationTurn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len 轮次数量
func (l *TurnLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Last 最后一条轮次，空日志返回 nil
func (l *TurnLog) Last() *entity.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return nil
	}
	return l.turns[len(l.turns)-1]
}

// LastAssistant 最后一条助手轮次，不存在时返回 nil
func (l *TurnLog) LastAssistant() *entity.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Role == entity.RoleAssistant {
			return l.turns[i]
		}
	}
	return nil
}

// IsBlank 判断文本 trim 后是否为空
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
