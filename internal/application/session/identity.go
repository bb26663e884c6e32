package session

import (
	"strconv"
	"strings"
	"sync"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/pkg/errors"
)

// ProjectRefKind 项目引用形态
type ProjectRefKind string

const (
	ProjectRefDraft     ProjectRefKind = "draft"
	ProjectRefPersisted ProjectRefKind = "persisted"
)

// ProjectRef 草稿项目或已持久化项目的标签联合。
// 对话从 Draft 开始，每个项目生命周期内最多迁移一次到 Persisted，永不回退。
type ProjectRef struct {
	Kind        ProjectRefKind
	ID          int64  // Persisted 时有效
	Name        string // Draft 时有效
	Description string
}

// DraftRef 创建草稿项目引用
func DraftRef(name, description string) ProjectRef {
	return ProjectRef{Kind: ProjectRefDraft, Name: name, Description: description}
}

// PersistedRef 创建已持久化项目引用
func PersistedRef(id int64) ProjectRef {
	return ProjectRef{Kind: ProjectRefPersisted, ID: id}
}

// Persisted 是否已持久化
func (r ProjectRef) Persisted() bool {
	return r.Kind == ProjectRefPersisted
}

// Identity 对话当前解析出的身份
type Identity struct {
	Ref   ProjectRef
	Token string
}

// IdentityManager 跟踪单个对话的项目引用与会话令牌。
// 令牌在首次成功生成调用时铸造并复用；项目持久化时优先采用服务端返回的
// 规范令牌，否则退回使用数字项目 ID 的十进制串（与既有客户端兼容）。
type IdentityManager struct {
	mu    sync.RWMutex
	kind  entity.ConversationKind
	ref   ProjectRef
	token string
}

// NewIdentityManager 创建身份管理器。
// 直接在已持久化项目下打开的 logo/shorts 对话没有 Draft 阶段。
func NewIdentityManager(kind entity.ConversationKind, sess *entity.ConversationSession) *IdentityManager {
	m := &IdentityManager{kind: kind}
	if sess == nil {
		m.ref = DraftRef("", "")
		return m
	}
	if sess.ProjectID != nil {
		m.ref = PersistedRef(*sess.ProjectID)
	} else {
		m.ref = DraftRef(sess.DraftName, sess.DraftDescription)
	}
	m.token = sess.SessionToken
	return m
}

// Kind 所属漏斗类型
func (m *IdentityManager) Kind() entity.ConversationKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kind
}

// Resolve 返回当前项目引用与会话令牌
func (m *IdentityManager) Resolve() Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Identity{Ref: m.ref, Token: m.token}
}

// MintToken 铸造会话令牌。仅在尚无令牌时生效。
func (m *IdentityManager) MintToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		m.token = token
	}
}

// UpdateDraft 更新草稿项目的名称与描述。已持久化后为身份层面的 no-op。
func (m *IdentityManager) UpdateDraft(name, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ref.Persisted() {
		return
	}
	m.ref.Name = name
	m.ref.Description = description
}

// Promote 将草稿项目升级为已持久化项目，并重绑会话令牌。
// serverToken 为空时退回使用数字 ID 的十进制串。重复升级到同一 ID 幂等；
// 升级到不同 ID 违反单调身份不变式。
func (m *IdentityManager) Promote(projectID int64, serverToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ref.Persisted() {
		if m.ref.ID != projectID {
			return errors.New(errors.CodeInvalidState, "conversation already bound to a different project")
		}
		return nil
	}

	m.ref = PersistedRef(projectID)
	if token := strings.TrimSpace(serverToken); token != "" {
		m.token = token
	} else {
		m.token = strconv.FormatInt(projectID, 10)
	}
	return nil
}

// RequirePersisted 要求已持久化项目 ID，缺失时返回 MissingIdentity。
// 调用方应先触发项目创建再重试，而不是静默失败。
func (m *IdentityManager) RequirePersisted() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ref.Persisted() {
		return 0, errors.New(errors.CodeMissingIdentity, "action requires a persisted project")
	}
	return m.ref.ID, nil
}

// Snapshot 将当前身份写回会话实体（持久化前调用）
func (m *IdentityManager) Snapshot(sess *entity.ConversationSession) {
	if sess == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess.SessionToken = m.token
	if m.ref.Persisted() {
		sess.BindProject(m.ref.ID)
	} else {
		sess.DraftName = m.ref.Name
		sess.DraftDescription = m.ref.Description
	}
}
