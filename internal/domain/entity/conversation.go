// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// ConversationKind 对话漏斗类型
type ConversationKind string

const (
	ConversationKindBrand  ConversationKind = "brand"
	ConversationKindLogo   ConversationKind = "logo"
	ConversationKindShorts ConversationKind = "shorts"
)

// TurnMarker 轮次标记标签。
// 阶段推导依赖结构化标记而不是原始文案匹配：助手轮次在创建时即打上标记，
// 从存储恢复的历史轮次由 funnel.TagTurn 根据固定文案补打。
type TurnMarker string

const (
	MarkerNone            TurnMarker = ""
	MarkerProjectCreated  TurnMarker = "project_created"
	MarkerTypeOffer       TurnMarker = "type_offer"
	MarkerStyleOffer      TurnMarker = "style_offer"
	MarkerRefineOffer     TurnMarker = "refine_offer"
	MarkerExtraDetailAsk  TurnMarker = "extra_detail_ask"
	MarkerLogoChoiceAsk   TurnMarker = "logo_choice_ask"
	MarkerLogoListOffer   TurnMarker = "logo_list_offer"
	MarkerSatisfactionAsk TurnMarker = "satisfaction_ask"
)

// AssetRef 指向一个生成资产的不透明引用
type AssetRef struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// ConversationSession 一个漏斗对话的服务端会话。
// 会话从草稿项目开始（ProjectID 为空），项目持久化后绑定一次且不再回退。
type ConversationSession struct {
	ID               string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           string           `json:"user_id" gorm:"type:uuid;index;not null"`
	Kind             ConversationKind `json:"kind" gorm:"type:varchar(16);not null"`
	ProjectID        *int64           `json:"project_id,omitempty" gorm:"index"`
	SessionToken     string           `json:"session_token,omitempty" gorm:"type:varchar(128)"`
	DraftName        string           `json:"draft_name,omitempty" gorm:"type:varchar(255)"`
	DraftDescription string           `json:"draft_description,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

func NewConversationSession(userID string, kind ConversationKind) *ConversationSession {
	now := time.Now()
	if kind == "" {
		kind = ConversationKindBrand
	}
	return &ConversationSession{
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BindProject 将会话绑定到已持久化项目。只生效一次。
func (s *ConversationSession) BindProject(projectID int64) {
	if s.ProjectID != nil {
		return
	}
	pid := projectID
	s.ProjectID = &pid
	s.UpdatedAt = time.Now()
}

// ConversationTurn 对话中的一条消息。关闭后不可变。
type ConversationTurn struct {
	ID          string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID   string          `json:"session_id" gorm:"type:uuid;index;not null"`
	Role        Role            `json:"role" gorm:"type:varchar(16);not null"`
	Content     string          `json:"content" gorm:"type:text;not null"`
	Attachments []AssetRef      `json:"attachments,omitempty" gorm:"type:jsonb;serializer:json"`
	Marker      TurnMarker      `json:"marker,omitempty" gorm:"type:varchar(32)"`
	Metadata    json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

func NewConversationTurn(sessionID string, role Role, content string, attachments []AssetRef, marker TurnMarker) *ConversationTurn {
	return &ConversationTurn{
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		Attachments: attachments,
		Marker:      marker,
		CreatedAt:   time.Now(),
	}
}

// HasAttachments 判断轮次是否携带资产引用
func (t *ConversationTurn) HasAttachments() bool {
	return t != nil && len(t.Attachments) > 0
}
