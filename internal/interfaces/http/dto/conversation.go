// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"brand-studio-api/internal/domain/entity"
	wfmodel "brand-studio-api/internal/workflow/model"
)

// CreateConversationSessionRequest 创建漏斗会话请求
type CreateConversationSessionRequest struct {
	Kind string `json:"kind" binding:"omitempty,oneof=brand logo shorts"`
	// ProjectID 针对已持久化项目直接开启 logo/shorts 漏斗
	ProjectID *int64 `json:"project_id,omitempty"`
}

// ConversationSessionResponse 漏斗会话响应
type ConversationSessionResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	ProjectID    *int64 `json:"project_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	DraftName    string `json:"draft_name,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func ToConversationSessionResponse(s *entity.ConversationSession) *ConversationSessionResponse {
	if s == nil {
		return nil
	}
	return &ConversationSessionResponse{
		ID:           s.ID,
		Kind:         string(s.Kind),
		ProjectID:    s.ProjectID,
		SessionToken: s.SessionToken,
		DraftName:    s.DraftName,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}

// TextAttachmentRequest 文本附件
type TextAttachmentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content" binding:"required"`
}

// SendFunnelMessageRequest 漏斗消息请求
type SendFunnelMessageRequest struct {
	Prompt      string                  `json:"prompt" binding:"required"`
	Attachments []TextAttachmentRequest `json:"attachments,omitempty"`

	// Profile 客户端直传的结构化品牌属性负载（两种字段拼写都接受）
	Profile json.RawMessage `json:"profile,omitempty"`

	// Selection 推荐批次内的选择下标（logo 漏斗）
	Selection *int `json:"selection,omitempty"`

	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

func (r *SendFunnelMessageRequest) ToWorkflowAttachments() []wfmodel.TextAttachment {
	if r == nil {
		return nil
	}
	out := make([]wfmodel.TextAttachment, 0, len(r.Attachments))
	for i := range r.Attachments {
		a := r.Attachments[i]
		out = append(out, wfmodel.TextAttachment{
			Name:    a.Name,
			Content: a.Content,
		})
	}
	return out
}

// AssetRefResponse 资产引用
type AssetRefResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

func ToAssetRefResponses(refs []entity.AssetRef) []AssetRefResponse {
	if len(refs) == 0 {
		return nil
	}
	out := make([]AssetRefResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, AssetRefResponse{ID: ref.ID, URI: ref.URI})
	}
	return out
}

// ConversationTurnResponse 对话轮次响应
type ConversationTurnResponse struct {
	ID          string             `json:"id"`
	Role        string             `json:"role"`
	Content     string             `json:"content"`
	Attachments []AssetRefResponse `json:"attachments,omitempty"`
	Marker      string             `json:"marker,omitempty"`
	CreatedAt   string             `json:"created_at"`
}

func ToConversationTurnResponse(t *entity.ConversationTurn) *ConversationTurnResponse {
	if t == nil {
		return nil
	}
	return &ConversationTurnResponse{
		ID:          t.ID,
		Role:        string(t.Role),
		Content:     t.Content,
		Attachments: ToAssetRefResponses(t.Attachments),
		Marker:      string(t.Marker),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// ConversationTurnListResponse 轮次列表响应
type ConversationTurnListResponse struct {
	Turns []*ConversationTurnResponse `json:"turns"`
}

// ProgressResponse 画像收集进度
type ProgressResponse struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
}

// FunnelStateResponse 推导出的漏斗状态快照
type FunnelStateResponse struct {
	Kind         string `json:"kind"`
	Stage        string `json:"stage"`
	ProjectID    *int64 `json:"project_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	// 品牌漏斗
	Profile          map[string]any    `json:"profile,omitempty"`
	Progress         *ProgressResponse `json:"progress,omitempty"`
	RequiredComplete bool              `json:"required_complete,omitempty"`
	AllComplete      bool              `json:"all_complete,omitempty"`

	// logo / shorts 漏斗
	Recommendations []AssetRefResponse `json:"recommendations,omitempty"`
	Final           *AssetRefResponse  `json:"final,omitempty"`
}

// UsageResponse LLM 用量
type UsageResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	GeneratedAt      string `json:"generated_at"`
	DurationMs       int    `json:"duration_ms"`
}

// SendFunnelMessageResponse 漏斗消息响应
type SendFunnelMessageResponse struct {
	Session          *ConversationSessionResponse `json:"session"`
	UserTurnID       string                       `json:"user_turn_id"`
	AssistantTurnID  string                       `json:"assistant_turn_id,omitempty"`
	AssistantMessage string                       `json:"assistant_message"`
	Marker           string                       `json:"marker,omitempty"`
	Attachments      []AssetRefResponse           `json:"attachments,omitempty"`
	State            *FunnelStateResponse         `json:"state"`
	Usage            *UsageResponse               `json:"usage,omitempty"`
}

// FunnelStateOnlyResponse 只读状态查询响应
type FunnelStateOnlyResponse struct {
	Session *ConversationSessionResponse `json:"session"`
	State   *FunnelStateResponse         `json:"state"`
}
