package model

import "encoding/json"

// FunnelGenerateInput 定义了会话漏斗生成器的输入参数
type FunnelGenerateInput struct {
	Kind  string
	Stage string

	// Profile 为当前品牌属性画像的 JSON 快照，可能为空
	Profile json.RawMessage

	Prompt      string
	History     []*FunnelHistoryTurn
	Attachments []TextAttachment

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// FunnelHistoryTurn 以最小结构携带历史轮次，供 Prompt 渲染使用
type FunnelHistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunnelProjectDraft 是 LLM 提议的项目草稿
type FunnelProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FunnelAssetDraft 是 LLM 产出的生成资产引用
type FunnelAssetDraft struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type FunnelGenerateOutput struct {
	AssistantMessage string
	Marker           string
	Profile          json.RawMessage
	Attachments      []FunnelAssetDraft

	Action               string
	RequiresConfirmation bool
	ProposedProject      *FunnelProjectDraft

	Meta LLMUsageMeta
}
