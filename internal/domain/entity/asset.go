// Package entity 定义领域实体
package entity

import "time"

// AssetKind 已保存资产类型
type AssetKind string

const (
	AssetKindLogo  AssetKind = "logo"
	AssetKindShort AssetKind = "short"
)

// SavedAsset 用户显式保存的生成资产，归属于已持久化项目。
// 与对话轮次历史相互独立：删除资产不影响 Turn Log。
type SavedAsset struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID int64     `json:"project_id" gorm:"index;not null"`
	Kind      AssetKind `json:"kind" gorm:"type:varchar(16);not null"`
	URI       string    `json:"uri" gorm:"type:text;not null"`
	Title     string    `json:"title,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (SavedAsset) TableName() string {
	return "saved_assets"
}

func NewSavedAsset(projectID int64, kind AssetKind, uri, title string) *SavedAsset {
	return &SavedAsset{
		ProjectID: projectID,
		Kind:      kind,
		URI:       uri,
		Title:     title,
		CreatedAt: time.Now(),
	}
}
