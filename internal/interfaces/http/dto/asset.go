// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"brand-studio-api/internal/domain/entity"
)

// SaveAssetRequest 保存生成资产请求
type SaveAssetRequest struct {
	Kind  string `json:"kind" binding:"required,oneof=logo short"`
	URI   string `json:"uri" binding:"required"`
	Title string `json:"title,omitempty"`
}

// SavedAssetResponse 已保存资产响应
type SavedAssetResponse struct {
	ID        string `json:"id"`
	ProjectID int64  `json:"project_id"`
	Kind      string `json:"kind"`
	URI       string `json:"uri"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"created_at"`
}

func ToSavedAssetResponse(a *entity.SavedAsset) *SavedAssetResponse {
	if a == nil {
		return nil
	}
	return &SavedAssetResponse{
		ID:        a.ID,
		ProjectID: a.ProjectID,
		Kind:      string(a.Kind),
		URI:       a.URI,
		Title:     a.Title,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func ToSavedAssetResponses(assets []*entity.SavedAsset) []*SavedAssetResponse {
	out := make([]*SavedAssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, ToSavedAssetResponse(a))
	}
	return out
}

// SavedAssetListResponse 资产列表响应
type SavedAssetListResponse struct {
	Assets []*SavedAssetResponse `json:"assets"`
}
