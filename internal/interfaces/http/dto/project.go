// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"brand-studio-api/internal/domain/entity"
)

// BrandProfileResponse 品牌画像
type BrandProfileResponse struct {
	BrandName       string   `json:"brand_name,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Mood            string   `json:"mood,omitempty"`
	CoreKeywords    []string `json:"core_keywords,omitempty"`
	TargetAge       string   `json:"target_age,omitempty"`
	TargetGender    string   `json:"target_gender,omitempty"`
	AvoidTrends     []string `json:"avoid_trends,omitempty"`
	Slogan          string   `json:"slogan,omitempty"`
	PreferredColors []string `json:"preferred_colors,omitempty"`
}

func ToBrandProfileResponse(p *entity.BrandProfile) *BrandProfileResponse {
	if p == nil {
		return nil
	}
	return &BrandProfileResponse{
		BrandName:       p.BrandName,
		Industry:        p.Industry,
		Mood:            p.Mood,
		CoreKeywords:    p.CoreKeywords,
		TargetAge:       p.TargetAge,
		TargetGender:    p.TargetGender,
		AvoidTrends:     p.AvoidTrends,
		Slogan:          p.Slogan,
		PreferredColors: p.PreferredColors,
	}
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Profile     *BrandProfileResponse `json:"profile,omitempty"`
	Status      string                `json:"status"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}

func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Profile:     ToBrandProfileResponse(p.Profile),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func ToProjectResponses(projects []*entity.Project) []*ProjectResponse {
	out := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return out
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" binding:"omitempty,oneof=active archived"`
}
