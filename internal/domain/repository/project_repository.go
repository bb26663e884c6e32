// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"brand-studio-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目（持久化草稿，分配数字 ID）
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id int64) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// UpdateProfile 仅更新品牌画像
	UpdateProfile(ctx context.Context, id int64, profile *entity.BrandProfile) error

	// Delete 删除项目
	Delete(ctx context.Context, id int64) error

	// ListByOwner 获取用户项目列表
	ListByOwner(ctx context.Context, ownerID string, pagination Pagination) (*PagedResult[*entity.Project], error)
}

// SavedAssetRepository 已保存资产仓储接口
type SavedAssetRepository interface {
	Create(ctx context.Context, asset *entity.SavedAsset) error
	GetByID(ctx context.Context, id string) (*entity.SavedAsset, error)
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID int64, kind entity.AssetKind, pagination Pagination) (*PagedResult[*entity.SavedAsset], error)
}
