// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/domain/repository"
)

// SavedAssetRepository 已保存资产仓储实现
type SavedAssetRepository struct {
	client *Client
}

func NewSavedAssetRepository(client *Client) *SavedAssetRepository {
	return &SavedAssetRepository{client: client}
}

func (r *SavedAssetRepository) Create(ctx context.Context, asset *entity.SavedAsset) error {
	ctx, span := tracer.Start(ctx, "postgres.SavedAssetRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(asset).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create saved asset: %w", err)
	}
	return nil
}

func (r *SavedAssetRepository) GetByID(ctx context.Context, id string) (*entity.SavedAsset, error) {
	ctx, span := tracer.Start(ctx, "postgres.SavedAssetRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var asset entity.SavedAsset
	if err := db.First(&asset, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get saved asset: %w", err)
	}
	return &asset, nil
}

func (r *SavedAssetRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.SavedAssetRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.SavedAsset{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete saved asset: %w", err)
	}
	return nil
}

func (r *SavedAssetRepository) ListByProject(ctx context.Context, projectID int64, kind entity.AssetKind, pagination repository.Pagination) (*repository.PagedResult[*entity.SavedAsset], error) {
	ctx, span := tracer.Start(ctx, "postgres.SavedAssetRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.SavedAsset{}).Where("project_id = ?", projectID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count saved assets: %w", err)
	}

	var assets []*entity.SavedAsset
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&assets).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list saved assets: %w", err)
	}

	return repository.NewPagedResult(assets, total, pagination), nil
}
