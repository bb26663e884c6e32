package handler

import (
	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/domain/repository"
	"brand-studio-api/internal/infrastructure/persistence/redis"
	"brand-studio-api/internal/interfaces/http/dto"
	"brand-studio-api/internal/interfaces/http/middleware"
	apperrors "brand-studio-api/pkg/errors"
	"brand-studio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AssetHandler 已保存资产处理器。
// 保存与删除只作用于资产表，不回写对话轮次历史。
type AssetHandler struct {
	projectRepo repository.ProjectRepository
	assetRepo   repository.SavedAssetRepository
	cache       *redis.Cache
}

// NewAssetHandler 创建资产处理器
func NewAssetHandler(projectRepo repository.ProjectRepository, assetRepo repository.SavedAssetRepository, cache *redis.Cache) *AssetHandler {
	return &AssetHandler{
		projectRepo: projectRepo,
		assetRepo:   assetRepo,
		cache:       cache,
	}
}

// SaveAsset 将生成资产显式保存到项目下
// @Summary 保存资产
// @Tags Assets
// @Accept json
// @Produce json
// @Param pid path int true "项目ID"
// @Param body body dto.SaveAssetRequest true "资产内容"
// @Success 201 {object} dto.Response[dto.SavedAssetResponse]
// @Router /v1/projects/{pid}/assets [post]
func (h *AssetHandler) SaveAsset(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	var req dto.SaveAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.checkOwnership(c, projectID, userID); err != nil {
		dto.Fail(c, err)
		return
	}

	asset := entity.NewSavedAsset(projectID, entity.AssetKind(req.Kind), req.URI, req.Title)
	if err := h.assetRepo.Create(ctx, asset); err != nil {
		logger.Error(ctx, "failed to save asset", err, "project_id", projectID)
		dto.InternalError(c, "failed to save asset")
		return
	}

	h.invalidate(c, projectID)
	dto.Created(c, dto.ToSavedAssetResponse(asset))
}

// ListAssets 获取项目下已保存资产，可按类型过滤
// @Summary 资产列表
// @Tags Assets
// @Produce json
// @Param pid path int true "项目ID"
// @Param kind query string false "资产类型 (logo/short)"
// @Success 200 {object} dto.Response[[]dto.SavedAssetResponse]
// @Router /v1/projects/{pid}/assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	if err := h.checkOwnership(c, projectID, userID); err != nil {
		dto.Fail(c, err)
		return
	}

	kind := entity.AssetKind(c.Query("kind"))
	pageReq := dto.BindPage(c)
	result, err := h.assetRepo.ListByProject(ctx, projectID, kind, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list assets", err, "project_id", projectID)
		dto.InternalError(c, "failed to list assets")
		return
	}

	dto.SuccessWithPage(c, dto.ToSavedAssetResponses(result.Items), dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// DeleteAsset 删除已保存资产。轮次历史不受影响。
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)
	assetID := dto.BindAssetID(c)

	if err := h.checkOwnership(c, projectID, userID); err != nil {
		dto.Fail(c, err)
		return
	}

	asset, err := h.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		logger.Error(ctx, "failed to load asset", err, "asset_id", assetID)
		dto.InternalError(c, "failed to delete asset")
		return
	}
	if asset == nil || asset.ProjectID != projectID {
		dto.Fail(c, apperrors.ErrAssetNotFound)
		return
	}

	if err := h.assetRepo.Delete(ctx, assetID); err != nil {
		logger.Error(ctx, "failed to delete asset", err, "asset_id", assetID)
		dto.InternalError(c, "failed to delete asset")
		return
	}

	h.invalidate(c, projectID)
	dto.Success(c, gin.H{"deleted": true})
}

func (h *AssetHandler) checkOwnership(c *gin.Context, projectID int64, userID string) error {
	ctx := c.Request.Context()
	if projectID <= 0 {
		return apperrors.ErrInvalidParam
	}
	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to load project", err, "project_id", projectID)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load project")
	}
	if project == nil {
		return apperrors.ErrProjectNotFound
	}
	if project.OwnerID != userID {
		return apperrors.ErrForbidden
	}
	return nil
}

func (h *AssetHandler) invalidate(c *gin.Context, projectID int64) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	if err := h.cache.InvalidateProject(ctx, projectID); err != nil {
		logger.Warn(ctx, "failed to invalidate project cache", "error", err.Error())
	}
}
