package handler

import (
	"context"
	"encoding/json"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/domain/repository"
	"brand-studio-api/internal/infrastructure/persistence/redis"
	"brand-studio-api/internal/interfaces/http/dto"
	"brand-studio-api/internal/interfaces/http/middleware"
	apperrors "brand-studio-api/pkg/errors"
	"brand-studio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	cache       *redis.Cache
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, cache *redis.Cache) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		cache:       cache,
	}
}

// ListProjects 获取当前用户的项目列表
// @Summary 项目列表
// @Tags Projects
// @Produce json
// @Success 200 {object} dto.Response[[]dto.ProjectResponse]
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	pageReq := dto.BindPage(c)
	result, err := h.projectRepo.ListByOwner(ctx, userID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list projects", err)
		dto.InternalError(c, "failed to list projects")
		return
	}

	dto.SuccessWithPage(c, dto.ToProjectResponses(result.Items), dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	project, err := h.loadOwnedProject(ctx, projectID, userID)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	dto.Success(c, dto.ToProjectResponse(project))
}

// UpdateProject 更新项目元数据
// @Summary 更新项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path int true "项目ID"
// @Param body body dto.UpdateProjectRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Router /v1/projects/{pid} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := h.loadOwnedProject(ctx, projectID, userID)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = entity.ProjectStatus(*req.Status)
	}

	if err := h.projectRepo.Update(ctx, project); err != nil {
		logger.Error(ctx, "failed to update project", err, "project_id", projectID)
		dto.InternalError(c, "failed to update project")
		return
	}

	h.invalidate(ctx, projectID)
	dto.Success(c, dto.ToProjectResponse(project))
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	if _, err := h.loadOwnedProject(ctx, projectID, userID); err != nil {
		dto.Fail(c, err)
		return
	}

	if err := h.projectRepo.Delete(ctx, projectID); err != nil {
		logger.Error(ctx, "failed to delete project", err, "project_id", projectID)
		dto.InternalError(c, "failed to delete project")
		return
	}

	h.invalidate(ctx, projectID)
	dto.Success(c, gin.H{"deleted": true})
}

// loadOwnedProject 加载项目并校验归属。详情走读透缓存，
// 更新/删除后按 project:<pid>:* 模式失效。
func (h *ProjectHandler) loadOwnedProject(ctx context.Context, projectID int64, userID string) (*entity.Project, error) {
	if projectID <= 0 {
		return nil, apperrors.ErrInvalidParam
	}
	project, err := h.fetchProject(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to load project", err, "project_id", projectID)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load project")
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}
	if project.OwnerID != userID {
		return nil, apperrors.ErrForbidden
	}
	return project, nil
}

func (h *ProjectHandler) fetchProject(ctx context.Context, projectID int64) (*entity.Project, error) {
	if h.cache == nil {
		return h.projectRepo.GetByID(ctx, projectID)
	}
	raw, err := h.cache.GetOrLoadSafe(ctx, redis.ProjectDetailKey(projectID), redis.ReadThroughTTL, func() (interface{}, error) {
		project, loadErr := h.projectRepo.GetByID(ctx, projectID)
		if loadErr != nil {
			return nil, loadErr
		}
		if project == nil {
			return nil, apperrors.ErrProjectNotFound
		}
		return project, nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeProjectNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var project entity.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (h *ProjectHandler) invalidate(ctx context.Context, projectID int64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateProject(ctx, projectID); err != nil {
		logger.Warn(ctx, "failed to invalidate project cache", "error", err.Error())
	}
}
