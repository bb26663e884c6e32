package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"brand-studio-api/internal/application/brand"
	"brand-studio-api/internal/application/funnel"
	"brand-studio-api/internal/application/generation"
	"brand-studio-api/internal/application/session"
	"brand-studio-api/internal/config"
	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/domain/repository"
	"brand-studio-api/internal/infrastructure/persistence/redis"
	"brand-studio-api/internal/interfaces/http/dto"
	"brand-studio-api/internal/interfaces/http/middleware"
	wfmodel "brand-studio-api/internal/workflow/model"
	apperrors "brand-studio-api/pkg/errors"
	"brand-studio-api/pkg/logger"
	"brand-studio-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FunnelHandler 漏斗会话处理器
type FunnelHandler struct {
	cfg *config.Config

	txMgr repository.Transactor

	sessionRepo repository.ConversationSessionRepository
	turnRepo    repository.ConversationTurnRepository
	projectRepo repository.ProjectRepository
	assetRepo   repository.SavedAssetRepository

	profileStore session.ProfileStore
	cache        *redis.Cache
	streams      *session.StreamRegistry

	generators map[entity.ConversationKind]*generation.FunnelGenerator
}

func NewFunnelHandler(
	cfg *config.Config,
	txMgr repository.Transactor,
	sessionRepo repository.ConversationSessionRepository,
	turnRepo repository.ConversationTurnRepository,
	projectRepo repository.ProjectRepository,
	assetRepo repository.SavedAssetRepository,
	profileStore session.ProfileStore,
	cache *redis.Cache,
	streams *session.StreamRegistry,
	generators map[entity.ConversationKind]*generation.FunnelGenerator,
) *FunnelHandler {
	return &FunnelHandler{
		cfg:          cfg,
		txMgr:        txMgr,
		sessionRepo:  sessionRepo,
		turnRepo:     turnRepo,
		projectRepo:  projectRepo,
		assetRepo:    assetRepo,
		profileStore: profileStore,
		cache:        cache,
		streams:      streams,
		generators:   generators,
	}
}

// CreateSession 创建漏斗会话
// @Summary 创建漏斗会话
// @Tags Funnel
// @Accept json
// @Produce json
// @Param body body dto.CreateConversationSessionRequest false "创建请求"
// @Success 201 {object} dto.Response[dto.ConversationSessionResponse]
// @Router /v1/sessions [post]
func (h *FunnelHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	var req dto.CreateConversationSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kind := entity.ConversationKind(req.Kind)
	if kind == "" {
		kind = entity.ConversationKindBrand
	}

	// logo/shorts 漏斗只能挂在已持久化项目下
	if kind != entity.ConversationKindBrand {
		if req.ProjectID == nil {
			dto.Fail(c, apperrors.ErrMissingIdentity)
			return
		}
		project, err := h.projectRepo.GetByID(ctx, *req.ProjectID)
		if err != nil {
			logger.Error(ctx, "failed to load project", err, "project_id", *req.ProjectID)
			dto.InternalError(c, "failed to create session")
			return
		}
		if project == nil || project.OwnerID != userID {
			dto.Fail(c, apperrors.ErrProjectNotFound)
			return
		}

		// 同一项目同一漏斗类型复用既有会话（直开场景）
		existing, err := h.sessionRepo.GetByProjectAndKind(ctx, *req.ProjectID, kind)
		if err != nil {
			logger.Error(ctx, "failed to look up project session", err)
			dto.InternalError(c, "failed to create session")
			return
		}
		if existing != nil && existing.UserID == userID {
			dto.Success(c, dto.ToConversationSessionResponse(existing))
			return
		}

		sess := entity.NewConversationSession(userID, kind)
		sess.BindProject(*req.ProjectID)
		if err := h.sessionRepo.Create(ctx, sess); err != nil {
			logger.Error(ctx, "failed to create session", err)
			dto.InternalError(c, "failed to create session")
			return
		}
		dto.Created(c, dto.ToConversationSessionResponse(sess))
		return
	}

	sess := entity.NewConversationSession(userID, kind)
	if err := h.sessionRepo.Create(ctx, sess); err != nil {
		logger.Error(ctx, "failed to create session", err)
		dto.InternalError(c, "failed to create session")
		return
	}

	dto.Created(c, dto.ToConversationSessionResponse(sess))
}

// GetSession 获取会话详情
func (h *FunnelHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	sessionID := dto.BindSessionID(c)

	sess, err := h.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	dto.Success(c, dto.ToConversationSessionResponse(sess))
}

// ListSessions 获取当前用户的会话列表
func (h *FunnelHandler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	pageReq := dto.BindPage(c)
	result, err := h.sessionRepo.ListByUser(ctx, userID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list sessions", err)
		dto.InternalError(c, "failed to list sessions")
		return
	}

	sessions := make([]*dto.ConversationSessionResponse, 0, len(result.Items))
	for i := range result.Items {
		sessions = append(sessions, dto.ToConversationSessionResponse(result.Items[i]))
	}

	dto.SuccessWithPage(c, sessions, dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// ListTurns 获取会话轮次历史
func (h *FunnelHandler) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	sessionID := dto.BindSessionID(c)

	if _, err := h.loadOwnedSession(ctx, sessionID, userID); err != nil {
		dto.Fail(c, err)
		return
	}

	pageReq := dto.BindPage(c)
	result, err := h.loadTurnPage(ctx, sessionID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list turns", err)
		dto.InternalError(c, "failed to list turns")
		return
	}

	turns := make([]*dto.ConversationTurnResponse, 0, len(result.Items))
	for i := range result.Items {
		turns = append(turns, dto.ToConversationTurnResponse(result.Items[i]))
	}

	dto.SuccessWithPage(c, &dto.ConversationTurnListResponse{Turns: turns}, dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// GetState 从 Turn Log 重算当前漏斗状态。
// 纯读路径：不加锁、不产生写入，任意时刻可重复调用且结果一致。
// @Summary 查询漏斗状态
// @Tags Funnel
// @Produce json
// @Param sid path string true "会话ID"
// @Param selection query int false "推荐批次内的本地选择下标"
// @Success 200 {object} dto.Response[dto.FunnelStateOnlyResponse]
// @Router /v1/sessions/{sid}/state [get]
func (h *FunnelHandler) GetState(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	sessionID := dto.BindSessionID(c)

	sess, err := h.loadOwnedSession(ctx, sessionID, userID)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	turns, err := h.turnRepo.ListAllBySession(ctx, sessionID)
	if err != nil {
		logger.Error(ctx, "failed to load turns", err)
		dto.InternalError(c, "failed to load state")
		return
	}

	var selection *int
	if raw := strings.TrimSpace(c.Query("selection")); raw != "" {
		if idx, convErr := strconv.Atoi(raw); convErr == nil {
			selection = &idx
		}
	}

	stored := h.loadStoredProfile(ctx, sess)
	streaming := h.streams != nil && h.streams.Active(sessionID)

	dto.Success(c, &dto.FunnelStateOnlyResponse{
		Session: dto.ToConversationSessionResponse(sess),
		State:   buildFunnelState(sess, turns, stored, selection, streaming),
	})
}

// SendMessage 处理漏斗消息，驱动会话状态机流转。
//
// 核心流程：
// 1. **参数解析与校验**: 获取用户 ID，解析请求体，确定使用的 LLM 模型。
// 2. **预处理 (事务 1)**:
//   - 锁定 Session 行 (GetByIDForUpdate) 并校验归属。
//   - 持久化用户输入轮次，确保即使后续 LLM 失败，用户的发言也被记录。
//   - 加载全量轮次重建 Turn Log，推导当前阶段作为生成输入。
//
// 3. **LLM 生成 (非事务)**:
//   - 调用 generator.Generate。耗时较长，必须在数据库事务之外执行，
//     避免阻塞连接池。
//
// 4. **后处理 (事务 2)**:
//   - 再次锁定 Session。
//   - **动作执行**: 模型宣称 create_project 时先过确定性门控，
//     未通过则降级为 propose_creation，防止幻觉误建项目。
//   - 结构化画像入库；提供类轮次缺附件时注入推荐批次。
//   - 持久化助手轮次（带标记与附件）。
//
// @Summary 发送漏斗消息
// @Tags Funnel
// @Accept json
// @Produce json
// @Param sid path string true "会话ID"
// @Param body body dto.SendFunnelMessageRequest true "消息内容"
// @Success 200 {object} dto.Response[dto.SendFunnelMessageResponse]
// @Router /v1/sessions/{sid}/messages [post]
func (h *FunnelHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	sessionID := dto.BindSessionID(c)

	// 1. 参数绑定与模型解析
	var req dto.SendFunnelMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	// 新消息使同一会话未收尾流的效果作废
	if h.streams != nil {
		h.streams.CancelActive(sessionID)
	}

	var sess *entity.ConversationSession
	var turns []*entity.ConversationTurn
	var userTurnID string

	// 2. 预处理事务：锁定会话并保存用户消息
	if err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		var loadErr error
		sess, loadErr = h.sessionRepo.GetByIDForUpdate(txCtx, sessionID)
		if loadErr != nil {
			return loadErr
		}
		if sess == nil {
			return apperrors.ErrSessionNotFound
		}
		if sess.UserID != userID {
			return apperrors.ErrForbidden
		}
		// logo/shorts 漏斗要求已持久化项目
		if sess.Kind != entity.ConversationKindBrand && sess.ProjectID == nil {
			return apperrors.ErrMissingIdentity
		}

		turns, loadErr = h.turnRepo.ListAllBySession(txCtx, sessionID)
		if loadErr != nil {
			return loadErr
		}

		userTurn := entity.NewConversationTurn(sessionID, entity.RoleUser, req.Prompt, nil, entity.MarkerNone)
		if err := h.turnRepo.Create(txCtx, userTurn); err != nil {
			return err
		}
		userTurnID = userTurn.ID
		turns = append(turns, userTurn)
		return nil
	}); err != nil {
		logger.Error(ctx, "failed to prepare message", err, "session_id", sessionID)
		dto.Fail(c, err)
		return
	}

	generator, ok := h.generators[sess.Kind]
	if !ok {
		dto.Fail(c, apperrors.New(apperrors.CodeInternalError, "no generator for funnel kind"))
		return
	}

	// 满意度追问的答复在服务端分类并记录。
	// 判定不明时不叫模型猜测：携 AmbiguousInput 返回，客户端重发同一追问，
	// 阶段停留在 satisfaction_pending。
	funnel.TagAll(turns)
	if sess.Kind == entity.ConversationKindShorts {
		if prev := lastAssistantTurn(turns[:len(turns)-1]); prev != nil && prev.Marker == entity.MarkerSatisfactionAsk {
			verdict := funnel.ClassifySatisfaction(req.Prompt)
			metrics.SatisfactionVerdicts.WithLabelValues(string(verdict)).Inc()
			if verdict == funnel.VerdictUnknown {
				dto.Fail(c, apperrors.New(apperrors.CodeAmbiguousInput,
					"만족 여부를 파악하지 못했습니다. 같은 질문에 다시 답해주세요."))
				return
			}
		}
	}

	// 客户端直传的结构化画像优先入库
	stored := h.loadStoredProfile(ctx, sess)
	if sess.Kind == entity.ConversationKindBrand && len(req.Profile) > 0 {
		if p, parseErr := brand.FromStructured(req.Profile); parseErr != nil {
			dto.BadRequest(c, "invalid profile payload: "+parseErr.Error())
			return
		} else if !p.IsZero() {
			if storeErr := h.profileStore.Set(ctx, sessionID, p); storeErr != nil {
				logger.Warn(ctx, "failed to store profile", "error", storeErr.Error())
			}
			stored = p
		}
	}

	preState := buildFunnelState(sess, turns, stored, req.Selection, false)

	// 3. LLM 生成（无事务，耗时操作）
	profileJSON, _ := json.Marshal(brand.UnifiedView(effectiveProfile(turns, stored)))
	input := &wfmodel.FunnelGenerateInput{
		Kind:        string(sess.Kind),
		Stage:       preState.Stage,
		Profile:     profileJSON,
		Prompt:      req.Prompt,
		History:     toHistoryTurns(turns[:len(turns)-1]),
		Attachments: req.ToWorkflowAttachments(),
		Provider:    provider,
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	start := time.Now()
	out, err := generator.Generate(ctx, input)
	durationMs := int(time.Since(start).Milliseconds())

	if err != nil {
		logger.Error(ctx, "funnel generation failed", err, "session_id", sessionID, "kind", string(sess.Kind))
		dto.Fail(c, err)
		return
	}

	// 4. 后处理事务：执行动作并保存结果
	var assistantTurnID string
	var marker entity.TurnMarker
	var attachments []entity.AssetRef

	if err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		// 再次锁定会话（跨事务需重新获取锁）
		var loadErr error
		sess, loadErr = h.sessionRepo.GetByIDForUpdate(txCtx, sessionID)
		if loadErr != nil {
			return loadErr
		}
		if sess == nil {
			return apperrors.ErrSessionNotFound
		}

		identity := session.NewIdentityManager(sess.Kind, sess)
		marker = entity.TurnMarker(out.Marker)
		attachments = toAssetRefs(out.Attachments)

		// 生成器返回的结构化画像入库；项目已持久化时同步回写
		if sess.Kind == entity.ConversationKindBrand && len(out.Profile) > 0 {
			if p, parseErr := brand.FromStructured(out.Profile); parseErr == nil && !p.IsZero() {
				stored = p
				if storeErr := h.profileStore.Set(txCtx, sessionID, p); storeErr != nil {
					logger.Warn(txCtx, "failed to store profile", "error", storeErr.Error())
				}
				if sess.ProjectID != nil {
					if updErr := h.projectRepo.UpdateProfile(txCtx, *sess.ProjectID, p); updErr != nil {
						return updErr
					}
				}
			}
		}

		// 草稿项目元数据跟随最新提议
		if out.ProposedProject != nil && sess.ProjectID == nil {
			identity.UpdateDraft(out.ProposedProject.Name, out.ProposedProject.Description)
		}

		// 处理“创建项目”动作
		if out.Action == "create_project" {
			// **关键安全检查**：确定性门控。
			// 即使 LLM 认为应该创建项目，也必须在用户输入中检出明确的确认意图，
			// 防止模型在用户只是询问细节时误触发建项。
			d := funnel.DeriveBrand(turns[:len(turns)-1], stored, false)
			gateOpen := sess.Kind == entity.ConversationKindBrand &&
				sess.ProjectID == nil &&
				(d.Stage == funnel.BrandStageReadyToConfirm || d.Stage == funnel.BrandStageAwaitingCreateConfirmation) &&
				out.ProposedProject != nil &&
				isDeterministicCreateConfirm(req.Prompt)

			if !gateOpen {
				// 未通过确认检查：降级为“提议创建”
				out.Action = "propose_creation"
				out.RequiresConfirmation = true
				out.AssistantMessage = strings.TrimSpace(out.AssistantMessage +
					"\n\n(프로젝트가 아직 생성되지 않았습니다. 생성을 원하시면 \"생성해줘\"라고 답해주세요.)")
				if marker == entity.MarkerProjectCreated {
					marker = entity.MarkerNone
				}
			} else {
				// 通过确认检查：持久化项目并一次性绑定会话
				project := entity.NewProject(userID, out.ProposedProject.Name, out.ProposedProject.Description, effectiveProfile(turns, stored))
				if err := h.projectRepo.Create(txCtx, project); err != nil {
					return err
				}
				// 服务端未铸造规范令牌时回退使用十进制项目 ID
				if err := identity.Promote(project.ID, ""); err != nil {
					return err
				}
				sess.BindProject(project.ID)
				marker = entity.MarkerProjectCreated
				metrics.ProjectsCreated.Inc()

				logger.Info(txCtx, "project persisted from funnel",
					"project_id", project.ID, "session_id", sessionID)
			}
		}

		// 首次成功生成时铸造会话令牌
		if identity.Resolve().Token == "" {
			identity.MintToken(uuid.NewString())
		}

		// 提供类轮次缺附件时由服务端注入推荐批次
		if len(attachments) == 0 {
			attachments = h.injectRecommendations(txCtx, sess, turns, marker)
		}

		identity.Snapshot(sess)
		if err := h.sessionRepo.Update(txCtx, sess); err != nil {
			return err
		}

		// 保存助手轮次
		assistantTurn := entity.NewConversationTurn(sessionID, entity.RoleAssistant, out.AssistantMessage, attachments, marker)
		meta, _ := json.Marshal(map[string]any{
			"action":                out.Action,
			"requires_confirmation": out.RequiresConfirmation,
			"usage":                 out.Meta,
			"duration_ms":           durationMs,
		})
		assistantTurn.Metadata = meta
		if err := h.turnRepo.Create(txCtx, assistantTurn); err != nil {
			return err
		}
		assistantTurnID = assistantTurn.ID
		turns = append(turns, assistantTurn)
		return nil
	}); err != nil {
		logger.Error(ctx, "failed to persist funnel state", err, "session_id", sessionID)
		dto.Fail(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateSession(ctx, sessionID); err != nil {
			logger.Warn(ctx, "failed to invalidate session cache", "error", err.Error())
		}
	}

	state := buildFunnelState(sess, turns, stored, req.Selection, false)
	metrics.FunnelStageTransitions.WithLabelValues(string(sess.Kind), state.Stage).Inc()

	dto.Success(c, &dto.SendFunnelMessageResponse{
		Session:          dto.ToConversationSessionResponse(sess),
		UserTurnID:       userTurnID,
		AssistantTurnID:  assistantTurnID,
		AssistantMessage: out.AssistantMessage,
		Marker:           string(marker),
		Attachments:      dto.ToAssetRefResponses(attachments),
		State:            state,
		Usage: &dto.UsageResponse{
			Provider:         out.Meta.Provider,
			Model:            out.Meta.Model,
			PromptTokens:     out.Meta.PromptTokens,
			CompletionTokens: out.Meta.CompletionTokens,
			GeneratedAt:      out.Meta.GeneratedAt.Format(time.RFC3339),
			DurationMs:       durationMs,
		},
	})
}

// injectRecommendations 为提供类标记的助手轮次挑选候选资产。
// type/style/refine 从配置池播种采样；refine 排除上一批已展示的候选。
// logo 列表提供从项目已保存的 logo 资产中取。
func (h *FunnelHandler) injectRecommendations(
	ctx context.Context,
	sess *entity.ConversationSession,
	turns []*entity.ConversationTurn,
	marker entity.TurnMarker,
) []entity.AssetRef {
	switch marker {
	case entity.MarkerTypeOffer, entity.MarkerStyleOffer, entity.MarkerRefineOffer:
		pool := recommendationPool(h.cfg, poolKeyForMarker(marker))
		if len(pool) == 0 {
			return nil
		}
		var exclude map[string]bool
		if marker == entity.MarkerRefineOffer {
			if d := funnel.DeriveLogo(turns); d.Batch != nil {
				exclude = d.Batch.IDSet()
			}
		}
		batch := funnel.SampleBatch(sess.ID, string(marker), pool, exclude)
		if batch == nil {
			return nil
		}
		return batch.Items

	case entity.MarkerLogoListOffer:
		if sess.ProjectID == nil {
			return nil
		}
		result, err := h.assetRepo.ListByProject(ctx, *sess.ProjectID, entity.AssetKindLogo, repository.NewPagination(1, funnel.BatchSize))
		if err != nil {
			logger.Warn(ctx, "failed to load saved logos", "error", err.Error())
			return nil
		}
		refs := make([]entity.AssetRef, 0, len(result.Items))
		for _, asset := range result.Items {
			refs = append(refs, entity.AssetRef{ID: asset.ID, URI: asset.URI})
		}
		return refs

	default:
		return nil
	}
}

// loadOwnedSession 加载会话并校验归属。读路径走 Redis 读透缓存，
// 消息写路径在事务提交后按 session:<sid>:* 模式失效。
func (h *FunnelHandler) loadOwnedSession(ctx context.Context, sessionID, userID string) (*entity.ConversationSession, error) {
	sess, err := h.fetchSession(ctx, sessionID)
	if err != nil {
		logger.Error(ctx, "failed to load session", err, "session_id", sessionID)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load session")
	}
	if sess == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	if sess.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return sess, nil
}

func (h *FunnelHandler) fetchSession(ctx context.Context, sessionID string) (*entity.ConversationSession, error) {
	if h.cache == nil {
		return h.sessionRepo.GetByID(ctx, sessionID)
	}
	raw, err := h.cache.GetOrLoadSafe(ctx, redis.SessionDetailKey(sessionID), redis.ReadThroughTTL, func() (interface{}, error) {
		sess, loadErr := h.sessionRepo.GetByID(ctx, sessionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if sess == nil {
			// 未命中不入缓存，避免新会话被负缓存挡住
			return nil, apperrors.ErrSessionNotFound
		}
		return sess, nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var sess entity.ConversationSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// loadTurnPage 轮次分页读透缓存；轮次只增不改，失效由消息写路径触发
func (h *FunnelHandler) loadTurnPage(ctx context.Context, sessionID string, p repository.Pagination) (*repository.PagedResult[*entity.ConversationTurn], error) {
	if h.cache == nil {
		return h.turnRepo.ListBySession(ctx, sessionID, p)
	}
	raw, err := h.cache.GetOrLoadSafe(ctx, redis.SessionTurnsKey(sessionID, p.Page, p.PageSize), redis.ReadThroughTTL, func() (interface{}, error) {
		return h.turnRepo.ListBySession(ctx, sessionID, p)
	})
	if err != nil {
		return nil, err
	}
	var result repository.PagedResult[*entity.ConversationTurn]
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// loadStoredProfile 读取会话级结构化画像；品牌漏斗之外恒为 nil
func (h *FunnelHandler) loadStoredProfile(ctx context.Context, sess *entity.ConversationSession) *entity.BrandProfile {
	if sess.Kind != entity.ConversationKindBrand || h.profileStore == nil {
		return nil
	}
	stored, err := h.profileStore.Get(ctx, sess.ID)
	if err != nil {
		logger.Warn(ctx, "failed to load stored profile", "error", err.Error())
		return nil
	}
	return stored
}

// toHistoryTurns 以最小结构携带历史轮次供 Prompt 渲染
func toHistoryTurns(turns []*entity.ConversationTurn) []*wfmodel.FunnelHistoryTurn {
	out := make([]*wfmodel.FunnelHistoryTurn, 0, len(turns))
	for _, turn := range turns {
		out = append(out, &wfmodel.FunnelHistoryTurn{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return out
}

func lastAssistantTurn(turns []*entity.ConversationTurn) *entity.ConversationTurn {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == entity.RoleAssistant {
			return turns[i]
		}
	}
	return nil
}
