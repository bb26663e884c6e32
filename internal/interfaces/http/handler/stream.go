package handler

import (
	"context"
	"encoding/json"
	"io"

	"brand-studio-api/internal/application/brand"
	"brand-studio-api/internal/application/funnel"
	"brand-studio-api/internal/application/session"
	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/interfaces/http/dto"
	"brand-studio-api/internal/interfaces/http/middleware"
	wfmodel "brand-studio-api/internal/workflow/model"
	apperrors "brand-studio-api/pkg/errors"
	"brand-studio-api/pkg/logger"
	"brand-studio-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StreamMessage 以 SSE 流式推进漏斗会话。
//
// 与 SendMessage 共享同一落地语义：用户轮次在流启动前持久化（事务 1），
// 生成增量经 Reconciler 按到达顺序落入 Turn Log，done 到达后关闭的
// 助手轮次在事务 2 中持久化。流式路径不执行建项动作——项目创建
// 必须走非流式的确认链路。
//
// 事件协议：content（文本增量）/ metadata（令牌、标记、附件）/
// error（传输失败）/ done（正常收尾）。客户端断开视为中断，
// 未关闭轮次连同部分文本一并丢弃。同一会话同一时刻最多一条活跃流：
// 后继流或非流式消息到达时本条流被取消，效果作废。
//
// @Summary 流式发送漏斗消息
// @Tags Funnel
// @Accept json
// @Produce text/event-stream
// @Param sid path string true "会话ID"
// @Param body body dto.SendFunnelMessageRequest true "消息内容"
// @Success 200 "SSE stream"
// @Router /v1/sessions/{sid}/stream [post]
func (h *FunnelHandler) StreamMessage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	sessionID := dto.BindSessionID(c)

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

	var sess *entity.ConversationSession
	var turns []*entity.ConversationTurn

	// 事务 1：锁定会话并持久化用户轮次
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
		turns = append(turns, userTurn)
		return nil
	}); err != nil {
		logger.Error(ctx, "failed to prepare stream", err, "session_id", sessionID)
		dto.Fail(c, err)
		return
	}

	generator, ok := h.generators[sess.Kind]
	if !ok {
		dto.Fail(c, apperrors.New(apperrors.CodeInternalError, "no generator for funnel kind"))
		return
	}

	funnel.TagAll(turns)
	stored := h.loadStoredProfile(ctx, sess)
	preState := buildFunnelState(sess, turns, stored, req.Selection, false)

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

	log := session.Restore(sessionID, turns)
	identity := session.NewIdentityManager(sess.Kind, sess)
	reconciler := session.NewReconciler(log, identity)

	// 全文到齐后补发一条 metadata：标记按固定文案补打，
	// 提供类标记缺附件时注入推荐批次，令牌首次生成时铸造。
	finalize := func(fullText string) *session.StreamMetadata {
		scratch := entity.NewConversationTurn(sessionID, entity.RoleAssistant, fullText, nil, entity.MarkerNone)
		marker := funnel.TagTurn(scratch)

		meta := &session.StreamMetadata{Marker: marker}
		if identity.Resolve().Token == "" {
			meta.SessionToken = uuid.NewString()
		}
		meta.Attachments = h.injectRecommendations(context.Background(), sess, turns, marker)
		return meta
	}

	bufSize := h.cfg.Funnel.StreamBufferSize
	if bufSize <= 0 {
		bufSize = 16
	}

	// 跨请求登记活跃流：同一会话的后继流或新消息通过取消中断本条流
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	if h.streams != nil {
		release := h.streams.Begin(sessionID, cancelStream)
		defer release()
	}

	events, err := generator.GenerateStream(streamCtx, input, finalize)
	if err != nil {
		logger.Error(ctx, "failed to open generation stream", err, "session_id", sessionID)
		dto.Fail(c, err)
		return
	}

	// 扇出：同一事件流既推给客户端又交给 Reconciler 落地
	sseCh := make(chan session.StreamEvent, bufSize)
	recCh := make(chan session.StreamEvent, bufSize)
	go func() {
		defer close(sseCh)
		defer close(recCh)
		for ev := range events {
			// 客户端断开或流被中断后两个消费者都会停读，带 ctx 退路避免悬挂
			select {
			case sseCh <- ev:
			case <-streamCtx.Done():
				return
			}
			select {
			case recCh <- ev:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	type reconcileOutcome struct {
		res *session.StreamResult
		err error
	}
	resCh := make(chan reconcileOutcome, 1)
	go func() {
		res, runErr := reconciler.Run(streamCtx, recCh)
		resCh <- reconcileOutcome{res: res, err: runErr}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	index := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sseCh:
			if !ok {
				return false
			}
			switch ev.Type {
			case session.StreamEventDelta:
				c.SSEvent("content", gin.H{
					"chunk": ev.Delta,
					"index": index,
				})
				index++
				return true
			case session.StreamEventMetadata:
				c.SSEvent("metadata", ev.Metadata)
				return true
			case session.StreamEventError:
				c.SSEvent("error", gin.H{
					"message": ev.ErrMsg,
				})
				return false
			case session.StreamEventDone:
				c.SSEvent("done", gin.H{})
				return false
			}
			return true

		case <-streamCtx.Done():
			// 客户端断开或流被取代：未关闭轮次随 Reconciler 取消一并丢弃
			return false
		}
	})

	outcome := <-resCh
	h.persistStreamResult(sess, identity, turns, outcome.res, outcome.err)
}

// persistStreamResult 将流式落地结果写回存储（事务 2）。
// 中断或首增量前失败不产生助手轮次，会话状态不变。
// 客户端可能已断开，持久化使用独立的后台上下文。
func (h *FunnelHandler) persistStreamResult(
	sess *entity.ConversationSession,
	identity *session.IdentityManager,
	turns []*entity.ConversationTurn,
	res *session.StreamResult,
	runErr error,
) {
	ctx := context.Background()

	if runErr != nil && res == nil {
		logger.Warn(ctx, "stream reconcile failed", "session_id", sess.ID, "error", runErr.Error())
		return
	}
	if res == nil || res.Turn == nil || res.Aborted {
		return
	}

	closed := res.Turn
	if closed.Marker == entity.MarkerNone {
		closed.Marker = funnel.TagTurn(closed)
	}

	if err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := h.sessionRepo.GetByIDForUpdate(txCtx, sess.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperrors.ErrSessionNotFound
		}

		// 流中铸造的令牌随快照写回会话
		identity.Snapshot(locked)
		if err := h.sessionRepo.Update(txCtx, locked); err != nil {
			return err
		}

		turn := entity.NewConversationTurn(sess.ID, entity.RoleAssistant, closed.Content, closed.Attachments, closed.Marker)
		if err := h.turnRepo.Create(txCtx, turn); err != nil {
			return err
		}

		if len(res.Profile) > 0 && locked.Kind == entity.ConversationKindBrand {
			if p, parseErr := brand.FromStructured(res.Profile); parseErr == nil && !p.IsZero() {
				if storeErr := h.profileStore.Set(txCtx, sess.ID, p); storeErr != nil {
					logger.Warn(txCtx, "failed to store profile", "error", storeErr.Error())
				}
			}
		}

		sess = locked
		return nil
	}); err != nil {
		logger.Error(ctx, "failed to persist stream result", err, "session_id", sess.ID)
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateSession(ctx, sess.ID); err != nil {
			logger.Warn(ctx, "failed to invalidate session cache", "error", err.Error())
		}
	}

	turns = append(turns, res.Turn)
	state := buildFunnelState(sess, turns, nil, nil, false)
	metrics.FunnelStageTransitions.WithLabelValues(string(sess.Kind), state.Stage).Inc()
}
