// Package generation 封装漏斗生成调用：Prompt 渲染 -> LLM 调用 -> 信封解析。
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	workflowchain "brand-studio-api/internal/workflow/chain"
	wfmodel "brand-studio-api/internal/workflow/model"
	wfnode "brand-studio-api/internal/workflow/node"
	workflowport "brand-studio-api/internal/workflow/port"
	apperrors "brand-studio-api/pkg/errors"
	"brand-studio-api/pkg/logger"
	"brand-studio-api/pkg/metrics"
)

// funnelLLMEnvelope 用于解析 LLM 返回的 JSON 结构的信封
type funnelLLMEnvelope struct {
	AssistantMessage     string                       `json:"assistant_message"`
	Marker               string                       `json:"marker"`
	Profile              json.RawMessage              `json:"profile,omitempty"`
	Attachments          []wfmodel.FunnelAssetDraft   `json:"attachments,omitempty"`
	Action               string                       `json:"action"`
	RequiresConfirmation bool                         `json:"requires_confirmation"`
	Project              *wfmodel.FunnelProjectDraft  `json:"project,omitempty"`
}

// FunnelGenerator 为单个漏斗类型持有编排链与模型工厂
type FunnelGenerator struct {
	kind    string
	chain   *workflowchain.FunnelChain
	factory workflowport.ChatModelFactory
}

func NewFunnelGenerator(factory workflowport.ChatModelFactory, kind string) *FunnelGenerator {
	return &FunnelGenerator{
		kind:    strings.TrimSpace(kind),
		chain:   workflowchain.NewFunnelChain(factory, kind),
		factory: factory,
	}
}

func (g *FunnelGenerator) Kind() string { return g.kind }

// Generate 执行一次非流式生成并解析信封
func (g *FunnelGenerator) Generate(ctx context.Context, in *wfmodel.FunnelGenerateInput) (*wfmodel.FunnelGenerateOutput, error) {
	if g == nil || g.chain == nil {
		return nil, fmt.Errorf("funnel workflow not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	start := time.Now()
	outMsg, err := g.chain.Invoke(ctx, in)
	observeGeneration(g.kind, start, err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "生成调用失败")
	}
	if outMsg == nil {
		return nil, apperrors.New(apperrors.CodeLLMCallFailed, "生成结果为空")
	}

	raw := wfnode.ExtractJSONObject(outMsg.Content)
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.New(apperrors.CodeLLMCallFailed, "生成结果为空")
	}

	var env funnelLLMEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		logger.Error(ctx, "failed to unmarshal funnel output", err, "kind", g.kind, "raw", wfnode.TruncateByRunes(raw, 500))
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "生成结果格式无效")
	}

	meta := wfmodel.LLMUsageMeta{Provider: strings.TrimSpace(in.Provider), Model: strings.TrimSpace(in.Model), GeneratedAt: time.Now().UTC()}
	if in.Temperature != nil {
		meta.Temperature = float64(*in.Temperature)
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		meta.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
	}

	return &wfmodel.FunnelGenerateOutput{
		AssistantMessage:     strings.TrimSpace(env.AssistantMessage),
		Marker:               strings.TrimSpace(env.Marker),
		Profile:              env.Profile,
		Attachments:          env.Attachments,
		Action:               strings.TrimSpace(env.Action),
		RequiresConfirmation: env.RequiresConfirmation,
		ProposedProject:      env.Project,
		Meta:                 meta,
	}, nil
}

func observeGeneration(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FunnelGenerationTotal.WithLabelValues(kind, status).Inc()
	metrics.FunnelGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
