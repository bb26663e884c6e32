package handler

import (
	"fmt"
	"path"
	"strings"

	"brand-studio-api/internal/application/brand"
	"brand-studio-api/internal/application/funnel"
	"brand-studio-api/internal/config"
	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/interfaces/http/dto"
	wfmodel "brand-studio-api/internal/workflow/model"
)

// resolveProviderModel 解析 LLM Provider 和 Model
func resolveProviderModel(cfg *config.Config, provider, model string) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("server config not configured")
	}

	p := strings.TrimSpace(provider)
	if p == "" {
		p = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	if p == "" {
		return "", "", fmt.Errorf("llm provider not specified")
	}
	if len(p) > 32 {
		return "", "", fmt.Errorf("llm provider too long")
	}

	providerCfg, ok := cfg.LLM.Providers[p]
	if !ok {
		return "", "", fmt.Errorf("llm provider not found: %s", p)
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = strings.TrimSpace(providerCfg.Model)
	}
	if len(m) > 64 {
		return "", "", fmt.Errorf("llm model too long")
	}
	return p, m, nil
}

// isDeterministicCreateConfirm 判断用户输入是否构成明确的“确认创建”意图。
// 模型宣称 create_project 动作并不可信：只有本函数通过时才允许真实建项。
// 否定词优先于肯定词匹配。
func isDeterministicCreateConfirm(prompt string) bool {
	p := strings.ToLower(strings.TrimSpace(prompt))
	if p == "" {
		return false
	}

	// 明确否定优先
	for _, kw := range []string{
		"만들지 마", "만들지마", "생성하지 마", "생성하지마", "취소", "아직", "나중에", "필요 없", "필요없", "아니요", "아니오",
		"不创建", "不要创建", "别创建", "取消", "暂不",
	} {
		if strings.Contains(p, kw) {
			return false
		}
	}

	// 明确创建/确认意图
	for _, kw := range []string{
		"생성해", "생성할게", "생성해줘", "만들어줘", "만들어 줘", "프로젝트 생성", "프로젝트 만들", "확인했어", "진행해",
		"confirm", "create project", "create",
	} {
		if strings.Contains(p, kw) {
			return true
		}
	}

	// 允许极短确认（仅在确认阶段才会走到这里）
	switch strings.Trim(p, " \t\r\n。．.！!？?，,;；:：") {
	case "네", "예", "응", "좋아", "좋아요", "그래", "확인", "동의", "ok", "okay", "yes", "y":
		return true
	default:
		return false
	}
}

// recommendationPool 将配置的 URI 池转换为资产引用列表。
// 引用 ID 取 URI 末段，保证同一池内可做排重与排除。
func recommendationPool(cfg *config.Config, key string) []entity.AssetRef {
	if cfg == nil {
		return nil
	}
	uris := cfg.Funnel.RecommendationPool[key]
	refs := make([]entity.AssetRef, 0, len(uris))
	for _, uri := range uris {
		uri = strings.TrimSpace(uri)
		if uri == "" {
			continue
		}
		refs = append(refs, entity.AssetRef{ID: path.Base(uri), URI: uri})
	}
	return refs
}

// poolKeyForMarker 提供类标记到推荐池键的映射
func poolKeyForMarker(marker entity.TurnMarker) string {
	switch marker {
	case entity.MarkerTypeOffer:
		return "logo_type"
	case entity.MarkerStyleOffer, entity.MarkerRefineOffer:
		return "logo_style"
	default:
		return ""
	}
}

// buildFunnelState 从 Turn Log 重算漏斗状态快照。
// storedProfile 为会话级结构化画像（结构化数据可用时优先于对话推断），
// selection 为客户端本地选择下标（仅影响 logo 漏斗的 Chosen 子阶段），
// streaming 表示当前存在活跃生成流（仅影响 shorts 漏斗）。
func buildFunnelState(
	sess *entity.ConversationSession,
	turns []*entity.ConversationTurn,
	storedProfile *entity.BrandProfile,
	selection *int,
	streaming bool,
) *dto.FunnelStateResponse {
	state := &dto.FunnelStateResponse{
		Kind:         string(sess.Kind),
		ProjectID:    sess.ProjectID,
		SessionToken: sess.SessionToken,
	}

	switch sess.Kind {
	case entity.ConversationKindLogo:
		d := funnel.DeriveLogo(turns)
		stage := d.Stage
		if selection != nil {
			stage = d.WithSelection(*selection)
		}
		state.Stage = string(stage)
		if d.Batch != nil {
			state.Recommendations = dto.ToAssetRefResponses(d.Batch.Items)
		}
		if len(d.Final) > 0 {
			final := dto.AssetRefResponse{ID: d.Final[0].ID, URI: d.Final[0].URI}
			state.Final = &final
		}

	case entity.ConversationKindShorts:
		d := funnel.DeriveShorts(turns, streaming)
		state.Stage = string(d.Stage)
		if d.Batch != nil {
			state.Recommendations = dto.ToAssetRefResponses(d.Batch.Items)
		}
		if len(d.Video) > 0 {
			final := dto.AssetRefResponse{ID: d.Video[0].ID, URI: d.Video[0].URI}
			state.Final = &final
		}

	default:
		// 结构化画像直接进入推导：阶段与 required_complete 同源
		d := funnel.DeriveBrand(turns, storedProfile, false)
		state.Stage = string(d.Stage)
		state.Profile = brand.UnifiedView(d.Profile)
		state.Progress = &dto.ProgressResponse{
			Answered: d.Progress.Answered,
			Total:    d.Progress.Total,
			Ratio:    d.Progress.Ratio,
		}
		state.RequiredComplete = d.RequiredComplete
		state.AllComplete = d.AllComplete
	}

	return state
}

// effectiveProfile 解析会话当前生效的品牌画像：
// 结构化画像非空时优先，否则回退对话推断。
func effectiveProfile(turns []*entity.ConversationTurn, stored *entity.BrandProfile) *entity.BrandProfile {
	if stored != nil && !stored.IsZero() {
		return stored
	}
	return brand.ExtractInferred(turns)
}

// toAssetRefs 将生成器产出的资产草稿转换为领域引用
func toAssetRefs(drafts []wfmodel.FunnelAssetDraft) []entity.AssetRef {
	refs := make([]entity.AssetRef, 0, len(drafts))
	for _, d := range drafts {
		refs = append(refs, entity.AssetRef{ID: d.ID, URI: d.URI})
	}
	return refs
}
