package funnel

import (
	"brand-studio-api/internal/domain/entity"
)

// LogoStage logo 漏斗阶段
type LogoStage string

const (
	LogoStageTypeSelect           LogoStage = "type_select"
	LogoStageStyleOffered         LogoStage = "style_offered"
	LogoStageStyleChosen          LogoStage = "style_chosen"
	LogoStageRefineOffered        LogoStage = "refine_offered"
	LogoStageRefineChosen         LogoStage = "refine_chosen"
	LogoStageExtraDetailRequested LogoStage = "extra_detail_requested"
	LogoStageGenerated            LogoStage = "generated"
)

// LogoDerivation logo 漏斗的一次推导结果
type LogoDerivation struct {
	Stage LogoStage `json:"stage"`
	// Batch 当前活跃的推荐批次，从提供轮次的附件恢复；无法恢复时为 nil
	Batch *RecommendationBatch `json:"batch,omitempty"`
	// OfferTurn 产生当前批次的提供轮次
	OfferTurn *entity.ConversationTurn `json:"-"`
	// Final 终态时的最终 logo 资产
	Final []entity.AssetRef `json:"final,omitempty"`
}

// DeriveLogo 从 Turn Log 重算 logo 漏斗阶段。
// 判定优先级（首个命中生效，从最近的匹配助手轮次向前扫描）：
//  1. 最近的带附件助手轮次不带任何提供类标记 → Generated（最终 logo）
//  2. 最近的助手轮次带“追加细节”标记且其后无带附件轮次 → ExtraDetailRequested
//  3. 带附件轮次标记为 refine_offer → RefineOffered，附件恢复为活跃批次
//  4. 标记为 style_offer → StyleOffered，同上
//  5. 存在类型提供轮次且未推进到后续阶段 → TypeSelect
//
// Chosen 子阶段只依赖未持久化的本地选择，经由 WithSelection 叠加，
// 重载后安全回落到对应的 Offered 阶段。
func DeriveLogo(turns []*entity.ConversationTurn) *LogoDerivation {
	TagAll(turns)
	d := &LogoDerivation{Stage: LogoStageTypeSelect}

	// 追加细节请求：最近助手轮次带该标记且其后没有生成结果
	if last := lastAssistant(turns); last != nil && last.Marker == entity.MarkerExtraDetailAsk {
		d.Stage = LogoStageExtraDetailRequested
		return d
	}

	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		if turn.Role != entity.RoleAssistant || !turn.HasAttachments() {
			continue
		}

		switch turn.Marker {
		case entity.MarkerRefineOffer:
			d.Stage = LogoStageRefineOffered
			d.Batch = RecoverBatch(turn)
			d.OfferTurn = turn
		case entity.MarkerStyleOffer:
			d.Stage = LogoStageStyleOffered
			d.Batch = RecoverBatch(turn)
			d.OfferTurn = turn
		case entity.MarkerTypeOffer:
			d.Stage = LogoStageTypeSelect
			d.Batch = RecoverBatch(turn)
			d.OfferTurn = turn
		default:
			// 不带提供类标记的附件轮次即最终生成结果
			d.Stage = LogoStageGenerated
			d.Final = turn.Attachments
		}
		return d
	}

	return d
}

// WithSelection 叠加本地选择，将 Offered 升格为对应的 Chosen 子阶段。
// 选择是纯本地瞬态：推导本身永不产出 Chosen。
func (d *LogoDerivation) WithSelection(index int) LogoStage {
	if d == nil || d.Batch == nil || !d.Batch.Choose(index) {
		return d.Stage
	}
	switch d.Stage {
	case LogoStageStyleOffered:
		return LogoStageStyleChosen
	case LogoStageRefineOffered:
		return LogoStageRefineChosen
	default:
		return d.Stage
	}
}

func lastAssistant(turns []*entity.ConversationTurn) *entity.ConversationTurn {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == entity.RoleAssistant {
			return turns[i]
		}
	}
	return nil
}
