package funnel

import (
	"brand-studio-api/internal/domain/entity"
)

// ShortsStage 短视频漏斗阶段
type ShortsStage string

const (
	ShortsStageIntentPending       ShortsStage = "intent_pending"
	ShortsStageContentCaptured     ShortsStage = "content_captured"
	ShortsStageLogoChoicePending   ShortsStage = "logo_choice_pending"
	ShortsStageLogoListOffered     ShortsStage = "logo_list_offered"
	ShortsStageLogoPicked          ShortsStage = "logo_picked"
	ShortsStageNoLogoChosen        ShortsStage = "no_logo_chosen"
	ShortsStageGenerating          ShortsStage = "generating"
	ShortsStageSatisfactionPending ShortsStage = "satisfaction_pending"
	ShortsStageAccepted            ShortsStage = "accepted"
	ShortsStageRegenerating        ShortsStage = "regenerating"
)

// ShortsDerivation 短视频漏斗的一次推导结果
type ShortsDerivation struct {
	Stage ShortsStage `json:"stage"`
	// Batch logo 挑选阶段的活跃批次
	Batch *RecommendationBatch `json:"batch,omitempty"`
	// Verdict 满意度追问的判定（进入满意度子状态时有效）
	Verdict Verdict `json:"verdict,omitempty"`
	// Video 已生成的短视频资产
	Video []entity.AssetRef `json:"video,omitempty"`
}

// DeriveShorts 从 Turn Log 重算短视频漏斗阶段。
// streaming 表示当前存在活跃生成流（显式“生成中”阶段值，不阻塞读取）。
// 满意度子状态仅当最近的带附件助手轮次带满意度追问标记
// 且其后尚无用户轮次时进入；用户已答复则按判定解析，
// Unknown 重新停在追问（引擎随后重发同一问题而不是猜测）。
func DeriveShorts(turns []*entity.ConversationTurn, streaming bool) *ShortsDerivation {
	TagAll(turns)
	d := &ShortsDerivation{Stage: ShortsStageIntentPending}

	if streaming {
		d.Stage = ShortsStageGenerating
		return d
	}

	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		if turn.Role != entity.RoleAssistant {
			continue
		}

		switch {
		case turn.Marker == entity.MarkerSatisfactionAsk && turn.HasAttachments():
			return deriveSatisfaction(turns, i, d)

		case turn.Marker == entity.MarkerLogoListOffer:
			d.Batch = RecoverBatch(turn)
			if userReplyAfter(turns, i) == nil {
				d.Stage = ShortsStageLogoListOffered
			} else {
				d.Stage = ShortsStageLogoPicked
			}
			return d

		case turn.Marker == entity.MarkerLogoChoiceAsk:
			reply := userReplyAfter(turns, i)
			if reply == nil {
				d.Stage = ShortsStageLogoChoicePending
				return d
			}
			if ClassifySatisfaction(reply.Content) == VerdictNegative {
				d.Stage = ShortsStageNoLogoChosen
				return d
			}
			// 肯定答复后等待 logo 列表提供轮次到达
			d.Stage = ShortsStageLogoChoicePending
			return d

		case turn.HasAttachments():
			// 生成已发生且对话已推进：默认视为已接受
			d.Stage = ShortsStageAccepted
			d.Video = turn.Attachments
			return d
		}
	}

	if hasUserTurn(turns) {
		d.Stage = ShortsStageContentCaptured
	}
	return d
}

// deriveSatisfaction 解析满意度追问之后的用户答复
func deriveSatisfaction(turns []*entity.ConversationTurn, askIndex int, d *ShortsDerivation) *ShortsDerivation {
	d.Video = turns[askIndex].Attachments

	reply := userReplyAfter(turns, askIndex)
	if reply == nil {
		d.Stage = ShortsStageSatisfactionPending
		return d
	}

	d.Verdict = ClassifySatisfaction(reply.Content)
	switch d.Verdict {
	case VerdictPositive:
		d.Stage = ShortsStageAccepted
	case VerdictNegative:
		d.Stage = ShortsStageRegenerating
	default:
		// 判定不明：停在追问，由引擎重发同一问题
		d.Stage = ShortsStageSatisfactionPending
	}
	return d
}

func userReplyAfter(turns []*entity.ConversationTurn, index int) *entity.ConversationTurn {
	for i := index + 1; i < len(turns); i++ {
		if turns[i].Role == entity.RoleUser {
			return turns[i]
		}
	}
	return nil
}

func hasUserTurn(turns []*entity.ConversationTurn) bool {
	for _, t := range turns {
		if t.Role == entity.RoleUser {
			return true
		}
	}
	return false
}
