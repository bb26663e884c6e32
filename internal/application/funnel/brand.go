package funnel

import (
	"brand-studio-api/internal/application/brand"
	"brand-studio-api/internal/domain/entity"
)

// BrandStage 品牌介入漏斗阶段，按序排列，终态在后
type BrandStage string

const (
	BrandStageCollecting                 BrandStage = "collecting"
	BrandStageReadyToConfirm             BrandStage = "ready_to_confirm"
	BrandStageAwaitingCreateConfirmation BrandStage = "awaiting_create_confirmation"
	BrandStageCreated                    BrandStage = "created"
	BrandStageTypeChoicePending          BrandStage = "type_choice_pending"
)

// BrandDerivation 品牌漏斗的一次推导结果
type BrandDerivation struct {
	Stage            BrandStage           `json:"stage"`
	Profile          *entity.BrandProfile `json:"profile"`
	Progress         brand.Progress       `json:"progress"`
	RequiredComplete bool                 `json:"required_complete"`
	AllComplete      bool                 `json:"all_complete"`
}

// DeriveBrand 从 Turn Log 重算品牌漏斗阶段。
// stored 为会话级结构化画像：非空时整体优先于对话推断，
// 结构化达成必答项即解锁 ReadyToConfirm，无需对话逐项问答。
// confirmDialogOpen 是确认弹窗的本地瞬态标志，不落库、不可恢复。
// 项目创建成功后追加的 MarkerProjectCreated 轮次是 Created 的唯一判据；
// 之后出现类型提供轮次则进入 TypeChoicePending。
func DeriveBrand(turns []*entity.ConversationTurn, stored *entity.BrandProfile, confirmDialogOpen bool) *BrandDerivation {
	TagAll(turns)

	profile := brand.ExtractInferred(turns)
	if stored != nil && !stored.IsZero() {
		profile = stored
	}
	d := &BrandDerivation{
		Profile:          profile,
		Progress:         brand.ComputeProgress(profile),
		RequiredComplete: brand.RequiredComplete(profile),
		AllComplete:      brand.AllComplete(profile),
	}

	createdAt := -1
	for i, turn := range turns {
		if turn.Marker == entity.MarkerProjectCreated {
			createdAt = i
			break
		}
	}

	if createdAt >= 0 {
		d.Stage = BrandStageCreated
		for _, turn := range turns[createdAt+1:] {
			if turn.Marker == entity.MarkerTypeOffer {
				d.Stage = BrandStageTypeChoicePending
				break
			}
		}
		return d
	}

	if d.RequiredComplete {
		if confirmDialogOpen {
			d.Stage = BrandStageAwaitingCreateConfirmation
		} else {
			d.Stage = BrandStageReadyToConfirm
		}
		return d
	}

	d.Stage = BrandStageCollecting
	return d
}
