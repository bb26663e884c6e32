package funnel

import (
	"hash/fnv"
	"math/rand"

	"brand-studio-api/internal/domain/entity"
)

// BatchSize 单个漏斗阶段展示的候选资产数量
const BatchSize = 4

// RecommendationBatch 某漏斗阶段展示的候选资产批次。
// 瞬态数据：优先从提供轮次的附件恢复，不可恢复时按会话+阶段播种重采样。
type RecommendationBatch struct {
	Items    []entity.AssetRef `json:"items"`
	Selected int               `json:"selected"` // -1 表示未选择
}

// NewBatch 创建未选择状态的批次
func NewBatch(items []entity.AssetRef) *RecommendationBatch {
	return &RecommendationBatch{Items: items, Selected: -1}
}

// RecoverBatch 从提供轮次的附件恢复批次。
// 恢复保持成员集合不变，推导重跑得到相同成员（幂等性要求）。
func RecoverBatch(turn *entity.ConversationTurn) *RecommendationBatch {
	if turn == nil || len(turn.Attachments) == 0 {
		return nil
	}
	items := make([]entity.AssetRef, len(turn.Attachments))
	copy(items, turn.Attachments)
	return NewBatch(items)
}

// Choose 标记选中项，返回是否有效
func (b *RecommendationBatch) Choose(index int) bool {
	if b == nil || index < 0 || index >= len(b.Items) {
		return false
	}
	b.Selected = index
	return true
}

// Chosen 返回选中的资产引用
func (b *RecommendationBatch) Chosen() (entity.AssetRef, bool) {
	if b == nil || b.Selected < 0 || b.Selected >= len(b.Items) {
		return entity.AssetRef{}, false
	}
	return b.Items[b.Selected], true
}

// IDSet 批次成员的 ID 集合
func (b *RecommendationBatch) IDSet() map[string]bool {
	out := make(map[string]bool, len(b.Items))
	for _, item := range b.Items {
		out[item.ID] = true
	}
	return out
}

// SampleBatch 从候选池按 (sessionID, stage) 播种伪随机抽取一批，
// 排除已展示与已选中的资产。同一推导过程内可复现；
// 跨重载允许不同（推荐内容一经渲染即不再具有语义意义）。
func SampleBatch(sessionID, stage string, pool []entity.AssetRef, exclude map[string]bool) *RecommendationBatch {
	eligible := make([]entity.AssetRef, 0, len(pool))
	for _, ref := range pool {
		if exclude != nil && exclude[ref.ID] {
			continue
		}
		eligible = append(eligible, ref)
	}

	rng := rand.New(rand.NewSource(batchSeed(sessionID, stage)))
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	if len(eligible) > BatchSize {
		eligible = eligible[:BatchSize]
	}
	return NewBatch(eligible)
}

// batchSeed 以 FNV-1a 哈希 (sessionID, stage) 生成采样种子
func batchSeed(sessionID, stage string) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	h.Write([]byte{'|'})
	h.Write([]byte(stage))
	return int64(h.Sum64())
}
