// Package funnel 从 Turn Log 重算漏斗阶段。
// 阶段从不单独存储：每次加载或变更对话都重新推导，
// 避免第二份状态相对持久化轮次历史过期。推导必须是全函数、确定且幂等的。
package funnel

import (
	"strings"

	"brand-studio-api/internal/domain/entity"
)

// 固定的助手文案标记。新创建的轮次在落库时即打上结构化标记；
// 这些文案只用于给早于标记机制的存量历史补打标签。
const (
	PhraseProjectCreated  = "프로젝트가 성공적으로 생성되었습니다"
	PhraseTypeOffer       = "원하시는 로고 유형을 선택해주세요"
	PhraseStyleOffer      = "원하시는 스타일을 선택해주세요"
	PhraseRefineOffer     = "선택하신 스타일을 기반으로"
	PhraseExtraDetailAsk  = "추가로 반영하고 싶은 세부사항"
	PhraseLogoChoiceAsk   = "로고를 영상에 넣을까요"
	PhraseLogoListOffer   = "영상에 사용할 로고를 선택해주세요"
	PhraseSatisfactionAsk = "마음에 드시나요"
)

var phraseMarkers = []struct {
	phrase string
	marker entity.TurnMarker
}{
	{PhraseProjectCreated, entity.MarkerProjectCreated},
	{PhraseRefineOffer, entity.MarkerRefineOffer},
	{PhraseStyleOffer, entity.MarkerStyleOffer},
	{PhraseTypeOffer, entity.MarkerTypeOffer},
	{PhraseExtraDetailAsk, entity.MarkerExtraDetailAsk},
	{PhraseLogoListOffer, entity.MarkerLogoListOffer},
	{PhraseLogoChoiceAsk, entity.MarkerLogoChoiceAsk},
	{PhraseSatisfactionAsk, entity.MarkerSatisfactionAsk},
}

// TagTurn 返回轮次的结构化标记。
// 已有标记直接返回；否则对助手轮次按固定文案补打。
func TagTurn(turn *entity.ConversationTurn) entity.TurnMarker {
	if turn == nil {
		return entity.MarkerNone
	}
	if turn.Marker != entity.MarkerNone {
		return turn.Marker
	}
	if turn.Role != entity.RoleAssistant {
		return entity.MarkerNone
	}
	for _, pm := range phraseMarkers {
		if strings.Contains(turn.Content, pm.phrase) {
			return pm.marker
		}
	}
	return entity.MarkerNone
}

// TagAll 给整段历史补打标记，返回原切片（就地修改）。
// 幂等：重复调用不改变结果。
func TagAll(turns []*entity.ConversationTurn) []*entity.ConversationTurn {
	for _, t := range turns {
		if t.Marker == entity.MarkerNone {
			t.Marker = TagTurn(t)
		}
	}
	return turns
}

// isOfferMarker 该标记是否属于“推荐批次”类提供轮次
func isOfferMarker(m entity.TurnMarker) bool {
	switch m {
	case entity.MarkerTypeOffer, entity.MarkerStyleOffer, entity.MarkerRefineOffer, entity.MarkerLogoListOffer:
		return true
	default:
		return false
	}
}
