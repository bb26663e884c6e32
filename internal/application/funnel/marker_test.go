package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brand-studio-api/internal/domain/entity"
)

func assistantTurn(content string, marker entity.TurnMarker) *entity.ConversationTurn {
	return &entity.ConversationTurn{Role: entity.RoleAssistant, Content: content, Marker: marker}
}

func userTurn(content string) *entity.ConversationTurn {
	return &entity.ConversationTurn{Role: entity.RoleUser, Content: content}
}

func TestTagTurnMatchesFixedPhrases(t *testing.T) {
	cases := []struct {
		content string
		want    entity.TurnMarker
	}{
		{"프로젝트가 성공적으로 생성되었습니다! 이제 로고를 만들어볼까요?", entity.MarkerProjectCreated},
		{"원하시는 로고 유형을 선택해주세요.", entity.MarkerTypeOffer},
		{"원하시는 스타일을 선택해주세요.", entity.MarkerStyleOffer},
		{"선택하신 스타일을 기반으로 후보를 준비했어요.", entity.MarkerRefineOffer},
		{"추가로 반영하고 싶은 세부사항이 있으신가요?", entity.MarkerExtraDetailAsk},
		{"로고를 영상에 넣을까요?", entity.MarkerLogoChoiceAsk},
		{"영상에 사용할 로고를 선택해주세요.", entity.MarkerLogoListOffer},
		{"이 영상, 마음에 드시나요?", entity.MarkerSatisfactionAsk},
		{"일반적인 답변에는 표식이 없습니다.", entity.MarkerNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TagTurn(assistantTurn(tc.content, entity.MarkerNone)), tc.content)
	}
}

func TestTagTurnExistingMarkerWins(t *testing.T) {
	// 已有结构化标记时不再做文案匹配
	turn := assistantTurn("원하시는 스타일을 선택해주세요.", entity.MarkerTypeOffer)
	assert.Equal(t, entity.MarkerTypeOffer, TagTurn(turn))
}

func TestTagTurnIgnoresUserTurns(t *testing.T) {
	assert.Equal(t, entity.MarkerNone, TagTurn(userTurn("원하시는 스타일을 선택해주세요.")))
	assert.Equal(t, entity.MarkerNone, TagTurn(nil))
}

func TestTagAllIdempotent(t *testing.T) {
	turns := []*entity.ConversationTurn{
		userTurn("로고 만들어줘"),
		assistantTurn("원하시는 로고 유형을 선택해주세요.", entity.MarkerNone),
	}

	TagAll(turns)
	assert.Equal(t, entity.MarkerNone, turns[0].Marker)
	assert.Equal(t, entity.MarkerTypeOffer, turns[1].Marker)

	// 再跑一遍结果不变
	TagAll(turns)
	assert.Equal(t, entity.MarkerTypeOffer, turns[1].Marker)
}

func TestIsOfferMarker(t *testing.T) {
	assert.True(t, isOfferMarker(entity.MarkerTypeOffer))
	assert.True(t, isOfferMarker(entity.MarkerStyleOffer))
	assert.True(t, isOfferMarker(entity.MarkerRefineOffer))
	assert.True(t, isOfferMarker(entity.MarkerLogoListOffer))
	assert.False(t, isOfferMarker(entity.MarkerSatisfactionAsk))
	assert.False(t, isOfferMarker(entity.MarkerNone))
}
