package brand

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

func qa(question, answer string) []*entity.ConversationTurn {
	return []*entity.ConversationTurn{
		{Role: entity.RoleAssistant, Content: question},
		{Role: entity.RoleUser, Content: answer},
	}
}

func TestExtractInferredPairsQuestionsWithAnswers(t *testing.T) {
	var turns []*entity.ConversationTurn
	turns = append(turns, qa("브랜드 이름을 알려주세요.", "달빛카페")...)
	turns = append(turns, qa("업종이 무엇인가요?", "카페")...)
	turns = append(turns, qa("원하시는 분위기를 알려주세요.", "따뜻하고 아늑한")...)
	turns = append(turns, qa("핵심 키워드를 알려주세요.", "커피, 달, 밤")...)
	turns = append(turns, qa("주 타깃 연령대는요?", "20-30대")...)
	turns = append(turns, qa("타깃 성별이 있나요?", "여성")...)
	turns = append(turns, qa("피하고 싶은 트렌드가 있나요?", "네온, 미니멀")...)
	turns = append(turns, qa("슬로건이 있으신가요?", "달빛 아래 한 잔")...)
	turns = append(turns, qa("선호하는 색상을 알려주세요.", "남색, 금색")...)

	p := ExtractInferred(turns)
	assert.Equal(t, "달빛카페", p.BrandName)
	assert.Equal(t, "카페", p.Industry)
	assert.Equal(t, "따뜻하고 아늑한", p.Mood)
	assert.Equal(t, []string{"커피", "달", "밤"}, p.CoreKeywords)
	assert.Equal(t, "20-30대", p.TargetAge)
	assert.Equal(t, "여성", p.TargetGender)
	assert.Equal(t, []string{"네온", "미니멀"}, p.AvoidTrends)
	assert.Equal(t, "달빛 아래 한 잔", p.Slogan)
	assert.Equal(t, []string{"남색", "금색"}, p.PreferredColors)
	assert.True(t, AllComplete(p))
}

func TestExtractInferredSkipWordsLeaveFieldEmpty(t *testing.T) {
	var turns []*entity.ConversationTurn
	turns = append(turns, qa("브랜드 이름을 알려주세요.", "달빛카페")...)
	turns = append(turns, qa("슬로건이 있으신가요?", "없어요")...)
	turns = append(turns, qa("선호하는 색상을 알려주세요.", "skip")...)
	turns = append(turns, qa("타깃 성별이 있나요?", "잘 모르겠어요")...)

	p := ExtractInferred(turns)
	assert.Equal(t, "달빛카페", p.BrandName)
	assert.Empty(t, p.Slogan)
	assert.Empty(t, p.PreferredColors)
	assert.Empty(t, p.TargetGender)
}

func TestExtractInferredLaterAnswerWins(t *testing.T) {
	var turns []*entity.ConversationTurn
	turns = append(turns, qa("브랜드 이름을 알려주세요.", "달카페")...)
	turns = append(turns, qa("브랜드명을 다시 알려주세요.", "달빛카페")...)
	assert.Equal(t, "달빛카페", ExtractInferred(turns).BrandName)
}

func TestExtractInferredIgnoresUnclassifiedQuestions(t *testing.T) {
	turns := qa("오늘 기분이 어떠세요?", "좋아요")
	assert.True(t, ExtractInferred(turns).IsZero())
}

func TestExtractStructuredWinsOverInference(t *testing.T) {
	turns := qa("브랜드 이름을 알려주세요.", "추론된이름")
	structured := json.RawMessage(`{"brand_name":"달빛카페","industry":"카페"}`)

	p := Extract(turns, structured)
	assert.Equal(t, "달빛카페", p.BrandName)
	assert.Equal(t, "카페", p.Industry)
}

func TestExtractFallsBackWhenStructuredUnusable(t *testing.T) {
	turns := qa("브랜드 이름을 알려주세요.", "달빛카페")

	// 解析失败或解析出全空对象都回退到对话推断
	assert.Equal(t, "달빛카페", Extract(turns, json.RawMessage(`not-json`)).BrandName)
	assert.Equal(t, "달빛카페", Extract(turns, json.RawMessage(`{}`)).BrandName)
	assert.Equal(t, "달빛카페", Extract(turns, nil).BrandName)
}

func TestFromStructuredAcceptsBothSpellings(t *testing.T) {
	p, err := FromStructured(json.RawMessage(`{
		"brand_name": "달빛카페",
		"category": "카페",
		"tone_mood": "아늑한",
		"avoided_trends": ["네온"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "카페", p.Industry)
	assert.Equal(t, "아늑한", p.Mood)
	assert.Equal(t, []string{"네온"}, p.AvoidTrends)

	// 本地拼写优先于远端拼写
	p, err = FromStructured(json.RawMessage(`{"industry":"베이커리","category":"카페"}`))
	require.NoError(t, err)
	assert.Equal(t, "베이커리", p.Industry)
}

func TestFromStructuredFlexList(t *testing.T) {
	p, err := FromStructured(json.RawMessage(`{"core_keywords":"커피, 달, 밤"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"커피", "달", "밤"}, p.CoreKeywords)

	p, err = FromStructured(json.RawMessage(`{"core_keywords":["커피"," 달 "]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"커피", "달"}, p.CoreKeywords)

	_, err = FromStructured(json.RawMessage(`{"core_keywords":123}`))
	assert.Error(t, err)
}

func TestUnifiedViewCarriesBothSpellings(t *testing.T) {
	p := &entity.BrandProfile{Industry: "카페", Mood: "아늑한", AvoidTrends: []string{"네온"}}
	view := UnifiedView(p)

	assert.Equal(t, "카페", view["industry"])
	assert.Equal(t, "카페", view["category"])
	assert.Equal(t, "아늑한", view["mood"])
	assert.Equal(t, "아늑한", view["tone_mood"])
	assert.Equal(t, []string{"네온"}, view["avoid_trends"])
	assert.Equal(t, []string{"네온"}, view["avoided_trends"])

	// nil 画像也产出完整键集合
	assert.Len(t, UnifiedView(nil), 12)
}
