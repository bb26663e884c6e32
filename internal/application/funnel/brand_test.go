package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

// intakeTurns 品牌名与业种已回答的最小收集历史
func intakeTurns() []*entity.ConversationTurn {
	return []*entity.ConversationTurn{
		assistantTurn("브랜드 이름을 알려주세요.", entity.MarkerNone),
		userTurn("달빛카페"),
		assistantTurn("업종이 무엇인가요?", entity.MarkerNone),
		userTurn("카페"),
	}
}

func TestDeriveBrandCollecting(t *testing.T) {
	turns := []*entity.ConversationTurn{
		assistantTurn("브랜드 이름을 알려주세요.", entity.MarkerNone),
		userTurn("달빛카페"),
	}

	d := DeriveBrand(turns, nil, false)
	assert.Equal(t, BrandStageCollecting, d.Stage)
	assert.False(t, d.RequiredComplete)
	assert.Equal(t, "달빛카페", d.Profile.BrandName)
	assert.Equal(t, 1, d.Progress.Answered)
}

func TestDeriveBrandReadyToConfirm(t *testing.T) {
	d := DeriveBrand(intakeTurns(), nil, false)
	assert.Equal(t, BrandStageReadyToConfirm, d.Stage)
	assert.True(t, d.RequiredComplete)
	assert.False(t, d.AllComplete)
}

func TestDeriveBrandConfirmDialogIsLocalOnly(t *testing.T) {
	turns := intakeTurns()
	assert.Equal(t, BrandStageAwaitingCreateConfirmation, DeriveBrand(turns, nil, true).Stage)
	// 弹窗标志不落库：同一历史不带标志时回落
	assert.Equal(t, BrandStageReadyToConfirm, DeriveBrand(turns, nil, false).Stage)
}

func TestDeriveBrandCreated(t *testing.T) {
	turns := append(intakeTurns(),
		userTurn("생성해줘"),
		assistantTurn("프로젝트가 성공적으로 생성되었습니다!", entity.MarkerNone),
	)

	d := DeriveBrand(turns, nil, false)
	assert.Equal(t, BrandStageCreated, d.Stage)
	// 创建轮次经文案补打标记
	assert.Equal(t, entity.MarkerProjectCreated, turns[len(turns)-1].Marker)
}

func TestDeriveBrandTypeChoicePending(t *testing.T) {
	turns := append(intakeTurns(),
		assistantTurn("프로젝트가 성공적으로 생성되었습니다!", entity.MarkerProjectCreated),
		assistantTurn("원하시는 로고 유형을 선택해주세요.", entity.MarkerTypeOffer),
	)
	assert.Equal(t, BrandStageTypeChoicePending, DeriveBrand(turns, nil, false).Stage)
}

func TestDeriveBrandCreatedBeatsConfirmFlag(t *testing.T) {
	// 已创建后弹窗标志不再有意义
	turns := append(intakeTurns(),
		assistantTurn("프로젝트가 성공적으로 생성되었습니다!", entity.MarkerProjectCreated),
	)
	assert.Equal(t, BrandStageCreated, DeriveBrand(turns, nil, true).Stage)
}

func TestDeriveBrandEmptyHistory(t *testing.T) {
	d := DeriveBrand(nil, nil, false)
	require.NotNil(t, d.Profile)
	assert.Equal(t, BrandStageCollecting, d.Stage)
	assert.Equal(t, 0, d.Progress.Answered)
}

func TestDeriveBrandStoredProfileUnlocksConfirm(t *testing.T) {
	// 对话只有一轮问答，必答项来自结构化画像
	turns := []*entity.ConversationTurn{
		assistantTurn("어떤 브랜드를 만들고 싶으신가요?", entity.MarkerNone),
		userTurn("멋진 브랜드요"),
	}
	stored := &entity.BrandProfile{BrandName: "달빛카페", Industry: "카페"}

	d := DeriveBrand(turns, stored, false)
	assert.Equal(t, BrandStageReadyToConfirm, d.Stage)
	assert.True(t, d.RequiredComplete)
	assert.Equal(t, "달빛카페", d.Profile.BrandName)
}

func TestDeriveBrandStoredProfileWinsOverInferred(t *testing.T) {
	// 结构化画像整体覆盖对话推断，不做逐字段合并
	stored := &entity.BrandProfile{BrandName: "별빛서점", Industry: "서점"}

	d := DeriveBrand(intakeTurns(), stored, false)
	assert.Equal(t, "별빛서점", d.Profile.BrandName)
	assert.Equal(t, "서점", d.Profile.Industry)
}

func TestDeriveBrandZeroStoredProfileFallsBackToInferred(t *testing.T) {
	d := DeriveBrand(intakeTurns(), &entity.BrandProfile{}, false)
	assert.Equal(t, "달빛카페", d.Profile.BrandName)
	assert.Equal(t, BrandStageReadyToConfirm, d.Stage)
}

func TestDeriveBrandDeterministic(t *testing.T) {
	turns := append(intakeTurns(),
		assistantTurn("프로젝트가 성공적으로 생성되었습니다!", entity.MarkerNone),
	)

	first := DeriveBrand(turns, nil, false)
	second := DeriveBrand(turns, nil, false)
	assert.Equal(t, first.Stage, second.Stage)
	assert.Equal(t, first.Profile, second.Profile)
	assert.Equal(t, first.Progress, second.Progress)
}
