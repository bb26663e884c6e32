package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

func offerTurn(content string, marker entity.TurnMarker, n int) *entity.ConversationTurn {
	turn := assistantTurn(content, marker)
	turn.Attachments = testPool(n)
	return turn
}

func TestDeriveLogoTypeSelect(t *testing.T) {
	d := DeriveLogo(nil)
	assert.Equal(t, LogoStageTypeSelect, d.Stage)
	assert.Nil(t, d.Batch)

	turns := []*entity.ConversationTurn{
		offerTurn("원하시는 로고 유형을 선택해주세요.", entity.MarkerNone, 4),
	}
	d = DeriveLogo(turns)
	assert.Equal(t, LogoStageTypeSelect, d.Stage)
	require.NotNil(t, d.Batch)
	assert.Len(t, d.Batch.Items, 4)
}

func TestDeriveLogoStyleOffered(t *testing.T) {
	turns := []*entity.ConversationTurn{
		offerTurn("원하시는 로고 유형을 선택해주세요.", entity.MarkerTypeOffer, 4),
		userTurn("워드마크로 할게요"),
		offerTurn("원하시는 스타일을 선택해주세요.", entity.MarkerStyleOffer, 4),
	}

	d := DeriveLogo(turns)
	assert.Equal(t, LogoStageStyleOffered, d.Stage)
	require.NotNil(t, d.Batch)
	assert.Same(t, turns[2], d.OfferTurn)
}

func TestDeriveLogoRefineBeatsEarlierStyle(t *testing.T) {
	// 从最近的带附件轮次向前扫描：refine 提供轮次在后即生效
	turns := []*entity.ConversationTurn{
		offerTurn("원하시는 스타일을 선택해주세요.", entity.MarkerStyleOffer, 4),
		userTurn("두 번째가 좋아요"),
		offerTurn("선택하신 스타일을 기반으로 후보를 준비했어요.", entity.MarkerRefineOffer, 4),
	}
	assert.Equal(t, LogoStageRefineOffered, DeriveLogo(turns).Stage)
}

func TestDeriveLogoExtraDetailRequested(t *testing.T) {
	turns := []*entity.ConversationTurn{
		offerTurn("선택하신 스타일을 기반으로 후보를 준비했어요.", entity.MarkerRefineOffer, 4),
		userTurn("첫 번째"),
		assistantTurn("추가로 반영하고 싶은 세부사항이 있으신가요?", entity.MarkerNone),
	}

	d := DeriveLogo(turns)
	assert.Equal(t, LogoStageExtraDetailRequested, d.Stage)
	assert.Nil(t, d.Batch)
}

func TestDeriveLogoGenerated(t *testing.T) {
	final := offerTurn("완성된 로고입니다.", entity.MarkerNone, 1)
	turns := []*entity.ConversationTurn{
		offerTurn("선택하신 스타일을 기반으로 후보를 준비했어요.", entity.MarkerRefineOffer, 4),
		userTurn("네 이대로 만들어주세요"),
		final,
	}

	d := DeriveLogo(turns)
	assert.Equal(t, LogoStageGenerated, d.Stage)
	assert.Equal(t, final.Attachments, d.Final)
	assert.Nil(t, d.Batch)
}

func TestLogoWithSelectionUpgradesStage(t *testing.T) {
	turns := []*entity.ConversationTurn{
		offerTurn("원하시는 스타일을 선택해주세요.", entity.MarkerStyleOffer, 4),
	}

	d := DeriveLogo(turns)
	assert.Equal(t, LogoStageStyleChosen, d.WithSelection(1))

	chosen, ok := d.Batch.Chosen()
	require.True(t, ok)
	assert.Equal(t, d.Batch.Items[1].ID, chosen.ID)

	// 越界选择不改变阶段
	d = DeriveLogo(turns)
	assert.Equal(t, LogoStageStyleOffered, d.WithSelection(9))
}

func TestLogoWithSelectionRefine(t *testing.T) {
	turns := []*entity.ConversationTurn{
		offerTurn("선택하신 스타일을 기반으로 후보를 준비했어요.", entity.MarkerRefineOffer, 4),
	}
	assert.Equal(t, LogoStageRefineChosen, DeriveLogo(turns).WithSelection(0))

	// 选择是纯本地瞬态：重新推导回落到 Offered
	assert.Equal(t, LogoStageRefineOffered, DeriveLogo(turns).Stage)
}

func TestLogoWithSelectionWithoutBatch(t *testing.T) {
	d := DeriveLogo(nil)
	assert.Equal(t, LogoStageTypeSelect, d.WithSelection(0))
}

func TestDeriveLogoDeterministic(t *testing.T) {
	turns := []*entity.ConversationTurn{
		offerTurn("원하시는 로고 유형을 선택해주세요.", entity.MarkerTypeOffer, 4),
		userTurn("워드마크요"),
		offerTurn("마음에 드는 스타일을 골라주세요.", entity.MarkerStyleOffer, 4),
	}

	first := DeriveLogo(turns)
	second := DeriveLogo(turns)
	assert.Equal(t, first.Stage, second.Stage)
	require.NotNil(t, first.Batch)
	require.NotNil(t, second.Batch)
	// 批次从提供轮次附件恢复，成员与顺序逐次一致
	assert.Equal(t, first.Batch.Items, second.Batch.Items)
}
