package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

func videoTurn() *entity.ConversationTurn {
	turn := assistantTurn("완성된 영상입니다. 마음에 드시나요?", entity.MarkerSatisfactionAsk)
	turn.Attachments = []entity.AssetRef{{ID: "video-01", URI: "asset://videos/video-01.mp4"}}
	return turn
}

func TestDeriveShortsIntentPending(t *testing.T) {
	assert.Equal(t, ShortsStageIntentPending, DeriveShorts(nil, false).Stage)
}

func TestDeriveShortsContentCaptured(t *testing.T) {
	turns := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상을 만들고 싶어요"),
		assistantTurn("어떤 내용을 담을까요?", entity.MarkerNone),
	}
	assert.Equal(t, ShortsStageContentCaptured, DeriveShorts(turns, false).Stage)
}

func TestDeriveShortsStreamingOverridesHistory(t *testing.T) {
	turns := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상"),
		videoTurn(),
	}
	assert.Equal(t, ShortsStageGenerating, DeriveShorts(turns, true).Stage)
}

func TestDeriveShortsLogoChoice(t *testing.T) {
	base := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상"),
		assistantTurn("로고를 영상에 넣을까요?", entity.MarkerNone),
	}
	assert.Equal(t, ShortsStageLogoChoicePending, DeriveShorts(base, false).Stage)

	declined := append(base[:2:2], userTurn("아니요, 빼주세요"))
	assert.Equal(t, ShortsStageNoLogoChosen, DeriveShorts(declined, false).Stage)

	// 肯定答复后等待 logo 列表提供轮次
	accepted := append(base[:2:2], userTurn("네 넣어주세요"))
	assert.Equal(t, ShortsStageLogoChoicePending, DeriveShorts(accepted, false).Stage)
}

func TestDeriveShortsLogoListOffered(t *testing.T) {
	offer := offerTurn("영상에 사용할 로고를 선택해주세요.", entity.MarkerLogoListOffer, 3)
	turns := []*entity.ConversationTurn{
		userTurn("네 넣어주세요"),
		offer,
	}

	d := DeriveShorts(turns, false)
	assert.Equal(t, ShortsStageLogoListOffered, d.Stage)
	require.NotNil(t, d.Batch)
	assert.Len(t, d.Batch.Items, 3)

	picked := append(turns, userTurn("첫 번째 로고로 할게요"))
	assert.Equal(t, ShortsStageLogoPicked, DeriveShorts(picked, false).Stage)
}

func TestDeriveShortsSatisfactionPending(t *testing.T) {
	turns := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상"),
		videoTurn(),
	}

	d := DeriveShorts(turns, false)
	assert.Equal(t, ShortsStageSatisfactionPending, d.Stage)
	require.Len(t, d.Video, 1)
	assert.Equal(t, "video-01", d.Video[0].ID)
}

func TestDeriveShortsSatisfactionVerdicts(t *testing.T) {
	base := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상"),
		videoTurn(),
	}

	accepted := append(base[:2:2], userTurn("정말 마음에 들어요!"))
	d := DeriveShorts(accepted, false)
	assert.Equal(t, ShortsStageAccepted, d.Stage)
	assert.Equal(t, VerdictPositive, d.Verdict)

	redo := append(base[:2:2], userTurn("다시 만들어줘"))
	d = DeriveShorts(redo, false)
	assert.Equal(t, ShortsStageRegenerating, d.Stage)
	assert.Equal(t, VerdictNegative, d.Verdict)

	// 判定不明：停在追问
	vague := append(base[:2:2], userTurn("음... 글쎄요"))
	d = DeriveShorts(vague, false)
	assert.Equal(t, ShortsStageSatisfactionPending, d.Stage)
	assert.Equal(t, VerdictUnknown, d.Verdict)
}

func TestDeriveShortsAcceptedByProgress(t *testing.T) {
	// 生成后对话已推进到新话题：按已接受处理
	video := videoTurn()
	video.Marker = entity.MarkerNone
	video.Content = "완성된 영상입니다."
	turns := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상"),
		video,
	}

	d := DeriveShorts(turns, false)
	assert.Equal(t, ShortsStageAccepted, d.Stage)
	assert.Equal(t, video.Attachments, d.Video)
}

func TestDeriveShortsDeterministic(t *testing.T) {
	turns := []*entity.ConversationTurn{
		userTurn("신메뉴 홍보 영상을 만들고 싶어요"),
		videoTurn(),
	}

	first := DeriveShorts(turns, false)
	second := DeriveShorts(turns, false)
	assert.Equal(t, first.Stage, second.Stage)
	assert.Equal(t, first.Video, second.Video)
}
