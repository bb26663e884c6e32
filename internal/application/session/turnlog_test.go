package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

func TestTurnLogAppendKeepsOrder(t *testing.T) {
	log := NewTurnLog("sess-1")

	require.NoError(t, log.Append(entity.NewConversationTurn("sess-1", entity.RoleUser, "안녕하세요", nil, entity.MarkerNone)))
	require.NoError(t, log.Append(entity.NewConversationTurn("sess-1", entity.RoleAssistant, "반갑습니다", nil, entity.MarkerNone)))

	turns := log.All()
	require.Len(t, turns, 2)
	assert.Equal(t, entity.RoleUser, turns[0].Role)
	assert.Equal(t, entity.RoleAssistant, turns[1].Role)
	assert.Equal(t, "반갑습니다", log.Last().Content)
}

func TestTurnLogAppendRejectsNil(t *testing.T) {
	log := NewTurnLog("sess-1")
	assert.Error(t, log.Append(nil))
}

func TestTurnLogSingleOpenTurn(t *testing.T) {
	log := NewTurnLog("sess-1")

	open, err := log.OpenAssistant("")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.True(t, log.HasOpen())

	// 第二个未关闭轮次违反不变式
	_, err = log.OpenAssistant("")
	assert.Error(t, err)

	// 未关闭轮次存在时禁止追加已关闭轮次
	err = log.Append(entity.NewConversationTurn("sess-1", entity.RoleUser, "hi", nil, entity.MarkerNone))
	assert.Error(t, err)
}

func TestTurnLogAppendToOpenPreservesArrivalOrder(t *testing.T) {
	log := NewTurnLog("sess-1")

	_, err := log.OpenAssistant("")
	require.NoError(t, err)

	require.NoError(t, log.AppendToOpen("He"))
	require.NoError(t, log.AppendToOpen("llo"))
	require.NoError(t, log.AppendToOpen(" world"))

	text, ok := log.OpenText()
	require.True(t, ok)
	assert.Equal(t, "Hello world", text)

	closed := log.CloseOpen()
	require.NotNil(t, closed)
	assert.Equal(t, "Hello world", closed.Content)
	assert.False(t, log.HasOpen())
	assert.Equal(t, 1, log.Len())
}

func TestTurnLogDiscardOpenDropsPartialText(t *testing.T) {
	log := NewTurnLog("sess-1")
	require.NoError(t, log.Append(entity.NewConversationTurn("sess-1", entity.RoleUser, "만들어줘", nil, entity.MarkerNone)))

	_, err := log.OpenAssistant("partial")
	require.NoError(t, err)
	require.NoError(t, log.AppendToOpen(" text"))

	assert.True(t, log.DiscardOpen())
	assert.False(t, log.HasOpen())
	// 部分文本连同轮次一并消失
	assert.Equal(t, 1, log.Len())
	assert.Equal(t, entity.RoleUser, log.Last().Role)

	assert.False(t, log.DiscardOpen())
}

func TestTurnLogOpenOperationsRequireOpenTurn(t *testing.T) {
	log := NewTurnLog("sess-1")

	assert.Error(t, log.AppendToOpen("x"))
	assert.Error(t, log.SetOpenMarker(entity.MarkerStyleOffer))
	assert.Error(t, log.SetOpenAttachments([]entity.AssetRef{{ID: "a", URI: "asset://a"}}))
	assert.Nil(t, log.CloseOpen())
}

func TestRestoreTreatsHistoryAsClosed(t *testing.T) {
	history := []*entity.ConversationTurn{
		entity.NewConversationTurn("sess-1", entity.RoleUser, "로고 만들어줘", nil, entity.MarkerNone),
		entity.NewConversationTurn("sess-1", entity.RoleAssistant, "원하시는 로고 유형을 선택해주세요", nil, entity.MarkerTypeOffer),
	}

	log := Restore("sess-1", history)
	assert.Equal(t, 2, log.Len())
	assert.False(t, log.HasOpen())
	assert.Equal(t, entity.MarkerTypeOffer, log.LastAssistant().Marker)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  \t\n"))
	assert.False(t, IsBlank(" a "))
}
