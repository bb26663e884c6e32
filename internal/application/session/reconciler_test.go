package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/pkg/errors"
)

func runEvents(t *testing.T, r *Reconciler, events ...StreamEvent) (*StreamResult, error) {
	t.Helper()
	ch := make(chan StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return r.Run(context.Background(), ch)
}

func TestReconcilerAssemblesDeltasInArrivalOrder(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, NewIdentityManager(entity.ConversationKindBrand, nil))

	res, err := runEvents(t, r,
		StreamEvent{Type: StreamEventDelta, Delta: "He"},
		StreamEvent{Type: StreamEventDelta, Delta: "llo"},
		StreamEvent{Type: StreamEventDelta, Delta: " world"},
		StreamEvent{Type: StreamEventDone},
	)
	require.NoError(t, err)
	require.NotNil(t, res.Turn)
	assert.Equal(t, "Hello world", res.Turn.Content)
	assert.False(t, res.Aborted)
	assert.False(t, log.HasOpen())
}

func TestReconcilerChannelCloseEqualsDone(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	res, err := runEvents(t, r, StreamEvent{Type: StreamEventDelta, Delta: "부분 응답"})
	require.NoError(t, err)
	require.NotNil(t, res.Turn)
	assert.Equal(t, "부분 응답", res.Turn.Content)
}

func TestReconcilerMetadataDoesNotTouchText(t *testing.T) {
	log := NewTurnLog("sess-1")
	identity := NewIdentityManager(entity.ConversationKindBrand, nil)
	r := NewReconciler(log, identity)

	pid := int64(21)
	res, err := runEvents(t, r,
		StreamEvent{Type: StreamEventDelta, Delta: "생성 결과"},
		StreamEvent{Type: StreamEventMetadata, Metadata: &StreamMetadata{
			SessionToken: "tok-21",
			ProjectID:    &pid,
			Marker:       entity.MarkerStyleOffer,
			Attachments:  []entity.AssetRef{{ID: "a1", URI: "asset://a1"}},
			Profile:      json.RawMessage(`{"brand_name":"카페"}`),
		}},
		StreamEvent{Type: StreamEventDelta, Delta: "입니다"},
		StreamEvent{Type: StreamEventDone},
	)
	require.NoError(t, err)
	require.NotNil(t, res.Turn)

	assert.Equal(t, "생성 결과입니다", res.Turn.Content)
	assert.Equal(t, entity.MarkerStyleOffer, res.Turn.Marker)
	assert.Len(t, res.Turn.Attachments, 1)
	assert.JSONEq(t, `{"brand_name":"카페"}`, string(res.Profile))

	id := identity.Resolve()
	assert.True(t, id.Ref.Persisted())
	assert.Equal(t, pid, id.Ref.ID)
	assert.Equal(t, "tok-21", id.Token)
}

func TestReconcilerErrorBeforeFirstDeltaDropsTurn(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	res, err := runEvents(t, r, StreamEvent{Type: StreamEventError, ErrMsg: "provider unavailable"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeLLMProviderError))
	assert.Nil(t, res.Turn)
	// 空气泡不落地
	assert.Equal(t, 0, log.Len())
}

func TestReconcilerErrorAfterDeltaKeepsPartialText(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	res, err := runEvents(t, r,
		StreamEvent{Type: StreamEventDelta, Delta: "절반쯤 온 응답"},
		StreamEvent{Type: StreamEventError, ErrMsg: "connection reset"},
	)
	require.NoError(t, err)
	require.NotNil(t, res.Turn)
	assert.Equal(t, "절반쯤 온 응답", res.Turn.Content)
	assert.Equal(t, "connection reset", res.ErrNotice)
}

func TestReconcilerCancelAborts(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan StreamEvent)
	cancel()

	res, err := r.Run(ctx, ch)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStreamAborted))
	assert.True(t, res.Aborted)
	assert.Equal(t, 0, log.Len())
}

func TestReconcilerNewRunSupersedesOldStream(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	ch1 := make(chan StreamEvent)
	type outcome struct {
		res *StreamResult
		err error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		res, err := r.Run(context.Background(), ch1)
		firstDone <- outcome{res: res, err: err}
	}()

	// 等待第一条流打开轮次并吸收首个增量
	require.Eventually(t, log.HasOpen, time.Second, time.Millisecond)
	ch1 <- StreamEvent{Type: StreamEventDelta, Delta: "구식 응답"}
	require.Eventually(t, func() bool {
		text, ok := log.OpenText()
		return ok && text == "구식 응답"
	}, time.Second, time.Millisecond)

	// 新流宣告，旧流的未关闭轮次被丢弃
	ch2 := make(chan StreamEvent, 2)
	ch2 <- StreamEvent{Type: StreamEventDelta, Delta: "최신 응답"}
	ch2 <- StreamEvent{Type: StreamEventDone}
	close(ch2)

	res2, err2 := r.Run(context.Background(), ch2)
	require.NoError(t, err2)
	require.NotNil(t, res2.Turn)
	assert.Equal(t, "최신 응답", res2.Turn.Content)

	// 旧流在下一个事件上察觉被取代
	ch1 <- StreamEvent{Type: StreamEventDone}
	first := <-firstDone
	require.Error(t, first.err)
	assert.True(t, errors.IsCode(first.err, errors.CodeStreamAborted))
	assert.True(t, first.res.Aborted)

	// 日志里只剩最新流关闭的轮次
	turns := log.All()
	require.Len(t, turns, 1)
	assert.Equal(t, "최신 응답", turns[0].Content)
}

func TestReconcilerStaleDeltaNeverLandsInSuccessorTurn(t *testing.T) {
	log := NewTurnLog("sess-1")
	r := NewReconciler(log, nil)

	gen1, err := r.begin()
	require.NoError(t, err)
	_, err = r.begin()
	require.NoError(t, err)

	// 过期代际的增量在同一把锁下被拒绝，后继轮次文本不受污染
	applied, err := r.appendIfCurrent(gen1, "낡은 조각")
	require.NoError(t, err)
	assert.False(t, applied)

	text, open := log.OpenText()
	require.True(t, open)
	assert.Equal(t, "", text)

	// 过期代际的元数据同样不落地
	assert.False(t, r.applyMetadataIfCurrent(gen1, &StreamMetadata{Marker: entity.MarkerStyleOffer}, &StreamResult{}))
	assert.Equal(t, entity.MarkerNone, log.Last().Marker)
}
