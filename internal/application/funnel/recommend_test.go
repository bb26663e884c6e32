package funnel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
)

func testPool(n int) []entity.AssetRef {
	pool := make([]entity.AssetRef, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("logo-%02d", i)
		pool = append(pool, entity.AssetRef{ID: id, URI: "asset://styles/" + id + ".png"})
	}
	return pool
}

func TestSampleBatchSizeAndMembership(t *testing.T) {
	pool := testPool(12)
	batch := SampleBatch("sess-1", "logo_type", pool, nil)

	require.Len(t, batch.Items, BatchSize)
	assert.Equal(t, -1, batch.Selected)

	ids := batch.IDSet()
	assert.Len(t, ids, BatchSize)
	valid := NewBatch(pool).IDSet()
	for id := range ids {
		assert.True(t, valid[id], id)
	}
}

func TestSampleBatchDeterministicPerSessionAndStage(t *testing.T) {
	pool := testPool(12)

	a := SampleBatch("sess-1", "logo_type", pool, nil)
	b := SampleBatch("sess-1", "logo_type", pool, nil)
	assert.Equal(t, a.Items, b.Items)

	// 会话或阶段不同时种子不同
	assert.NotEqual(t, batchSeed("sess-1", "logo_type"), batchSeed("sess-2", "logo_type"))
	assert.NotEqual(t, batchSeed("sess-1", "logo_type"), batchSeed("sess-1", "logo_style"))
}

func TestSampleBatchExcludesShownAssets(t *testing.T) {
	pool := testPool(12)
	first := SampleBatch("sess-1", "logo_style", pool, nil)

	second := SampleBatch("sess-1", "logo_style_refine", pool, first.IDSet())
	require.Len(t, second.Items, BatchSize)
	shown := first.IDSet()
	for _, item := range second.Items {
		assert.False(t, shown[item.ID], item.ID)
	}
}

func TestSampleBatchSmallPool(t *testing.T) {
	pool := testPool(2)
	batch := SampleBatch("sess-1", "logo_type", pool, nil)
	assert.Len(t, batch.Items, 2)

	empty := SampleBatch("sess-1", "logo_type", nil, nil)
	assert.Empty(t, empty.Items)
}

func TestRecoverBatchFromOfferTurn(t *testing.T) {
	turn := assistantTurn("원하시는 스타일을 선택해주세요.", entity.MarkerStyleOffer)
	turn.Attachments = testPool(3)

	batch := RecoverBatch(turn)
	require.NotNil(t, batch)
	assert.Equal(t, turn.Attachments, batch.Items)
	assert.Equal(t, -1, batch.Selected)

	assert.Nil(t, RecoverBatch(nil))
	assert.Nil(t, RecoverBatch(assistantTurn("첨부 없음", entity.MarkerStyleOffer)))
}

func TestBatchChooseAndChosen(t *testing.T) {
	batch := NewBatch(testPool(4))

	_, ok := batch.Chosen()
	assert.False(t, ok)

	assert.False(t, batch.Choose(-1))
	assert.False(t, batch.Choose(4))
	assert.True(t, batch.Choose(2))

	chosen, ok := batch.Chosen()
	require.True(t, ok)
	assert.Equal(t, "logo-02", chosen.ID)

	var nilBatch *RecommendationBatch
	assert.False(t, nilBatch.Choose(0))
	_, ok = nilBatch.Chosen()
	assert.False(t, ok)
}
