package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brand-studio-api/internal/domain/entity"
)

func fullProfile() *entity.BrandProfile {
	return &entity.BrandProfile{
		BrandName:       "달빛카페",
		Industry:        "카페",
		Mood:            "아늑한",
		CoreKeywords:    []string{"커피", "달"},
		TargetAge:       "20-30대",
		TargetGender:    "여성",
		AvoidTrends:     []string{"네온"},
		Slogan:          "달빛 아래 한 잔",
		PreferredColors: []string{"남색"},
	}
}

func TestRequiredComplete(t *testing.T) {
	assert.False(t, RequiredComplete(nil))
	assert.False(t, RequiredComplete(&entity.BrandProfile{}))
	assert.False(t, RequiredComplete(&entity.BrandProfile{BrandName: "달빛카페"}))
	assert.False(t, RequiredComplete(&entity.BrandProfile{Industry: "카페"}))
	assert.True(t, RequiredComplete(&entity.BrandProfile{BrandName: "달빛카페", Industry: "카페"}))
	// 空白串不算已填写
	assert.False(t, RequiredComplete(&entity.BrandProfile{BrandName: "  ", Industry: "카페"}))
}

func TestAllComplete(t *testing.T) {
	assert.False(t, AllComplete(nil))
	assert.True(t, AllComplete(fullProfile()))

	partial := fullProfile()
	partial.Slogan = ""
	assert.False(t, AllComplete(partial))
}

func TestComputeProgress(t *testing.T) {
	empty := ComputeProgress(nil)
	assert.Equal(t, 0, empty.Answered)
	assert.Equal(t, entity.ProfileFieldCount, empty.Total)
	assert.Zero(t, empty.Ratio)

	full := ComputeProgress(fullProfile())
	assert.Equal(t, entity.ProfileFieldCount, full.Answered)
	assert.Equal(t, 1.0, full.Ratio)

	p := &entity.BrandProfile{BrandName: "달빛카페", Industry: "카페"}
	got := ComputeProgress(p)
	assert.Equal(t, 2, got.Answered)
	assert.InDelta(t, 2.0/9.0, got.Ratio, 1e-9)
}
