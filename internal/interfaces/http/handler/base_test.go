package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/config"
	"brand-studio-api/internal/domain/entity"
)

func TestIsDeterministicCreateConfirm(t *testing.T) {
	positives := []string{
		"생성해줘",
		"프로젝트 생성 진행해주세요",
		"이대로 만들어줘",
		"confirm",
		"create project",
		"네!",
		"좋아요.",
		"OK",
	}
	for _, p := range positives {
		assert.True(t, isDeterministicCreateConfirm(p), p)
	}

	negatives := []string{
		"",
		"   ",
		"아직 만들지 마세요",
		"취소할게요",
		"나중에 할게요",
		"필요 없어요",
		"그런데 색상을 바꾸고 싶어요",
		"브랜드 이름은 달빛카페야",
	}
	for _, n := range negatives {
		assert.False(t, isDeterministicCreateConfirm(n), n)
	}
}

func TestIsDeterministicCreateConfirmNegativeBeatsPositive(t *testing.T) {
	// 否定词优先：混入肯定关键词的撤回语句也拒绝
	assert.False(t, isDeterministicCreateConfirm("생성해줘... 아니다 취소"))
	assert.False(t, isDeterministicCreateConfirm("아직 생성하지 마"))
}

func TestPoolKeyForMarker(t *testing.T) {
	assert.Equal(t, "logo_type", poolKeyForMarker(entity.MarkerTypeOffer))
	assert.Equal(t, "logo_style", poolKeyForMarker(entity.MarkerStyleOffer))
	assert.Equal(t, "logo_style", poolKeyForMarker(entity.MarkerRefineOffer))
	assert.Equal(t, "", poolKeyForMarker(entity.MarkerLogoListOffer))
	assert.Equal(t, "", poolKeyForMarker(entity.MarkerNone))
}

func TestRecommendationPool(t *testing.T) {
	cfg := &config.Config{}
	cfg.Funnel.RecommendationPool = map[string][]string{
		"logo_type": {
			"asset://logo-types/wordmark.png",
			"  asset://logo-types/emblem.png  ",
			"",
		},
	}

	refs := recommendationPool(cfg, "logo_type")
	require.Len(t, refs, 2)
	assert.Equal(t, "wordmark.png", refs[0].ID)
	assert.Equal(t, "asset://logo-types/wordmark.png", refs[0].URI)
	assert.Equal(t, "emblem.png", refs[1].ID)

	assert.Empty(t, recommendationPool(cfg, "missing"))
	assert.Empty(t, recommendationPool(nil, "logo_type"))
}

func TestResolveProviderModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.Providers = map[string]config.ProviderConfig{
		"openai": {Model: "gpt-4o"},
	}

	p, m, err := resolveProviderModel(cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p)
	assert.Equal(t, "gpt-4o", m)

	p, m, err = resolveProviderModel(cfg, "openai", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", p)
	assert.Equal(t, "gpt-4o-mini", m)

	_, _, err = resolveProviderModel(cfg, "unknown", "")
	assert.Error(t, err)

	cfg.LLM.DefaultProvider = ""
	_, _, err = resolveProviderModel(cfg, "", "")
	assert.Error(t, err)
}
