package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySatisfaction(t *testing.T) {
	cases := []struct {
		text string
		want Verdict
	}{
		{"정말 좋아요!", VerdictPositive},
		{"마음에 들어요", VerdictPositive},
		{"perfect, love it", VerdictPositive},
		{"다시 만들어줘", VerdictNegative},
		{"별로예요", VerdictNegative},
		{"다른 걸 보여주세요", VerdictNegative},
		{"regenerate please", VerdictNegative},
		{"그냥 그래요", VerdictUnknown},
		{"", VerdictUnknown},
		{"   ", VerdictUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySatisfaction(tc.text), "%q", tc.text)
	}
}

func TestClassifySatisfactionPositiveShortCircuits(t *testing.T) {
	// 肯定与否定同时出现时按肯定处理
	assert.Equal(t, VerdictPositive, ClassifySatisfaction("네 좋아요, 근데 다시 만들어줘"))
}

func TestClassifySatisfactionShortAnswers(t *testing.T) {
	assert.Equal(t, VerdictPositive, ClassifySatisfaction("네!"))
	assert.Equal(t, VerdictPositive, ClassifySatisfaction("응."))
	assert.Equal(t, VerdictPositive, ClassifySatisfaction("OK~"))
	assert.Equal(t, VerdictNegative, ClassifySatisfaction("아니"))
	assert.Equal(t, VerdictNegative, ClassifySatisfaction("no."))
	// 短词只在去标点后整词匹配，夹在句子里不算
	assert.Equal(t, VerdictUnknown, ClassifySatisfaction("그런 편인 것 같기도"))
}
