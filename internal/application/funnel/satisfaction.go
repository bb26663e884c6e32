package funnel

import "strings"

// Verdict 满意度判定结果
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
	VerdictUnknown  Verdict = "unknown"
)

// positiveKeywords 肯定关键词。先检查且命中即短路：
// 肯定与否定同时出现时按肯定处理（与既有行为保持一致）。
var positiveKeywords = []string{
	"좋아", "좋습니다", "좋네요", "마음에 들", "맘에 들", "마음에 듭니다",
	"만족", "완벽", "최고", "멋지", "예쁘", "예뻐",
	"good", "great", "perfect", "love it", "nice",
}

// negativeKeywords 否定关键词
var negativeKeywords = []string{
	"다시", "별로", "아니요", "아니에요", "싫", "재생성", "바꿔", "바꾸",
	"다른 걸", "다른걸", "마음에 안", "맘에 안",
	"regenerate", "redo", "again",
}

// shortPositives 去标点后的极短肯定回答
var shortPositives = []string{"네", "예", "응", "좋아", "그래", "yes", "ok", "okay", "y"}

// shortNegatives 极短否定回答
var shortNegatives = []string{"아니", "아뇨", "no", "n"}

// ClassifySatisfaction 将自由文本回复解释为满意度判定。
// Unknown 时调用方必须重新提问而不是猜测。
func ClassifySatisfaction(text string) Verdict {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return VerdictUnknown
	}

	for _, kw := range positiveKeywords {
		if strings.Contains(normalized, kw) {
			return VerdictPositive
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(normalized, kw) {
			return VerdictNegative
		}
	}

	stripped := strings.Trim(normalized, " \t\r\n。．.！!？?，,;；:：~")
	for _, w := range shortPositives {
		if stripped == w {
			return VerdictPositive
		}
	}
	for _, w := range shortNegatives {
		if stripped == w {
			return VerdictNegative
		}
	}

	return VerdictUnknown
}
