// Package brand 从对话与结构化数据中提取并归一化品牌画像。
package brand

import (
	"encoding/json"
	"strings"

	"brand-studio-api/internal/domain/entity"
)

// profileField 画像字段标识
type profileField int

const (
	fieldBrandName profileField = iota
	fieldIndustry
	fieldMood
	fieldKeywords
	fieldTargetAge
	fieldTargetGender
	fieldAvoidTrends
	fieldSlogan
	fieldColors
)

// questionRules 助手提问的分类表。顺序即优先级：命中第一条即停。
var questionRules = []struct {
	field profileField
	keys  []string
}{
	{fieldBrandName, []string{"브랜드 이름", "브랜드명", "이름을 알려"}},
	{fieldIndustry, []string{"업종", "산업", "카테고리"}},
	{fieldMood, []string{"분위기", "무드", "톤"}},
	{fieldKeywords, []string{"키워드"}},
	{fieldTargetAge, []string{"연령", "나이"}},
	{fieldTargetGender, []string{"성별"}},
	{fieldAvoidTrends, []string{"피하고 싶", "피할", "지양"}},
	{fieldSlogan, []string{"슬로건"}},
	{fieldColors, []string{"색상", "컬러", "색깔"}},
}

// skipWords 用户跳过回答的固定标记。命中时该字段保持为空。
var skipWords = []string{"없음", "없어요", "건너뛰기", "건너뛸게요", "건너뛸래", "스킵", "skip", "모르겠", "pass"}

// Extract 提取品牌画像。结构化数据可解析时永远优先于对话推断。
func Extract(turns []*entity.ConversationTurn, structured json.RawMessage) *entity.BrandProfile {
	if len(structured) > 0 {
		if p, err := FromStructured(structured); err == nil && !p.IsZero() {
			return p
		}
	}
	return ExtractInferred(turns)
}

// ExtractInferred 回退策略：扫描 (assistant, user) 相邻轮次对。
// 对每条用户轮次，找最近的前置助手轮次并按提问分类表归类，
// 将修剪后的回答写入对应字段；回答包含跳过标记时字段保持为空。
func ExtractInferred(turns []*entity.ConversationTurn) *entity.BrandProfile {
	profile := &entity.BrandProfile{}

	for i, turn := range turns {
		if turn.Role != entity.RoleUser {
			continue
		}
		question := nearestPrecedingAssistant(turns, i)
		if question == nil {
			continue
		}
		field, ok := classifyQuestion(question.Content)
		if !ok {
			continue
		}
		answer := strings.TrimSpace(turn.Content)
		if answer == "" || isSkip(answer) {
			continue
		}
		assign(profile, field, answer)
	}

	return profile
}

func nearestPrecedingAssistant(turns []*entity.ConversationTurn, from int) *entity.ConversationTurn {
	for i := from - 1; i >= 0; i-- {
		if turns[i].Role == entity.RoleAssistant {
			return turns[i]
		}
	}
	return nil
}

func classifyQuestion(content string) (profileField, bool) {
	for _, rule := range questionRules {
		for _, key := range rule.keys {
			if strings.Contains(content, key) {
				return rule.field, true
			}
		}
	}
	return 0, false
}

func isSkip(answer string) bool {
	lower := strings.ToLower(answer)
	for _, w := range skipWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func assign(p *entity.BrandProfile, field profileField, answer string) {
	switch field {
	case fieldBrandName:
		p.BrandName = answer
	case fieldIndustry:
		p.Industry = answer
	case fieldMood:
		p.Mood = answer
	case fieldKeywords:
		p.CoreKeywords = splitList(answer)
	case fieldTargetAge:
		p.TargetAge = answer
	case fieldTargetGender:
		p.TargetGender = answer
	case fieldAvoidTrends:
		p.AvoidTrends = splitList(answer)
	case fieldSlogan:
		p.Slogan = answer
	case fieldColors:
		p.PreferredColors = splitList(answer)
	}
}

// splitList 逗号切分列表字段，逐项修剪并丢弃空项
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// structuredPayload 同时接受本地与远端两套字段命名的信封。
// 读取时两套拼写都接受，归一化后内部不再区分来源词汇。
type structuredPayload struct {
	BrandName string `json:"brand_name"`

	Industry string `json:"industry"`
	Category string `json:"category"`

	Mood     string `json:"mood"`
	ToneMood string `json:"tone_mood"`

	CoreKeywords flexList `json:"core_keywords"`

	TargetAge    string `json:"target_age"`
	TargetGender string `json:"target_gender"`

	AvoidTrends   flexList `json:"avoid_trends"`
	AvoidedTrends flexList `json:"avoided_trends"`

	Slogan          string   `json:"slogan"`
	PreferredColors flexList `json:"preferred_colors"`
}

// flexList 列表字段的宽松解码：接受 JSON 数组或逗号分隔字符串
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = splitList(s)
	return nil
}

// FromStructured 将生成调用返回的结构化品牌对象映射为规范画像
func FromStructured(raw json.RawMessage) (*entity.BrandProfile, error) {
	var payload structuredPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	p := &entity.BrandProfile{
		BrandName:       strings.TrimSpace(payload.BrandName),
		Industry:        firstNonBlank(payload.Industry, payload.Category),
		Mood:            firstNonBlank(payload.Mood, payload.ToneMood),
		CoreKeywords:    trimList(payload.CoreKeywords),
		TargetAge:       strings.TrimSpace(payload.TargetAge),
		TargetGender:    strings.TrimSpace(payload.TargetGender),
		AvoidTrends:     firstNonEmptyList(payload.AvoidTrends, payload.AvoidedTrends),
		Slogan:          strings.TrimSpace(payload.Slogan),
		PreferredColors: trimList(payload.PreferredColors),
	}
	return p, nil
}

// UnifiedView 产出同时包含两套拼写的统一视图，
// 供向远端词汇消费方回写时使用。
func UnifiedView(p *entity.BrandProfile) map[string]any {
	if p == nil {
		p = &entity.BrandProfile{}
	}
	return map[string]any{
		"brand_name":       p.BrandName,
		"industry":         p.Industry,
		"category":         p.Industry,
		"mood":             p.Mood,
		"tone_mood":        p.Mood,
		"core_keywords":    p.CoreKeywords,
		"target_age":       p.TargetAge,
		"target_gender":    p.TargetGender,
		"avoid_trends":     p.AvoidTrends,
		"avoided_trends":   p.AvoidTrends,
		"slogan":           p.Slogan,
		"preferred_colors": p.PreferredColors,
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmptyList(lists ...flexList) []string {
	for _, l := range lists {
		if trimmed := trimList(l); len(trimmed) > 0 {
			return trimmed
		}
	}
	return nil
}

func trimList(l flexList) []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
