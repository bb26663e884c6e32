// Package entity 定义领域实体
package entity

import "strings"

// BrandProfile 品牌画像，共 9 个可选属性。
// 上游结构化数据与本地推断使用两套字段命名（category↔industry、
// tone_mood↔mood、avoided_trends↔avoid_trends），归一化在 brand 包边界完成，
// 内部只使用本结构的规范命名。
type BrandProfile struct {
	BrandName       string   `json:"brand_name,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Mood            string   `json:"mood,omitempty"`
	CoreKeywords    []string `json:"core_keywords,omitempty"`
	TargetAge       string   `json:"target_age,omitempty"`
	TargetGender    string   `json:"target_gender,omitempty"`
	AvoidTrends     []string `json:"avoid_trends,omitempty"`
	Slogan          string   `json:"slogan,omitempty"`
	PreferredColors []string `json:"preferred_colors,omitempty"`
}

// ProfileFieldCount 品牌画像字段总数
const ProfileFieldCount = 9

// FieldValues 按固定顺序返回 9 个字段的拼接字符串形式。
// 列表字段以逗号连接；字段“已填写”当且仅当 TrimSpace 后非空。
func (p *BrandProfile) FieldValues() []string {
	if p == nil {
		return make([]string, ProfileFieldCount)
	}
	return []string{
		p.BrandName,
		p.Industry,
		p.Mood,
		strings.Join(p.CoreKeywords, ","),
		p.TargetAge,
		p.TargetGender,
		strings.Join(p.AvoidTrends, ","),
		p.Slogan,
		strings.Join(p.PreferredColors, ","),
	}
}

// IsZero 判断画像是否完全为空
func (p *BrandProfile) IsZero() bool {
	for _, v := range p.FieldValues() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
