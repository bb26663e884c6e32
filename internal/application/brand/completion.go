package brand

import (
	"strings"

	"brand-studio-api/internal/domain/entity"
)

// Progress 画像填写进度
type Progress struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
}

// fieldPresent 字段“已填写”判定：拼接形式 trim 后非空
func fieldPresent(joined string) bool {
	return strings.TrimSpace(joined) != ""
}

// RequiredComplete 必填子集：品牌名与业种齐备。
// 解锁“跳过剩余问题”入口。
func RequiredComplete(p *entity.BrandProfile) bool {
	if p == nil {
		return false
	}
	return fieldPresent(p.BrandName) && fieldPresent(p.Industry)
}

// AllComplete 全部 9 个字段齐备。
// 在项目尚未持久化时将“跳过”入口翻转为“生成”。
func AllComplete(p *entity.BrandProfile) bool {
	if p == nil {
		return false
	}
	for _, v := range p.FieldValues() {
		if !fieldPresent(v) {
			return false
		}
	}
	return true
}

// ComputeProgress 统计已填写字段数与比例
func ComputeProgress(p *entity.BrandProfile) Progress {
	answered := 0
	if p != nil {
		for _, v := range p.FieldValues() {
			if fieldPresent(v) {
				answered++
			}
		}
	}
	return Progress{
		Answered: answered,
		Total:    entity.ProfileFieldCount,
		Ratio:    float64(answered) / float64(entity.ProfileFieldCount),
	}
}
