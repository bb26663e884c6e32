// Package entity 定义领域实体
package entity

import (
	"strconv"
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project 品牌项目实体。
// 主键为自增数字 ID：项目创建成功后若服务端没有返回新的会话令牌，
// 客户端会直接以该数字 ID 充当令牌，这一兼容行为要求 ID 可单调转为字符串。
type Project struct {
	ID          int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID     string        `json:"owner_id" gorm:"type:uuid;index;not null"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Description string        `json:"description,omitempty" gorm:"type:text"`
	Profile     *BrandProfile `json:"profile,omitempty" gorm:"type:jsonb;serializer:json"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(32);default:'active'"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(ownerID, name, description string, profile *BrandProfile) *Project {
	now := time.Now()
	return &Project{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Profile:     profile,
		Status:      ProjectStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TokenFallback 以持久化数字 ID 充当会话令牌的回退形式
func (p *Project) TokenFallback() string {
	return strconv.FormatInt(p.ID, 10)
}
