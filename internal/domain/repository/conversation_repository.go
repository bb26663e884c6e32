// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"brand-studio-api/internal/domain/entity"
)

// ConversationSessionRepository 漏斗会话仓储接口
type ConversationSessionRepository interface {
	Create(ctx context.Context, session *entity.ConversationSession) error
	GetByID(ctx context.Context, id string) (*entity.ConversationSession, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.ConversationSession, error)
	Update(ctx context.Context, session *entity.ConversationSession) error
	// GetByProjectAndKind 定位某项目下指定漏斗类型的会话（logo/shorts 直开场景）
	GetByProjectAndKind(ctx context.Context, projectID int64, kind entity.ConversationKind) (*entity.ConversationSession, error)
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.ConversationSession], error)
}

// ConversationTurnRepository 轮次历史存储。append-only：轮次只增不改。
type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.ConversationTurn], error)
	// ListAllBySession 按创建顺序加载全量轮次，供阶段推导重建 Turn Log
	ListAllBySession(ctx context.Context, sessionID string) ([]*entity.ConversationTurn, error)
}
