package store

import (
	"context"
	"fmt"

	"finance/models"
)

// UserLister 遍历用户，供定时任务使用
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

func (l *GormLedger) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := l.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return users, nil
}
