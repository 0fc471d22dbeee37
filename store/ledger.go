package store

import (
	"context"
	"fmt"

	"finance/models"

	"gorm.io/gorm"
)

// DateRange 闭区间日期过滤，零值端点表示不限
type DateRange struct {
	Start models.Date
	End   models.Date
}

// TransactionFilter 收支记录查询条件
type TransactionFilter struct {
	Type       *models.TransactionType
	CategoryID *uint
	Range      *DateRange
}

// CategoryFilter 类别查询条件
type CategoryFilter struct {
	Type *models.TransactionType
}

// BudgetFilter 预算查询条件
type BudgetFilter struct {
	Period *models.Period
}

// Ledger 账本查询接口，所有查询都限定在 userID 所属账户内
type Ledger interface {
	QueryTransactions(ctx context.Context, userID uint, f TransactionFilter) ([]models.Transaction, error)
	QueryCategories(ctx context.Context, userID uint, f CategoryFilter) ([]models.Category, error)
	QueryBudgets(ctx context.Context, userID uint, f BudgetFilter) ([]models.Budget, error)
}

// GormLedger 基于 gorm 的账本实现
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger 创建账本
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// ApplyTransactionFilter 把过滤条件应用到查询上，列表接口和报表共用
func ApplyTransactionFilter(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Range != nil {
		if !f.Range.Start.IsZero() {
			q = q.Where("date >= ?", f.Range.Start)
		}
		if !f.Range.End.IsZero() {
			q = q.Where("date <= ?", f.Range.End)
		}
	}
	return q
}

func (l *GormLedger) QueryTransactions(ctx context.Context, userID uint, f TransactionFilter) ([]models.Transaction, error) {
	q := l.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	q = ApplyTransactionFilter(q, f)

	var txs []models.Transaction
	if err := q.Order("date DESC, created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("查询收支记录失败: %w", err)
	}
	return txs, nil
}

func (l *GormLedger) QueryCategories(ctx context.Context, userID uint, f CategoryFilter) ([]models.Category, error) {
	q := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}

	var cats []models.Category
	if err := q.Order("type ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return cats, nil
}

func (l *GormLedger) QueryBudgets(ctx context.Context, userID uint, f BudgetFilter) ([]models.Budget, error) {
	q := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Period != nil {
		q = q.Where("period = ?", *f.Period)
	}

	var budgets []models.Budget
	if err := q.Order("start_date DESC, id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("查询预算失败: %w", err)
	}
	return budgets, nil
}
