package models

import (
	"time"
)

// TransactionType 收支类型
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid 是否为合法的收支类型
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Types 固定顺序的收支类型，收入在前
func Types() []TransactionType {
	return []TransactionType{TypeIncome, TypeExpense}
}

const (
	DefaultCategoryColor = "#6366f1"
	DefaultCategoryIcon  = "💰"
)

// Category 用户自定义收支类别
type Category struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"-" gorm:"not null;uniqueIndex:idx_category_user_name_type"`
	Name      string          `json:"name" gorm:"size:100;not null;uniqueIndex:idx_category_user_name_type"`
	Type      TransactionType `json:"type" gorm:"size:10;not null;uniqueIndex:idx_category_user_name_type"`
	Color     string          `json:"color" gorm:"size:7;default:#6366f1"`
	Icon      string          `json:"icon" gorm:"size:50;default:💰"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategory 默认类别模板
type DefaultCategory struct {
	Name  string
	Type  TransactionType
	Icon  string
	Color string
}

// GetDefaultCategories 新用户的默认类别
func GetDefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"Salary", TypeIncome, "💰", "#10b981"},
		{"Freelance", TypeIncome, "💼", "#059669"},
		{"Investment", TypeIncome, "📈", "#34d399"},
		{"Gift", TypeIncome, "🎁", "#6ee7b7"},
		{"Food", TypeExpense, "🍔", "#ef4444"},
		{"Transport", TypeExpense, "🚗", "#f59e0b"},
		{"Housing", TypeExpense, "🏠", "#8b5cf6"},
		{"Entertainment", TypeExpense, "🎬", "#ec4899"},
		{"Shopping", TypeExpense, "🛒", "#f43f5e"},
		{"Healthcare", TypeExpense, "💊", "#06b6d4"},
		{"Education", TypeExpense, "🎓", "#3b82f6"},
		{"Utilities", TypeExpense, "⚡", "#fbbf24"},
	}
}
