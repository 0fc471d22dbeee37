package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period 预算周期
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid 是否为合法周期
func (p Period) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

// Budget 类别预算，窗口为 [StartDate, EndDate)
type Budget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"-" gorm:"not null;uniqueIndex:idx_budget_window"`
	CategoryID uint            `json:"category" gorm:"not null;uniqueIndex:idx_budget_window"`
	Category   *Category       `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Period     Period          `json:"period" gorm:"size:20;not null;default:monthly"`
	StartDate  Date            `json:"start_date" gorm:"not null;uniqueIndex:idx_budget_window"`
	EndDate    Date            `json:"end_date" gorm:"not null;uniqueIndex:idx_budget_window"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Budget) TableName() string {
	return "budgets"
}
