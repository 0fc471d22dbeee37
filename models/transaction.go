package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction 收支记录
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"-" gorm:"index;not null"`
	CategoryID  *uint           `json:"category" gorm:"index"`
	Category    *Category       `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Date        Date            `json:"date" gorm:"index;not null"`
	Type        TransactionType `json:"type" gorm:"size:10;not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TransactionView 带类别展示信息的收支记录
type TransactionView struct {
	Transaction
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
	CategoryIcon  string `json:"category_icon"`
}

// NewTransactionView 组装展示结构，未分类时类别字段为空
func NewTransactionView(tx Transaction) TransactionView {
	v := TransactionView{Transaction: tx}
	if tx.Category != nil {
		v.CategoryName = tx.Category.Name
		v.CategoryColor = tx.Category.Color
		v.CategoryIcon = tx.Category.Icon
	}
	return v
}
