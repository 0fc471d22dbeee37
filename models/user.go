package models

import (
	"time"
)

// DefaultCurrency 用户默认币种，仅用于展示，不做汇率换算
const DefaultCurrency = "USD"

// User 用户模型
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Currency  string    `json:"currency" gorm:"size:3;default:USD"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
