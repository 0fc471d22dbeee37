package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetDefaultCategories(t *testing.T) {
	defaults := GetDefaultCategories()
	assert.Len(t, defaults, 12)

	counts := map[TransactionType]int{}
	names := map[string]bool{}
	for _, c := range defaults {
		assert.True(t, c.Type.Valid(), c.Name)
		assert.NotEmpty(t, c.Icon)
		assert.Len(t, c.Color, 7)
		assert.False(t, names[c.Name], "重复的类别 %s", c.Name)
		names[c.Name] = true
		counts[c.Type]++
	}
	assert.Equal(t, 4, counts[TypeIncome])
	assert.Equal(t, 8, counts[TypeExpense])
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TypeIncome.Valid())
	assert.True(t, TypeExpense.Valid())
	assert.False(t, TransactionType("transfer").Valid())
	assert.False(t, TransactionType("").Valid())
	assert.Equal(t, []TransactionType{TypeIncome, TypeExpense}, Types())
}

func TestNewTransactionView(t *testing.T) {
	catID := uint(5)
	tx := Transaction{
		ID:         1,
		CategoryID: &catID,
		Category:   &Category{ID: 5, Name: "Food", Color: "#ef4444", Icon: "🍔"},
		Amount:     decimal.RequireFromString("12.50"),
		Type:       TypeExpense,
	}
	v := NewTransactionView(tx)
	assert.Equal(t, "Food", v.CategoryName)
	assert.Equal(t, "#ef4444", v.CategoryColor)
	assert.Equal(t, "🍔", v.CategoryIcon)
	assert.Equal(t, uint(1), v.ID)

	// 未分类
	v = NewTransactionView(Transaction{ID: 2, Type: TypeIncome})
	assert.Empty(t, v.CategoryName)
	assert.Empty(t, v.CategoryColor)
	assert.Empty(t, v.CategoryIcon)
}
