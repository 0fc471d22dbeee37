package report

import (
	"sort"

	"finance/models"

	"github.com/shopspring/decimal"
)

// CategoryTotal 按类别和类型分组的合计
type CategoryTotal struct {
	CategoryID    *uint                  `json:"category_id"`
	CategoryName  string                 `json:"category_name"`
	CategoryIcon  string                 `json:"category_icon"`
	CategoryColor string                 `json:"category_color"`
	Type          models.TransactionType `json:"type"`
	Total         decimal.Decimal        `json:"total"`
	Count         int                    `json:"count"`
	Percentage    decimal.Decimal        `json:"percentage"`
}

type groupKey struct {
	categoryID uint
	hasID      bool
	typ        models.TransactionType
}

// Breakdown 统计 [start, end] 闭区间内各类别的合计与同类型内占比。
// 未分类的记录按类型各自成组，CategoryID 为 nil。
// 占比保留一位小数；某类型合计为零时该类型所有组占比为 0。
// 输出按合计降序，其次收入在前，再按类别 ID 升序（未分类排最后）。
func Breakdown(txs []models.Transaction, categories []models.Category, start, end models.Date) []CategoryTotal {
	byID := indexCategories(categories)
	groups := make(map[groupKey]*CategoryTotal)
	typeTotals := map[models.TransactionType]decimal.Decimal{
		models.TypeIncome:  decimal.Zero,
		models.TypeExpense: decimal.Zero,
	}

	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		if !tx.Type.Valid() {
			continue
		}
		key := groupKey{typ: tx.Type}
		if tx.CategoryID != nil {
			key.categoryID = *tx.CategoryID
			key.hasID = true
		}
		g, ok := groups[key]
		if !ok {
			g = &CategoryTotal{Type: tx.Type, Total: decimal.Zero}
			if key.hasID {
				id := key.categoryID
				g.CategoryID = &id
				if c, found := byID[id]; found {
					g.CategoryName = c.Name
					g.CategoryIcon = c.Icon
					g.CategoryColor = c.Color
				}
			}
			groups[key] = g
		}
		g.Total = g.Total.Add(tx.Amount)
		g.Count++
		typeTotals[tx.Type] = typeTotals[tx.Type].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(groups))
	for _, g := range groups {
		typeTotal := typeTotals[g.Type]
		if typeTotal.IsZero() {
			g.Percentage = decimal.Zero
		} else {
			g.Percentage = g.Total.Div(typeTotal).Mul(hundred).Round(1)
		}
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		if a.Type != b.Type {
			return a.Type == models.TypeIncome
		}
		if (a.CategoryID == nil) != (b.CategoryID == nil) {
			return b.CategoryID == nil
		}
		if a.CategoryID != nil {
			return *a.CategoryID < *b.CategoryID
		}
		return false
	})
	return out
}
