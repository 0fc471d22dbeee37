package report

import (
	"finance/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Consumption 预算消耗
type Consumption struct {
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BudgetConsumption 计算单个预算在 [start_date, end_date) 内的已用金额和百分比。
// 百分比保留两位小数；金额不为正的预算返回 InvalidBudgetError，不会产生无穷值。
func BudgetConsumption(b models.Budget, txs []models.Transaction) (Consumption, error) {
	if !b.Amount.IsPositive() {
		return Consumption{}, &InvalidBudgetError{BudgetID: b.ID, Reason: "预算金额必须大于0"}
	}
	w, err := BudgetWindow(b)
	if err != nil {
		return Consumption{}, err
	}

	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != models.TypeExpense || tx.CategoryID == nil || *tx.CategoryID != b.CategoryID {
			continue
		}
		if w.Contains(tx.Date) {
			spent = spent.Add(tx.Amount)
		}
	}

	return Consumption{
		Spent:      spent,
		Percentage: spent.Div(b.Amount).Mul(hundred).Round(2),
	}, nil
}

// BudgetReport 带消耗信息的预算，Error 非空时表示该预算无法计算
type BudgetReport struct {
	models.Budget
	CategoryName  string          `json:"category_name"`
	CategoryColor string          `json:"category_color"`
	Spent         decimal.Decimal `json:"spent"`
	Percentage    decimal.Decimal `json:"percentage"`
	Error         string          `json:"error,omitempty"`
}

// BudgetsWithConsumption 逐个计算预算消耗。
// 单个预算出错只记录在该条目上，不影响其余预算。
func BudgetsWithConsumption(budgets []models.Budget, categories []models.Category, txs []models.Transaction) []BudgetReport {
	byID := indexCategories(categories)
	out := make([]BudgetReport, 0, len(budgets))
	for _, b := range budgets {
		r := BudgetReport{Budget: b}
		if c, ok := byID[b.CategoryID]; ok {
			r.CategoryName = c.Name
			r.CategoryColor = c.Color
		} else if b.Category != nil {
			r.CategoryName = b.Category.Name
			r.CategoryColor = b.Category.Color
		}
		cons, err := BudgetConsumption(b, txs)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Spent = cons.Spent
			r.Percentage = cons.Percentage
		}
		out = append(out, r)
	}
	return out
}

func indexCategories(categories []models.Category) map[uint]models.Category {
	m := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}
