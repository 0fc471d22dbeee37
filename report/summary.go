package report

import (
	"finance/models"

	"github.com/shopspring/decimal"
)

// Summary 收支汇总
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Summarize 汇总收入、支出与结余，空输入返回全零
func Summarize(txs []models.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case models.TypeIncome:
			income = income.Add(tx.Amount)
		case models.TypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return Summary{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}
