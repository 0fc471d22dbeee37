package report

import (
	"fmt"

	"finance/models"
)

// ValidateTransaction 入库前校验收支记录。
// category 为 nil 表示未分类，允许。
func ValidateTransaction(tx models.Transaction, category *models.Category) error {
	if !tx.Type.Valid() {
		return fmt.Errorf("无效的收支类型 %q", tx.Type)
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("金额不能为负数")
	}
	if tx.Date.IsZero() {
		return &InvalidDateError{Field: "date"}
	}
	if category != nil && category.Type != tx.Type {
		return &CategoryTypeMismatchError{
			CategoryID:      category.ID,
			CategoryType:    category.Type,
			TransactionType: tx.Type,
		}
	}
	return nil
}

// ValidateBudget 入库前校验预算，并在缺少结束日期时按周期补全。
// 返回补全后的预算。
func ValidateBudget(b models.Budget, category models.Category) (models.Budget, error) {
	if !b.Amount.IsPositive() {
		return b, &InvalidBudgetError{BudgetID: b.ID, Reason: "预算金额必须大于0"}
	}
	if !b.Period.Valid() {
		return b, &InvalidBudgetError{BudgetID: b.ID, Reason: fmt.Sprintf("未知的预算周期 %q", b.Period)}
	}
	if category.Type != models.TypeExpense {
		return b, &InvalidBudgetError{BudgetID: b.ID, Reason: "只能为支出类别设置预算"}
	}
	w, err := BudgetWindow(b)
	if err != nil {
		return b, err
	}
	b.EndDate = w.End
	return b, nil
}
