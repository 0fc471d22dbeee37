package report

import (
	"fmt"

	"finance/models"
)

// InvalidDateError 日期格式错误或不存在的日历日期
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s 不是有效日期: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("不是有效日期: %q", e.Value)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// InvalidBudgetError 预算金额非正、结束日期不晚于开始日期、周期非法或类别不是支出类别
type InvalidBudgetError struct {
	BudgetID uint
	Reason   string
}

func (e *InvalidBudgetError) Error() string {
	if e.BudgetID != 0 {
		return fmt.Sprintf("预算 #%d 无效: %s", e.BudgetID, e.Reason)
	}
	return "预算无效: " + e.Reason
}

// CategoryTypeMismatchError 收支记录与类别的类型不一致
type CategoryTypeMismatchError struct {
	CategoryID      uint
	CategoryType    models.TransactionType
	TransactionType models.TransactionType
}

func (e *CategoryTypeMismatchError) Error() string {
	return fmt.Sprintf("类别 #%d 类型为 %s，与记录类型 %s 不一致", e.CategoryID, e.CategoryType, e.TransactionType)
}

// ParseDate 解析 YYYY-MM-DD，失败时返回 InvalidDateError
func ParseDate(field, value string) (models.Date, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, &InvalidDateError{Field: field, Value: value, Err: err}
	}
	return d, nil
}
