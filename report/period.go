// Package report 财务汇总引擎：把收支流水转换为汇总、预算消耗、类别占比和月度趋势。
//
// 包内所有函数都是纯函数，不持有状态，可在任意 goroutine 并发调用。
package report

import (
	"fmt"
	"time"

	"finance/models"
)

// Window 半开日期区间 [Start, End)
type Window struct {
	Start models.Date `json:"start_date"`
	End   models.Date `json:"end_date"`
}

// Contains 日期是否落在窗口内（含开始，不含结束）
func (w Window) Contains(d models.Date) bool {
	return !d.Before(w.Start) && d.Before(w.End)
}

// ResolveEndDate 根据开始日期和周期推算结束日期。
// 目标月份没有对应的日时取该月最后一天（1月31日 -> 2月28/29日）。
func ResolveEndDate(start models.Date, period models.Period) (models.Date, error) {
	if start.IsZero() {
		return models.Date{}, &InvalidDateError{Field: "start_date", Value: start.String()}
	}
	switch period {
	case models.PeriodMonthly:
		return addMonthsClamped(start, 1), nil
	case models.PeriodYearly:
		return addMonthsClamped(start, 12), nil
	default:
		return models.Date{}, &InvalidBudgetError{Reason: fmt.Sprintf("未知的预算周期 %q", period)}
	}
}

// Resolve 字符串版本，start 格式为 YYYY-MM-DD
func Resolve(start string, period models.Period) (models.Date, error) {
	d, err := ParseDate("start_date", start)
	if err != nil {
		return models.Date{}, err
	}
	return ResolveEndDate(d, period)
}

// BudgetWindow 预算的计算窗口，显式给出的结束日期优先于推算结果
func BudgetWindow(b models.Budget) (Window, error) {
	if b.StartDate.IsZero() {
		return Window{}, &InvalidDateError{Field: "start_date"}
	}
	end := b.EndDate
	if end.IsZero() {
		var err error
		end, err = ResolveEndDate(b.StartDate, b.Period)
		if err != nil {
			return Window{}, err
		}
	}
	if !end.After(b.StartDate) {
		return Window{}, &InvalidBudgetError{BudgetID: b.ID, Reason: "结束日期必须晚于开始日期"}
	}
	return Window{Start: b.StartDate, End: end}, nil
}

func addMonthsClamped(d models.Date, months int) models.Date {
	total := int(d.Month()) - 1 + months
	year := d.Year() + total/12
	month := total%12 + 1
	day := d.Day()
	if last := models.DaysIn(year, time.Month(month)); day > last {
		day = last
	}
	return models.NewDate(year, time.Month(month), day)
}
