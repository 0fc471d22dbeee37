package report

import (
	"sort"
	"time"

	"finance/models"

	"github.com/shopspring/decimal"
)

// TrendPoint 某月某类型的合计，Month 为当月第一天
type TrendPoint struct {
	Month models.Date            `json:"month"`
	Type  models.TransactionType `json:"type"`
	Total decimal.Decimal        `json:"total"`
}

type monthKey struct {
	year  int
	month int
}

// MonthlyTrend 按自然月和类型汇总。
// 输入中出现过的每个月都同时输出收入和支出两行（无记录时合计为 0），
// 月份升序，同月内收入在前。
func MonthlyTrend(txs []models.Transaction) []TrendPoint {
	totals := make(map[monthKey]map[models.TransactionType]decimal.Decimal)
	for _, tx := range txs {
		if !tx.Type.Valid() || tx.Date.IsZero() {
			continue
		}
		k := monthKey{year: tx.Date.Year(), month: int(tx.Date.Month())}
		bucket, ok := totals[k]
		if !ok {
			bucket = map[models.TransactionType]decimal.Decimal{
				models.TypeIncome:  decimal.Zero,
				models.TypeExpense: decimal.Zero,
			}
			totals[k] = bucket
		}
		bucket[tx.Type] = bucket[tx.Type].Add(tx.Amount)
	}

	months := make([]monthKey, 0, len(totals))
	for k := range totals {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	out := make([]TrendPoint, 0, len(months)*2)
	for _, k := range months {
		first := models.NewDate(k.year, time.Month(k.month), 1)
		for _, typ := range models.Types() {
			out = append(out, TrendPoint{Month: first, Type: typ, Total: totals[k][typ]})
		}
	}
	return out
}
