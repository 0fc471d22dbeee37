package service

import (
	"context"
	"fmt"
	"time"

	"finance/models"
	"finance/report"
	"finance/store"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 60
)

// Dashboard 首页汇总
type Dashboard struct {
	Summary    report.Summary         `json:"summary"`
	Budgets    []report.BudgetReport  `json:"budgets"`
	ByCategory []report.CategoryTotal `json:"by_category"`
	Trend      []report.TrendPoint    `json:"monthly_trend"`
	StartDate  models.Date            `json:"start_date"`
	EndDate    models.Date            `json:"end_date"`
}

// ReportService 报表服务：从账本读取快照后交给 report 包计算
type ReportService struct {
	ledger      store.Ledger
	cache       *ReportCache
	trendMonths int
	today       func() models.Date
}

// NewReportService 创建报表服务，cache 为 nil 时不缓存
func NewReportService(ledger store.Ledger, cache *ReportCache, trendMonths int) *ReportService {
	if trendMonths <= 0 {
		trendMonths = defaultTrendMonths
	}
	return &ReportService{
		ledger:      ledger,
		cache:       cache,
		trendMonths: trendMonths,
		today:       models.Today,
	}
}

// Summary 收支汇总，过滤条件与收支列表一致
func (s *ReportService) Summary(ctx context.Context, userID uint, f store.TransactionFilter) (report.Summary, error) {
	kind := "summary" + filterKey(f)
	window := rangeOf(f)
	v, gen, ok := s.cacheGet(userID, kind, window)
	if ok {
		return v.(report.Summary), nil
	}

	txs, err := s.ledger.QueryTransactions(ctx, userID, f)
	if err != nil {
		return report.Summary{}, err
	}
	sum := report.Summarize(txs)
	s.cacheSet(userID, gen, kind, window, sum)
	return sum, nil
}

// Budgets 预算及其消耗，单个预算出错只影响该条目
func (s *ReportService) Budgets(ctx context.Context, userID uint, period *models.Period) ([]report.BudgetReport, error) {
	kind := "budgets"
	if period != nil {
		kind += ":" + string(*period)
	}
	v, gen, ok := s.cacheGet(userID, kind, store.DateRange{})
	if ok {
		return v.([]report.BudgetReport), nil
	}

	budgets, err := s.ledger.QueryBudgets(ctx, userID, store.BudgetFilter{Period: period})
	if err != nil {
		return nil, err
	}
	out := []report.BudgetReport{}
	if len(budgets) > 0 {
		expense := models.TypeExpense
		categories, err := s.ledger.QueryCategories(ctx, userID, store.CategoryFilter{Type: &expense})
		if err != nil {
			return nil, err
		}
		txs, err := s.ledger.QueryTransactions(ctx, userID, store.TransactionFilter{
			Type:  &expense,
			Range: budgetsSpan(budgets),
		})
		if err != nil {
			return nil, err
		}
		out = report.BudgetsWithConsumption(budgets, categories, txs)
	}
	s.cacheSet(userID, gen, kind, store.DateRange{}, out)
	return out, nil
}

// Budget 单个预算的消耗
func (s *ReportService) Budget(ctx context.Context, userID uint, b models.Budget) (report.BudgetReport, error) {
	expense := models.TypeExpense
	categories, err := s.ledger.QueryCategories(ctx, userID, store.CategoryFilter{Type: &expense})
	if err != nil {
		return report.BudgetReport{}, err
	}
	txs, err := s.ledger.QueryTransactions(ctx, userID, store.TransactionFilter{
		Type:       &expense,
		CategoryID: &b.CategoryID,
		Range:      budgetsSpan([]models.Budget{b}),
	})
	if err != nil {
		return report.BudgetReport{}, err
	}
	return report.BudgetsWithConsumption([]models.Budget{b}, categories, txs)[0], nil
}

// ByCategory 闭区间 [start, end] 内的类别占比
func (s *ReportService) ByCategory(ctx context.Context, userID uint, start, end models.Date) ([]report.CategoryTotal, error) {
	if end.Before(start) {
		return nil, &report.InvalidDateError{Field: "end_date", Value: end.String(), Err: fmt.Errorf("结束日期不能早于开始日期")}
	}
	window := store.DateRange{Start: start, End: end}
	v, gen, ok := s.cacheGet(userID, "by_category", window)
	if ok {
		return v.([]report.CategoryTotal), nil
	}

	categories, err := s.ledger.QueryCategories(ctx, userID, store.CategoryFilter{})
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.QueryTransactions(ctx, userID, store.TransactionFilter{Range: &window})
	if err != nil {
		return nil, err
	}
	out := report.Breakdown(txs, categories, start, end)
	s.cacheSet(userID, gen, "by_category", window, out)
	return out, nil
}

// TrendWindow 最近 months 个自然月（含本月）的日期范围
func (s *ReportService) TrendWindow(months int) store.DateRange {
	if months <= 0 {
		months = s.trendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}
	today := s.today()
	first := today.FirstOfMonth()
	start := models.NewDate(first.Year(), first.Month()-time.Month(months-1), 1)
	return store.DateRange{Start: start, End: today}
}

// MonthlyTrend 最近 months 个月的月度收支趋势
func (s *ReportService) MonthlyTrend(ctx context.Context, userID uint, months int) ([]report.TrendPoint, error) {
	window := s.TrendWindow(months)
	v, gen, ok := s.cacheGet(userID, "monthly_trend", window)
	if ok {
		return v.([]report.TrendPoint), nil
	}

	txs, err := s.ledger.QueryTransactions(ctx, userID, store.TransactionFilter{Range: &window})
	if err != nil {
		return nil, err
	}
	out := report.MonthlyTrend(txs)
	s.cacheSet(userID, gen, "monthly_trend", window, out)
	return out, nil
}

// Dashboard 并发计算首页所需的四类报表
func (s *ReportService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	today := s.today()
	d := &Dashboard{
		StartDate: today.FirstOfMonth(),
		EndDate:   today,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Summary(gctx, userID, store.TransactionFilter{})
		d.Summary = sum
		return err
	})
	g.Go(func() error {
		budgets, err := s.Budgets(gctx, userID, nil)
		d.Budgets = budgets
		return err
	})
	g.Go(func() error {
		byCat, err := s.ByCategory(gctx, userID, d.StartDate, d.EndDate)
		d.ByCategory = byCat
		return err
	})
	g.Go(func() error {
		trend, err := s.MonthlyTrend(gctx, userID, 0)
		d.Trend = trend
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// InvalidateDates 收支记录变动后调用，dates 为变动前后涉及的日期
func (s *ReportService) InvalidateDates(userID uint, dates ...models.Date) {
	if s == nil || s.cache == nil {
		return
	}
	// 预算报表缓存不带窗口，任何日期都会使其失效
	for i, d := range dates {
		if d.IsZero() || containsDate(dates[:i], d) {
			continue
		}
		s.cache.InvalidateDate(userID, d)
	}
}

func containsDate(dates []models.Date, d models.Date) bool {
	for _, o := range dates {
		if o.Equal(d) {
			return true
		}
	}
	return false
}

// InvalidateUser 类别或预算变动后调用
func (s *ReportService) InvalidateUser(userID uint) {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.InvalidateUser(userID)
}

// cacheGet 未命中时返回的代数需传给 cacheSet
func (s *ReportService) cacheGet(userID uint, kind string, window store.DateRange) (interface{}, uint64, bool) {
	if s.cache == nil {
		return nil, 0, false
	}
	gen := s.cache.Generation(userID)
	v, ok := s.cache.Get(userID, kind, window)
	return v, gen, ok
}

func (s *ReportService) cacheSet(userID uint, gen uint64, kind string, window store.DateRange, v interface{}) {
	if s.cache == nil {
		return
	}
	s.cache.SetIfGeneration(userID, gen, kind, window, v)
}

func filterKey(f store.TransactionFilter) string {
	key := ""
	if f.Type != nil {
		key += ":type=" + string(*f.Type)
	}
	if f.CategoryID != nil {
		key += fmt.Sprintf(":category=%d", *f.CategoryID)
	}
	return key
}

func rangeOf(f store.TransactionFilter) store.DateRange {
	if f.Range == nil {
		return store.DateRange{}
	}
	return *f.Range
}

// budgetsSpan 覆盖所有预算窗口的最小闭区间
func budgetsSpan(budgets []models.Budget) *store.DateRange {
	var span store.DateRange
	for i, b := range budgets {
		end := b.EndDate
		if end.IsZero() {
			if resolved, err := report.ResolveEndDate(b.StartDate, b.Period); err == nil {
				end = resolved
			}
		}
		if i == 0 || b.StartDate.Before(span.Start) {
			span.Start = b.StartDate
		}
		if i == 0 || end.After(span.End) {
			span.End = end
		}
	}
	return &span
}
