package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finance/models"
	"finance/report"
	"finance/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger 内存账本，按过滤条件筛选
type fakeLedger struct {
	mu           sync.Mutex
	transactions []models.Transaction
	categories   []models.Category
	budgets      []models.Budget
	users        []models.User
	txQueries    int
	err          error
}

func (f *fakeLedger) QueryTransactions(_ context.Context, userID uint, filter store.TransactionFilter) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txQueries++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Transaction
	for _, tx := range f.transactions {
		if tx.UserID != userID {
			continue
		}
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filter.CategoryID) {
			continue
		}
		if r := filter.Range; r != nil {
			if !r.Start.IsZero() && tx.Date.Before(r.Start) {
				continue
			}
			if !r.End.IsZero() && tx.Date.After(r.End) {
				continue
			}
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeLedger) QueryCategories(_ context.Context, userID uint, filter store.CategoryFilter) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Category
	for _, c := range f.categories {
		if c.UserID == userID && (filter.Type == nil || c.Type == *filter.Type) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeLedger) QueryBudgets(_ context.Context, userID uint, filter store.BudgetFilter) ([]models.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Budget
	for _, b := range f.budgets {
		if b.UserID == userID && (filter.Period == nil || b.Period == *filter.Period) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListUsers(context.Context) ([]models.User, error) {
	return f.users, f.err
}

func uintPtr(v uint) *uint { return &v }

func tx(id uint, typ models.TransactionType, amount string, category *uint, date string) models.Transaction {
	return models.Transaction{
		ID:         id,
		UserID:     1,
		Type:       typ,
		Amount:     decimal.RequireFromString(amount),
		CategoryID: category,
		Date:       models.MustParseDate(date),
	}
}

func newFixtureLedger() *fakeLedger {
	return &fakeLedger{
		categories: []models.Category{
			{ID: 1, UserID: 1, Name: "工资", Type: models.TypeIncome, Color: "#10b981"},
			{ID: 2, UserID: 1, Name: "餐饮", Type: models.TypeExpense, Color: "#ef4444"},
			{ID: 3, UserID: 1, Name: "交通", Type: models.TypeExpense, Color: "#3b82f6"},
		},
		transactions: []models.Transaction{
			tx(1, models.TypeIncome, "1000", uintPtr(1), "2024-01-05"),
			tx(2, models.TypeExpense, "50", uintPtr(2), "2024-01-10"),
			tx(3, models.TypeExpense, "30", uintPtr(2), "2024-01-20"),
			tx(4, models.TypeExpense, "20", uintPtr(3), "2024-02-01"),
			tx(5, models.TypeExpense, "15", nil, "2024-03-15"),
		},
		budgets: []models.Budget{
			{
				ID: 1, UserID: 1, CategoryID: 2, Period: models.PeriodMonthly,
				Amount:    decimal.RequireFromString("100"),
				StartDate: models.MustParseDate("2024-01-01"),
			},
			{
				ID: 2, UserID: 1, CategoryID: 3, Period: models.PeriodMonthly,
				Amount:    decimal.Zero,
				StartDate: models.MustParseDate("2024-02-01"),
			},
		},
		users: []models.User{
			{ID: 1, Username: "alice", Email: "alice@example.com"},
		},
	}
}

func newTestReportService(ledger store.Ledger, cache *ReportCache, today string) *ReportService {
	s := NewReportService(ledger, cache, 3)
	s.today = func() models.Date { return models.MustParseDate(today) }
	return s
}

func TestReportService_Summary(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-03-20")

	sum, err := s.Summary(context.Background(), 1, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1000", sum.Income.String())
	assert.Equal(t, "115", sum.Expense.String())
	assert.Equal(t, "885", sum.Balance.String())

	expense := models.TypeExpense
	sum, err = s.Summary(context.Background(), 1, store.TransactionFilter{
		Type:  &expense,
		Range: &store.DateRange{Start: models.MustParseDate("2024-01-01"), End: models.MustParseDate("2024-01-31")},
	})
	require.NoError(t, err)
	assert.True(t, sum.Income.IsZero())
	assert.Equal(t, "80", sum.Expense.String())

	// 其他用户看不到数据
	sum, err = s.Summary(context.Background(), 2, store.TransactionFilter{})
	require.NoError(t, err)
	assert.True(t, sum.Balance.IsZero())
}

func TestReportService_Budgets(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-01-25")

	budgets, err := s.Budgets(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, budgets, 2)

	assert.Equal(t, "餐饮", budgets[0].CategoryName)
	assert.Equal(t, "80", budgets[0].Spent.String())
	assert.Equal(t, "80", budgets[0].Percentage.String())
	assert.Empty(t, budgets[0].Error)

	// 金额为 0 的预算单独报错，不影响其他预算
	assert.Equal(t, "交通", budgets[1].CategoryName)
	assert.NotEmpty(t, budgets[1].Error)
}

func TestReportService_Budgets_Empty(t *testing.T) {
	ledger := newFixtureLedger()
	s := newTestReportService(ledger, nil, "2024-01-25")

	yearly := models.PeriodYearly
	budgets, err := s.Budgets(context.Background(), 1, &yearly)
	require.NoError(t, err)
	assert.NotNil(t, budgets)
	assert.Empty(t, budgets)
	assert.Equal(t, 0, ledger.txQueries)
}

func TestReportService_Budget(t *testing.T) {
	ledger := newFixtureLedger()
	s := newTestReportService(ledger, nil, "2024-01-25")

	r, err := s.Budget(context.Background(), 1, ledger.budgets[0])
	require.NoError(t, err)
	assert.Equal(t, "80", r.Spent.String())
	assert.Equal(t, "餐饮", r.CategoryName)
}

func TestReportService_ByCategory(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-03-20")

	totals, err := s.ByCategory(context.Background(), 1,
		models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-31"))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "工资", totals[0].CategoryName)
	assert.Equal(t, "100", totals[0].Percentage.String())
	assert.Equal(t, "餐饮", totals[1].CategoryName)
	assert.Equal(t, 2, totals[1].Count)

	_, err = s.ByCategory(context.Background(), 1,
		models.MustParseDate("2024-02-01"), models.MustParseDate("2024-01-01"))
	var dateErr *report.InvalidDateError
	assert.True(t, errors.As(err, &dateErr))
}

func TestReportService_TrendWindow(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-03-20")

	w := s.TrendWindow(0)
	assert.Equal(t, "2024-01-01", w.Start.String())
	assert.Equal(t, "2024-03-20", w.End.String())

	// 跨年
	w = s.TrendWindow(6)
	assert.Equal(t, "2023-10-01", w.Start.String())

	w = s.TrendWindow(1000)
	assert.Equal(t, "2019-04-01", w.Start.String())
}

func TestReportService_MonthlyTrend(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-03-20")

	points, err := s.MonthlyTrend(context.Background(), 1, 2)
	require.NoError(t, err)
	// 2 月与 3 月只有支出，收入行补 0
	require.Len(t, points, 4)
	assert.Equal(t, "2024-02-01", points[0].Month.String())
	assert.Equal(t, models.TypeIncome, points[0].Type)
	assert.True(t, points[0].Total.IsZero())
	assert.Equal(t, "20", points[1].Total.String())
	assert.Equal(t, "2024-03-01", points[3].Month.String())
	assert.Equal(t, "15", points[3].Total.String())
}

func TestReportService_Dashboard(t *testing.T) {
	s := newTestReportService(newFixtureLedger(), nil, "2024-01-25")

	d, err := s.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", d.StartDate.String())
	assert.Equal(t, "885", d.Summary.Balance.String())
	assert.Len(t, d.Budgets, 2)
	assert.Len(t, d.ByCategory, 2)
	assert.NotEmpty(t, d.Trend)
}

func TestReportService_Dashboard_Error(t *testing.T) {
	ledger := newFixtureLedger()
	ledger.err = errors.New("db down")
	s := newTestReportService(ledger, nil, "2024-01-25")

	_, err := s.Dashboard(context.Background(), 1)
	assert.Error(t, err)
}

func TestReportService_CacheAndInvalidate(t *testing.T) {
	ledger := newFixtureLedger()
	s := newTestReportService(ledger, NewReportCache(100, time.Minute), "2024-03-20")
	ctx := context.Background()
	start, end := models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-31")

	_, err := s.ByCategory(ctx, 1, start, end)
	require.NoError(t, err)
	_, err = s.ByCategory(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.txQueries)

	// 窗口外的日期不影响缓存
	s.InvalidateDates(1, models.MustParseDate("2024-03-01"))
	_, err = s.ByCategory(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.txQueries)

	ledger.transactions = append(ledger.transactions, tx(6, models.TypeExpense, "20", uintPtr(2), "2024-01-15"))
	s.InvalidateDates(1, models.MustParseDate("2024-01-15"))
	totals, err := s.ByCategory(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.txQueries)
	assert.Equal(t, "100", totals[1].Total.String())

	s.InvalidateUser(1)
	_, err = s.ByCategory(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.txQueries)
}

// writeDuringQuery 第一次查询收支时模拟并发写入：新增记录并失效缓存
type writeDuringQuery struct {
	*fakeLedger
	once  sync.Once
	write func()
}

func (w *writeDuringQuery) QueryTransactions(ctx context.Context, userID uint, filter store.TransactionFilter) ([]models.Transaction, error) {
	txs, err := w.fakeLedger.QueryTransactions(ctx, userID, filter)
	w.once.Do(w.write)
	return txs, err
}

func TestReportService_WriteDuringQueryNotCached(t *testing.T) {
	ledger := &writeDuringQuery{fakeLedger: newFixtureLedger()}
	s := newTestReportService(ledger, NewReportCache(100, time.Minute), "2024-03-20")
	ledger.write = func() {
		ledger.mu.Lock()
		ledger.transactions = append(ledger.transactions, tx(6, models.TypeIncome, "500", uintPtr(1), "2024-01-06"))
		ledger.mu.Unlock()
		s.InvalidateDates(1, models.MustParseDate("2024-01-06"))
	}
	ctx := context.Background()

	// 查询期间的写入使本次结果过期，不应进入缓存
	first, err := s.Summary(ctx, 1, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1000", first.Income.String())

	second, err := s.Summary(ctx, 1, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1500", second.Income.String())
	assert.Equal(t, 2, ledger.txQueries)

	// 之后没有写入，正常命中缓存
	third, err := s.Summary(ctx, 1, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1500", third.Income.String())
	assert.Equal(t, 2, ledger.txQueries)
}

func TestReportService_InvalidateDates_Dedup(t *testing.T) {
	cache := NewReportCache(100, time.Minute)
	s := newTestReportService(newFixtureLedger(), cache, "2024-03-20")
	d := models.MustParseDate("2024-01-15")

	before := cache.Generation(1)
	// 更新未改日期时新旧日期相同，只失效一次；零值忽略
	s.InvalidateDates(1, d, d, models.Date{})
	assert.Equal(t, before+1, cache.Generation(1))

	s.InvalidateDates(1, d, models.MustParseDate("2024-02-01"))
	assert.Equal(t, before+3, cache.Generation(1))
}
