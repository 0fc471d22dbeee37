package api

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"finance/models"
	"finance/report"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportRouter() *gin.Engine {
	h := NewExportHandler(newTestReports())
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/export/csv", h.ExportCSV)
	router.GET("/export/excel", h.ExportExcel)
	return router
}

func TestExportHandler_ExportCSV(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `transactions` WHERE user_id = \\? AND date >= \\? AND date <= \\?").
		WithArgs(1, "2024-01-01", "2024-01-31").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(1, 1, 2, "99.9", "午餐", "2024-01-15", "expense", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT \\* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).
			AddRow(2, 1, "餐饮", "expense", "#ef4444", "🍔", time.Now()))

	w := httptest.NewRecorder()
	newExportRouter().ServeHTTP(w, httptest.NewRequest("GET", "/export/csv?start_date=2024-01-01&end_date=2024-01-31", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transactions_2024-01-01_2024-01-31.csv")
	body := w.Body.String()
	assert.Contains(t, body, "ID,日期,类型,金额,类别,描述")
	assert.Contains(t, body, "1,2024-01-15,支出,99.90,餐饮,午餐")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHandler_ExportCSV_MissingParams(t *testing.T) {
	w := httptest.NewRecorder()
	newExportRouter().ServeHTTP(w, httptest.NewRequest("GET", "/export/csv", nil))
	assert.Equal(t, 400, w.Code)
}

func TestExportHandler_ExportExcel(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(1, 1, nil, "20.00", "", "2024-01-15", "expense", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT \\* FROM `budgets`").
		WillReturnRows(sqlmock.NewRows(budgetColumns))

	w := httptest.NewRecorder()
	newExportRouter().ServeHTTP(w, httptest.NewRequest("GET", "/export/excel?start_date=2024-01-01&end_date=2024-01-31", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("汇总", "B3")
	require.NoError(t, err)
	assert.Equal(t, "20.00", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildReportWorkbook(t *testing.T) {
	catID := uint(2)
	txs := []models.Transaction{
		{ID: 1, Type: models.TypeIncome, Amount: decimal.RequireFromString("100"), Date: models.MustParseDate("2024-01-05")},
		{ID: 2, Type: models.TypeExpense, Amount: decimal.RequireFromString("40"), Date: models.MustParseDate("2024-02-10"),
			CategoryID: &catID, Category: &models.Category{ID: 2, Name: "餐饮", Type: models.TypeExpense}},
	}
	categories := []models.Category{*txs[1].Category}
	start, end := models.MustParseDate("2024-01-01"), models.MustParseDate("2024-02-29")

	f, err := buildReportWorkbook(workbookData{
		Transactions: txs,
		Summary:      report.Summarize(txs),
		ByCategory:   report.Breakdown(txs, categories, start, end),
		Trend:        report.MonthlyTrend(txs),
		Budgets: []report.BudgetReport{{
			Budget: models.Budget{
				Period:    models.PeriodMonthly,
				Amount:    decimal.RequireFromString("50"),
				StartDate: models.MustParseDate("2024-02-01"),
				EndDate:   models.MustParseDate("2024-03-01"),
			},
			CategoryName: "餐饮",
			Spent:        decimal.RequireFromString("40"),
			Percentage:   decimal.RequireFromString("80"),
		}},
	})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"收支明细", "汇总", "类别占比", "月度趋势", "预算"}, f.GetSheetList())

	rows, err := f.GetRows("收支明细")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2", "2024-02-10", "支出", "40.00", "餐饮"}, rows[2][:5])

	balance, _ := f.GetCellValue("汇总", "B4")
	assert.Equal(t, "60.00", balance)

	trend, err := f.GetRows("月度趋势")
	require.NoError(t, err)
	// 表头 + 两个月各两行
	assert.Len(t, trend, 5)
	assert.Equal(t, "2024-01", trend[1][0])

	pct, _ := f.GetCellValue("预算", "G2")
	assert.Equal(t, "80.00", pct)
}
