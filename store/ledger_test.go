package store

import (
	"context"
	"testing"
	"time"

	"finance/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockLedger(t *testing.T) (*GormLedger, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormLedger(gormDB), mock, func() { sqlDB.Close() }
}

func TestGormLedger_QueryTransactions(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	expense := models.TypeExpense
	food := uint(3)
	mock.ExpectQuery("SELECT \\* FROM `transactions` WHERE user_id = \\? AND type = \\? AND category_id = \\? AND date >= \\? AND date <= \\? ORDER BY date DESC, created_at DESC").
		WithArgs(1, "expense", 3, "2024-01-01", "2024-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "amount", "description", "date", "type", "created_at", "updated_at"}).
			AddRow(2, 1, 3, "30.00", "超市", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "expense", time.Now(), time.Now()).
			AddRow(1, 1, 3, "50.50", "菜市场", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "expense", time.Now(), time.Now()))

	txs, err := ledger.QueryTransactions(context.Background(), 1, TransactionFilter{
		Type:       &expense,
		CategoryID: &food,
		Range: &DateRange{
			Start: models.MustParseDate("2024-01-01"),
			End:   models.MustParseDate("2024-01-31"),
		},
	})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-20", txs[0].Date.String())
	assert.Equal(t, "50.5", txs[1].Amount.String())
	require.NotNil(t, txs[1].CategoryID)
	assert.Equal(t, uint(3), *txs[1].CategoryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_QueryTransactions_OpenRange(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `transactions` WHERE user_id = \\? AND date >= \\? ORDER BY").
		WithArgs(5, "2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "amount", "date", "type"}).
			AddRow(9, nil, "12.00", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), "income"))

	txs, err := ledger.QueryTransactions(context.Background(), 5, TransactionFilter{
		Range: &DateRange{Start: models.MustParseDate("2024-06-01")},
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].CategoryID)
	assert.Equal(t, models.TypeIncome, txs[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_QueryCategories(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	income := models.TypeIncome
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE user_id = \\? AND type = \\?").
		WithArgs(1, "income").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "type", "color", "icon"}).
			AddRow(1, 1, "Salary", "income", "#10b981", "💰"))

	cats, err := ledger.QueryCategories(context.Background(), 1, CategoryFilter{Type: &income})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Salary", cats[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_QueryBudgets(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	monthly := models.PeriodMonthly
	mock.ExpectQuery("SELECT \\* FROM `budgets` WHERE user_id = \\? AND period = \\?").
		WithArgs(1, "monthly").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "amount", "period", "start_date", "end_date"}).
			AddRow(4, 1, 3, "100.00", "monthly", "2024-01-01", "2024-02-01"))

	budgets, err := ledger.QueryBudgets(context.Background(), 1, BudgetFilter{Period: &monthly})
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "2024-02-01", budgets[0].EndDate.String())
	assert.Equal(t, "100", budgets[0].Amount.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_QueryError(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `budgets`").WillReturnError(assert.AnError)

	_, err := ledger.QueryBudgets(context.Background(), 1, BudgetFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGormLedger_ListUsers(t *testing.T) {
	ledger, mock, cleanup := setupMockLedger(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `users` ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "currency"}).
			AddRow(1, "alice", "alice@example.com", "USD").
			AddRow(2, "bob", "bob@example.com", "CNY"))

	users, err := ledger.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "CNY", users[1].Currency)
	require.NoError(t, mock.ExpectationsWereMet())
}
