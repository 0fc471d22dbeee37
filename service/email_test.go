package service

import (
	"testing"

	"finance/config"
	"finance/models"
	"finance/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateBudgetAlertBody(t *testing.T) {
	s := newTestEmailService()
	alerts := []report.BudgetReport{
		{
			Budget: models.Budget{
				Amount:    decimal.RequireFromString("100"),
				StartDate: models.MustParseDate("2024-01-01"),
				EndDate:   models.MustParseDate("2024-02-01"),
			},
			CategoryName: "<餐饮>",
			Spent:        decimal.RequireFromString("120"),
			Percentage:   decimal.RequireFromString("120"),
		},
		{
			Budget: models.Budget{
				Amount:    decimal.RequireFromString("500"),
				StartDate: models.MustParseDate("2024-01-01"),
				EndDate:   models.MustParseDate("2024-02-01"),
			},
			CategoryName: "交通",
			Spent:        decimal.RequireFromString("400"),
			Percentage:   decimal.RequireFromString("80"),
		},
	}

	body := s.generateBudgetAlertBody("张三", alerts)
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "&lt;餐饮&gt;")
	assert.NotContains(t, body, "<餐饮>")
	assert.Contains(t, body, "2024-01-01 ~ 2024-01-31")
	assert.Contains(t, body, "120.00 / 100.00")
	assert.Contains(t, body, "80.00%")
	// 超支的预算标红
	assert.Contains(t, body, "#ef4444; font-weight: 600;\">120.00%")
	assert.Contains(t, body, "#f59e0b; font-weight: 600;\">80.00%")
}

func TestSendBudgetAlert_Disabled(t *testing.T) {
	s := newTestEmailService()
	err := s.SendBudgetAlert("a@example.com", "张三", []report.BudgetReport{{}})
	assert.Error(t, err)
}

func TestSendBudgetAlert_NoAlerts(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: true})
	assert.NoError(t, s.SendBudgetAlert("a@example.com", "张三", nil))
}
