package service

import (
	"context"
	"fmt"
	"log"

	"finance/models"
	"finance/report"
	"finance/store"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Mailer 预算提醒的发送方
type Mailer interface {
	SendBudgetAlert(toEmail, username string, alerts []report.BudgetReport) error
}

// AlertService 预算提醒：找出当前周期内使用比例达到阈值的预算并通知用户
type AlertService struct {
	reports   *ReportService
	users     store.UserLister
	mailer    Mailer
	threshold decimal.Decimal
}

// NewAlertService 创建预算提醒服务，threshold 为百分比
func NewAlertService(reports *ReportService, users store.UserLister, mailer Mailer, threshold float64) *AlertService {
	return &AlertService{
		reports:   reports,
		users:     users,
		mailer:    mailer,
		threshold: decimal.NewFromFloat(threshold),
	}
}

// Check 返回该用户当前生效且达到阈值的预算
func (s *AlertService) Check(ctx context.Context, userID uint) ([]report.BudgetReport, error) {
	budgets, err := s.reports.Budgets(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	today := s.reports.today()

	alerts := []report.BudgetReport{}
	for _, b := range budgets {
		if b.Error != "" {
			continue
		}
		window, err := report.BudgetWindow(b.Budget)
		if err != nil || !window.Contains(today) {
			continue
		}
		if b.Percentage.GreaterThanOrEqual(s.threshold) {
			alerts = append(alerts, b)
		}
	}
	return alerts, nil
}

// Notify 检查并给单个用户发送提醒，返回已提醒的预算
func (s *AlertService) Notify(ctx context.Context, user models.User) ([]report.BudgetReport, error) {
	alerts, err := s.Check(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return alerts, nil
	}
	if user.Email == "" {
		return nil, fmt.Errorf("用户 %s 未设置邮箱", user.Username)
	}
	if err := s.mailer.SendBudgetAlert(user.Email, user.Username, alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// NotifyAll 遍历所有用户，单个用户失败只记录日志
func (s *AlertService) NotifyAll(ctx context.Context) error {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		alerts, err := s.Notify(ctx, u)
		if err != nil {
			log.Printf("发送预算提醒失败: user=%s, err=%v", u.Username, err)
			continue
		}
		if len(alerts) > 0 {
			log.Printf("已发送预算提醒: user=%s, count=%d", u.Username, len(alerts))
		}
	}
	return nil
}

// Start 按 cron 表达式定时执行 NotifyAll，调用方负责 Stop
func (s *AlertService) Start(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := s.NotifyAll(ctx); err != nil {
			log.Printf("预算提醒任务失败: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("无效的提醒计划 %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("预算提醒任务已启动: %s", schedule)
	return c, nil
}
