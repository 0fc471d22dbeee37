package service

import (
	"fmt"
	"html"
	"strings"

	"finance/config"
	"finance/report"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetAlert 发送预算提醒邮件
func (s *EmailService) SendBudgetAlert(toEmail, username string, alerts []report.BudgetReport) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 FINANCE_EMAIL_ENABLED=true")
	}
	if len(alerts) == 0 {
		return nil
	}

	subject := fmt.Sprintf("【记账系统】%d 项预算即将或已经超支", len(alerts))
	body := s.generateBudgetAlertBody(username, alerts)

	return s.sendEmail(toEmail, subject, body)
}

// generateBudgetAlertBody 生成预算提醒邮件内容
func (s *EmailService) generateBudgetAlertBody(username string, alerts []report.BudgetReport) string {
	var rows strings.Builder
	for _, a := range alerts {
		color := "#f59e0b"
		if a.Percentage.GreaterThan(hundred) {
			color = "#ef4444"
		}
		fmt.Fprintf(&rows, `
            <tr>
                <td>%s</td>
                <td>%s ~ %s</td>
                <td>%s / %s</td>
                <td style="color: %s; font-weight: 600;">%s%%</td>
            </tr>`,
			html.EscapeString(a.CategoryName),
			a.StartDate, a.EndDate.AddDays(-1),
			a.Spent.StringFixed(2), a.Amount.StringFixed(2),
			color, a.Percentage.StringFixed(2))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #f59e0b, #ef4444); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        table { width: 100%%; border-collapse: collapse; font-size: 14px; }
        th, td { padding: 10px 8px; border-bottom: 1px solid #eee; text-align: left; }
        th { background: #f8f9fa; color: #555; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 预算提醒</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>以下预算的使用比例已达到提醒阈值：</p>
            <table>
                <tr><th>类别</th><th>周期</th><th>已用 / 预算</th><th>比例</th></tr>%s
            </table>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© 记账系统 - 您的个人财务管理助手</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(username), rows.String())
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
