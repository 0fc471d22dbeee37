package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"finance/database"
	"finance/middleware"
	"finance/models"
	"finance/report"
	"finance/service"
	"finance/store"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	sheetTransactions = "收支明细"
	sheetSummary      = "汇总"
	sheetByCategory   = "类别占比"
	sheetTrend        = "月度趋势"
	sheetBudgets      = "预算"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	reports *service.ReportService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(reports *service.ReportService) *ExportHandler {
	return &ExportHandler{reports: reports}
}

// loadRange 读取 [start, end] 内的收支记录及类别信息
func (h *ExportHandler) loadRange(c *gin.Context, userID uint, start, end models.Date) ([]models.Transaction, bool) {
	var txs []models.Transaction
	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	query = store.ApplyTransactionFilter(query, store.TransactionFilter{
		Range: &store.DateRange{Start: start, End: end},
	})
	if err := query.Preload("Category").Order("date DESC, created_at DESC").Find(&txs).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return nil, false
	}
	return txs, true
}

func typeLabel(t models.TransactionType) string {
	if t == models.TypeIncome {
		return "收入"
	}
	return "支出"
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出收支记录
// @Description 导出 [start_date, end_date] 内的收支记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, ok := requiredDateRange(c)
	if !ok {
		return
	}
	txs, ok := h.loadRange(c, userID, start, end)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// BOM 让 Excel 正确识别中文
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	rows := [][]string{{"ID", "日期", "类型", "金额", "类别", "描述"}}
	for _, tx := range txs {
		v := models.NewTransactionView(tx)
		rows = append(rows, []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Date.String(),
			typeLabel(tx.Type),
			tx.Amount.StringFixed(2),
			v.CategoryName,
			tx.Description,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", start, end)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出报表工作簿
// @Summary 导出 Excel 报表
// @Description 包含收支明细、汇总、类别占比、月度趋势和预算五个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, ok := requiredDateRange(c)
	if !ok {
		return
	}
	txs, ok := h.loadRange(c, userID, start, end)
	if !ok {
		return
	}
	budgets, err := h.reports.Budgets(c.Request.Context(), userID, nil)
	if err != nil {
		respondError(c, err, "统计预算失败")
		return
	}

	categories := make([]models.Category, 0)
	seen := make(map[uint]bool)
	for _, tx := range txs {
		if tx.Category != nil && !seen[tx.Category.ID] {
			seen[tx.Category.ID] = true
			categories = append(categories, *tx.Category)
		}
	}

	f, err := buildReportWorkbook(workbookData{
		Transactions: txs,
		Summary:      report.Summarize(txs),
		ByCategory:   report.Breakdown(txs, categories, start, end),
		Trend:        report.MonthlyTrend(txs),
		Budgets:      budgets,
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("报表_%s_%s.xlsx", start, end)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

type workbookData struct {
	Transactions []models.Transaction
	Summary      report.Summary
	ByCategory   []report.CategoryTotal
	Trend        []report.TrendPoint
	Budgets      []report.BudgetReport
}

// sheetWriter 逐行写入工作表
type sheetWriter struct {
	f           *excelize.File
	sheet       string
	row         int
	headerStyle int
	err         error
}

func (w *sheetWriter) writeRow(values []interface{}, style int) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = err
		return
	}
	if style != 0 && len(values) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(values), w.row)
		w.err = w.f.SetCellStyle(w.sheet, cell, last, style)
	}
}

func (w *sheetWriter) header(values ...interface{}) {
	w.writeRow(values, w.headerStyle)
}

func (w *sheetWriter) line(values ...interface{}) {
	w.writeRow(values, 0)
}

// buildReportWorkbook 生成报表工作簿，调用方负责 Close
func buildReportWorkbook(data workbookData) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{sheetSummary, sheetByCategory, sheetTrend, sheetBudgets} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}
	newWriter := func(sheet string) *sheetWriter {
		return &sheetWriter{f: f, sheet: sheet, headerStyle: headerStyle}
	}

	// 金额以字符串写入，避免浮点误差
	tw := newWriter(sheetTransactions)
	tw.header("ID", "日期", "类型", "金额", "类别", "描述")
	for _, tx := range data.Transactions {
		v := models.NewTransactionView(tx)
		tw.line(tx.ID, tx.Date.String(), typeLabel(tx.Type), tx.Amount.StringFixed(2), v.CategoryName, tx.Description)
	}

	sw := newWriter(sheetSummary)
	sw.header("项目", "金额")
	sw.line("收入", data.Summary.Income.StringFixed(2))
	sw.line("支出", data.Summary.Expense.StringFixed(2))
	sw.line("结余", data.Summary.Balance.StringFixed(2))

	cw := newWriter(sheetByCategory)
	cw.header("类别", "类型", "合计", "笔数", "占比(%)")
	for _, ct := range data.ByCategory {
		name := ct.CategoryName
		if ct.CategoryID == nil {
			name = "未分类"
		}
		cw.line(name, typeLabel(ct.Type), ct.Total.StringFixed(2), ct.Count, ct.Percentage.StringFixed(1))
	}

	mw := newWriter(sheetTrend)
	mw.header("月份", "类型", "合计")
	for _, p := range data.Trend {
		mw.line(p.Month.String()[:7], typeLabel(p.Type), p.Total.StringFixed(2))
	}

	bw := newWriter(sheetBudgets)
	bw.header("类别", "周期", "开始日期", "结束日期", "预算", "已用", "比例(%)", "备注")
	for _, b := range data.Budgets {
		bw.line(b.CategoryName, string(b.Period), b.StartDate.String(), b.EndDate.String(),
			b.Amount.StringFixed(2), b.Spent.StringFixed(2), b.Percentage.StringFixed(2), b.Error)
	}

	for _, w := range []*sheetWriter{tw, sw, cw, mw, bw} {
		if w.err != nil {
			f.Close()
			return nil, fmt.Errorf("写入工作表 %s 失败: %w", w.sheet, w.err)
		}
	}
	return f, nil
}
