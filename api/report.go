package api

import (
	"strconv"

	"finance/middleware"
	"finance/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary 收支汇总
// @Summary 收支汇总
// @Description 收入、支出与结余，过滤参数与收支列表相同
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param type query string false "类型 income/expense"
// @Param category query int false "类别ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-01-31)"
// @Success 200 {object} Response{data=report.Summary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	f, ok := transactionFilterFromQuery(c)
	if !ok {
		return
	}

	sum, err := h.reports.Summary(c.Request.Context(), userID, f)
	if err != nil {
		respondError(c, err, "统计失败")
		return
	}
	Success(c, sum)
}

// Budgets 预算消耗
// @Summary 预算消耗
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]report.BudgetReport} "获取成功"
// @Router /api/v1/reports/budgets [get]
func (h *ReportHandler) Budgets(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	list, err := h.reports.Budgets(c.Request.Context(), userID, nil)
	if err != nil {
		respondError(c, err, "统计失败")
		return
	}
	Success(c, list)
}

// ByCategory 类别占比
// @Summary 类别占比
// @Description 统计闭区间 [start_date, end_date] 内各类别合计及其在同类型中的占比
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-01-31)"
// @Success 200 {object} Response{data=[]report.CategoryTotal} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/by-category [get]
func (h *ReportHandler) ByCategory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, ok := requiredDateRange(c)
	if !ok {
		return
	}

	list, err := h.reports.ByCategory(c.Request.Context(), userID, start, end)
	if err != nil {
		respondError(c, err, "统计失败")
		return
	}
	Success(c, list)
}

// MonthlyTrend 月度趋势
// @Summary 月度趋势
// @Description 最近若干个自然月（含本月）的月度收入与支出
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param months query int false "月数 1-60，默认取配置"
// @Success 200 {object} Response{data=[]report.TrendPoint} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/monthly-trend [get]
func (h *ReportHandler) MonthlyTrend(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	months := 0
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			BadRequest(c, "months 应为 1 到 60 之间的整数")
			return
		}
		months = n
	}

	list, err := h.reports.MonthlyTrend(c.Request.Context(), userID, months)
	if err != nil {
		respondError(c, err, "统计失败")
		return
	}
	Success(c, list)
}

// Dashboard 首页汇总
// @Summary 首页汇总
// @Description 一次返回收支汇总、预算消耗、本月类别占比和月度趋势
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.Dashboard} "获取成功"
// @Router /api/v1/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	d, err := h.reports.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "统计失败")
		return
	}
	Success(c, d)
}
