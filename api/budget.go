package api

import (
	"errors"

	"finance/database"
	"finance/middleware"
	"finance/models"
	"finance/report"
	"finance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	reports *service.ReportService
	alerts  *service.AlertService
}

// NewBudgetHandler 创建预算处理器，alerts 为 nil 时不提供手动提醒
func NewBudgetHandler(reports *service.ReportService, alerts *service.AlertService) *BudgetHandler {
	return &BudgetHandler{reports: reports, alerts: alerts}
}

// BudgetRequest 创建预算请求，end_date 为空时按周期推算
type BudgetRequest struct {
	Category  uint             `json:"category" binding:"required" example:"5"`
	Amount    *decimal.Decimal `json:"amount" swaggertype:"string" example:"1000"`
	Period    models.Period    `json:"period" binding:"omitempty,oneof=monthly yearly" example:"monthly"`
	StartDate string           `json:"start_date" binding:"required" example:"2024-01-01"`
	EndDate   string           `json:"end_date" example:"2024-02-01"`
}

// BudgetUpdateRequest 更新预算请求。
// 修改开始日期或周期且未给出 end_date 时，结束日期重新推算。
type BudgetUpdateRequest struct {
	Amount    *decimal.Decimal `json:"amount" swaggertype:"string"`
	Period    *models.Period   `json:"period" binding:"omitempty,oneof=monthly yearly"`
	StartDate *string          `json:"start_date"`
	EndDate   *string          `json:"end_date"`
}

// saveBudget 校验类别与预算窗口，检查唯一性后写入
func saveBudget(c *gin.Context, userID uint, b models.Budget) (models.Budget, bool) {
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", b.CategoryID, userID).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, "类别不存在")
			return b, false
		}
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return b, false
	}

	b, err := report.ValidateBudget(b, cat)
	if err != nil {
		BadRequest(c, err.Error())
		return b, false
	}

	var existing models.Budget
	err = database.DB.Where("user_id = ? AND category_id = ? AND start_date = ? AND end_date = ? AND id != ?",
		userID, b.CategoryID, b.StartDate, b.EndDate, b.ID).First(&existing).Error
	if err == nil {
		BadRequest(c, "该类别在相同周期内已有预算")
		return b, false
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		InternalError(c, SafeErrorMessage(err, "查询预算失败"))
		return b, false
	}

	if err := database.DB.Save(&b).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "保存预算失败"))
		return b, false
	}
	b.Category = &cat
	return b, true
}

// Create 创建预算
// @Summary 创建预算
// @Description 只能为支出类别设置预算，金额必须大于 0；未给出结束日期时按周期推算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "预算信息"
// @Success 200 {object} Response{data=report.BudgetReport} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Amount == nil {
		BadRequest(c, "金额不能为空")
		return
	}
	if req.Period == "" {
		req.Period = models.PeriodMonthly
	}
	start, err := report.ParseDate("start_date", req.StartDate)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	var end models.Date
	if req.EndDate != "" {
		if end, err = report.ParseDate("end_date", req.EndDate); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	b, ok := saveBudget(c, userID, models.Budget{
		UserID:     userID,
		CategoryID: req.Category,
		Amount:     req.Amount.Round(2),
		Period:     req.Period,
		StartDate:  start,
		EndDate:    end,
	})
	if !ok {
		return
	}
	h.reports.InvalidateUser(userID)

	h.respondBudget(c, userID, b, "创建成功")
}

// List 预算列表（含消耗）
// @Summary 获取预算列表
// @Description 每个预算附带已用金额和使用比例；单个预算无法计算时在 error 字段说明
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param period query string false "周期 monthly/yearly"
// @Success 200 {object} Response{data=[]report.BudgetReport} "获取成功"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var period *models.Period
	if v := c.Query("period"); v != "" {
		p := models.Period(v)
		if !p.Valid() {
			BadRequest(c, "无效的周期，应为 monthly 或 yearly")
			return
		}
		period = &p
	}

	list, err := h.reports.Budgets(c.Request.Context(), userID, period)
	if err != nil {
		respondError(c, err, "查询预算失败")
		return
	}
	Success(c, list)
}

func (h *BudgetHandler) find(c *gin.Context, userID uint) (*models.Budget, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var b models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "预算不存在")
			return nil, false
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return nil, false
	}
	return &b, true
}

func (h *BudgetHandler) respondBudget(c *gin.Context, userID uint, b models.Budget, message string) {
	r, err := h.reports.Budget(c.Request.Context(), userID, b)
	if err != nil {
		respondError(c, err, "计算预算消耗失败")
		return
	}
	SuccessWithMessage(c, message, r)
}

// Get 获取单个预算（含消耗）
// @Summary 获取预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=report.BudgetReport} "获取成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.find(c, userID)
	if !ok {
		return
	}
	h.respondBudget(c, userID, *b, "success")
}

// Update 更新预算
// @Summary 更新预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body BudgetUpdateRequest true "预算信息"
// @Success 200 {object} Response{data=report.BudgetReport} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.find(c, userID)
	if !ok {
		return
	}

	var req BudgetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updated := *b
	if req.Amount != nil {
		updated.Amount = req.Amount.Round(2)
	}
	if req.Period != nil {
		updated.Period = *req.Period
		updated.EndDate = models.Date{}
	}
	if req.StartDate != nil {
		start, err := report.ParseDate("start_date", *req.StartDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updated.StartDate = start
		updated.EndDate = models.Date{}
	}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := report.ParseDate("end_date", *req.EndDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updated.EndDate = end
	}

	saved, ok := saveBudget(c, userID, updated)
	if !ok {
		return
	}
	h.reports.InvalidateUser(userID)

	h.respondBudget(c, userID, saved, "更新成功")
}

// Delete 删除预算
// @Summary 删除预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	b, ok := h.find(c, userID)
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.Budget{}, b.ID).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	h.reports.InvalidateUser(userID)

	SuccessWithMessage(c, "删除成功", nil)
}

// SendAlerts 立即检查并发送预算提醒邮件
// @Summary 发送预算提醒
// @Description 检查当前生效且使用比例达到阈值的预算，并发送邮件到用户邮箱
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]report.BudgetReport} "发送成功"
// @Failure 500 {object} Response "发送失败"
// @Failure 503 {object} Response "预算提醒未启用"
// @Router /api/v1/budgets/alerts [post]
func (h *BudgetHandler) SendAlerts(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	if h.alerts == nil {
		ServiceUnavailable(c, "预算提醒未启用")
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	alerts, err := h.alerts.Notify(c.Request.Context(), user)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "发送预算提醒失败"))
		return
	}
	if len(alerts) == 0 {
		SuccessWithMessage(c, "暂无需要提醒的预算", alerts)
		return
	}
	SuccessWithMessage(c, "提醒已发送", alerts)
}
