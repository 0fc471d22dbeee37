package api

import (
	"errors"

	"finance/database"
	"finance/middleware"
	"finance/models"
	"finance/report"
	"finance/service"
	"finance/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 收支记录处理器
type TransactionHandler struct {
	reports *service.ReportService
}

// NewTransactionHandler 创建收支记录处理器
func NewTransactionHandler(reports *service.ReportService) *TransactionHandler {
	return &TransactionHandler{reports: reports}
}

// TransactionRequest 创建收支记录请求
type TransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,oneof=income expense" example:"expense"`
	Amount      *decimal.Decimal       `json:"amount" swaggertype:"string" example:"99.99"`
	Category    *uint                  `json:"category" example:"3"`
	Description string                 `json:"description" example:"午餐"`
	Date        string                 `json:"date" binding:"required" example:"2024-01-15"`
}

// TransactionUpdateRequest 更新收支记录请求，category 为 0 表示取消分类
type TransactionUpdateRequest struct {
	Type        *models.TransactionType `json:"type" binding:"omitempty,oneof=income expense"`
	Amount      *decimal.Decimal        `json:"amount" swaggertype:"string"`
	Category    *uint                   `json:"category"`
	Description *string                 `json:"description"`
	Date        *string                 `json:"date"`
}

// loadCategory 读取当前用户的类别，id 为 nil 表示未分类
func loadCategory(c *gin.Context, userID uint, id *uint) (*models.Category, bool) {
	if id == nil {
		return nil, true
	}
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", *id, userID).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, "类别不存在")
			return nil, false
		}
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return nil, false
	}
	return &cat, true
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Description 类别可选；设置类别时记录类型必须与类别类型一致
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "收支记录"
// @Success 200 {object} Response{data=models.TransactionView} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Amount == nil {
		BadRequest(c, "金额不能为空")
		return
	}
	date, err := report.ParseDate("date", req.Date)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	cat, ok := loadCategory(c, userID, req.Category)
	if !ok {
		return
	}

	tx := models.Transaction{
		UserID:      userID,
		Type:        req.Type,
		Amount:      req.Amount.Round(2),
		CategoryID:  req.Category,
		Description: req.Description,
		Date:        date,
	}
	if err := report.ValidateTransaction(tx, cat); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Create(&tx).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建收支记录失败"))
		return
	}
	h.reports.InvalidateDates(userID, tx.Date)

	tx.Category = cat
	SuccessWithMessage(c, "创建成功", models.NewTransactionView(tx))
}

// List 获取收支记录列表
// @Summary 获取收支记录列表
// @Description 按日期倒序分页返回，日期范围两端均包含
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param type query string false "类型 income/expense"
// @Param category query int false "类别ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-01-31)"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} Response{data=PageResponse{list=[]models.TransactionView}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	f, ok := transactionFilterFromQuery(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	query = store.ApplyTransactionFilter(query, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	var txs []models.Transaction
	offset := (page - 1) * pageSize
	if err := query.Preload("Category").Order("date DESC, created_at DESC").
		Offset(offset).Limit(pageSize).Find(&txs).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	list := make([]models.TransactionView, 0, len(txs))
	for _, tx := range txs {
		list = append(list, models.NewTransactionView(tx))
	}
	Success(c, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		List:     list,
	})
}

func (h *TransactionHandler) find(c *gin.Context, userID uint) (*models.Transaction, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var tx models.Transaction
	if err := database.DB.Preload("Category").Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "记录不存在")
			return nil, false
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return nil, false
	}
	return &tx, true
}

// Get 获取单条收支记录
// @Summary 获取单条收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response{data=models.TransactionView} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	tx, ok := h.find(c, userID)
	if !ok {
		return
	}
	Success(c, models.NewTransactionView(*tx))
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Description 只更新请求中出现的字段，更新后重新校验类型与类别是否一致
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Param request body TransactionUpdateRequest true "收支记录"
// @Success 200 {object} Response{data=models.TransactionView} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	tx, ok := h.find(c, userID)
	if !ok {
		return
	}

	var req TransactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	oldDate := tx.Date
	updated := *tx
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Amount != nil {
		updated.Amount = req.Amount.Round(2)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Date != nil {
		date, err := report.ParseDate("date", *req.Date)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updated.Date = date
	}
	if req.Category != nil {
		if *req.Category == 0 {
			updated.CategoryID = nil
			updated.Category = nil
		} else {
			cat, ok := loadCategory(c, userID, req.Category)
			if !ok {
				return
			}
			updated.CategoryID = &cat.ID
			updated.Category = cat
		}
	}
	if err := report.ValidateTransaction(updated, updated.Category); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Model(tx).Updates(map[string]interface{}{
		"type":        updated.Type,
		"amount":      updated.Amount,
		"category_id": updated.CategoryID,
		"description": updated.Description,
		"date":        updated.Date,
	}).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	h.reports.InvalidateDates(userID, oldDate, updated.Date)

	SuccessWithMessage(c, "更新成功", models.NewTransactionView(updated))
}

// Delete 删除收支记录
// @Summary 删除收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	tx, ok := h.find(c, userID)
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.Transaction{}, tx.ID).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	h.reports.InvalidateDates(userID, tx.Date)

	SuccessWithMessage(c, "删除成功", nil)
}
