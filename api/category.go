package api

import (
	"errors"
	"strings"

	"finance/database"
	"finance/middleware"
	"finance/models"
	"finance/service"
	"finance/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 收支类别管理
type CategoryHandler struct {
	reports *service.ReportService
}

// NewCategoryHandler 创建类别处理器，reports 用于类别变动后清理报表缓存
func NewCategoryHandler(reports *service.ReportService) *CategoryHandler {
	return &CategoryHandler{reports: reports}
}

type CategoryCreateRequest struct {
	Name  string                 `json:"name" binding:"required,min=1,max=100" example:"餐饮"`
	Type  models.TransactionType `json:"type" binding:"required,oneof=income expense" example:"expense"`
	Color string                 `json:"color" binding:"omitempty,max=7" example:"#ef4444"`
	Icon  string                 `json:"icon" binding:"omitempty,max=50" example:"🍔"`
}

// CategoryUpdateRequest 类型创建后不可修改
type CategoryUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color *string `json:"color" binding:"omitempty,max=7"`
	Icon  *string `json:"icon" binding:"omitempty,max=50"`
}

// List 列出当前用户的类别
// @Summary 获取类别列表
// @Description 获取当前用户的收支类别，按类型、名称排序
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param type query string false "类型 income/expense"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var f store.CategoryFilter
	if v := c.Query("type"); v != "" {
		typ := models.TransactionType(v)
		if !typ.Valid() {
			BadRequest(c, "无效的类型，应为 income 或 expense")
			return
		}
		f.Type = &typ
	}

	list, err := store.NewGormLedger(database.DB).QueryCategories(c.Request.Context(), userID, f)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if list == nil {
		list = []models.Category{}
	}
	Success(c, list)
}

// Create 创建类别
// @Summary 创建类别
// @Description 同一用户下名称和类型的组合唯一
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误或类别已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ? AND type = ?", userID, req.Name, req.Type).First(&existing).Error; err == nil {
		BadRequest(c, "类别已存在")
		return
	}

	cat := models.Category{
		UserID: userID,
		Name:   req.Name,
		Type:   req.Type,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if cat.Color == "" {
		cat.Color = models.DefaultCategoryColor
	}
	if cat.Icon == "" {
		cat.Icon = models.DefaultCategoryIcon
	}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// Update 更新类别
// @Summary 更新类别
// @Description 更新名称、颜色或图标
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryUpdateRequest true "更新的类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误或类别已存在"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		var existing models.Category
		if err := database.DB.Where("user_id = ? AND name = ? AND type = ? AND id != ?", userID, name, cat.Type, cat.ID).First(&existing).Error; err == nil {
			BadRequest(c, "类别已存在")
			return
		}
		updates["name"] = name
	}
	if req.Color != nil {
		color := *req.Color
		if color == "" {
			color = models.DefaultCategoryColor
		}
		updates["color"] = color
	}
	if req.Icon != nil {
		icon := *req.Icon
		if icon == "" {
			icon = models.DefaultCategoryIcon
		}
		updates["icon"] = icon
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", cat)
		return
	}

	if err := database.DB.Model(&cat).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	h.reports.InvalidateUser(userID)
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 该类别下的收支记录变为未分类，相关预算一并删除
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "类别不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND category_id = ?", userID, cat.ID).Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	h.reports.InvalidateUser(userID)
	SuccessWithMessage(c, "删除成功", nil)
}
