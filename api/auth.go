package api

import (
	"errors"
	"log"
	"strings"

	"finance/config"
	"finance/database"
	"finance/middleware"
	"finance/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150" example:"testuser"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Currency string `json:"currency" binding:"omitempty,len=3" example:"USD"`
}

// LoginRequest 登录请求（支持用户名或邮箱）
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"testuser"` // 可为用户名或邮箱
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号，并为其创建默认收支类别；成功后直接返回 token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	var existing models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		BadRequest(c, "用户名已存在")
		return
	}
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		BadRequest(c, "邮箱已被注册")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = models.DefaultCurrency
	}
	user := models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Currency: currency,
	}

	// 用户与默认类别一起创建
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		n, err := database.SeedDefaultCategories(tx, user.ID)
		if err != nil {
			return err
		}
		log.Printf("新用户注册: %s, 默认类别 %d 个", user.Username, n)
		return nil
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建用户失败"))
		return
	}

	// 注册即登录
	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	SuccessWithMessage(c, "注册成功", LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户登录获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 429 {object} Response "登录尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var user models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("登录查询用户失败: %v", err)
		}
		Unauthorized(c, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Description 获取当前登录用户的详细信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	Success(c, user)
}
