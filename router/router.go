package router

import (
	"net/http"
	"time"

	"finance/api"
	"finance/config"
	_ "finance/docs"
	"finance/middleware"
	"finance/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services 路由依赖的服务，Alerts 为 nil 时提醒接口返回 503
type Services struct {
	Reports *service.ReportService
	Alerts  *service.AlertService
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(10, time.Hour, "注册过于频繁，请稍后再试"), authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			// 类别
			categoryHandler := api.NewCategoryHandler(svc.Reports)
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 收支记录
			transactionHandler := api.NewTransactionHandler(svc.Reports)
			transactions := authorized.Group("/transactions")
			{
				transactions.POST("", transactionHandler.Create)
				transactions.GET("", transactionHandler.List)
				transactions.GET("/:id", transactionHandler.Get)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.DELETE("/:id", transactionHandler.Delete)
			}

			// 预算
			budgetHandler := api.NewBudgetHandler(svc.Reports, svc.Alerts)
			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.POST("/alerts", budgetHandler.SendAlerts)
				budgets.GET("/:id", budgetHandler.Get)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
			}

			// 报表
			reportHandler := api.NewReportHandler(svc.Reports)
			reports := authorized.Group("/reports")
			{
				reports.GET("/summary", reportHandler.Summary)
				reports.GET("/budgets", reportHandler.Budgets)
				reports.GET("/by-category", reportHandler.ByCategory)
				reports.GET("/monthly-trend", reportHandler.MonthlyTrend)
				reports.GET("/dashboard", reportHandler.Dashboard)
			}

			// 导出相关
			exportHandler := api.NewExportHandler(svc.Reports)
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
