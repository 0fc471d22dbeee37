package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"finance/config"
	"finance/database"
	"finance/middleware"
	"finance/router"
	"finance/service"
	"finance/store"

	"github.com/spf13/cobra"
)

// @title 记账系统 API
// @version 1.0
// @description 个人记账系统 API，支持收支记录、类别、预算管理以及汇总、预算消耗、类别占比和月度趋势报表
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "v1.0.0"

var (
	configFile string
	rootCmd    = &cobra.Command{
		Use:           "finance",
		Short:         "💰 记账系统",
		Long:          "个人记账系统：收支记录、类别、预算管理以及财务汇总报表",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "外部配置文件路径（可选）")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCategoriesCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Fatalf("%v", err)
	}
}

// setup 加载配置并初始化数据库
func setup() (*config.Config, error) {
	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if err := database.Init(cfg); err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	return cfg, nil
}

// newReportService 按配置创建报表服务，缓存清理协程随 ctx 退出
func newReportService(ctx context.Context, cfg *config.Config) *service.ReportService {
	var cache *service.ReportCache
	if cfg.Report.CacheEnabled {
		cache = service.NewReportCache(cfg.Report.CacheSize, cfg.Report.CacheTTL)
		cache.StartCleanup(ctx, time.Minute)
	}
	return service.NewReportService(store.NewGormLedger(database.GetDB()), cache, cfg.Report.TrendMonths)
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}

			// 命令行参数覆盖端口配置
			if port != "" {
				// 自动添加冒号前缀
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				cfg.Server.Port = port
				log.Printf("命令行指定端口: %s", port)
			}

			// 打印配置信息
			config.PrintConfig()

			if err := database.Init(cfg); err != nil {
				return fmt.Errorf("数据库初始化失败: %w", err)
			}

			// 初始化 JWT
			middleware.InitJWT(cfg)

			reports := newReportService(ctx, cfg)

			var alerts *service.AlertService
			if cfg.Alert.Enabled {
				alerts = service.NewAlertService(reports, store.NewGormLedger(database.GetDB()),
					service.NewEmailService(&cfg.Email), cfg.Alert.Threshold)
				scheduler, err := alerts.Start(ctx, cfg.Alert.Schedule)
				if err != nil {
					return err
				}
				defer scheduler.Stop()
			}

			// 设置路由
			r := router.SetupRouter(cfg, router.Services{Reports: reports, Alerts: alerts})

			srv := &http.Server{
				Addr:    cfg.Server.Port,
				Handler: r,
			}

			// 启动服务器
			log.Printf("==========================================")
			log.Printf("  💰 记账系统已启动")
			log.Printf("==========================================")
			log.Printf("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
			log.Printf("  API接口:  http://localhost%s/api/v1/", cfg.Server.Port)
			log.Printf("==========================================")

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("服务器启动失败: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Println("正在关闭服务器...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("关闭服务器失败: %w", err)
			}
			log.Println("服务器已关闭")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")
	return cmd
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "为所有用户补齐默认类别",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(); err != nil {
				return err
			}
			return database.SeedAllUsers(database.GetDB())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "记账系统 %s\n", version)
		},
	}
}
