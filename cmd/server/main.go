// PaiGong 排班服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paigong/paigong/internal/config"
	"github.com/paigong/paigong/internal/database"
	"github.com/paigong/paigong/internal/handler"
	"github.com/paigong/paigong/internal/metrics"
	"github.com/paigong/paigong/internal/middleware"
	"github.com/paigong/paigong/internal/repository"
	"github.com/paigong/paigong/internal/security"
	"github.com/paigong/paigong/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	format := "json"
	if cfg.IsDevelopment() {
		format = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("PaiGong 排班服务启动中")

	// 连接数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库连接失败")
		os.Exit(1)
	}
	defer db.Close()

	// 仓储
	employeeRepo := repository.NewEmployeeRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	// 处理器
	employeeHandler := handler.NewEmployeeHandler(employeeRepo)
	projectHandler := handler.NewProjectHandler(projectRepo)
	scheduleHandler := handler.NewScheduleHandler(employeeRepo, projectRepo, assignmentRepo, cfg.Engine)
	assignmentHandler := handler.NewAssignmentHandler(employeeRepo, projectRepo, assignmentRepo)
	reportHandler := handler.NewReportHandler(employeeRepo, projectRepo, assignmentRepo)
	swapHandler := handler.NewSwapHandler(employeeRepo, assignmentRepo, cfg.Engine)
	rulesHandler := handler.NewRulesHandler()

	// 管理端鉴权
	keyManager := security.NewAPIKeyManager()
	if cfg.Auth.AdminAPIKey != "" {
		keyManager.Seed(cfg.Auth.AdminAPIKey, "admin")
	}
	rateLimiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)

	mux := http.NewServeMux()

	// 系统端点
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := db.Health(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprintf(w, `{"status":"%s","service":"paigong"}`, status)
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// 员工管理
	mux.HandleFunc("POST /api/v1/employees", employeeHandler.Create)
	mux.HandleFunc("GET /api/v1/employees", employeeHandler.List)
	mux.HandleFunc("GET /api/v1/employees/{id}", employeeHandler.Get)
	mux.HandleFunc("PUT /api/v1/employees/{id}", employeeHandler.Update)
	mux.HandleFunc("DELETE /api/v1/employees/{id}", employeeHandler.Delete)
	mux.HandleFunc("POST /api/v1/employees/{id}/token", employeeHandler.IssueToken)

	// 项目管理
	mux.HandleFunc("POST /api/v1/projects", projectHandler.Create)
	mux.HandleFunc("GET /api/v1/projects", projectHandler.List)
	mux.HandleFunc("GET /api/v1/projects/{id}", projectHandler.Get)
	mux.HandleFunc("PUT /api/v1/projects/{id}", projectHandler.Update)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", projectHandler.Delete)

	// 排班引擎，生成落库需要专门的权限范围
	requireSchedule := middleware.RequireScope("schedule:generate", keyManager)
	mux.Handle("POST /api/v1/schedule/generate", requireSchedule(http.HandlerFunc(scheduleHandler.Generate)))
	mux.HandleFunc("POST /api/v1/schedule/preview", scheduleHandler.Preview)

	// 分配管理
	mux.HandleFunc("GET /api/v1/assignments", assignmentHandler.List)
	mux.HandleFunc("POST /api/v1/assignments/{id}/approve", assignmentHandler.Approve)
	mux.HandleFunc("POST /api/v1/assignments/{id}/cancel", assignmentHandler.Cancel)

	// 员工自报门户，凭门户令牌认证
	mux.HandleFunc("POST /api/v1/portal/report", assignmentHandler.Report)
	mux.HandleFunc("GET /api/v1/portal/assignments", assignmentHandler.MyAssignments)

	// 换班与补位
	mux.HandleFunc("POST /api/v1/swaps/check", swapHandler.Check)
	mux.HandleFunc("POST /api/v1/swaps/execute", swapHandler.Execute)
	mux.HandleFunc("POST /api/v1/swaps/backfill", swapHandler.Backfill)

	// 报表
	mux.HandleFunc("GET /api/v1/reports/summary", reportHandler.Summary)
	mux.HandleFunc("GET /api/v1/reports/employees/{id}/calendar.ics", reportHandler.ExportICS)

	// 规则目录
	mux.HandleFunc("GET /api/v1/rules", rulesHandler.Catalog)

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	// 中间件链：requestID -> recovery -> cors -> logging -> auth
	// 门户端点走令牌认证，跳过API密钥校验
	authConfig := &middleware.AuthConfig{
		APIKeyManager:   keyManager,
		RateLimiter:     rateLimiter,
		Enabled:         cfg.Auth.Enabled,
		EnableRateLimit: true,
		SkipPaths: []string{
			"/health",
			"/version",
			cfg.Metrics.Path,
			"/api/v1/portal",
		},
	}
	var root http.Handler = mux
	root = middleware.AuthMiddleware(authConfig)(root)
	root = middleware.LoggingMiddleware(root)
	if cfg.API.CORS.Enabled {
		root = middleware.CORSMiddleware(cfg.API.CORS.Origins)(root)
	}
	root = middleware.SecurityHeadersMiddleware(root)
	root = middleware.RecoveryMiddleware(root)
	root = middleware.RequestIDMiddleware(root)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// DB连接池指标上报
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s := db.Stats()
			metrics.SetDBConnections(s.OpenConnections, s.Idle, s.InUse)
		}
	}()

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("version", Version).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}
