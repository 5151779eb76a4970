package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/Joellzt/movie-cards/internal/auth"
	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/handler"
	"github.com/Joellzt/movie-cards/internal/repository"
	"github.com/Joellzt/movie-cards/internal/router"
	"github.com/Joellzt/movie-cards/internal/service"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	logger, err := utils.InitLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Sync()

	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY 未设置，目录接口将返回上游错误")
	}

	// 初始化存储
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	repos, err := repository.Open(ctx, cfg.Store)
	cancel()
	if err != nil {
		logger.Fatal("存储初始化失败", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	logger.Info("存储已连接", zap.String("driver", cfg.Store.Driver))

	// 初始化缓存
	utils.InitCache()

	// 认证服务与会话变化日志
	authSvc := auth.NewService(repos.User, cfg.AppSecret, cfg.JWTExpiry, logger)
	authSvc.Start()
	events, unsubscribe := authSvc.Subscribe()
	go func() {
		for ev := range events {
			logger.Info("会话变化", zap.Stringer("type", ev.Type), zap.String("user_id", ev.Session.UserID))
		}
	}()

	// 初始化服务
	client := utils.NewHTTPClient(cfg.TMDB.Timeout, cfg.TMDB.RateLimit)
	catalog := service.NewTMDBService(cfg.TMDB, client, logger)
	library := service.NewLibraryService(repos.SavedMovie, repos.Review, authSvc, logger)

	// 启动缓存维护任务
	cleanupSvc := service.NewCleanupService(catalog, utils.Cache, service.DefaultCleanupInterval, logger)
	cleanupSvc.Start()

	h := handler.NewHandler(cfg, catalog, library, authSvc, logger)
	r := router.New(h, logger)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logger.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器强制关闭", zap.Error(err))
	}

	cleanupSvc.Stop()
	unsubscribe()
	_ = authSvc.Close()
	if err := repos.Close(shutdownCtx); err != nil {
		logger.Warn("关闭存储失败", zap.Error(err))
	}

	logger.Info("服务器已退出")
}
