package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/handler"
	"github.com/user/cowatch/internal/middleware"
	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/router"
	"github.com/user/cowatch/internal/service"
	"github.com/user/cowatch/internal/utils"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.Env != "production")
	if envErr != nil {
		utils.Logger.Info().Msg("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("数据库连接失败")
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.AutoMigrate(db); err != nil {
		utils.Logger.Fatal().Err(err).Msg("数据库迁移失败")
	}

	// 初始化仓库与服务
	repos := repository.NewRepositories(db)
	tmdb := service.NewTMDBClient(cfg)
	catalogSvc := service.NewCatalogService(repos, tmdb, cfg)
	h := handler.NewHandler(
		cfg,
		service.NewUserDirectory(repos),
		service.NewListService(repos),
		service.NewItemService(repos, catalogSvc),
		catalogSvc,
	)

	// 鉴权：配置了 OIDC 时校验 ID Token，否则校验本地签发的 JWT
	var auth middleware.Authenticator = middleware.NewJWTAuthenticator(cfg.AppSecret)
	if cfg.OIDCIssuer != "" {
		oidcAuth, err := middleware.NewOIDCAuthenticator(context.Background(), cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			utils.Logger.Fatal().Err(err).Msg("OIDC 初始化失败")
		}
		auth = oidcAuth
	}

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(repos, cfg.CleanupInterval)
	cleanupSvc.Start()
	defer cleanupSvc.Stop()

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(h, auth)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		utils.Logger.Info().Str("port", cfg.Port).Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("服务器强制关闭")
	}
	catalogSvc.Wait()

	utils.Logger.Info().Msg("服务器已退出")
}
