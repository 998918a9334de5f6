package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-league-core/internal/core/auth"
	"go-league-core/internal/core/cache"
	"go-league-core/internal/core/config"
	"go-league-core/internal/core/database"
	"go-league-core/internal/core/logger"
	"go-league-core/internal/core/server"
	"go-league-core/internal/feature/identity"
	"go-league-core/internal/feature/match"
	"go-league-core/internal/feature/profile"
	"go-league-core/internal/feature/roles"
	"go-league-core/internal/notify"
	"go-league-core/internal/rbac"
	"go-league-core/internal/realtime"
	"go-league-core/internal/repo"
	"go-league-core/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&identity.IdentityModel{},
			&profile.ProfileModel{},
			&roles.RoleAssignmentModel{},
			&match.MatchModel{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	// redis：角色缓存 + 实时变更通道
	rds := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = rds.Close() }()

	// 仓储
	profiles := repo.NewProfileRepo(db)
	roleStore := repo.NewRoleAssignmentRepo(db)
	matches := repo.NewMatchRepo(db)

	// 角色解析器
	resolver := rbac.NewResolver(roleStore, rds,
		time.Duration(cfg.Auth.RoleCacheTTLSec)*time.Second, log)

	// 实时扇出：redis pub/sub → hub → 订阅方
	hub := realtime.NewHub(cfg.Realtime.BufferSize, log)
	source := realtime.NewRedisSource(rds.RDB, hub, cfg.Realtime.ChannelPrefix, log)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go source.Run(rootCtx, cfg.Realtime.Tables...)

	// 进程级通知队列（通知中心视图）
	queue := notify.NewQueue()
	notifier := realtime.NewNotifier(hub, queue, log)
	notifier.Mount()
	defer notifier.Release()

	// 路由（用户端）
	r := router.NewAPIEngine(log, router.Deps{
		DB:       db,
		JWT:      jwter,
		Resolver: resolver,
		Hub:      hub,
		Events:   source,
		Queue:    queue,
		Profiles: profiles,
		Matches:  matches,
		Roles:    roleStore,
		Log:      log,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("league api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("league api start FAILED", zap.Error(err))
		}
	}()
	log.Info("league api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop() // 先停实时通道
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("league api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
