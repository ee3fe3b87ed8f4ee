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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"gin-gorm-catalog/internal/core/auth"
	"gin-gorm-catalog/internal/core/cache"
	"gin-gorm-catalog/internal/core/config"
	"gin-gorm-catalog/internal/core/database"
	"gin-gorm-catalog/internal/core/logger"
	"gin-gorm-catalog/internal/core/server"
	"gin-gorm-catalog/internal/core/session"
	"gin-gorm-catalog/internal/core/upload"
	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/internal/repo"
	"gin-gorm-catalog/internal/service"
	"gin-gorm-catalog/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)
	warnDefaultSecrets(cfg, log)

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	ctx := context.Background()

	// 会话存储：配置了 redis 则共享会话并缓存用户，否则使用进程内存储
	var (
		users     domain.UserRepository = repo.NewUserRepo(db)
		sessStore session.Store         = session.NewMemoryStore()
		rdb       *redis.Client
	)
	if cfg.Redis.Addr != "" {
		rs := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rs.Ping(ctx); err != nil {
			log.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		rdb, sessStore = rs.RDB, rs
		users = repo.NewCachedUserRepo(users, cache.New(rdb, cfg.App.Name+":"), cfg.Redis.UserCacheTTL())
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis not configured, sessions are kept in memory")
	}

	store := mustUploadStore(ctx, cfg, log)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
	}
	authSvc := service.NewAuthService(users, jwter, log.Named("auth"))
	mgr := session.NewManager(sessStore, session.Options{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		TTL:        cfg.Session.TTL(),
		Secure:     cfg.Session.Secure,
	})
	products := service.NewProductService(
		repo.NewProductRepo(db),
		upload.NewUploader(store, cfg.Upload.AllowedExtensions),
		cfg.Catalog.PageSize,
		cfg.Upload.URLPrefix,
		log.Named("products"),
	)

	r, err := router.New(router.Deps{
		Log:      log,
		Mode:     server.ModeFor(cfg.App.Env),
		HTTP:     cfg.App.HTTP,
		Upload:   cfg.Upload,
		Auth:     authSvc,
		Sessions: service.NewSessionAuth(authSvc, mgr),
		Products: products,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})
	if err != nil {
		log.Fatal("build router", zap.Error(err))
	}

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
	log.Info("catalog starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("uploads", cfg.Upload.Backend),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("catalog start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("catalog stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	std, err := logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		l.Fatal("gorm logger", zap.Error(err))
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Writer:             database.StdWriter(std),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func mustUploadStore(ctx context.Context, cfg *config.Config, l *zap.Logger) upload.Store {
	switch cfg.Upload.Backend {
	case "minio":
		s, err := upload.NewMinioStore(ctx, upload.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			l.Fatal("minio store", zap.String("endpoint", cfg.Minio.Endpoint), zap.Error(err))
		}
		return s
	case "", "local":
		return upload.NewLocalStore(cfg.Upload.Dir)
	default:
		l.Fatal("unknown upload backend", zap.String("backend", cfg.Upload.Backend))
		return nil
	}
}

func warnDefaultSecrets(cfg *config.Config, l *zap.Logger) {
	if cfg.App.Env != "prod" && cfg.App.Env != "production" {
		return
	}
	if cfg.Session.Secret == "change_this_to_a_random_secret" || cfg.JWT.Secret == "change_this_too" {
		l.Warn("default secrets in use; set SECRET_KEY and JWT_SECRET")
	}
}
