package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gin-gorm-catalog/internal/core/auth"
	"gin-gorm-catalog/internal/core/config"
	"gin-gorm-catalog/internal/core/database"
	"gin-gorm-catalog/internal/core/logger"
	"gin-gorm-catalog/internal/repo"
	"gin-gorm-catalog/internal/service"
)

// admin 初始化数据库：建表，且在没有任何用户时创建管理员账号
func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("admin", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", os.Getenv("CONFIG_PATH"), "config file path")
	name := fs.String("name", "Admin", "admin display name")
	email := fs.String("email", "admin@example.com", "admin email")
	password := fs.String("password", "password123", "admin password")
	migrateOnly := fs.Bool("migrate-only", false, "only create tables")
	_ = fs.Parse(os.Args[1:])

	cfg := config.Load(*cfgPath)
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	if err := run(cfg, log, *name, *email, *password, *migrateOnly); err != nil {
		log.Error("admin bootstrap failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, name, email, password string, migrateOnly bool) error {
	std, err := logger.ToStdLogger(log.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		return err
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
		return fmt.Errorf("open db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database initialized", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	if migrateOnly {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Bootstrap 不签发令牌，JWTer 仅为满足依赖
	svc := service.NewAuthService(repo.NewUserRepo(db), &auth.JWTer{Secret: []byte(cfg.JWT.Secret)}, log)
	u, created, err := svc.Bootstrap(ctx, service.RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	if !created {
		n, _ := svc.CountUsers(ctx)
		log.Info("database already initialised, skipping admin creation", zap.Int64("users", n))
		return nil
	}
	log.Info("admin user created", zap.String("email", u.Email), zap.String("id", u.ID))
	return nil
}
