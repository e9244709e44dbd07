package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/atosab2b/catalog-export/application"
	"github.com/atosab2b/catalog-export/configs"
	"github.com/atosab2b/catalog-export/internal/database/postgres"
	redisdb "github.com/atosab2b/catalog-export/internal/database/redis"
	"github.com/atosab2b/catalog-export/internal/groups"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	logger := buildLogger(config.LogPath)
	defer logger.Sync()

	// Group/order tables: postgres when reachable, spreadsheet fallback otherwise
	var repo groups.Repository
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.Init(ctx, config.DatabaseURL)
	cancel()
	if err == nil {
		pgRepo := groups.NewPgRepository(pool)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("failed to prepare database schema", zap.Error(err))
		}
		repo = pgRepo
	} else {
		logger.Warn("postgres unavailable, loading tables from spreadsheet fallback", zap.Error(err))
		repo, err = groups.LoadFromFiles(config.GruposFile, config.OrdenFile, logger)
		if err != nil {
			logger.Fatal("failed to load fallback tables", zap.Error(err))
		}
	}

	var redisClient *redisdb.Client
	if config.RedisURL != "" {
		redisClient, err = redisdb.NewClientFromURL(config.RedisURL)
	} else {
		redisClient, err = redisdb.NewClient(redisdb.Config{
			Host:     config.RedisHost,
			Port:     config.RedisPort,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
	}
	if err != nil {
		logger.Fatal("error starting redis", zap.Error(err))
	}
	defer redisClient.Close()

	app := application.Application{
		Config: *config,
		Logger: logger,
		Repo:   repo,
		Redis:  redisClient,
	}

	if err := app.Run(app.Mount()); err != nil {
		slog.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

func buildLogger(logPath string) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// Console core: Info+ to stdout
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	consoleCore := zapcore.NewCore(
		consoleEncoder,
		zapcore.AddSync(os.Stdout),
		zap.InfoLevel,
	)

	if logPath == "" {
		return zap.New(consoleCore)
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}

	// File core without colors, Warn+ only
	fileEncoderConfig := encoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoder := zapcore.NewConsoleEncoder(fileEncoderConfig)
	fileCore := zapcore.NewCore(
		fileEncoder,
		zapcore.AddSync(logFile),
		zap.WarnLevel,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore))
}
