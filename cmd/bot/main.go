package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/app"
	"github.com/Spok95/teacher-lms-bot/internal/bot/handlers"
	"github.com/Spok95/teacher-lms-bot/internal/config"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/jobs"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/observability"
	"github.com/Spok95/teacher-lms-bot/internal/storage"
)

func main() {
	// .env не обязателен: в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer lg.Closer()
	zap.ReplaceGlobals(lg.Base)

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		zap.L().Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zap.L().Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		zap.L().Fatal("migrate", zap.Error(err))
	}

	var share storage.Sharer = storage.Nop{}
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Storage(cfg.S3)
		if err != nil {
			zap.L().Fatal("s3", zap.Error(err))
		}
		share = s3
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		zap.L().Fatal("telegram", zap.Error(err))
	}
	zap.L().Info("bot started", zap.String("username", bot.Self.UserName), zap.String("env", cfg.Env))

	app.StartHTTP(ctx, cfg.HTTPAddr, database)

	jobs.New(ctx).Every(cfg.ReviewJobInterval, "review_progress", jobs.ReviewProgress(database))

	deps := &handlers.Deps{
		Bot:       bot,
		DB:        database,
		Loc:       cfg.Location,
		ExportDir: cfg.ExportDir,
		Share:     share,
	}
	dispatcher := app.NewDispatcher(deps, app.TeacherAccess(cfg.IsTeacher, deps))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			zap.L().Info("shutdown")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			dispatcher.Dispatch(ctx, upd)
		}
	}
}
