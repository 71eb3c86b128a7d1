package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"member_attendance_bot/internal/app"
	"member_attendance_bot/internal/infra/config"
	idb "member_attendance_bot/internal/infra/database"
	"member_attendance_bot/internal/infra/logger"
	"member_attendance_bot/internal/infra/metrics"
	"member_attendance_bot/internal/infra/queue"
	"member_attendance_bot/internal/infra/scheduler"
	"member_attendance_bot/internal/infra/telegram"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithField("environment", cfg.Environment).Info("Member attendance bot starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and migrations
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established")

	if err := idb.RunMigrations(db, logger.Component("migrations")); err != nil {
		mainLogger.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}

	// Repositories
	memberRepo := idb.NewPostgresMemberRepository(db)
	attendanceRepo := idb.NewPostgresAttendanceRepository(db)
	scheduleRepo := idb.NewPostgresScheduleRepository(db)

	// Telegram bot (optional; the daemon runs headless without it)
	var bot *telebot.Bot
	var notifier app.Notifier = app.NopNotifier{}
	if cfg.BotEnabled() {
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram handler error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		notifier = telegram.NewAdminNotifier(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID)
		mainLogger.Info("Telegram bot initialized")
	} else {
		mainLogger.Warn("TELEGRAM_TOKEN not set, admin surface and notifications disabled")
	}

	// Services
	scanService := app.NewScanService(memberRepo, attendanceRepo, scheduleRepo,
		logger.Component("scan_service"), nil)
	autoLogoutService := app.NewAutoLogoutService(attendanceRepo, notifier,
		logger.Component("autologout_service"), nil)
	adminService := app.NewAdminService(memberRepo, cfg.AdminTelegramID)
	reviewService := app.NewReviewService(attendanceRepo, logger.Component("review_service"))
	exportService := app.NewExportService(attendanceRepo, memberRepo, logger.Component("export_service"))

	// Auto-logout trigger scheduler: arm from the persisted schedule, then run
	autoLogoutScheduler := scheduler.NewAutoLogoutScheduler(scheduleRepo, autoLogoutService,
		logger.Component("scheduler"))
	if err := autoLogoutScheduler.Rearm(ctx); err != nil {
		mainLogger.Fatalf("FATAL: Could not arm auto-logout triggers: %v", err)
	}
	autoLogoutScheduler.Start()

	scheduleService := app.NewScheduleService(scheduleRepo, autoLogoutScheduler,
		logger.Component("schedule_service"))

	// Scan intake queue consumer
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	scanQueue := queue.NewRedisScanQueue(redisClient, cfg.ScanQueueKey)
	resultPublisher := queue.NewRedisResultPublisher(redisClient, cfg.ScanResultChannel)
	consumer := queue.NewConsumer(scanQueue, scanService, resultPublisher, notifier,
		logger.Component("scan_consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil {
			mainLogger.WithError(err).Error("Scan consumer stopped with error")
		}
	}()

	// Metrics listener
	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, logger.Component("metrics")); err != nil {
			mainLogger.WithError(err).Error("Metrics listener stopped with error")
		}
	}()

	// Admin surface
	if bot != nil {
		handlerLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(ctx, bot, cfg, handlerLogger)
		telegram.RegisterAdminHandlers(ctx, bot, adminService, scheduleService, scanService,
			autoLogoutService, exportService, cfg.AdminTelegramID, handlerLogger)
		telegram.RegisterReviewHandlers(ctx, bot, reviewService, cfg.AdminTelegramID, handlerLogger)
		go bot.Start()
		mainLogger.Info("Admin command handlers registered, bot polling")
	}

	mainLogger.Info("Application setup complete")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	cancel()
	autoLogoutScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully")
}
