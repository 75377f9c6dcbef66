package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/weddingday/internal/backend"
	"github.com/MrSnakeDoc/weddingday/internal/config"
	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/push"
	"github.com/MrSnakeDoc/weddingday/internal/scheduler"
	"github.com/MrSnakeDoc/weddingday/internal/sources/timeline"
	pgstore "github.com/MrSnakeDoc/weddingday/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/weddingday/internal/store/redis"
	"github.com/MrSnakeDoc/weddingday/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *sqlx.DB
	fanout      *push.Fanout
	cron        *scheduler.CronRunner // nil unless WEDDING_CRON_ENABLED
	retention   *scheduler.RetentionSweeper
	stopStreams context.CancelFunc
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	ctx := context.Background()
	retry := backend.RetryOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		RetryInterval:  cfg.RetryInterval,
		MaxWait:        cfg.MaxWait,
		PingTimeout:    cfg.PingTimeout,
		WarnThreshold:  cfg.WarnThreshold,
	}

	// Both backends are required: fail fast if either stays unreachable.
	redisClient, err := backend.NewRedis(ctx, backend.RedisOptions{
		Addr:         cfg.RedisAddr,
		User:         cfg.RedisUser,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDT,
		ReadTimeout:  cfg.RedisRT,
		WriteTimeout: cfg.RedisWT,
		PoolSize:     cfg.RedisPoolSize,
		Retry:        retry,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	db, err := backend.NewPostgres(ctx, backend.PostgresOptions{
		DSN:          cfg.PostgresDSN,
		MaxOpenConns: cfg.PostgresMaxOpenConns,
		MaxIdleConns: cfg.PostgresMaxIdleConns,
		Retry:        retry,
	}, loggerClient)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	events := redisstore.NewStore(redisClient)
	relational := pgstore.NewStore(db)
	if err := relational.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if cfg.TimelineSeedFile != "" {
		_, err := timeline.Seed(ctx,
			timeline.NewLoader(cfg.TimelineSeedFile),
			timeline.NewMapper(cfg.Venues, cfg.Timezone),
			events, redisstore.OfficialCollection, loggerClient)
		if err != nil {
			loggerClient.Warn("timeline seed skipped", logger.String("file", cfg.TimelineSeedFile), logger.Error(err))
		}
	}

	router := &push.Router{
		WebPush: push.NewWebPushSender(push.WebPushConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
			TTL:        cfg.PushTTL,
		}),
	}
	if cfg.SNSEnabled {
		client, err := push.NewSNSClient(ctx, cfg.AWSRegion)
		if err != nil {
			_ = db.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to init sns: %w", err)
		}
		router.SNS = push.NewSNSSender(client)
		loggerClient.Info("SNS delivery enabled", logger.String("region", cfg.AWSRegion))
	}

	fanout := push.NewFanout(relational, router, relational, loggerClient, push.Options{
		Concurrency: cfg.PushConcurrency,
		Icon:        cfg.PushIcon,
		Badge:       cfg.PushBadge,
	})

	job := scheduler.NewReminderJob(events, events, relational, fanout, loggerClient, scheduler.ReminderOptions{
		OfficialPath: redisstore.OfficialCollection,
		Lookahead:    cfg.Lookahead,
		LedgerSize:   cfg.LedgerSize,
		ClaimMargin:  cfg.ClaimMargin,
		GatesDrain:   cfg.ToggleGatesDrain,
		Template: domain.ReminderTemplate{
			Title:    cfg.ReminderTitle,
			BaseURL:  cfg.ReminderURL,
			Icon:     cfg.PushIcon,
			Badge:    cfg.PushBadge,
			Location: cfg.Timezone,
		},
	})

	var cron *scheduler.CronRunner
	if cfg.CronEnabled {
		cron, err = scheduler.NewCronRunner(job, cfg.CronSchedule, cfg.Timezone, loggerClient)
		if err != nil {
			_ = db.Close()
			_ = redisClient.Close()
			return nil, err
		}
	}

	retention := scheduler.NewRetentionSweeper(relational, loggerClient, cfg.RetentionInterval, cfg.Retention)

	streamsCtx, stopStreams := context.WithCancel(context.Background())

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,

		Production:          cfg.IsProduction(),
		RequestTimeout:      cfg.RequestTimeout,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		AllowedHosts:        cfg.AllowedHosts,
		TrustProxy:          cfg.TrustProxy,
		JWTSecret:           []byte(cfg.JWTSecret),
		CronSecret:          cfg.CronSecret,
		RateLimitBurst:      cfg.RateLimitBurst,
		RateLimitPerMin:     cfg.RateLimitPerMin,
		RateLimitMaxEntries: cfg.RateLimitMaxEntry,

		Venues:         cfg.Venues,
		Timezone:       cfg.Timezone,
		CalendarName:   cfg.CalendarName,
		AgendaURL:      cfg.ReminderURL,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
		OfficialPath:   redisstore.OfficialCollection,
		PersonalPath:   redisstore.PersonalCollection,

		Events:        events,
		Settings:      events,
		Notifications: relational,
		Notifier:      fanout,
		Job:           job,
		Pingers: map[string]deps.Pinger{
			"redis":    events.Ping,
			"postgres": relational.Ping,
		},
		StreamsDone: streamsCtx.Done(),
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		fanout:      fanout,
		cron:        cron,
		retention:   retention,
		stopStreams: stopStreams,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting weddingday v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.Banner(), logger.String("env", a.cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cron != nil {
		if err := a.cron.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reminder cron: %w", err)
		}
		a.logger.Info("next reminder run", logger.Time("at", a.cron.Next()))
	} else {
		a.logger.Info("in-process cron disabled, waiting for /api/cron/reminders")
	}

	if err := a.retention.Start(ctx); err != nil {
		return fmt.Errorf("failed to start retention sweeper: %w", err)
	}
	a.logger.Info("retention sweeper started",
		logger.Duration("interval", a.cfg.RetentionInterval),
		logger.Duration("retention", a.cfg.Retention))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.close()
		return err
	}

	if a.cron != nil {
		a.cron.Stop()
	}
	a.retention.Stop()
	a.stopStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.close()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	a.logger.Info("✅ weddingday stopped cleanly")
	return nil
}

// close waits for pending history writes, then releases both backends.
func (a *App) close() {
	a.stopStreams()
	a.fanout.Flush()

	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warnf("failed to close postgres: %v", err)
	} else {
		a.logger.Info("✅ Postgres closed cleanly")
	}
	_ = a.logger.Sync()
}
