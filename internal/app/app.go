package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"MentionMonitor/internal/classify"
	"MentionMonitor/internal/config"
	"MentionMonitor/internal/infrastructure/cache"
	"MentionMonitor/internal/infrastructure/fetcher"
	"MentionMonitor/internal/infrastructure/llm"
	"MentionMonitor/internal/infrastructure/ml"
	"MentionMonitor/internal/infrastructure/natsbus"
	"MentionMonitor/internal/infrastructure/notify"
	"MentionMonitor/internal/infrastructure/provider"
	"MentionMonitor/internal/infrastructure/scheduler"
	"MentionMonitor/internal/infrastructure/storage"
	"MentionMonitor/internal/infrastructure/telegram"
	"MentionMonitor/internal/logging"
	"MentionMonitor/internal/ports"
	"MentionMonitor/internal/search"
	"MentionMonitor/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	monitor *usecase.Monitor
	cycles  *usecase.Scheduler
	watcher *classify.Watcher
	closers []func() error
}

// New connects storage, seeds configured entities and builds every adapter
// the configuration enables.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	// Checked before anything that holds resources is opened.
	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), true,
		baseLogger.With("component", "scheduler"))
	if err := driver.Validate(); err != nil {
		return nil, err
	}

	dialect := storage.Dialect(cfg.Database.Driver)
	db, err := storage.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	repo := storage.NewSQLRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.seedEntities(ctx, repo)

	rules, err := a.ruleSource()
	if err != nil {
		a.Close()
		return nil, err
	}

	profile := cfg.Pipeline.Profile()
	registry := search.NewRegistry()
	if cfg.Providers.IsEnabled(provider.GDELTName) {
		registry.Register(provider.NewGDELT(provider.GDELTOptions{
			Endpoint:          cfg.Providers.GDELT.Endpoint,
			RequestsPerMinute: cfg.Providers.GDELT.RequestsPerMinute,
			Timeout:           cfg.Providers.GDELT.Timeout,
			Logger:            baseLogger.With("component", "provider.gdelt"),
		}))
	}
	if cfg.Providers.IsEnabled(provider.RSSName) {
		registry.Register(provider.NewRSS(cfg.Providers.RSS.Feeds, cfg.Providers.RSS.Timeout,
			baseLogger.With("component", "provider.rss")))
	}
	source := search.NewAggregator(registry, profile, cfg.Providers.MaxResults, cfg.Providers.Language,
		baseLogger.With("component", "source"))

	var contentFetcher ports.ContentFetcher
	if cfg.Fetcher.Enabled {
		contentFetcher = fetcher.New(fetcher.Options{
			Timeout:   cfg.Fetcher.Timeout,
			UserAgent: cfg.Fetcher.UserAgent,
			MaxBytes:  cfg.Fetcher.MaxBytes,
			Logger:    baseLogger.With("component", "fetcher"),
		})
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		External: a.externalClassifier(),
		Logger:   baseLogger.With("component", "pipeline"),
	})

	a.monitor = usecase.NewMonitor(usecase.MonitorDeps{
		Entities: repo,
		Mentions: repo,
		Source:   source,
		Fetcher:  contentFetcher,
		Notifier: a.notifier(),
		Rules:    rules,
		Pipeline: pipeline,
		Logger:   baseLogger.With("component", "monitor"),
	}, usecase.MonitorConfig{
		Pipeline: usecase.PipelineConfig{
			Thresholds: usecase.Thresholds{
				Reject: cfg.Pipeline.Thresholds.Reject,
				Accept: cfg.Pipeline.Thresholds.Accept,
				Alert:  cfg.Pipeline.Thresholds.Alert,
			},
			BatchCap:        cfg.Pipeline.BatchCap,
			Concurrency:     cfg.Pipeline.Concurrency,
			Weights:         cfg.Pipeline.Weights,
			Profile:         profile,
			ExternalTimeout: cfg.Pipeline.ExternalTimeout,
		},
		Retention:         cfg.Pipeline.Retention,
		DataRetention:     cfg.Pipeline.DataRetention,
		Lookback:          cfg.Pipeline.Lookback,
		EntityConcurrency: cfg.Pipeline.EntityConcurrency,
		FetchConcurrency:  cfg.Fetcher.Concurrency,
	})

	a.cycles = usecase.NewScheduler(driver, a.monitor, baseLogger.With("component", "scheduler"))

	return a, nil
}

// Run executes one cycle when once is set; otherwise it runs cycles on the
// cron schedule until ctx is cancelled.
func (a *Application) Run(ctx context.Context, once bool) error {
	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}

	if once {
		now := time.Now().In(a.cfg.Scheduler.Location())
		report, err := a.monitor.RunCycle(ctx, now)
		if err != nil {
			return err
		}
		if failed := report.Failed(); failed > 0 {
			return fmt.Errorf("%d of %d entities failed", failed, len(report.Entities))
		}
		return nil
	}

	if err := a.cycles.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
	)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.cycles.Stop(stopCtx)
}

// Close releases connections in reverse order of creation.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) seedEntities(ctx context.Context, repo *storage.SQLRepository) {
	for _, seed := range a.cfg.Entities {
		entity := seed.Entity()
		if err := repo.SaveEntity(ctx, entity); err != nil {
			a.logger.Warn("entity seed skipped", "entity", entity.ID, "err", err)
		}
	}
}

// ruleSource returns a hot-reloading watcher, a rules file loaded once, or the
// built-in table with the configured trust floor.
func (a *Application) ruleSource() (usecase.RuleSource, error) {
	path := a.cfg.Classifier.RulesPath
	if path == "" {
		rules := classify.DefaultRules()
		if a.cfg.Pipeline.TrustFloor > 0 {
			rules.TrustFloor = a.cfg.Pipeline.TrustFloor
		}
		return usecase.StaticRules{Evaluator: classify.NewEvaluator(rules)}, nil
	}

	if a.cfg.Classifier.Watch {
		w, err := classify.NewWatcher(path, a.logger)
		if err != nil {
			return nil, err
		}
		a.watcher = w
		a.closers = append(a.closers, w.Close)
		return w, nil
	}

	rules, err := classify.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return usecase.StaticRules{Evaluator: classify.NewEvaluator(rules)}, nil
}

// externalClassifier prefers the LLM, then the classification service, and
// puts the Redis cache in front of whichever is chosen.
func (a *Application) externalClassifier() ports.ExternalClassifier {
	var external ports.ExternalClassifier
	if chat := llm.NewChatGPTClient(a.cfg.LLM); chat.Configured() {
		external = chat
	} else if cc := a.cfg.Classifier; cc.ServiceEndpoint != "" {
		external = ml.NewClient(cc.ServiceEndpoint, cc.ServiceAPIKey, cc.ServiceTimeout)
	} else {
		return nil
	}

	if addr := a.cfg.Cache.RedisAddr; addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: a.cfg.Cache.Password,
			DB:       a.cfg.Cache.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		external = cache.NewClassifierCache(external, rdb, a.cfg.Cache.TTL, a.logger.With("component", "cache"))
	}
	return external
}

func (a *Application) notifier() ports.Notifier {
	var channels []notify.Named

	tg := a.cfg.Notifications.Telegram
	if n := telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.BaseURL); n.Configured() {
		channels = append(channels, notify.Named{Name: "telegram", Notifier: n})
	}

	if natsCfg := a.cfg.Notifications.NATS; natsCfg.URL != "" {
		pub, err := natsbus.Connect(natsCfg.URL, natsCfg.Subject)
		if err != nil {
			a.logger.Warn("nats alerts disabled", "err", err)
		} else {
			a.closers = append(a.closers, func() error { pub.Close(); return nil })
			channels = append(channels, notify.Named{Name: "nats", Notifier: pub})
		}
	}

	fan := notify.NewFanout(a.logger.With("component", "notify"), channels...)
	if fan.Len() == 0 {
		return nil
	}
	return fan
}
