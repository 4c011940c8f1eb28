package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/config"
	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/navcache"
	"github.com/five82/pawswipe/internal/onboarding"
	"github.com/five82/pawswipe/internal/prefs"
	"github.com/five82/pawswipe/internal/preload"
	"github.com/five82/pawswipe/internal/queue"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
	"github.com/five82/pawswipe/internal/swipe"
	"github.com/five82/pawswipe/internal/telemetry"
	"github.com/five82/pawswipe/internal/ui"
)

// Options configure the pawswipe application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/pawswipe/prefs.toml
	RetryEvery time.Duration
}

// Services holds the long-lived dependencies shared by the TUI and the CLI
// subcommands.
type Services struct {
	Config    config.Config
	Log       *zap.Logger
	KV        *storage.Store
	Client    *rescue.Client
	Metrics   *telemetry.MetricsSink
	Sink      telemetry.Sink
	Filters   *filters.Store
	Decisions *queue.Decisions

	closeLog func() error
}

// Open loads configuration and opens local state. A state database that
// cannot be opened is replaced by an in-memory store so the session still
// works; nothing is persisted in that case.
func Open(opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:   cfg.LogFile,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := rescue.NewClient(cfg.APIURL, rescue.WithRateLimit(cfg.RequestRate))
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init rescue client: %w", err)
	}

	var backend storage.Backend
	bolt, err := storage.OpenBolt(cfg.StatePath())
	if err != nil {
		logger.Warn("state database unavailable, using memory",
			zap.String("path", cfg.StatePath()), zap.Error(err))
		backend = storage.NewMemory()
	} else {
		backend = bolt
	}
	kv := storage.New(backend, logger)

	metrics := telemetry.NewMetricsSink()
	return &Services{
		Config:    cfg,
		Log:       logger,
		KV:        kv,
		Client:    client,
		Metrics:   metrics,
		Sink:      telemetry.Multi{telemetry.NewLogSink(logger), metrics},
		Filters:   filters.NewStore(kv, logger),
		Decisions: queue.LoadDecisions(kv),
		closeLog:  closeLog,
	}, nil
}

// NewQueue builds a queue manager from the configured sizes.
func (s *Services) NewQueue(sink telemetry.Sink) *queue.Manager {
	return queue.NewManager(s.Client, s.Decisions,
		queue.WithBatchSize(s.Config.BatchSize),
		queue.WithLowWaterMark(s.Config.LowWaterMark),
		queue.WithMaxSize(s.Config.MaxQueueSize),
		queue.WithRandomize(s.Config.Randomize),
		queue.WithLogger(s.Log),
		queue.WithTelemetry(sink),
		queue.WithStore(s.KV),
	)
}

// Close releases the state database and flushes the log.
func (s *Services) Close() error {
	var errs []error
	if err := s.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close state: %w", err))
	}
	if s.closeLog != nil {
		if err := s.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run boots the pawswipe TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := telemetry.StartSession(svc.Sink)
	defer session.End()
	svc.Log.Info("session started", zap.String("session", session.ID), zap.String("api", svc.Config.APIURL))

	if addr := svc.Config.MetricsAddr; addr != "" {
		stop := serveMetrics(addr, svc.Metrics.Handler(), svc.Log)
		defer stop()
	}

	mgr := svc.NewQueue(session)
	handler := swipe.NewHandler(mgr, svc.Decisions, svc.Client,
		swipe.WithLogger(svc.Log), swipe.WithTelemetry(session))
	defer handler.Close()

	cache, err := navcache.New(navcache.DefaultCapacity)
	if err != nil {
		return fmt.Errorf("init navigation cache: %w", err)
	}
	preloader := preload.New(preload.WithBaseURL(svc.Config.APIURL), preload.WithLogger(svc.Log))
	defer preloader.Stop()

	retryDone := StartRetrier(ctx, mgr, opts.RetryEvery, svc.Log)
	defer func() {
		cancel()
		<-retryDone
	}()

	showOnboarding := onboarding.ShouldShow(svc.KV, svc.Log)
	if !showOnboarding {
		// The UI shows the loading state while the first batch arrives.
		go func() {
			if err := mgr.Load(ctx, svc.Filters.Load()); err != nil && !errors.Is(err, queue.ErrSuperseded) {
				svc.Log.Warn("initial load failed", zap.Error(err))
			}
		}()
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	return ui.Run(ui.Options{
		Context:        ctx,
		Queue:          mgr,
		Handler:        handler,
		Filters:        svc.Filters,
		Counter:        svc.Client,
		KV:             svc.KV,
		Cache:          cache,
		Preloader:      preloader,
		Telemetry:      session,
		Logger:         svc.Log,
		ShowOnboarding: showOnboarding,
		ThemeName:      userPrefs.Theme,
		Prefs:          userPrefs,
		PrefsPath:      opts.PrefsPath,
	})
}

func serveMetrics(addr string, handler http.Handler, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics endpoint failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics endpoint shutdown", zap.Error(err))
		}
	}
}
