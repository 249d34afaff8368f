package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/audiopen/artifact"
	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/autosave"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/database"
	"github.com/kbukum/audiopen/diagnostics"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/observability"
	"github.com/kbukum/audiopen/prompt"
	"github.com/kbukum/audiopen/redis"
	"github.com/kbukum/audiopen/storage"
	_ "github.com/kbukum/audiopen/storage/memory"
	"github.com/kbukum/audiopen/transcription"
)

// App owns the infrastructure components and the services built on them.
// The service fields are set once Start (or Run/RunTask) has returned.
type App struct {
	Name       string
	Version    string
	Cfg        *Config
	Components *component.Registry
	Logger     *logger.Logger
	Session    auth.Provider

	// Recorder is the diagnostics ring buffer, nil unless diagnostics are enabled.
	Recorder *diagnostics.Recorder
	Metrics  *observability.Metrics

	Storage     storage.Storage
	Gateway     *artifact.Gateway
	Catalog     *catalog.Catalog
	Prompts     *prompt.Library
	Engine      *capture.Engine
	Saver       *autosave.Saver
	Transcriber *transcription.Orchestrator
	RPC         *transcription.Client

	storageComp *storage.Component
	dbComp      *database.Component
	redisComp   *redis.Component
	device      capture.Device
	diag        diagnostics.Diagnostics

	gracefulTimeout time.Duration
	started         time.Time
	onStart         []Hook
	onReady         []Hook
	onStop          []Hook
}

// New applies defaults to cfg, validates it and registers the components
// the selected backends need. Nothing is started yet.
func New(cfg *Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	a := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		device:          o.device,
		diag:            diagnostics.Nop{},
	}
	if o.gracefulTimeout != nil {
		a.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		a.Logger = o.logger
	} else {
		a.Logger = logger.Init(cfg.Logging, cfg.Name)
	}
	a.Components = component.NewRegistry(a.Logger)

	if o.session != nil {
		a.Session = o.session
	} else {
		session, err := auth.NewSession(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		a.Session = session
	}
	cfg.Supabase.Token = a.Session.Token

	if cfg.Diagnostics.Enabled {
		a.Recorder = diagnostics.NewRecorder(cfg.Diagnostics.BufferSize)
		a.diag = a.Recorder
	}

	if err := a.registerComponents(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) registerComponents() error {
	a.storageComp = storage.NewComponent(a.Cfg.Storage.Config, a.providerConfig(), a.Logger)
	if err := a.Components.Register(a.storageComp); err != nil {
		return err
	}

	if a.Cfg.Database.Enabled {
		a.dbComp = database.NewComponent(a.Cfg.Database, a.Logger).
			WithAutoMigrate(catalog.GormModels()...).
			WithAutoMigrate(prompt.GormModels()...)
		if err := a.Components.Register(a.dbComp); err != nil {
			return err
		}
	}

	if a.Cfg.Redis.Enabled {
		a.redisComp = redis.NewComponent(a.Cfg.Redis, a.Logger)
		if err := a.Components.Register(a.redisComp); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) providerConfig() any {
	switch a.Cfg.Storage.Provider {
	case storage.ProviderSupabase:
		return &a.Cfg.Supabase
	case storage.ProviderS3:
		return &a.Cfg.Storage.S3
	case storage.ProviderLocal:
		return &a.Cfg.Storage.Local
	default:
		return nil
	}
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run starts the application and blocks until a shutdown signal or ctx
// is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.WaitForSignal(ctx)
	return a.Shutdown(context.Background())
}

// RunTask starts the application, runs task and shuts down. SIGINT and
// SIGTERM cancel the task's context.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context, a *App) error) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx, a)

	if stopErr := a.Shutdown(context.Background()); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// Start starts the components, runs the OnStart hooks, wires the services
// and runs the OnReady hooks.
func (a *App) Start(ctx context.Context) error {
	a.started = time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version, "catalog", a.Cfg.Catalog.Backend))

	if err := a.initObservability(ctx); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.Components.StopAll(ctx)
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := a.wire(); err != nil {
		_ = a.Components.StopAll(ctx)
		return fmt.Errorf("wiring failed: %w", err)
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Logger.Debug("application ready", logger.DurationFields("startup", time.Since(a.started)))
	return nil
}

func (a *App) initObservability(ctx context.Context) error {
	if !a.Cfg.Observability.Enabled {
		return nil
	}
	tp, err := observability.InitTracer(ctx, a.Cfg.Observability.TracerConfig(a.Name, a.Version, a.Cfg.Environment), a.Logger)
	if err != nil {
		return err
	}
	mp, err := observability.InitMeter(ctx, a.Cfg.Observability.MeterConfig(a.Name, a.Version, a.Cfg.Environment), a.Logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	metrics, err := observability.NewMetrics(observability.Meter(a.Name))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return err
	}
	a.Metrics = metrics
	a.OnStop(func(ctx context.Context) error {
		return mp.Shutdown(ctx)
	}, func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	})
	return nil
}

// wire builds the services on the started components.
func (a *App) wire() error {
	a.Storage = a.storageComp.Storage()
	if a.Storage == nil {
		return fmt.Errorf("storage is not available")
	}

	gatewayOpts := []artifact.Option{artifact.WithDiagnostics(a.diag), artifact.WithMetrics(a.Metrics)}
	switch a.Cfg.Artifact.Cache {
	case artifact.CacheMemory:
		gatewayOpts = append(gatewayOpts, artifact.WithCache(artifact.NewMemoryURLCache()))
	case artifact.CacheRedis:
		gatewayOpts = append(gatewayOpts, artifact.WithCache(artifact.NewRedisURLCache(a.redisComp.Client(), a.Cfg.Artifact.CachePrefix, a.Logger)))
	}
	a.Gateway = artifact.NewGateway(a.Storage, a.Cfg.Artifact, a.Logger, gatewayOpts...)

	backend, store, err := a.backends()
	if err != nil {
		return err
	}
	a.Catalog = catalog.New(backend, a.Session, a.Logger,
		catalog.WithArtifacts(a.Gateway),
		catalog.WithDiagnostics(a.diag),
		catalog.WithMetrics(a.Metrics),
	)
	a.Prompts = prompt.NewLibrary(store, a.Session, a.Logger)

	device := a.device
	if device == nil {
		device = capture.NewDevice(a.Cfg.Capture, a.Logger)
	}
	a.Engine = capture.NewEngine(device, a.Cfg.Capture, a.Logger, capture.WithDiagnostics(a.diag))
	a.Saver = autosave.New(a.Gateway, a.Catalog, a.Session, a.Logger,
		autosave.WithRefs(a.Engine.Refs()),
		autosave.WithDiagnostics(a.diag),
	)

	if a.Cfg.Transcription.FunctionsURL != "" {
		rpc, err := transcription.NewClient(a.Cfg.Transcription, a.Session.Token, a.Logger)
		if err != nil {
			return err
		}
		a.RPC = rpc
		a.Transcriber = transcription.NewOrchestrator(rpc, a.Logger,
			transcription.WithSigner(a.Gateway),
			transcription.WithUsage(a.Prompts),
			transcription.WithDiagnostics(a.diag),
			transcription.WithMetrics(a.Metrics),
		)
	}
	return nil
}

// backends selects the catalog backend and the prompt store.
func (a *App) backends() (catalog.Backend, prompt.Store, error) {
	switch a.Cfg.Catalog.Backend {
	case BackendMemory:
		return catalog.NewMemoryBackend(), prompt.NewMemoryStore(), nil
	case BackendSQLite:
		db := a.dbComp.DB()
		if db == nil {
			return nil, nil, fmt.Errorf("database is not available")
		}
		return catalog.NewGormBackend(db), prompt.NewGormStore(db), nil
	case BackendSupabase:
		backend, err := catalog.NewRESTBackend(a.Cfg.Supabase, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := prompt.NewRESTStore(a.Cfg.Supabase)
		if err != nil {
			return nil, nil, err
		}
		return backend, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported catalog backend %q", a.Cfg.Catalog.Backend)
	}
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx is done.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Shutdown releases the capture device, closes the catalog, runs the
// OnStop hooks and stops the components within the graceful timeout.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	if a.Engine != nil {
		_ = a.Engine.Close()
	}
	if a.Catalog != nil {
		a.Catalog.Close()
	}

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.Logger.Debug("application stopped")
	return shutdownErr
}
