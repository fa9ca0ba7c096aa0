package di

import (
	"time"

	"go.uber.org/zap"

	"dopesheet/application/ports"
	"dopesheet/application/services"
	domainconfig "dopesheet/domain/config"
	"dopesheet/infrastructure/config"
	"dopesheet/infrastructure/memory"
	"dopesheet/infrastructure/messaging"
	"dopesheet/interfaces/http/rest"
	"dopesheet/interfaces/http/rest/handlers"
	pkgerrors "dopesheet/pkg/errors"
	"dopesheet/pkg/observability"
	"dopesheet/pkg/ratelimit"
)

// eventHistory is how many published events the bus keeps for inspection
const eventHistory = 256

// Logging bundles the process logger with its runtime level
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging creates the process logger. The cleanup flushes it.
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger extracts the logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideLogLevel extracts the runtime log level
func ProvideLogLevel(l *Logging) zap.AtomicLevel {
	return l.Level
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideEventBus creates the in-process event bus
func ProvideEventBus(logger *zap.Logger) ports.EventBus {
	return messaging.NewEventBus(logger.Named("events"), eventHistory)
}

// ProvideDomainConfig exposes the domain section of the configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return &cfg.Domain
}

// ProvideFactory creates the node factory used to build scenes
func ProvideFactory(cfg *domainconfig.DomainConfig) *memory.Factory {
	return memory.NewFactory(cfg)
}

// ProvideScene loads the configured scene, or an empty one when no scene
// path is set.
func ProvideScene(cfg *config.Config, f *memory.Factory, logger *zap.Logger) (*memory.Scene, error) {
	if cfg.ScenePath == "" {
		return memory.BuildScene(memory.SceneFile{}, f)
	}
	scene, err := memory.LoadSceneFile(cfg.ScenePath, f)
	if err != nil {
		return nil, err
	}
	logger.Info("Scene loaded",
		zap.String("path", cfg.ScenePath),
		zap.Int("nodes", len(scene.Nodes)),
	)
	return scene, nil
}

// ProvideDopeSheet creates the animation model over scene and keeps it in
// sync with the scene: knob changes, nodes added to the project and nodes
// deleted from it.
func ProvideDopeSheet(
	cfg *domainconfig.DomainConfig,
	scene *memory.Scene,
	bus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.DopeSheet {
	ds := services.NewDopeSheet(cfg, scene.Timeline, bus, nil, metrics, logger.Named("dopesheet"))
	track := func(n *memory.Node) {
		n.OnChanged(func(n *memory.Node) {
			ds.OnNodeChanged(n)
		})
	}

	ds.AddCollection(scene.Project)
	scene.Project.Walk(track)

	scene.Project.OnNodeAdded(func(n *memory.Node) {
		ds.AddNode(n)
		track(n)
		if inner := n.Inner(); inner != nil {
			ds.AddCollection(inner)
			inner.Walk(track)
		}
	})
	scene.Project.OnNodeAboutToBeRemoved(func(n *memory.Node) {
		ds.RemoveNode(n)
	})
	return ds
}

// ProvideErrorHandler creates the HTTP error handler; development responses
// carry error details.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideHandler creates the REST handler
func ProvideHandler(ds *services.DopeSheet, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.DopeSheetHandler {
	return handlers.NewDopeSheetHandler(ds, errorHandler, logger.Named("http"))
}

// ProvideRouter creates the REST router
func ProvideRouter(
	handler *handlers.DopeSheetHandler,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}
	if cfg.RateLimit.Enabled {
		window := cfg.RateLimit.Window
		if window <= 0 {
			window = time.Minute
		}
		opts.RateLimiter = ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.Requests, window)
	}
	return rest.NewRouter(handler, metrics, opts, logger)
}
