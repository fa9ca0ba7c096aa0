package di

import (
	"go.uber.org/zap"

	"dopesheet/application/ports"
	"dopesheet/application/services"
	"dopesheet/infrastructure/config"
	"dopesheet/infrastructure/memory"
	"dopesheet/interfaces/http/rest"
	"dopesheet/interfaces/http/rest/handlers"
	"dopesheet/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	Metrics   *observability.Collector
	EventBus  ports.EventBus
	Scene     *memory.Scene
	DopeSheet *services.DopeSheet
	Handler   *handlers.DopeSheetHandler
	Router    *rest.Router
}

// ApplyConfig applies the settings that can change without a restart: the
// log level and the undo limit. The handler lock keeps the change from
// racing an edit in flight.
func (c *Container) ApplyConfig(cfg *config.Config) error {
	if err := observability.SetLevel(c.LogLevel, cfg.Logging.Level); err != nil {
		return err
	}

	c.Handler.Lock()
	c.DopeSheet.Stack().SetLimit(cfg.Domain.UndoLimit)
	c.Handler.Unlock()

	c.Config = cfg
	return nil
}
