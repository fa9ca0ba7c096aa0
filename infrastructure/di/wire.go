//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"dopesheet/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideLogLevel,
	ProvideMetrics,
	ProvideEventBus,
	ProvideDomainConfig,
	ProvideFactory,
	ProvideScene,
	ProvideDopeSheet,
	ProvideErrorHandler,
	ProvideHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
