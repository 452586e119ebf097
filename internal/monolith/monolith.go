// Package monolith holds the shared infrastructure and runs the bounded
// context modules in order.
package monolith

import (
	"context"
	"errors"
	"fmt"

	"github.com/fd1az/venue-arbitrage/internal/asset"
	"github.com/fd1az/venue-arbitrage/internal/config"
	"github.com/fd1az/venue-arbitrage/internal/di"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

// Tokens for the services every module can resolve.
var (
	ConfigToken        = di.NewToken[*config.Config]("config")
	LoggerToken        = di.NewToken[logger.LoggerInterface]("logger")
	AssetRegistryToken = di.NewToken[*asset.Registry]("assetRegistry")
)

type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	OnClose(fn func() error)
}

// Module is a bounded context. RegisterServices only declares factories;
// Startup may resolve them and start background work.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type App struct {
	config    *config.Config
	logger    logger.LoggerInterface
	assets    *asset.Registry
	container di.Container
	closers   []func() error
}

// New builds the container. Configured aliases extend the default asset
// registry; a conflicting alias fails here.
func New(cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	assets := asset.DefaultRegistry()
	for alias, symbol := range cfg.Assets.Aliases {
		if err := assets.AddAlias(alias, symbol); err != nil {
			return nil, fmt.Errorf("asset alias %s: %w", alias, err)
		}
	}

	c := di.NewContainer()
	c.Register(ConfigToken.Name(), cfg)
	c.Register(LoggerToken.Name(), log)
	c.Register(AssetRegistryToken.Name(), assets)

	return &App{config: cfg, logger: log, assets: assets, container: c}, nil
}

func (a *App) Config() *config.Config         { return a.config }
func (a *App) Logger() logger.LoggerInterface { return a.logger }
func (a *App) AssetRegistry() *asset.Registry { return a.assets }
func (a *App) Services() di.ServiceRegistry   { return a.container }

// OnClose registers fn to run on Close. Closers run last-in first-out.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts modules in the given order and stops at the first
// failure.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
		a.logger.Debug(ctx, "module started", "module", fmt.Sprintf("%T", m))
	}
	return nil
}

// Close runs every closer and joins their errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
