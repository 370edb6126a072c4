package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/surfin-etl/pkg/batch/adapter/database"
	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// NewTransactionManagerFactoryProvider builds the factory with the configured key column.
func NewTransactionManagerFactoryProvider(resolver database.DBConnectionResolver, cfg *config.Config) database.TransactionManagerFactory {
	return NewGormTransactionManagerFactory(resolver, WithKeyColumn(cfg.Surfin.Loader.KeyColumn))
}

// registerCloseHook closes every provider's connections when the application stops.
func registerCloseHook(lc fx.Lifecycle, resolver *GormDBConnectionResolver) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var firstErr error
			for _, p := range resolver.Providers() {
				if err := p.CloseAll(); err != nil {
					logger.Errorf("Failed to close %s connections: %v", p.Type(), err)
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			return firstErr
		},
	})
}

// Module exports the components of the gorm adapter package (excluding concrete DB providers).
var Module = fx.Options(
	fx.Provide(NewGormDBConnectionResolver),
	fx.Provide(func(r *GormDBConnectionResolver) database.DBConnectionResolver { return r }),
	fx.Provide(NewTransactionManagerFactoryProvider),
	fx.Invoke(registerCloseHook),
)
