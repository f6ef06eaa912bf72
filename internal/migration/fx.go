package migration

import (
	"context"

	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		return Run(conn, cfg.DBType)
	}),
)

// SeedModule bootstraps the admin account once the schema exists.
var SeedModule = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, authSvc authdomain.Service, cfg config.Config, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return seed.EnsureAdmin(ctx, authSvc, cfg.Bootstrap, log)
			},
		})
	}),
)
