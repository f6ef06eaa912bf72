package order

import (
	"github.com/smallbiznis/storefront/internal/order/lifecycle"
	"github.com/smallbiznis/storefront/internal/order/repository"
	"github.com/smallbiznis/storefront/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideTracking),
	fx.Provide(lifecycle.NewRecorder),
	fx.Provide(service.New),
	fx.Provide(service.NewTracking),
)
