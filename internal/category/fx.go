package category

import (
	"github.com/smallbiznis/storefront/internal/category/domain"
	"github.com/smallbiznis/storefront/internal/category/service"
	"github.com/smallbiznis/storefront/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("category.service",
	fx.Provide(repository.ProvideStore[domain.Category]),
	fx.Provide(service.New),
)
