package catalog

import (
	"github.com/opencare/tabel/internal/catalog/repository"
	"github.com/opencare/tabel/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.ProvideCategory),
	fx.Provide(repository.ProvideFrequency),
	fx.Provide(repository.ProvideService),
	fx.Provide(repository.ProvideSchedule),
	fx.Provide(service.New),
)
