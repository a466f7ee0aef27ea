package resident

import (
	"github.com/opencare/tabel/internal/resident/repository"
	"github.com/opencare/tabel/internal/resident/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resident.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideContract),
	fx.Provide(repository.ProvideHistory),
	fx.Provide(repository.ProvideMonthlyData),
	fx.Provide(service.New),
)
