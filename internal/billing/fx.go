package billing

import (
	"github.com/opencare/tabel/internal/billing/repository"
	"github.com/opencare/tabel/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
