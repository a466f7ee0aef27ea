package tabel

import (
	"github.com/opencare/tabel/internal/tabel/repository"
	"github.com/opencare/tabel/internal/tabel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tabel.service",
	fx.Provide(repository.ProvideLog),
	fx.Provide(repository.ProvideLock),
	fx.Provide(service.New),
)
