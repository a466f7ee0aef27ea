package department

import (
	"github.com/opencare/tabel/internal/department/repository"
	"github.com/opencare/tabel/internal/department/service"
	"go.uber.org/fx"
)

var Module = fx.Module("department.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
