package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/clock"
	"github.com/opencare/tabel/internal/config"
	"github.com/opencare/tabel/internal/migration"
	"github.com/opencare/tabel/internal/observability/logger"
	"github.com/opencare/tabel/internal/server"
	"github.com/opencare/tabel/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
