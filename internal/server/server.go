package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opencare/tabel/internal/authorization"
	"github.com/opencare/tabel/internal/billing"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
	"github.com/opencare/tabel/internal/catalog"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	"github.com/opencare/tabel/internal/config"
	"github.com/opencare/tabel/internal/department"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	obslogger "github.com/opencare/tabel/internal/observability/logger"
	obsmetrics "github.com/opencare/tabel/internal/observability/metrics"
	"github.com/opencare/tabel/internal/resident"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
	"github.com/opencare/tabel/internal/tabel"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(NewEngine),
	authorization.Module,
	department.Module,
	catalog.Module,
	resident.Module,
	tabel.Module,
	billing.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	departmentSvc departmentdomain.Service
	catalogSvc    catalogdomain.Catalog
	residentSvc   residentdomain.Service
	tabelSvc      tabeldomain.Service
	billingSvc    billingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DepartmentSvc departmentdomain.Service
	CatalogSvc    catalogdomain.Catalog
	ResidentSvc   residentdomain.Service
	TabelSvc      tabeldomain.Service
	BillingSvc    billingdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		departmentSvc: p.DepartmentSvc,
		catalogSvc:    p.CatalogSvc,
		residentSvc:   p.ResidentSvc,
		tabelSvc:      p.TabelSvc,
		billingSvc:    p.BillingSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", ActorMiddleware())

	api.GET("/tabel/cell", s.GetTabelCell)
	api.POST("/tabel/log", s.UpsertTabelLog)
	api.POST("/tabel/clear-month", s.ClearTabelMonth)
	api.POST("/tabel/clear-day", s.ClearTabelDay)
	api.POST("/tabel/autofill", s.AutofillTabel)
	api.GET("/tabel/logs", s.GetTabelLogs)
	api.GET("/tabel/totals", s.GetTabelTotals)
	api.POST("/tabel/lock", s.ToggleTabelLock)
	api.GET("/tabel/lock", s.GetTabelLockState)

	api.GET("/residents", s.ListResidents)
	api.POST("/residents", s.CreateResident)
	api.GET("/residents/:id", s.GetResident)
	api.POST("/residents/:id/placement", s.ApplyPlacementChange)
	api.GET("/residents/:id/history/status", s.GetStatusHistory)
	api.GET("/residents/:id/history/placement", s.GetPlacementHistory)
	api.GET("/residents/:id/entitlements", s.GetEntitlements)
	api.POST("/residents/:id/contracts", s.CreateContract)
	api.PUT("/contracts/:id/services", s.SetContractServices)
	api.PUT("/residents/:id/monthly-data", s.SetMonthlyData)
	api.GET("/residents/:id/monthly-data", s.GetMonthlyData)

	api.GET("/departments", s.ListDepartments)
	api.POST("/departments", s.CreateDepartment)
	api.GET("/departments/:id/residents", s.ListDepartmentResidents)
	api.GET("/departments/:id/schedules", s.ListDepartmentSchedules)

	api.GET("/services", s.ListServices)
	api.POST("/services", s.CreateService)
	api.PATCH("/services/:id", s.UpdateService)
	api.POST("/categories", s.CreateCategory)
	api.POST("/frequencies", s.CreateFrequency)
	api.PUT("/schedules", s.SetSchedule)

	api.GET("/acts", s.GetAct)
}
