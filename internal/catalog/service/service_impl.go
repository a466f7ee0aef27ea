package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	"github.com/opencare/tabel/internal/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Categories  catalogdomain.CategoryRepository
	Frequencies catalogdomain.FrequencyRepository
	Services    catalogdomain.ServiceRepository
	Schedules   catalogdomain.ScheduleRepository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	categories  catalogdomain.CategoryRepository
	frequencies catalogdomain.FrequencyRepository
	services    catalogdomain.ServiceRepository
	schedules   catalogdomain.ScheduleRepository
}

func New(p Params) catalogdomain.Catalog {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("catalog.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		categories:  p.Categories,
		frequencies: p.Frequencies,
		services:    p.Services,
		schedules:   p.Schedules,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req catalogdomain.CreateCategoryRequest) (*catalogdomain.Category, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, catalogdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	now := s.clock.Now()
	c := &catalogdomain.Category{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categories.Insert(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) CreateFrequency(ctx context.Context, req catalogdomain.CreateFrequencyRequest) (*catalogdomain.Frequency, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	if !catalogdomain.ValidPeriod(req.Period) {
		return nil, catalogdomain.ErrInvalidPeriod
	}
	if req.TimesPerPeriod != nil && *req.TimesPerPeriod <= 0 {
		return nil, catalogdomain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	f := &catalogdomain.Frequency{
		ID:             s.genID.Generate(),
		Name:           name,
		Period:         req.Period,
		TimesPerPeriod: req.TimesPerPeriod,
		IsApproximate:  req.IsApproximate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.frequencies.Insert(ctx, s.db, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) CreateService(ctx context.Context, req catalogdomain.CreateServiceRequest) (*catalogdomain.Service, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, catalogdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	categoryID, err := catalogdomain.ParseID(strings.TrimSpace(req.CategoryID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	category, err := s.categories.FindByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, catalogdomain.ErrNotFound
	}

	existing, err := s.services.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, catalogdomain.ErrCodeTaken
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		return nil, catalogdomain.ErrInvalidPrice
	}

	var parentID *snowflake.ID
	if req.ParentID != nil {
		id, err := catalogdomain.ParseID(strings.TrimSpace(*req.ParentID))
		if err != nil {
			return nil, catalogdomain.ErrInvalidID
		}
		parent, err := s.services.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, catalogdomain.ErrNotFound
		}
		parentID = &id
	}

	now := s.clock.Now()
	item := &catalogdomain.Service{
		ID:                  s.genID.Generate(),
		Code:                code,
		Name:                name,
		CategoryID:          categoryID,
		ParentID:            parentID,
		Price:               price,
		Unit:                strings.TrimSpace(req.Unit),
		MaxQuantityPerMonth: req.MaxQuantityPerMonth,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.applyFrequency(ctx, item, req.FrequencyID); err != nil {
		return nil, err
	}

	if err := s.services.Insert(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.log.Info("service created",
		zap.String("service_id", item.ID.String()),
		zap.String("code", item.Code),
	)
	return item, nil
}

func (s *Service) UpdateService(ctx context.Context, req catalogdomain.UpdateServiceRequest) (*catalogdomain.Service, error) {
	serviceID, err := catalogdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}

	item, err := s.services.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalogdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		item.Name = name
	}

	if req.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil || price.IsNegative() {
			return nil, catalogdomain.ErrInvalidPrice
		}
		item.Price = price
	}

	if req.MaxQuantityPerMonth != nil {
		item.MaxQuantityPerMonth = req.MaxQuantityPerMonth
	}

	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	// The frequency, when present, owns the monthly cap: saving with a
	// frequency attached always overwrites max_quantity_per_month with the
	// derived quota, so manual caps survive only on frequency-less services.
	frequencyID := req.FrequencyID
	if frequencyID == nil && item.FrequencyID != nil {
		value := item.FrequencyID.String()
		frequencyID = &value
	}
	if err := s.applyFrequency(ctx, item, frequencyID); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.services.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) applyFrequency(ctx context.Context, item *catalogdomain.Service, frequencyID *string) error {
	if frequencyID == nil || strings.TrimSpace(*frequencyID) == "" {
		item.FrequencyID = nil
		return nil
	}
	id, err := catalogdomain.ParseID(strings.TrimSpace(*frequencyID))
	if err != nil {
		return catalogdomain.ErrInvalidID
	}
	frequency, err := s.frequencies.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if frequency == nil {
		return catalogdomain.ErrNotFound
	}
	item.FrequencyID = &id
	item.MaxQuantityPerMonth = frequency.MonthlyQuota()
	return nil
}

func (s *Service) GetService(ctx context.Context, id string) (*catalogdomain.Service, error) {
	serviceID, err := catalogdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	item, err := s.services.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) ListServices(ctx context.Context) ([]catalogdomain.Service, error) {
	services, err := s.services.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	// Dotted codes sort numerically, so 9.9 comes before 9.10.
	sort.SliceStable(services, func(i, j int) bool {
		return catalogdomain.CompareCodes(services[i].Code, services[j].Code) < 0
	})
	return services, nil
}

func (s *Service) SetSchedule(ctx context.Context, req catalogdomain.SetScheduleRequest) (*catalogdomain.Schedule, error) {
	serviceID, err := catalogdomain.ParseID(strings.TrimSpace(req.ServiceID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	departmentID, err := catalogdomain.ParseID(strings.TrimSpace(req.DepartmentID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		return nil, catalogdomain.ErrInvalidWeekday
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil || quantity.IsNegative() {
		return nil, catalogdomain.ErrInvalidQuantity
	}

	item, err := s.services.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalogdomain.ErrNotFound
	}

	if quantity.IsZero() {
		if err := s.schedules.Delete(ctx, s.db, serviceID, departmentID, req.Weekday); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := s.clock.Now()
	sch := &catalogdomain.Schedule{
		ID:           s.genID.Generate(),
		ServiceID:    serviceID,
		DepartmentID: departmentID,
		Weekday:      req.Weekday,
		Quantity:     quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.schedules.Upsert(ctx, s.db, sch); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *Service) ListSchedules(ctx context.Context, departmentID string) ([]catalogdomain.Schedule, error) {
	id, err := catalogdomain.ParseID(strings.TrimSpace(departmentID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	return s.schedules.ListForDepartment(ctx, s.db, id)
}
