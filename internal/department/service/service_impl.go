package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/clock"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  departmentdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  departmentdomain.Repository
	genID *snowflake.Node
}

func New(p Params) departmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("department.service"),
		clock: p.Clock,
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req departmentdomain.CreateRequest) (*departmentdomain.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, departmentdomain.ErrInvalidName
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, departmentdomain.ErrInvalidCode
	}

	departmentType := strings.TrimSpace(req.Type)
	if !departmentdomain.ValidType(departmentType) {
		return nil, departmentdomain.ErrInvalidType
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, departmentdomain.ErrCodeTaken
	}

	now := s.clock.Now()
	d := &departmentdomain.Department{
		ID:        s.genID.Generate(),
		Name:      name,
		Code:      code,
		Type:      departmentType,
		Capacity:  req.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, d); err != nil {
		return nil, err
	}

	s.log.Info("department created",
		zap.String("department_id", d.ID.String()),
		zap.String("code", d.Code),
		zap.String("department_type", d.Type),
	)
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*departmentdomain.Department, error) {
	departmentID, err := departmentdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, departmentdomain.ErrInvalidID
	}

	d, err := s.repo.FindByID(ctx, s.db, departmentID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, departmentdomain.ErrNotFound
	}
	return d, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*departmentdomain.Department, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, departmentdomain.ErrInvalidCode
	}

	d, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, departmentdomain.ErrNotFound
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, req departmentdomain.ListRequest) ([]departmentdomain.Department, error) {
	var types []string
	if req.ResidenceOnly {
		types = []string{departmentdomain.TypeResidential, departmentdomain.TypeMercy}
	}
	return s.repo.List(ctx, s.db, types)
}
