package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/opencare/tabel/internal/authorization"
	"github.com/opencare/tabel/internal/clock"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
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
	Authz       authorization.Service
	Repo        residentdomain.Repository
	Contracts   residentdomain.ContractRepository
	History     residentdomain.HistoryRepository
	MonthlyData residentdomain.MonthlyDataRepository
	Departments departmentdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	authz       authorization.Service
	repo        residentdomain.Repository
	contracts   residentdomain.ContractRepository
	history     residentdomain.HistoryRepository
	monthlyData residentdomain.MonthlyDataRepository
	departments departmentdomain.Repository
}

func New(p Params) residentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("resident.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		authz:       p.Authz,
		repo:        p.Repo,
		contracts:   p.Contracts,
		history:     p.History,
		monthlyData: p.MonthlyData,
		departments: p.Departments,
	}
}

// load fetches a resident and runs the department-scope gate for the caller.
func (s *Service) load(ctx context.Context, a actor.Actor, id string) (*residentdomain.Resident, *departmentdomain.Department, error) {
	residentID, err := residentdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, residentdomain.ErrInvalidID
	}

	res, err := s.repo.FindByID(ctx, s.db, residentID)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, residentdomain.ErrNotFound
	}

	if err := s.authz.AuthorizeResident(ctx, a, res.DepartmentID); err != nil {
		return nil, nil, err
	}

	department, err := s.departments.FindByID(ctx, s.db, res.DepartmentID)
	if err != nil {
		return nil, nil, err
	}
	if department == nil {
		return nil, nil, departmentdomain.ErrNotFound
	}
	return res, department, nil
}

func (s *Service) Create(ctx context.Context, a actor.Actor, req residentdomain.CreateRequest) (*residentdomain.Response, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionEdit); err != nil {
		return nil, err
	}

	lastName := strings.TrimSpace(req.LastName)
	firstName := strings.TrimSpace(req.FirstName)
	if lastName == "" || firstName == "" {
		return nil, residentdomain.ErrInvalidName
	}

	departmentID, err := departmentdomain.ParseID(strings.TrimSpace(req.DepartmentID))
	if err != nil {
		return nil, residentdomain.ErrInvalidID
	}
	department, err := s.departments.FindByID(ctx, s.db, departmentID)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, departmentdomain.ErrNotFound
	}

	var birthDate *time.Time
	if req.BirthDate != nil && strings.TrimSpace(*req.BirthDate) != "" {
		parsed, err := residentdomain.ParseDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		birthDate = &parsed
	}

	now := s.clock.Now()
	res := &residentdomain.Resident{
		ID:           s.genID.Generate(),
		LastName:     lastName,
		FirstName:    firstName,
		MiddleName:   strings.TrimSpace(req.MiddleName),
		BirthDate:    birthDate,
		DepartmentID: departmentID,
		Room:         strings.TrimSpace(req.Room),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, res); err != nil {
		return nil, err
	}

	s.log.Info("resident created",
		zap.String("resident_id", res.ID.String()),
		zap.String("department_id", departmentID.String()),
	)
	resp := residentdomain.NewResponse(*res, department.StatusCode(), now)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, a actor.Actor, id string) (*residentdomain.Response, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}
	res, department, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	resp := residentdomain.NewResponse(*res, department.StatusCode(), s.clock.Now())
	return &resp, nil
}

// List returns every resident the caller may see: the whole facility for
// admin and HR, the caller's own department for everyone else.
func (s *Service) List(ctx context.Context, a actor.Actor) ([]residentdomain.Response, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}

	if !a.IsAdminOrHR() {
		if a.DepartmentID == 0 {
			return nil, authorization.ErrForbidden
		}
		return s.ListByDepartment(ctx, a, a.DepartmentID.String())
	}

	residents, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	departments, err := s.departments.List(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	statuses := make(map[snowflake.ID]string, len(departments))
	for i := range departments {
		statuses[departments[i].ID] = departments[i].StatusCode()
	}

	now := s.clock.Now()
	resp := make([]residentdomain.Response, 0, len(residents))
	for i := range residents {
		resp = append(resp, residentdomain.NewResponse(residents[i], statuses[residents[i].DepartmentID], now))
	}
	return resp, nil
}

func (s *Service) ListByDepartment(ctx context.Context, a actor.Actor, departmentID string) ([]residentdomain.Response, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}

	id, err := departmentdomain.ParseID(strings.TrimSpace(departmentID))
	if err != nil {
		return nil, residentdomain.ErrInvalidID
	}
	department, err := s.departments.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, departmentdomain.ErrNotFound
	}
	if err := s.authz.AuthorizeResident(ctx, a, id); err != nil {
		return nil, err
	}

	residents, err := s.repo.ListByDepartment(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	status := department.StatusCode()
	now := s.clock.Now()
	resp := make([]residentdomain.Response, 0, len(residents))
	for i := range residents {
		resp = append(resp, residentdomain.NewResponse(residents[i], status, now))
	}
	return resp, nil
}

// ApplyPlacementChange moves a resident and appends the audit trail in the
// same transaction. A department change writes both history rows, a
// room-only move writes placement history alone, and an edit that changes
// neither leaves the audit log untouched.
func (s *Service) ApplyPlacementChange(ctx context.Context, a actor.Actor, req residentdomain.PlacementChangeRequest) (*residentdomain.Response, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionEdit); err != nil {
		return nil, err
	}

	res, oldDepartment, err := s.load(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}

	newDepartmentID, err := departmentdomain.ParseID(strings.TrimSpace(req.NewDepartmentID))
	if err != nil {
		return nil, residentdomain.ErrInvalidID
	}
	newDepartment, err := s.departments.FindByID(ctx, s.db, newDepartmentID)
	if err != nil {
		return nil, err
	}
	if newDepartment == nil {
		return nil, departmentdomain.ErrNotFound
	}

	effectiveDate := s.clock.Now().Truncate(24 * time.Hour)
	if req.EffectiveDate != nil && strings.TrimSpace(*req.EffectiveDate) != "" {
		effectiveDate, err = residentdomain.ParseDate(*req.EffectiveDate)
		if err != nil {
			return nil, err
		}
	}

	oldRoom := res.Room
	newRoom := strings.TrimSpace(req.NewRoom)
	oldStatus := oldDepartment.StatusCode()
	newStatus := newDepartment.StatusCode()
	departmentChanged := oldDepartment.ID != newDepartmentID
	roomChanged := oldRoom != newRoom

	if !departmentChanged && !roomChanged {
		resp := residentdomain.NewResponse(*res, oldStatus, s.clock.Now())
		return &resp, nil
	}

	now := s.clock.Now()
	res.DepartmentID = newDepartmentID
	res.Room = newRoom
	res.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdatePlacement(ctx, tx, res); err != nil {
			return err
		}
		if departmentChanged {
			if err := s.history.InsertStatus(ctx, tx, &residentdomain.StatusHistory{
				ID:              s.genID.Generate(),
				RecipientID:     res.ID,
				OldDepartmentID: oldDepartment.ID,
				NewDepartmentID: newDepartmentID,
				OldStatus:       oldStatus,
				NewStatus:       newStatus,
				Reason:          strings.TrimSpace(req.Reason),
				ChangedBy:       a.ID,
				CreatedAt:       now,
			}); err != nil {
				return err
			}
		}
		return s.history.InsertPlacement(ctx, tx, &residentdomain.PlacementHistory{
			ID:              s.genID.Generate(),
			RecipientID:     res.ID,
			OldDepartmentID: oldDepartment.ID,
			NewDepartmentID: newDepartmentID,
			OldRoom:         oldRoom,
			NewRoom:         newRoom,
			OldStatus:       oldStatus,
			NewStatus:       newStatus,
			Reason:          strings.TrimSpace(req.Reason),
			EffectiveDate:   effectiveDate,
			ChangedBy:       a.ID,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("placement changed",
		zap.String("resident_id", res.ID.String()),
		zap.String("old_department_id", oldDepartment.ID.String()),
		zap.String("new_department_id", newDepartmentID.String()),
		zap.Bool("department_changed", departmentChanged),
		zap.Bool("room_changed", roomChanged),
	)
	resp := residentdomain.NewResponse(*res, newStatus, now)
	return &resp, nil
}

func (s *Service) StatusHistory(ctx context.Context, a actor.Actor, residentID string) ([]residentdomain.StatusHistory, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}
	res, _, err := s.load(ctx, a, residentID)
	if err != nil {
		return nil, err
	}
	return s.history.ListStatus(ctx, s.db, res.ID)
}

func (s *Service) PlacementHistory(ctx context.Context, a actor.Actor, residentID string) ([]residentdomain.PlacementHistory, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}
	res, _, err := s.load(ctx, a, residentID)
	if err != nil {
		return nil, err
	}
	return s.history.ListPlacement(ctx, s.db, res.ID)
}

func (s *Service) CreateContract(ctx context.Context, a actor.Actor, req residentdomain.CreateContractRequest) (*residentdomain.Contract, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionEdit); err != nil {
		return nil, err
	}

	res, _, err := s.load(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, residentdomain.ErrInvalidNumber
	}

	dateStart, err := residentdomain.ParseDate(req.DateStart)
	if err != nil {
		return nil, err
	}
	var dateEnd *time.Time
	if req.DateEnd != nil && strings.TrimSpace(*req.DateEnd) != "" {
		parsed, err := residentdomain.ParseDate(*req.DateEnd)
		if err != nil {
			return nil, err
		}
		dateEnd = &parsed
	}

	now := s.clock.Now()
	c := &residentdomain.Contract{
		ID:          s.genID.Generate(),
		RecipientID: res.ID,
		Number:      number,
		DateStart:   dateStart,
		DateEnd:     dateEnd,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.contracts.Insert(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) SetContractServices(ctx context.Context, a actor.Actor, req residentdomain.SetContractServicesRequest) error {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionEdit); err != nil {
		return err
	}

	contractID, err := residentdomain.ParseID(strings.TrimSpace(req.ContractID))
	if err != nil {
		return residentdomain.ErrInvalidID
	}
	contract, err := s.contracts.FindByID(ctx, s.db, contractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return residentdomain.ErrNotFound
	}
	if !contract.IsActive {
		return residentdomain.ErrContractClosed
	}

	res, err := s.repo.FindByID(ctx, s.db, contract.RecipientID)
	if err != nil {
		return err
	}
	if res == nil {
		return residentdomain.ErrNotFound
	}
	if err := s.authz.AuthorizeResident(ctx, a, res.DepartmentID); err != nil {
		return err
	}

	if len(req.ServiceIDs) == 0 {
		return residentdomain.ErrNoServices
	}

	now := s.clock.Now()
	seen := make(map[snowflake.ID]struct{}, len(req.ServiceIDs))
	links := make([]residentdomain.ContractService, 0, len(req.ServiceIDs))
	for _, raw := range req.ServiceIDs {
		serviceID, err := residentdomain.ParseID(strings.TrimSpace(raw))
		if err != nil {
			return residentdomain.ErrInvalidID
		}
		if _, ok := seen[serviceID]; ok {
			continue
		}
		seen[serviceID] = struct{}{}
		links = append(links, residentdomain.ContractService{
			ID:         s.genID.Generate(),
			ContractID: contractID,
			ServiceID:  serviceID,
			CreatedAt:  now,
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.contracts.ReplaceServices(ctx, tx, contractID, links)
	})
}

func (s *Service) Entitlements(ctx context.Context, a actor.Actor, residentID string) ([]snowflake.ID, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}
	res, _, err := s.load(ctx, a, residentID)
	if err != nil {
		return nil, err
	}
	return s.contracts.EntitledServiceIDs(ctx, s.db, res.ID)
}

func (s *Service) SetMonthlyData(ctx context.Context, a actor.Actor, req residentdomain.SetMonthlyDataRequest) (*residentdomain.MonthlyData, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionEdit); err != nil {
		return nil, err
	}

	res, _, err := s.load(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}
	if !residentdomain.ValidPeriod(req.Year, req.Month) {
		return nil, residentdomain.ErrInvalidPeriod
	}

	income, err := residentdomain.ParseAmount(req.Income)
	if err != nil {
		return nil, err
	}
	pension, err := residentdomain.ParseAmount(req.Pension)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	d := &residentdomain.MonthlyData{
		ID:          s.genID.Generate(),
		RecipientID: res.ID,
		Year:        req.Year,
		Month:       req.Month,
		Income:      income,
		Pension:     pension,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.monthlyData.Upsert(ctx, s.db, d); err != nil {
		return nil, err
	}
	return s.monthlyData.Find(ctx, s.db, res.ID, req.Year, req.Month)
}

func (s *Service) GetMonthlyData(ctx context.Context, a actor.Actor, residentID string, year, month int) (*residentdomain.MonthlyData, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectResident, authorization.ActionView); err != nil {
		return nil, err
	}
	res, _, err := s.load(ctx, a, residentID)
	if err != nil {
		return nil, err
	}
	if !residentdomain.ValidPeriod(year, month) {
		return nil, residentdomain.ErrInvalidPeriod
	}
	d, err := s.monthlyData.Find(ctx, s.db, res.ID, year, month)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, residentdomain.ErrNotFound
	}
	return d, nil
}
