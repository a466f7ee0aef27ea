package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/opencare/tabel/internal/authorization"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// incomeShare caps what an act may charge against the resident's income.
var incomeShare = decimal.NewFromFloat(0.75)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Authz       authorization.Service
	Repo        billingdomain.Repository
	Residents   residentdomain.Repository
	MonthlyData residentdomain.MonthlyDataRepository
	Services    catalogdomain.ServiceRepository
	Categories  catalogdomain.CategoryRepository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	authz       authorization.Service
	repo        billingdomain.Repository
	residents   residentdomain.Repository
	monthlyData residentdomain.MonthlyDataRepository
	services    catalogdomain.ServiceRepository
	categories  catalogdomain.CategoryRepository
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billing.service"),
		authz:       p.Authz,
		repo:        p.Repo,
		residents:   p.Residents,
		monthlyData: p.MonthlyData,
		services:    p.Services,
		categories:  p.Categories,
	}
}

// Act assembles the monthly billing statement: every logged service priced
// at its write-time snapshots, rows ordered by catalog code, totalled and
// checked against the 75 percent income ceiling.
func (s *Service) Act(ctx context.Context, a actor.Actor, req billingdomain.ActRequest) (*billingdomain.Act, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectBilling, authorization.ActionView); err != nil {
		return nil, err
	}

	residentID, err := snowflake.ParseString(strings.TrimSpace(req.ResidentID))
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}
	res, err := s.residents.FindByID(ctx, s.db, residentID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, billingdomain.ErrNotFound
	}
	if err := s.authz.AuthorizeResident(ctx, a, res.DepartmentID); err != nil {
		return nil, err
	}
	if req.Year < 2000 || req.Year > 2100 || req.Month < 1 || req.Month > 12 {
		return nil, billingdomain.ErrInvalidPeriod
	}

	from, to := tabeldomain.MonthRange(req.Year, req.Month)
	amounts, err := s.repo.AggregateAmounts(ctx, s.db, res.ID, from, to)
	if err != nil {
		return nil, err
	}

	serviceIDs := make([]snowflake.ID, 0, len(amounts))
	for i := range amounts {
		serviceIDs = append(serviceIDs, amounts[i].ServiceID)
	}
	services, err := s.services.FindByIDs(ctx, s.db, serviceIDs)
	if err != nil {
		return nil, err
	}
	serviceByID := make(map[snowflake.ID]*catalogdomain.Service, len(services))
	for i := range services {
		serviceByID[services[i].ID] = &services[i]
	}

	categories, err := s.categories.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	categoryByID := make(map[snowflake.ID]string, len(categories))
	for i := range categories {
		categoryByID[categories[i].ID] = categories[i].Name
	}

	rows := make([]billingdomain.ActRow, 0, len(amounts))
	total := decimal.Zero
	for i := range amounts {
		svc := serviceByID[amounts[i].ServiceID]
		row := billingdomain.ActRow{
			Service:  amounts[i].ServiceID,
			Quantity: amounts[i].Quantity,
			Amount:   amounts[i].Amount,
		}
		if svc != nil {
			row.Code = svc.Code
			row.Name = svc.Name
			row.Unit = svc.Unit
			row.Price = svc.Price
			row.Category = categoryByID[svc.CategoryID]
		}
		if !amounts[i].Quantity.IsZero() {
			row.Price = amounts[i].Amount.Div(amounts[i].Quantity).Round(2)
		}
		rows = append(rows, row)
		total = total.Add(amounts[i].Amount)
	}

	sort.Slice(rows, func(i, j int) bool {
		return catalogdomain.CompareCodes(rows[i].Code, rows[j].Code) < 0
	})
	for i := range rows {
		rows[i].Number = i + 1
	}

	act := &billingdomain.Act{
		ResidentID: res.ID,
		Year:       req.Year,
		Month:      req.Month,
		Rows:       rows,
		Total:      total,
		Payable:    total,
	}

	data, err := s.monthlyData.Find(ctx, s.db, res.ID, req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	if data != nil {
		act.HasMonthlyData = true
		act.Income = data.Income
		act.Pension = data.Pension
		act.IncomeLimit = data.Income.Mul(incomeShare).Round(2)
		if act.Payable.GreaterThan(act.IncomeLimit) {
			act.Payable = act.IncomeLimit
		}
		act.Difference = data.Pension.Sub(total)
	}

	return act, nil
}
