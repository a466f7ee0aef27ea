package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/opencare/tabel/internal/authorization"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	"github.com/opencare/tabel/internal/clock"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	"github.com/opencare/tabel/internal/observability/metrics"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
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
	Authz       authorization.Service
	Metrics     *metrics.Metrics `optional:"true"`
	Logs        tabeldomain.LogRepository
	Locks       tabeldomain.LockRepository
	Residents   residentdomain.Repository
	Contracts   residentdomain.ContractRepository
	Departments departmentdomain.Repository
	Services    catalogdomain.ServiceRepository
	Frequencies catalogdomain.FrequencyRepository
	Schedules   catalogdomain.ScheduleRepository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	authz       authorization.Service
	metrics     *metrics.Metrics
	logs        tabeldomain.LogRepository
	locks       tabeldomain.LockRepository
	residents   residentdomain.Repository
	contracts   residentdomain.ContractRepository
	departments departmentdomain.Repository
	services    catalogdomain.ServiceRepository
	frequencies catalogdomain.FrequencyRepository
	schedules   catalogdomain.ScheduleRepository
}

func New(p Params) tabeldomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("tabel.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		authz:       p.Authz,
		metrics:     p.Metrics,
		logs:        p.Logs,
		locks:       p.Locks,
		residents:   p.Residents,
		contracts:   p.Contracts,
		departments: p.Departments,
		services:    p.Services,
		frequencies: p.Frequencies,
		schedules:   p.Schedules,
	}
}

func (s *Service) loadResident(ctx context.Context, a actor.Actor, id string) (*residentdomain.Resident, error) {
	residentID, err := tabeldomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, tabeldomain.ErrInvalidID
	}
	res, err := s.residents.FindByID(ctx, s.db, residentID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, tabeldomain.ErrNotFound
	}
	if err := s.authz.AuthorizeResident(ctx, a, res.DepartmentID); err != nil {
		return nil, err
	}
	return res, nil
}

// ensureUnlocked is the gate every mutation passes before touching the log.
func (s *Service) ensureUnlocked(ctx context.Context, recipientID snowflake.ID, year, month int) error {
	lock, err := s.locks.Find(ctx, s.db, recipientID, year, month)
	if err != nil {
		return err
	}
	if lock != nil && lock.IsLocked {
		return tabeldomain.ErrTabelLocked
	}
	return nil
}

func parseQuantity(value string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || q.IsNegative() {
		return decimal.Decimal{}, tabeldomain.ErrInvalidQuantity
	}
	return q, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, tabeldomain.ErrInvalidDate
	}
	return tabeldomain.NormalizeDate(t), nil
}

func validPeriod(year, month int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12
}

func (s *Service) Cell(ctx context.Context, a actor.Actor, req tabeldomain.CellQuery) (decimal.Decimal, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionView); err != nil {
		return decimal.Decimal{}, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	serviceID, err := tabeldomain.ParseID(strings.TrimSpace(req.ServiceID))
	if err != nil {
		return decimal.Decimal{}, tabeldomain.ErrInvalidID
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return decimal.Decimal{}, err
	}

	cell, err := s.logs.FindCell(ctx, s.db, res.ID, serviceID, date)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if cell == nil {
		return decimal.Zero, nil
	}
	return cell.Quantity, nil
}

// UpsertCell writes one day's quantity. Zero deletes the cell; a positive
// quantity passes the quota check against the month total excluding the
// target date, then replaces the row with a fresh price snapshot.
func (s *Service) UpsertCell(ctx context.Context, a actor.Actor, req tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionEdit); err != nil {
		return nil, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}
	serviceID, err := tabeldomain.ParseID(strings.TrimSpace(req.ServiceID))
	if err != nil {
		return nil, tabeldomain.ErrInvalidID
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}

	svc, err := s.services.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, tabeldomain.ErrNotFound
	}

	if err := s.ensureUnlocked(ctx, res.ID, date.Year(), int(date.Month())); err != nil {
		return nil, err
	}

	// The quota read runs before the write transaction, so a concurrent
	// writer can slip between the check and the commit. Callers tolerate
	// that window; last write wins, same as the upstream data entry flow.
	from, to := tabeldomain.MonthRange(date.Year(), int(date.Month()))
	currentTotal, err := s.logs.SumForMonth(ctx, s.db, res.ID, serviceID, from, to, &date)
	if err != nil {
		return nil, err
	}

	if quantity.IsZero() {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			_, err := s.logs.DeleteCell(ctx, tx, res.ID, serviceID, date)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.metrics.RecordLogMutation("delete")
		return &tabeldomain.CellResult{
			Quantity:    decimal.Zero,
			Total:       currentTotal,
			MaxQuantity: svc.MaxQuantityPerMonth,
		}, nil
	}

	if svc.MaxQuantityPerMonth != nil {
		limit := decimal.NewFromInt(int64(*svc.MaxQuantityPerMonth))
		if currentTotal.Add(quantity).GreaterThan(limit) {
			s.metrics.RecordQuotaRejection()
			return nil, &tabeldomain.QuotaExceededError{
				Limit:        *svc.MaxQuantityPerMonth,
				CurrentTotal: currentTotal,
			}
		}
	}

	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.logs.Upsert(ctx, tx, &tabeldomain.ServiceLog{
			ID:             s.genID.Generate(),
			RecipientID:    res.ID,
			ServiceID:      serviceID,
			Date:           date,
			Quantity:       quantity,
			PriceAtService: svc.Price,
			ProviderID:     a.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogMutation("upsert")
	return &tabeldomain.CellResult{
		Quantity:    quantity,
		Total:       currentTotal.Add(quantity),
		MaxQuantity: svc.MaxQuantityPerMonth,
	}, nil
}

// UpsertRow applies one quantity to a list of dates. Each date commits on
// its own and skips the quota check; a failing date does not roll back the
// ones already written. The lock gate still covers every touched month.
func (s *Service) UpsertRow(ctx context.Context, a actor.Actor, req tabeldomain.UpsertRowRequest) (*tabeldomain.RowResult, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionEdit); err != nil {
		return nil, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}
	serviceID, err := tabeldomain.ParseID(strings.TrimSpace(req.ServiceID))
	if err != nil {
		return nil, tabeldomain.ErrInvalidID
	}
	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	if len(req.Dates) == 0 {
		return nil, tabeldomain.ErrInvalidDate
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		if err := s.ensureUnlocked(ctx, res.ID, date.Year(), int(date.Month())); err != nil {
			return nil, err
		}
	}

	svc, err := s.services.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, tabeldomain.ErrNotFound
	}

	saved := 0
	for _, date := range dates {
		if quantity.IsZero() {
			if _, err := s.logs.DeleteCell(ctx, s.db, res.ID, serviceID, date); err != nil {
				s.log.Warn("batch cell delete failed",
					zap.String("resident_id", res.ID.String()),
					zap.Time("date", date),
					zap.Error(err),
				)
				continue
			}
		} else {
			now := s.clock.Now()
			err := s.logs.Upsert(ctx, s.db, &tabeldomain.ServiceLog{
				ID:             s.genID.Generate(),
				RecipientID:    res.ID,
				ServiceID:      serviceID,
				Date:           date,
				Quantity:       quantity,
				PriceAtService: svc.Price,
				ProviderID:     a.ID,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				s.log.Warn("batch cell upsert failed",
					zap.String("resident_id", res.ID.String()),
					zap.Time("date", date),
					zap.Error(err),
				)
				continue
			}
		}
		saved++
	}
	s.metrics.RecordLogMutation("batch")

	from, to := tabeldomain.MonthRange(dates[0].Year(), int(dates[0].Month()))
	total, err := s.logs.SumForMonth(ctx, s.db, res.ID, serviceID, from, to, nil)
	if err != nil {
		return nil, err
	}
	return &tabeldomain.RowResult{Total: total, DaysSaved: saved}, nil
}

func (s *Service) ClearMonth(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) (int64, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionEdit); err != nil {
		return 0, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return 0, err
	}
	if !validPeriod(req.Year, req.Month) {
		return 0, tabeldomain.ErrInvalidPeriod
	}
	if err := s.ensureUnlocked(ctx, res.ID, req.Year, req.Month); err != nil {
		return 0, err
	}

	from, to := tabeldomain.MonthRange(req.Year, req.Month)
	var deleted int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		deleted, err = s.logs.DeleteMonth(ctx, tx, res.ID, from, to)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.RecordLogMutation("clear_month")
	return deleted, nil
}

func (s *Service) ClearDay(ctx context.Context, a actor.Actor, req tabeldomain.ClearDayRequest) (int64, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionEdit); err != nil {
		return 0, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return 0, err
	}
	if !validPeriod(req.Year, req.Month) || req.Day < 1 || req.Day > 31 {
		return 0, tabeldomain.ErrInvalidDate
	}
	date := time.Date(req.Year, time.Month(req.Month), req.Day, 0, 0, 0, 0, time.UTC)
	if date.Day() != req.Day {
		return 0, tabeldomain.ErrInvalidDate
	}
	if err := s.ensureUnlocked(ctx, res.ID, req.Year, req.Month); err != nil {
		return 0, err
	}

	var deleted int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		deleted, err = s.logs.DeleteDay(ctx, tx, res.ID, date)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.RecordLogMutation("clear_day")
	return deleted, nil
}

func (s *Service) MonthLogs(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) ([]tabeldomain.MonthCell, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionView); err != nil {
		return nil, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}
	if !validPeriod(req.Year, req.Month) {
		return nil, tabeldomain.ErrInvalidPeriod
	}

	from, to := tabeldomain.MonthRange(req.Year, req.Month)
	logs, err := s.logs.ListMonth(ctx, s.db, res.ID, from, to)
	if err != nil {
		return nil, err
	}

	cells := make([]tabeldomain.MonthCell, 0, len(logs))
	for i := range logs {
		cells = append(cells, tabeldomain.MonthCell{
			ServiceID: logs[i].ServiceID,
			Day:       logs[i].Date.Day(),
			Quantity:  logs[i].Quantity,
		})
	}
	return cells, nil
}

func (s *Service) AggregateByService(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) ([]tabeldomain.ServiceTotal, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionView); err != nil {
		return nil, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return nil, err
	}
	if !validPeriod(req.Year, req.Month) {
		return nil, tabeldomain.ErrInvalidPeriod
	}
	from, to := tabeldomain.MonthRange(req.Year, req.Month)
	return s.logs.AggregateByService(ctx, s.db, res.ID, from, to)
}

// ToggleLock flips the month lock. The first toggle for a scope always
// locks: a missing row means unlocked, so it is created engaged.
func (s *Service) ToggleLock(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) (bool, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionLock); err != nil {
		return false, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return false, err
	}
	if !validPeriod(req.Year, req.Month) {
		return false, tabeldomain.ErrInvalidPeriod
	}

	var state bool
	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		lock, err := s.locks.Find(ctx, tx, res.ID, req.Year, req.Month)
		if err != nil {
			return err
		}
		if lock == nil {
			state = true
			return s.locks.Insert(ctx, tx, &tabeldomain.TabelLock{
				ID:          s.genID.Generate(),
				RecipientID: res.ID,
				Year:        req.Year,
				Month:       req.Month,
				IsLocked:    true,
				LockedBy:    a.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		state = !lock.IsLocked
		return s.locks.SetLocked(ctx, tx, lock.ID, state, a.ID, now)
	})
	if err != nil {
		return false, err
	}

	s.metrics.RecordLockToggle()
	s.log.Info("tabel lock toggled",
		zap.String("resident_id", res.ID.String()),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Bool("is_locked", state),
	)
	return state, nil
}

func (s *Service) LockState(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) (bool, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionView); err != nil {
		return false, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return false, err
	}
	if !validPeriod(req.Year, req.Month) {
		return false, tabeldomain.ErrInvalidPeriod
	}
	lock, err := s.locks.Find(ctx, s.db, res.ID, req.Year, req.Month)
	if err != nil {
		return false, err
	}
	return lock != nil && lock.IsLocked, nil
}

// Autofill projects the department's weekly schedule, or a daily-frequency
// default, across the month. Days are walked in ascending order and each
// service keeps a running total seeded from what is already logged, so when
// a cap is hit mid-month the earlier days win. The whole projection commits
// as one transaction.
func (s *Service) Autofill(ctx context.Context, a actor.Actor, req tabeldomain.MonthScope) (int, error) {
	if err := s.authz.Authorize(ctx, a, authorization.ObjectTabel, authorization.ActionEdit); err != nil {
		return 0, err
	}
	res, err := s.loadResident(ctx, a, req.ResidentID)
	if err != nil {
		return 0, err
	}
	if !validPeriod(req.Year, req.Month) {
		return 0, tabeldomain.ErrInvalidPeriod
	}

	department, err := s.departments.FindByID(ctx, s.db, res.DepartmentID)
	if err != nil {
		return 0, err
	}
	if department == nil {
		return 0, tabeldomain.ErrNotFound
	}
	if department.StatusCode() != departmentdomain.StatusActive {
		return 0, tabeldomain.ErrAutofillSkipped
	}

	if err := s.ensureUnlocked(ctx, res.ID, req.Year, req.Month); err != nil {
		return 0, err
	}

	serviceIDs, err := s.contracts.EntitledServiceIDs(ctx, s.db, res.ID)
	if err != nil {
		return 0, err
	}
	if len(serviceIDs) == 0 {
		return 0, nil
	}
	services, err := s.services.FindByIDs(ctx, s.db, serviceIDs)
	if err != nil {
		return 0, err
	}

	schedules, err := s.schedules.ListForDepartment(ctx, s.db, res.DepartmentID)
	if err != nil {
		return 0, err
	}
	byWeekday := make(map[snowflake.ID]map[int]decimal.Decimal)
	for i := range schedules {
		week, ok := byWeekday[schedules[i].ServiceID]
		if !ok {
			week = make(map[int]decimal.Decimal)
			byWeekday[schedules[i].ServiceID] = week
		}
		week[schedules[i].Weekday] = schedules[i].Quantity
	}

	from, to := tabeldomain.MonthRange(req.Year, req.Month)
	existingLogs, err := s.logs.ListMonth(ctx, s.db, res.ID, from, to)
	if err != nil {
		return 0, err
	}
	type cellKey struct {
		serviceID snowflake.ID
		day       int
	}
	existing := make(map[cellKey]decimal.Decimal, len(existingLogs))
	totals := make(map[snowflake.ID]decimal.Decimal)
	for i := range existingLogs {
		key := cellKey{existingLogs[i].ServiceID, existingLogs[i].Date.Day()}
		existing[key] = existingLogs[i].Quantity
		totals[existingLogs[i].ServiceID] = totals[existingLogs[i].ServiceID].Add(existingLogs[i].Quantity)
	}

	daysInMonth := to.AddDate(0, 0, -1).Day()
	filled := 0
	now := s.clock.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range services {
			svc := &services[i]
			week := byWeekday[svc.ID]

			var daily *decimal.Decimal
			if week == nil && svc.FrequencyID != nil {
				frequency, err := s.frequencies.FindByID(ctx, tx, *svc.FrequencyID)
				if err != nil {
					return err
				}
				if frequency != nil && frequency.Period == catalogdomain.PeriodDay {
					quantity := decimal.NewFromInt(1)
					if frequency.TimesPerPeriod != nil {
						quantity = decimal.NewFromInt(int64(*frequency.TimesPerPeriod))
					}
					daily = &quantity
				}
			}
			if week == nil && daily == nil {
				continue
			}

			for day := 1; day <= daysInMonth; day++ {
				date := time.Date(req.Year, time.Month(req.Month), day, 0, 0, 0, 0, time.UTC)

				var proposed decimal.Decimal
				if week != nil {
					quantity, ok := week[catalogdomain.ScheduleWeekday(date)]
					if !ok {
						continue
					}
					proposed = quantity
				} else {
					proposed = *daily
				}

				if svc.MaxQuantityPerMonth != nil {
					limit := decimal.NewFromInt(int64(*svc.MaxQuantityPerMonth))
					if totals[svc.ID].GreaterThanOrEqual(limit) {
						continue
					}
				}

				if err := s.logs.Upsert(ctx, tx, &tabeldomain.ServiceLog{
					ID:             s.genID.Generate(),
					RecipientID:    res.ID,
					ServiceID:      svc.ID,
					Date:           date,
					Quantity:       proposed,
					PriceAtService: svc.Price,
					ProviderID:     a.ID,
					CreatedAt:      now,
					UpdatedAt:      now,
				}); err != nil {
					return err
				}

				key := cellKey{svc.ID, day}
				if prior, ok := existing[key]; ok {
					totals[svc.ID] = totals[svc.ID].Sub(prior).Add(proposed)
				} else {
					totals[svc.ID] = totals[svc.ID].Add(proposed)
				}
				existing[key] = proposed
				filled++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.RecordAutofillRows(filled)
	s.log.Info("autofill completed",
		zap.String("resident_id", res.ID.String()),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("filled", filled),
	)
	return filled, nil
}
