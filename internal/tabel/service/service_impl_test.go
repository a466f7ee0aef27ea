package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	catalogrepo "github.com/opencare/tabel/internal/catalog/repository"
	"github.com/opencare/tabel/internal/clock"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	departmentrepo "github.com/opencare/tabel/internal/department/repository"
	residentrepo "github.com/opencare/tabel/internal/resident/repository"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
	tabelrepo "github.com/opencare/tabel/internal/tabel/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authzStub struct {
	err error
}

func (a *authzStub) Authorize(ctx context.Context, _ actor.Actor, object, action string) error {
	return a.err
}

func (a *authzStub) AuthorizeResident(ctx context.Context, _ actor.Actor, departmentID snowflake.ID) error {
	return a.err
}

type fixture struct {
	svc   tabeldomain.Service
	db    *gorm.DB
	node  *snowflake.Node
	actor actor.Actor
}

func setupTabelService(t *testing.T) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	prepareTabelSchema(t, db)

	fake := clock.NewFakeClock(time.Date(2024, time.April, 10, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Clock:       fake,
		GenID:       node,
		Authz:       &authzStub{},
		Logs:        tabelrepo.ProvideLog(),
		Locks:       tabelrepo.ProvideLock(),
		Residents:   residentrepo.Provide(),
		Contracts:   residentrepo.ProvideContract(),
		Departments: departmentrepo.Provide(),
		Services:    catalogrepo.ProvideService(),
		Frequencies: catalogrepo.ProvideFrequency(),
		Schedules:   catalogrepo.ProvideSchedule(),
	})

	return &fixture{
		svc:   svc,
		db:    db,
		node:  node,
		actor: actor.Actor{ID: node.Generate(), Role: actor.RoleAdmin},
	}
}

func prepareTabelSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	statements := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE,
			department_type TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recipients (
			id INTEGER PRIMARY KEY,
			last_name TEXT NOT NULL,
			first_name TEXT NOT NULL,
			middle_name TEXT,
			birth_date DATETIME,
			department_id INTEGER NOT NULL,
			room TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			id INTEGER PRIMARY KEY,
			recipient_id INTEGER NOT NULL,
			number TEXT NOT NULL,
			date_start DATETIME NOT NULL,
			date_end DATETIME,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contract_services (
			id INTEGER PRIMARY KEY,
			contract_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (contract_id, service_id)
		)`,
		`CREATE TABLE IF NOT EXISTS service_frequencies (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			period_type TEXT NOT NULL,
			times_per_period INTEGER,
			is_approximate BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category_id INTEGER NOT NULL,
			parent_id INTEGER,
			frequency_id INTEGER,
			price NUMERIC NOT NULL,
			unit TEXT,
			max_quantity_per_month INTEGER,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS service_schedules (
			id INTEGER PRIMARY KEY,
			service_id INTEGER NOT NULL,
			department_id INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			quantity NUMERIC NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (service_id, department_id, weekday)
		)`,
		`CREATE TABLE IF NOT EXISTS service_logs (
			id INTEGER PRIMARY KEY,
			recipient_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			date DATETIME NOT NULL,
			quantity NUMERIC NOT NULL,
			price_at_service NUMERIC NOT NULL,
			provider_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (recipient_id, service_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS tabel_locks (
			id INTEGER PRIMARY KEY,
			recipient_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			is_locked BOOLEAN NOT NULL DEFAULT 1,
			locked_by INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (recipient_id, year, month)
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}
}

func (f *fixture) seedDepartment(t *testing.T, departmentType string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO departments (id, name, code, department_type, capacity, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Dept "+id.String(), id.String(), departmentType, 30, "", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed department: %v", err)
	}
	return id
}

func (f *fixture) seedResident(t *testing.T, departmentID snowflake.ID) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO recipients (id, last_name, first_name, middle_name, birth_date, department_id, room, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Petrova", "Olga", "", nil, departmentID, "101", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed resident: %v", err)
	}
	return id
}

func (f *fixture) seedService(t *testing.T, code string, price string, maxPerMonth *int, frequencyID *snowflake.ID) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO services (id, code, name, category_id, parent_id, frequency_id, price, unit, max_quantity_per_month, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, code, "Service "+code, f.node.Generate(), nil, frequencyID, price, "unit", maxPerMonth, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return id
}

func (f *fixture) seedDailyFrequency(t *testing.T, times *int) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO service_frequencies (id, name, period_type, times_per_period, is_approximate, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "daily", "day", times, false, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed frequency: %v", err)
	}
	return id
}

func (f *fixture) seedEntitlement(t *testing.T, recipientID snowflake.ID, serviceIDs ...snowflake.ID) {
	t.Helper()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	contractID := f.node.Generate()
	err := f.db.Exec(
		`INSERT INTO contracts (id, recipient_id, number, date_start, date_end, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contractID, recipientID, "C-"+contractID.String(), now, nil, true, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	for _, serviceID := range serviceIDs {
		err := f.db.Exec(
			`INSERT INTO contract_services (id, contract_id, service_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			f.node.Generate(), contractID, serviceID, now,
		).Error
		if err != nil {
			t.Fatalf("seed contract service: %v", err)
		}
	}
}

func (f *fixture) seedSchedule(t *testing.T, serviceID, departmentID snowflake.ID, weekday int, quantity string) {
	t.Helper()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO service_schedules (id, service_id, department_id, weekday, quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), serviceID, departmentID, weekday, quantity, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
}

func (f *fixture) countLogs(t *testing.T) int {
	t.Helper()
	var count int
	if err := f.db.Raw(`SELECT COUNT(1) FROM service_logs`).Scan(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return count
}

func intptr(v int) *int { return &v }

func TestUpsertCellEnforcesMonthlyQuota(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", intptr(3), nil)
	ctx := context.Background()

	for day, quantity := range map[string]string{"2024-04-01": "1", "2024-04-02": "2"} {
		_, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
			ResidentID: residentID.String(),
			ServiceID:  serviceID.String(),
			Date:       day,
			Quantity:   quantity,
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", day, err)
		}
	}

	_, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-03",
		Quantity:   "1",
	})
	if !errors.Is(err, tabeldomain.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	var quotaErr *tabeldomain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExceededError, got %T", err)
	}
	if quotaErr.Limit != 3 || quotaErr.CurrentTotal.StringFixed(0) != "3" {
		t.Fatalf("unexpected quota detail: limit %d, total %s", quotaErr.Limit, quotaErr.CurrentTotal.String())
	}
	if f.countLogs(t) != 2 {
		t.Fatalf("rejected mutation must not write, got %d rows", f.countLogs(t))
	}
}

func TestUpsertCellSameDayDoesNotDoubleCount(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", intptr(3), nil)
	ctx := context.Background()

	for _, quantity := range []string{"3", "2", "3"} {
		result, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
			ResidentID: residentID.String(),
			ServiceID:  serviceID.String(),
			Date:       "2024-04-05",
			Quantity:   quantity,
		})
		if err != nil {
			t.Fatalf("re-enter quantity %s: %v", quantity, err)
		}
		if result.Total.StringFixed(0) != quantity {
			t.Fatalf("expected month total %s, got %s", quantity, result.Total.StringFixed(0))
		}
	}
	if f.countLogs(t) != 1 {
		t.Fatalf("expected a single row for the day, got %d", f.countLogs(t))
	}
}

func TestUpsertCellZeroDeletesRow(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", nil, nil)
	ctx := context.Background()

	_, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
		Quantity:   "2",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	result, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
		Quantity:   "0",
	})
	if err != nil {
		t.Fatalf("zero upsert: %v", err)
	}
	if !result.Quantity.IsZero() {
		t.Fatalf("expected zero quantity, got %s", result.Quantity.String())
	}
	if f.countLogs(t) != 0 {
		t.Fatalf("expected row deleted, got %d rows", f.countLogs(t))
	}

	quantity, err := f.svc.Cell(ctx, f.actor, tabeldomain.CellQuery{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
	})
	if err != nil {
		t.Fatalf("cell read: %v", err)
	}
	if !quantity.IsZero() {
		t.Fatalf("expected zero after delete, got %s", quantity.String())
	}
}

func TestLockBlocksMutationsUntilToggledBack(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", nil, nil)
	ctx := context.Background()
	scope := tabeldomain.MonthScope{ResidentID: residentID.String(), Year: 2024, Month: 4}

	locked, err := f.svc.ToggleLock(ctx, f.actor, scope)
	if err != nil {
		t.Fatalf("toggle lock: %v", err)
	}
	if !locked {
		t.Fatalf("first toggle must lock")
	}

	_, err = f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
		Quantity:   "1",
	})
	if !errors.Is(err, tabeldomain.ErrTabelLocked) {
		t.Fatalf("expected tabel locked on upsert, got %v", err)
	}
	_, err = f.svc.UpsertRow(ctx, f.actor, tabeldomain.UpsertRowRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Dates:      []string{"2024-04-05", "2024-04-12"},
		Quantity:   "1",
	})
	if !errors.Is(err, tabeldomain.ErrTabelLocked) {
		t.Fatalf("expected tabel locked on batch upsert, got %v", err)
	}
	if _, err := f.svc.ClearMonth(ctx, f.actor, scope); !errors.Is(err, tabeldomain.ErrTabelLocked) {
		t.Fatalf("expected tabel locked on clear month, got %v", err)
	}
	if _, err := f.svc.ClearDay(ctx, f.actor, tabeldomain.ClearDayRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
		Day:        5,
	}); !errors.Is(err, tabeldomain.ErrTabelLocked) {
		t.Fatalf("expected tabel locked on clear day, got %v", err)
	}
	if _, err := f.svc.Autofill(ctx, f.actor, scope); !errors.Is(err, tabeldomain.ErrTabelLocked) {
		t.Fatalf("expected tabel locked on autofill, got %v", err)
	}
	if f.countLogs(t) != 0 {
		t.Fatalf("locked month must stay unmodified, got %d rows", f.countLogs(t))
	}

	locked, err = f.svc.ToggleLock(ctx, f.actor, scope)
	if err != nil {
		t.Fatalf("toggle unlock: %v", err)
	}
	if locked {
		t.Fatalf("second toggle must unlock")
	}
	if _, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
		Quantity:   "1",
	}); err != nil {
		t.Fatalf("upsert after unlock: %v", err)
	}
}

func TestAutofillSkipsInactiveResident(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeVacation)
	residentID := f.seedResident(t, departmentID)
	ctx := context.Background()

	_, err := f.svc.Autofill(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if !errors.Is(err, tabeldomain.ErrAutofillSkipped) {
		t.Fatalf("expected autofill skipped, got %v", err)
	}
	if f.countLogs(t) != 0 {
		t.Fatalf("skipped autofill must not write, got %d rows", f.countLogs(t))
	}
}

func TestAutofillScheduleStopsAtQuota(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", intptr(8), nil)
	f.seedEntitlement(t, residentID, serviceID)
	// Weekday 0 is Monday; April 2024 has five of them (1, 8, 15, 22, 29).
	f.seedSchedule(t, serviceID, departmentID, 0, "2")
	ctx := context.Background()

	filled, err := f.svc.Autofill(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("autofill: %v", err)
	}
	if filled != 4 {
		t.Fatalf("expected 4 Mondays filled before cap, got %d", filled)
	}

	totals, err := f.svc.AggregateByService(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(totals) != 1 || totals[0].Total.StringFixed(0) != "8" {
		t.Fatalf("expected month total 8, got %+v", totals)
	}

	cells, err := f.svc.MonthLogs(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("month logs: %v", err)
	}
	days := make([]int, 0, len(cells))
	for _, cell := range cells {
		days = append(days, cell.Day)
	}
	want := []int{1, 8, 15, 22}
	if len(days) != len(want) {
		t.Fatalf("expected days %v, got %v", want, days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("expected days %v, got %v", want, days)
		}
	}
}

func TestAutofillDailyFrequencyDefault(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeMercy)
	residentID := f.seedResident(t, departmentID)
	frequencyID := f.seedDailyFrequency(t, intptr(2))
	serviceID := f.seedService(t, "1.1", "50.00", nil, &frequencyID)
	f.seedEntitlement(t, residentID, serviceID)
	ctx := context.Background()

	filled, err := f.svc.Autofill(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("autofill: %v", err)
	}
	if filled != 30 {
		t.Fatalf("expected every day of April filled, got %d", filled)
	}

	totals, err := f.svc.AggregateByService(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(totals) != 1 || totals[0].Total.StringFixed(0) != "60" {
		t.Fatalf("expected total 60, got %+v", totals)
	}
}

func TestAutofillKeepsManualEntries(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	scheduled := f.seedService(t, "9.4", "150.00", nil, nil)
	manual := f.seedService(t, "2.1", "80.00", nil, nil)
	f.seedEntitlement(t, residentID, scheduled, manual)
	f.seedSchedule(t, scheduled, departmentID, 0, "1")
	ctx := context.Background()

	if _, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  manual.String(),
		Date:       "2024-04-03",
		Quantity:   "5",
	}); err != nil {
		t.Fatalf("manual upsert: %v", err)
	}

	if _, err := f.svc.Autofill(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	}); err != nil {
		t.Fatalf("autofill: %v", err)
	}

	quantity, err := f.svc.Cell(ctx, f.actor, tabeldomain.CellQuery{
		ResidentID: residentID.String(),
		ServiceID:  manual.String(),
		Date:       "2024-04-03",
	})
	if err != nil {
		t.Fatalf("cell read: %v", err)
	}
	if quantity.StringFixed(0) != "5" {
		t.Fatalf("manual entry must survive autofill, got %s", quantity.String())
	}
}

func TestBatchUpsertAndAggregates(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", nil, nil)
	ctx := context.Background()

	result, err := f.svc.UpsertRow(ctx, f.actor, tabeldomain.UpsertRowRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Dates:      []string{"2024-04-02", "2024-04-09", "2024-04-16"},
		Quantity:   "1",
	})
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if result.DaysSaved != 3 {
		t.Fatalf("expected 3 days saved, got %d", result.DaysSaved)
	}
	if result.Total.StringFixed(0) != "3" {
		t.Fatalf("expected month total 3, got %s", result.Total.String())
	}

	cells, err := f.svc.MonthLogs(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("month logs: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("expected 3 independent day cells, got %d", len(cells))
	}
	sum := decimal.Zero
	for _, cell := range cells {
		sum = sum.Add(cell.Quantity)
	}
	if sum.StringFixed(0) != "3" {
		t.Fatalf("expected day cells summing to 3, got %s", sum.String())
	}
}

func TestBatchUpsertIgnoresMonthlyQuota(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", intptr(3), nil)
	ctx := context.Background()

	// The day-list form commits every date on its own and skips the cap
	// check, unlike the single-cell path.
	result, err := f.svc.UpsertRow(ctx, f.actor, tabeldomain.UpsertRowRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Dates:      []string{"2024-04-01", "2024-04-08", "2024-04-15", "2024-04-22"},
		Quantity:   "2",
	})
	if err != nil {
		t.Fatalf("batch upsert past cap: %v", err)
	}
	if result.DaysSaved != 4 {
		t.Fatalf("expected all 4 days saved, got %d", result.DaysSaved)
	}
	if result.Total.StringFixed(0) != "8" {
		t.Fatalf("expected month total 8 past the cap of 3, got %s", result.Total.String())
	}
	if f.countLogs(t) != 4 {
		t.Fatalf("expected 4 rows written, got %d", f.countLogs(t))
	}

	// The single-cell path still enforces the cap on the same store.
	_, err = f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-29",
		Quantity:   "1",
	})
	if !errors.Is(err, tabeldomain.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded on single cell, got %v", err)
	}
}

func TestClearMonthAndDay(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", nil, nil)
	other := f.seedService(t, "2.1", "80.00", nil, nil)
	ctx := context.Background()

	for _, seed := range []struct {
		service snowflake.ID
		date    string
	}{
		{serviceID, "2024-04-02"},
		{other, "2024-04-02"},
		{serviceID, "2024-04-10"},
	} {
		if _, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
			ResidentID: residentID.String(),
			ServiceID:  seed.service.String(),
			Date:       seed.date,
			Quantity:   "1",
		}); err != nil {
			t.Fatalf("seed cell: %v", err)
		}
	}

	deleted, err := f.svc.ClearDay(ctx, f.actor, tabeldomain.ClearDayRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
		Day:        2,
	})
	if err != nil {
		t.Fatalf("clear day: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 rows cleared across services, got %d", deleted)
	}

	deleted, err = f.svc.ClearMonth(ctx, f.actor, tabeldomain.MonthScope{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("clear month: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 remaining row cleared, got %d", deleted)
	}
	if f.countLogs(t) != 0 {
		t.Fatalf("expected empty log store, got %d rows", f.countLogs(t))
	}
}

func TestPriceSnapshotFrozenAtWriteTime(t *testing.T) {
	f := setupTabelService(t)
	departmentID := f.seedDepartment(t, departmentdomain.TypeResidential)
	residentID := f.seedResident(t, departmentID)
	serviceID := f.seedService(t, "9.4", "150.00", nil, nil)
	ctx := context.Background()

	if _, err := f.svc.UpsertCell(ctx, f.actor, tabeldomain.UpsertCellRequest{
		ResidentID: residentID.String(),
		ServiceID:  serviceID.String(),
		Date:       "2024-04-05",
		Quantity:   "1",
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := f.db.Exec(`UPDATE services SET price = ? WHERE id = ?`, "999.00", serviceID).Error; err != nil {
		t.Fatalf("reprice service: %v", err)
	}

	var snapshot string
	err := f.db.Raw(
		`SELECT price_at_service FROM service_logs WHERE recipient_id = ? AND service_id = ?`,
		residentID, serviceID,
	).Scan(&snapshot).Error
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	price, err := decimal.NewFromString(snapshot)
	if err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if price.StringFixed(2) != "150.00" {
		t.Fatalf("price snapshot must not follow catalog edits, got %s", price.StringFixed(2))
	}
}
