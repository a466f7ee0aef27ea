package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
	billingrepo "github.com/opencare/tabel/internal/billing/repository"
	catalogrepo "github.com/opencare/tabel/internal/catalog/repository"
	residentrepo "github.com/opencare/tabel/internal/resident/repository"
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
	svc   billingdomain.Service
	db    *gorm.DB
	node  *snowflake.Node
	actor actor.Actor
}

func setupBillingService(t *testing.T) *fixture {
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
	prepareBillingSchema(t, db)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Authz:       &authzStub{},
		Repo:        billingrepo.Provide(),
		Residents:   residentrepo.Provide(),
		MonthlyData: residentrepo.ProvideMonthlyData(),
		Services:    catalogrepo.ProvideService(),
		Categories:  catalogrepo.ProvideCategory(),
	})

	return &fixture{
		svc:   svc,
		db:    db,
		node:  node,
		actor: actor.Actor{ID: node.Generate(), Role: actor.RoleAdmin},
	}
}

func prepareBillingSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS service_categories (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
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
		`CREATE TABLE IF NOT EXISTS monthly_recipient_data (
			id INTEGER PRIMARY KEY,
			recipient_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			income NUMERIC NOT NULL,
			pension NUMERIC NOT NULL,
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

func (f *fixture) seedResident(t *testing.T) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO recipients (id, last_name, first_name, middle_name, birth_date, department_id, room, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Sidorov", "Pavel", "", nil, f.node.Generate(), "12", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed resident: %v", err)
	}
	return id
}

func (f *fixture) seedService(t *testing.T, code, name, price string, categoryID snowflake.ID) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO services (id, code, name, category_id, parent_id, frequency_id, price, unit, max_quantity_per_month, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, code, name, categoryID, nil, nil, price, "unit", nil, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return id
}

func (f *fixture) seedCategory(t *testing.T, code, name string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO service_categories (id, code, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, code, name, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

func (f *fixture) seedLog(t *testing.T, recipientID, serviceID snowflake.ID, date string, quantity, price string) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err = f.db.Exec(
		`INSERT INTO service_logs (id, recipient_id, service_id, date, quantity, price_at_service, provider_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), recipientID, serviceID, day.UTC(), quantity, price, f.actor.ID, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed log: %v", err)
	}
}

func (f *fixture) seedMonthlyData(t *testing.T, recipientID snowflake.ID, year, month int, income, pension string) {
	t.Helper()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := f.db.Exec(
		`INSERT INTO monthly_recipient_data (id, recipient_id, year, month, income, pension, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), recipientID, year, month, income, pension, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed monthly data: %v", err)
	}
}

func TestActOrdersRowsByCodeAndTotals(t *testing.T) {
	f := setupBillingService(t)
	residentID := f.seedResident(t)
	categoryID := f.seedCategory(t, "9", "Medical care")
	late := f.seedService(t, "9.10", "Massage", "200.00", categoryID)
	early := f.seedService(t, "9.2", "Injections", "100.00", categoryID)

	f.seedLog(t, residentID, late, "2024-04-01", "2", "200.00")
	f.seedLog(t, residentID, early, "2024-04-02", "3", "100.00")
	f.seedLog(t, residentID, early, "2024-04-09", "1", "100.00")

	act, err := f.svc.Act(context.Background(), f.actor, billingdomain.ActRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("act: %v", err)
	}

	if len(act.Rows) != 2 {
		t.Fatalf("expected 2 act rows, got %d", len(act.Rows))
	}
	if act.Rows[0].Code != "9.2" || act.Rows[1].Code != "9.10" {
		t.Fatalf("expected numeric code order 9.2 before 9.10, got %s then %s", act.Rows[0].Code, act.Rows[1].Code)
	}
	if act.Rows[0].Number != 1 || act.Rows[1].Number != 2 {
		t.Fatalf("expected sequential row numbers, got %d and %d", act.Rows[0].Number, act.Rows[1].Number)
	}
	if act.Rows[0].Category != "Medical care" {
		t.Fatalf("expected category name on row, got %q", act.Rows[0].Category)
	}
	if act.Rows[0].Quantity.StringFixed(0) != "4" {
		t.Fatalf("expected 4 units of 9.2, got %s", act.Rows[0].Quantity.String())
	}
	if act.Total.StringFixed(2) != "800.00" {
		t.Fatalf("expected total 800.00, got %s", act.Total.StringFixed(2))
	}
}

func TestActUsesPriceSnapshotsNotCatalogPrice(t *testing.T) {
	f := setupBillingService(t)
	residentID := f.seedResident(t)
	categoryID := f.seedCategory(t, "9", "Medical care")
	serviceID := f.seedService(t, "9.2", "Injections", "500.00", categoryID)

	// Logged before the catalog price was raised to 500.
	f.seedLog(t, residentID, serviceID, "2024-04-02", "2", "100.00")

	act, err := f.svc.Act(context.Background(), f.actor, billingdomain.ActRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if act.Total.StringFixed(2) != "200.00" {
		t.Fatalf("expected snapshot-priced total 200.00, got %s", act.Total.StringFixed(2))
	}
	if act.Rows[0].Price.StringFixed(2) != "100.00" {
		t.Fatalf("expected effective price 100.00, got %s", act.Rows[0].Price.StringFixed(2))
	}
}

func TestActAppliesIncomeCeilingAndPensionDifference(t *testing.T) {
	f := setupBillingService(t)
	residentID := f.seedResident(t)
	categoryID := f.seedCategory(t, "9", "Medical care")
	serviceID := f.seedService(t, "9.2", "Injections", "100.00", categoryID)

	f.seedLog(t, residentID, serviceID, "2024-04-02", "10", "100.00")
	f.seedMonthlyData(t, residentID, 2024, 4, "1000.00", "1200.00")

	act, err := f.svc.Act(context.Background(), f.actor, billingdomain.ActRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if !act.HasMonthlyData {
		t.Fatalf("expected monthly data attached")
	}
	if act.IncomeLimit.StringFixed(2) != "750.00" {
		t.Fatalf("expected income limit 750.00, got %s", act.IncomeLimit.StringFixed(2))
	}
	if act.Payable.StringFixed(2) != "750.00" {
		t.Fatalf("expected payable capped at 750.00, got %s", act.Payable.StringFixed(2))
	}
	if act.Difference.StringFixed(2) != "200.00" {
		t.Fatalf("expected pension difference 200.00, got %s", act.Difference.StringFixed(2))
	}
}

func TestActEmptyMonth(t *testing.T) {
	f := setupBillingService(t)
	residentID := f.seedResident(t)

	act, err := f.svc.Act(context.Background(), f.actor, billingdomain.ActRequest{
		ResidentID: residentID.String(),
		Year:       2024,
		Month:      4,
	})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if len(act.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(act.Rows))
	}
	if !act.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", act.Total.String())
	}
}
