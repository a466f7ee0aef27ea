package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/shopspring/decimal"
)

type Service interface {
	Act(ctx context.Context, a actor.Actor, req ActRequest) (*Act, error)
}

type ActRequest struct {
	ResidentID string `json:"-"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// ActRow is one numbered line of the billing act: a service with its month
// quantity priced at the snapshots taken when the log rows were written.
type ActRow struct {
	Number   int             `json:"number"`
	Service  snowflake.ID    `json:"service_id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
}

// Act is the monthly billing statement for one resident. The payable total
// is capped at three quarters of the resident's income; Difference is what
// remains of the pension after the act total.
type Act struct {
	ResidentID     snowflake.ID    `json:"resident_id"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Rows           []ActRow        `json:"rows"`
	Total          decimal.Decimal `json:"total"`
	HasMonthlyData bool            `json:"has_monthly_data"`
	Income         decimal.Decimal `json:"income"`
	Pension        decimal.Decimal `json:"pension"`
	IncomeLimit    decimal.Decimal `json:"income_limit"`
	Payable        decimal.Decimal `json:"payable"`
	Difference     decimal.Decimal `json:"difference"`
}

// ServiceAmount is one row of the priced per-service aggregation.
type ServiceAmount struct {
	ServiceID snowflake.ID    `json:"service_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

var (
	ErrNotFound      = errors.New("billing_not_found")
	ErrInvalidID     = errors.New("invalid_billing_id")
	ErrInvalidPeriod = errors.New("invalid_period")
)
