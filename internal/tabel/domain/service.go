package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/shopspring/decimal"
)

type Service interface {
	Cell(ctx context.Context, a actor.Actor, req CellQuery) (decimal.Decimal, error)
	UpsertCell(ctx context.Context, a actor.Actor, req UpsertCellRequest) (*CellResult, error)
	UpsertRow(ctx context.Context, a actor.Actor, req UpsertRowRequest) (*RowResult, error)
	ClearMonth(ctx context.Context, a actor.Actor, req MonthScope) (int64, error)
	ClearDay(ctx context.Context, a actor.Actor, req ClearDayRequest) (int64, error)
	MonthLogs(ctx context.Context, a actor.Actor, req MonthScope) ([]MonthCell, error)
	AggregateByService(ctx context.Context, a actor.Actor, req MonthScope) ([]ServiceTotal, error)
	ToggleLock(ctx context.Context, a actor.Actor, req MonthScope) (bool, error)
	LockState(ctx context.Context, a actor.Actor, req MonthScope) (bool, error)
	Autofill(ctx context.Context, a actor.Actor, req MonthScope) (int, error)
}

type CellQuery struct {
	ResidentID string `json:"-"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
}

type UpsertCellRequest struct {
	ResidentID string `json:"-"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	Quantity   string `json:"quantity"`
}

// UpsertRowRequest is the batch day-list form of the cell upsert: one
// quantity applied to many dates, each date its own commit unit.
type UpsertRowRequest struct {
	ResidentID string   `json:"-"`
	ServiceID  string   `json:"service_id"`
	Dates      []string `json:"dates"`
	Quantity   string   `json:"quantity"`
}

type MonthScope struct {
	ResidentID string `json:"-"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

type ClearDayRequest struct {
	ResidentID string `json:"-"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
}

type CellResult struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	MaxQuantity *int            `json:"max_quantity"`
}

type RowResult struct {
	Total     decimal.Decimal `json:"total"`
	DaysSaved int             `json:"days_saved"`
}

type MonthCell struct {
	ServiceID snowflake.ID    `json:"service_id"`
	Day       int             `json:"day"`
	Quantity  decimal.Decimal `json:"quantity"`
}

var (
	ErrNotFound        = errors.New("tabel_not_found")
	ErrInvalidID       = errors.New("invalid_tabel_id")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrTabelLocked     = errors.New("tabel_locked")
	ErrQuotaExceeded   = errors.New("quota_exceeded")
	ErrAutofillSkipped = errors.New("autofill_skipped")
)

// QuotaExceededError reports the cap and the month total it was checked
// against, so the caller can render a corrective message.
type QuotaExceededError struct {
	Limit        int
	CurrentTotal decimal.Decimal
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota_exceeded: limit %d, current total %s", e.Limit, e.CurrentTotal.String())
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
