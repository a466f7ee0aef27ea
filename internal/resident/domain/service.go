package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, a actor.Actor, req CreateRequest) (*Response, error)
	Get(ctx context.Context, a actor.Actor, id string) (*Response, error)
	List(ctx context.Context, a actor.Actor) ([]Response, error)
	ListByDepartment(ctx context.Context, a actor.Actor, departmentID string) ([]Response, error)

	ApplyPlacementChange(ctx context.Context, a actor.Actor, req PlacementChangeRequest) (*Response, error)
	StatusHistory(ctx context.Context, a actor.Actor, residentID string) ([]StatusHistory, error)
	PlacementHistory(ctx context.Context, a actor.Actor, residentID string) ([]PlacementHistory, error)

	CreateContract(ctx context.Context, a actor.Actor, req CreateContractRequest) (*Contract, error)
	SetContractServices(ctx context.Context, a actor.Actor, req SetContractServicesRequest) error
	Entitlements(ctx context.Context, a actor.Actor, residentID string) ([]snowflake.ID, error)

	SetMonthlyData(ctx context.Context, a actor.Actor, req SetMonthlyDataRequest) (*MonthlyData, error)
	GetMonthlyData(ctx context.Context, a actor.Actor, residentID string, year, month int) (*MonthlyData, error)
}

type CreateRequest struct {
	LastName     string  `json:"last_name"`
	FirstName    string  `json:"first_name"`
	MiddleName   string  `json:"middle_name"`
	BirthDate    *string `json:"birth_date"`
	DepartmentID string  `json:"department_id"`
	Room         string  `json:"room"`
}

type PlacementChangeRequest struct {
	ResidentID      string  `json:"-"`
	NewDepartmentID string  `json:"department_id"`
	NewRoom         string  `json:"room"`
	Reason          string  `json:"reason"`
	EffectiveDate   *string `json:"effective_date"`
}

type CreateContractRequest struct {
	ResidentID string  `json:"-"`
	Number     string  `json:"number"`
	DateStart  string  `json:"date_start"`
	DateEnd    *string `json:"date_end"`
}

type SetContractServicesRequest struct {
	ContractID string   `json:"-"`
	ServiceIDs []string `json:"service_ids"`
}

// SetMonthlyDataRequest accepts money figures the way the intake forms
// send them, with either a comma or a dot as the decimal separator.
type SetMonthlyDataRequest struct {
	ResidentID string `json:"-"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Income     string `json:"income"`
	Pension    string `json:"pension"`
}

// Response is a resident together with the status derived from the
// current department and the display names the card lists render.
type Response struct {
	Resident
	Status    string `json:"status"`
	FullName  string `json:"full_name"`
	ShortName string `json:"short_name"`
	Age       *int   `json:"age"`
}

func NewResponse(r Resident, status string, at time.Time) Response {
	return Response{
		Resident:  r,
		Status:    status,
		FullName:  r.FullName(),
		ShortName: r.ShortName(),
		Age:       r.Age(at),
	}
}

var (
	ErrNotFound       = errors.New("resident_not_found")
	ErrInvalidID      = errors.New("invalid_resident_id")
	ErrInvalidName    = errors.New("invalid_resident_name")
	ErrInvalidDate    = errors.New("invalid_date")
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidNumber  = errors.New("invalid_contract_number")
	ErrNoServices     = errors.New("no_services_selected")
	ErrContractClosed = errors.New("contract_not_active")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

// ParseDate accepts an ISO calendar date and normalizes it to UTC midnight.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseAmount reads a money figure, tolerating a comma decimal separator.
func ParseAmount(value string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

func ValidPeriod(year, month int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12
}
