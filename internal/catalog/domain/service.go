package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Catalog interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	CreateFrequency(ctx context.Context, req CreateFrequencyRequest) (*Frequency, error)
	CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error)
	UpdateService(ctx context.Context, req UpdateServiceRequest) (*Service, error)
	GetService(ctx context.Context, id string) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	SetSchedule(ctx context.Context, req SetScheduleRequest) (*Schedule, error)
	ListSchedules(ctx context.Context, departmentID string) ([]Schedule, error)
}

type CreateCategoryRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type CreateFrequencyRequest struct {
	Name           string `json:"name"`
	Period         string `json:"period_type"`
	TimesPerPeriod *int   `json:"times_per_period"`
	IsApproximate  bool   `json:"is_approximate"`
}

type CreateServiceRequest struct {
	Code                string  `json:"code"`
	Name                string  `json:"name"`
	CategoryID          string  `json:"category_id"`
	ParentID            *string `json:"parent_id"`
	FrequencyID         *string `json:"frequency_id"`
	Price               string  `json:"price"`
	Unit                string  `json:"unit"`
	MaxQuantityPerMonth *int    `json:"max_quantity_per_month"`
}

type UpdateServiceRequest struct {
	ID                  string  `json:"-"`
	Name                *string `json:"name"`
	FrequencyID         *string `json:"frequency_id"`
	Price               *string `json:"price"`
	MaxQuantityPerMonth *int    `json:"max_quantity_per_month"`
	IsActive            *bool   `json:"is_active"`
}

// SetScheduleRequest upserts one weekday cell of a department's weekly
// schedule. Quantity 0 removes the cell.
type SetScheduleRequest struct {
	ServiceID    string `json:"service_id"`
	DepartmentID string `json:"department_id"`
	Weekday      int    `json:"weekday"`
	Quantity     string `json:"quantity"`
}

var (
	ErrNotFound        = errors.New("catalog_not_found")
	ErrInvalidID       = errors.New("invalid_catalog_id")
	ErrInvalidCode     = errors.New("invalid_service_code")
	ErrInvalidName     = errors.New("invalid_service_name")
	ErrInvalidPeriod   = errors.New("invalid_period_type")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidWeekday  = errors.New("invalid_weekday")
	ErrCodeTaken       = errors.New("service_code_taken")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

func ValidPeriod(period string) bool {
	switch period {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}
