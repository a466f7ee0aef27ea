package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Frequency period types.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Category groups services; its dotted code (e.g. "9") prefixes service codes.
type Category struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Category) TableName() string { return "service_categories" }

// Frequency is a configurable prescription cadence ("2 times per week").
// TimesPerPeriod nil means unlimited.
type Frequency struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	Period         string       `json:"period_type" gorm:"column:period_type;type:text;not null"`
	TimesPerPeriod *int         `json:"times_per_period" gorm:"column:times_per_period"`
	IsApproximate  bool         `json:"is_approximate" gorm:"not null;default:false"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Frequency) TableName() string { return "service_frequencies" }

// MonthlyQuota converts the cadence into a per-month cap, nil meaning
// uncapped. Weekly cadences multiply by a flat 4 and yearly ones divide
// rounding up; the approximation is intentional, not calendar-exact.
// A daily cadence is always uncapped: the per-day value informs display only.
func (f Frequency) MonthlyQuota() *int {
	if f.TimesPerPeriod == nil {
		return nil
	}
	times := *f.TimesPerPeriod
	var quota int
	switch f.Period {
	case PeriodDay:
		return nil
	case PeriodWeek:
		quota = times * 4
	case PeriodMonth:
		quota = times
	case PeriodYear:
		quota = (times + 11) / 12
	default:
		return nil
	}
	return &quota
}

// Service is a billable catalog entry. Sub-services reference their parent
// through ParentID, one level deep in practice.
type Service struct {
	ID                  snowflake.ID    `json:"id" gorm:"primaryKey"`
	Code                string          `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name                string          `json:"name" gorm:"type:text;not null"`
	CategoryID          snowflake.ID    `json:"category_id" gorm:"not null"`
	ParentID            *snowflake.ID   `json:"parent_id"`
	FrequencyID         *snowflake.ID   `json:"frequency_id"`
	Price               decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Unit                string          `json:"unit" gorm:"type:text"`
	MaxQuantityPerMonth *int            `json:"max_quantity_per_month" gorm:"column:max_quantity_per_month"`
	IsActive            bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time       `json:"updated_at" gorm:"not null"`
}

func (Service) TableName() string { return "services" }

// Schedule is the per-weekday expected dosage of a service for one
// department; the autofill projection reads it. Weekday 0 is Monday.
type Schedule struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	ServiceID    snowflake.ID    `json:"service_id" gorm:"not null;uniqueIndex:ux_schedules_service_department_weekday,priority:1"`
	DepartmentID snowflake.ID    `json:"department_id" gorm:"not null;uniqueIndex:ux_schedules_service_department_weekday,priority:2"`
	Weekday      int             `json:"weekday" gorm:"not null;uniqueIndex:ux_schedules_service_department_weekday,priority:3"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:numeric(10,2);not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}

func (Schedule) TableName() string { return "service_schedules" }
