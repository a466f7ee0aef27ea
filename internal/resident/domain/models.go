package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	"github.com/shopspring/decimal"
)

// Resident is a person placed in the facility. Status is never stored:
// it is always derived from the current department's type, so placement
// moves can never leave a stale status behind.
type Resident struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	LastName     string       `json:"last_name" gorm:"type:text;not null"`
	FirstName    string       `json:"first_name" gorm:"type:text;not null"`
	MiddleName   string       `json:"middle_name" gorm:"type:text"`
	BirthDate    *time.Time   `json:"birth_date"`
	DepartmentID snowflake.ID `json:"department_id" gorm:"not null"`
	Room         string       `json:"room" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (Resident) TableName() string { return "recipients" }

// StatusIn derives the resident's status from the department they live in.
func (r Resident) StatusIn(d departmentdomain.Department) string {
	return d.StatusCode()
}

func (r Resident) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.LastName, r.FirstName, r.MiddleName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ShortName renders "Lastname F.M." the way the card lists print it.
func (r Resident) ShortName() string {
	name := r.LastName
	if initial := firstRune(r.FirstName); initial != "" {
		name += " " + initial + "."
	}
	if initial := firstRune(r.MiddleName); initial != "" {
		name += initial + "."
	}
	return name
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Age returns full years at the given moment, or nil when the birth date
// is unknown.
func (r Resident) Age(at time.Time) *int {
	if r.BirthDate == nil {
		return nil
	}
	b := *r.BirthDate
	years := at.Year() - b.Year()
	if at.Month() < b.Month() || (at.Month() == b.Month() && at.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

// Contract is an individual service plan. Entitlement is the union of
// services across the resident's active contracts.
type Contract struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	RecipientID snowflake.ID `json:"recipient_id" gorm:"not null"`
	Number      string       `json:"number" gorm:"type:text;not null"`
	DateStart   time.Time    `json:"date_start" gorm:"not null"`
	DateEnd     *time.Time   `json:"date_end"`
	IsActive    bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Contract) TableName() string { return "contracts" }

type ContractService struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID `json:"contract_id" gorm:"not null;uniqueIndex:ux_contract_services_pair,priority:1"`
	ServiceID  snowflake.ID `json:"service_id" gorm:"not null;uniqueIndex:ux_contract_services_pair,priority:2"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
}

func (ContractService) TableName() string { return "contract_services" }

// StatusHistory records a status transition. Append-only.
type StatusHistory struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	RecipientID     snowflake.ID `json:"recipient_id" gorm:"not null;index"`
	OldDepartmentID snowflake.ID `json:"old_department_id" gorm:"not null"`
	NewDepartmentID snowflake.ID `json:"new_department_id" gorm:"not null"`
	OldStatus       string       `json:"old_status" gorm:"type:text;not null"`
	NewStatus       string       `json:"new_status" gorm:"type:text;not null"`
	Reason          string       `json:"reason" gorm:"type:text"`
	ChangedBy       snowflake.ID `json:"changed_by" gorm:"not null"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`
}

func (StatusHistory) TableName() string { return "status_history" }

// PlacementHistory records a department or room move. Append-only.
type PlacementHistory struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	RecipientID     snowflake.ID `json:"recipient_id" gorm:"not null;index"`
	OldDepartmentID snowflake.ID `json:"old_department_id" gorm:"not null"`
	NewDepartmentID snowflake.ID `json:"new_department_id" gorm:"not null"`
	OldRoom         string       `json:"old_room" gorm:"type:text"`
	NewRoom         string       `json:"new_room" gorm:"type:text"`
	OldStatus       string       `json:"old_status" gorm:"type:text;not null"`
	NewStatus       string       `json:"new_status" gorm:"type:text;not null"`
	Reason          string       `json:"reason" gorm:"type:text"`
	EffectiveDate   time.Time    `json:"effective_date" gorm:"not null"`
	ChangedBy       snowflake.ID `json:"changed_by" gorm:"not null"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`
}

func (PlacementHistory) TableName() string { return "placement_history" }

// MonthlyData carries the income and pension figures one billing act is
// computed against, unique per (recipient, year, month).
type MonthlyData struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	RecipientID snowflake.ID    `json:"recipient_id" gorm:"not null;uniqueIndex:ux_monthly_data_scope,priority:1"`
	Year        int             `json:"year" gorm:"not null;uniqueIndex:ux_monthly_data_scope,priority:2"`
	Month       int             `json:"month" gorm:"not null;uniqueIndex:ux_monthly_data_scope,priority:3"`
	Income      decimal.Decimal `json:"income" gorm:"type:numeric(12,2);not null"`
	Pension     decimal.Decimal `json:"pension" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (MonthlyData) TableName() string { return "monthly_recipient_data" }
