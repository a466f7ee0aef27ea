package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Department types. The type of the department a resident currently lives
// in is the only source of the resident's status.
const (
	TypeResidential = "residential"
	TypeMercy       = "mercy"
	TypeHospital    = "hospital"
	TypeVacation    = "vacation"
	TypeDeceased    = "deceased"
)

// Derived resident statuses.
const (
	StatusActive     = "active"
	StatusHospital   = "hospital"
	StatusVacation   = "vacation"
	StatusDischarged = "discharged"
)

// Department is an organizational unit of the facility.
type Department struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	Code        string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Type        string       `json:"department_type" gorm:"column:department_type;type:text;not null"`
	Capacity    int          `json:"capacity" gorm:"not null;default:0"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Department) TableName() string { return "departments" }

// StatusCode returns the status of residents placed in this department.
func (d Department) StatusCode() string {
	return StatusForType(d.Type)
}

// IsResidence reports whether residents of this department count as living
// in the facility (the only departments the tabel and autofill operate on).
func (d Department) IsResidence() bool {
	return d.Type == TypeResidential || d.Type == TypeMercy
}

func StatusForType(departmentType string) string {
	switch departmentType {
	case TypeResidential, TypeMercy:
		return StatusActive
	case TypeHospital:
		return StatusHospital
	case TypeVacation:
		return StatusVacation
	case TypeDeceased:
		return StatusDischarged
	default:
		return StatusActive
	}
}
