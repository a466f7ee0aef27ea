package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Department, error)
	GetByID(ctx context.Context, id string) (*Department, error)
	GetByCode(ctx context.Context, code string) (*Department, error)
	List(ctx context.Context, req ListRequest) ([]Department, error)
}

type CreateRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Type     string `json:"department_type"`
	Capacity int    `json:"capacity"`
}

// ListRequest filters departments. ResidenceOnly narrows the list to
// residential and mercy departments, the only ones the tabel works with.
type ListRequest struct {
	ResidenceOnly bool
}

var (
	ErrNotFound    = errors.New("department_not_found")
	ErrInvalidID   = errors.New("invalid_department_id")
	ErrInvalidName = errors.New("invalid_department_name")
	ErrInvalidCode = errors.New("invalid_department_code")
	ErrInvalidType = errors.New("invalid_department_type")
	ErrCodeTaken   = errors.New("department_code_taken")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

func ValidType(departmentType string) bool {
	switch departmentType {
	case TypeResidential, TypeMercy, TypeHospital, TypeVacation, TypeDeceased:
		return true
	default:
		return false
	}
}
