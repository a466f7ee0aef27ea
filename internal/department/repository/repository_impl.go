package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() departmentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *departmentdomain.Department) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO departments (id, name, code, department_type, capacity, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.Name,
		d.Code,
		d.Type,
		d.Capacity,
		d.Description,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*departmentdomain.Department, error) {
	var d departmentdomain.Department
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, department_type, capacity, description, created_at, updated_at
		 FROM departments WHERE id = ?`,
		id,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*departmentdomain.Department, error) {
	var d departmentdomain.Department
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, department_type, capacity, description, created_at, updated_at
		 FROM departments WHERE code = ?`,
		code,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, types []string) ([]departmentdomain.Department, error) {
	var departments []departmentdomain.Department
	query := `SELECT id, name, code, department_type, capacity, description, created_at, updated_at
		 FROM departments`
	args := make([]interface{}, 0, 1)
	if len(types) > 0 {
		query += ` WHERE department_type IN ?`
		args = append(args, types)
	}
	query += ` ORDER BY name ASC`
	err := db.WithContext(ctx).Raw(query, args...).Scan(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}
