package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Insert(ctx context.Context, db *gorm.DB, c *Category) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	List(ctx context.Context, db *gorm.DB) ([]Category, error)
}

type FrequencyRepository interface {
	Insert(ctx context.Context, db *gorm.DB, f *Frequency) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Frequency, error)
	List(ctx context.Context, db *gorm.DB) ([]Frequency, error)
}

type ServiceRepository interface {
	Insert(ctx context.Context, db *gorm.DB, s *Service) error
	Update(ctx context.Context, db *gorm.DB, s *Service) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Service, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Service, error)
	List(ctx context.Context, db *gorm.DB) ([]Service, error)
}

type ScheduleRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, sch *Schedule) error
	Delete(ctx context.Context, db *gorm.DB, serviceID, departmentID snowflake.ID, weekday int) error
	ListForDepartment(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]Schedule, error)
}
