package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, d *Department) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Department, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Department, error)
	List(ctx context.Context, db *gorm.DB, types []string) ([]Department, error)
}
