package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, r *Resident) error
	UpdatePlacement(ctx context.Context, db *gorm.DB, r *Resident) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Resident, error)
	ListByDepartment(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]Resident, error)
	List(ctx context.Context, db *gorm.DB) ([]Resident, error)
}

type ContractRepository interface {
	Insert(ctx context.Context, db *gorm.DB, c *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]Contract, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error

	ReplaceServices(ctx context.Context, db *gorm.DB, contractID snowflake.ID, links []ContractService) error
	// EntitledServiceIDs returns the union of service ids across the
	// recipient's active contracts.
	EntitledServiceIDs(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]snowflake.ID, error)
}

type HistoryRepository interface {
	InsertStatus(ctx context.Context, db *gorm.DB, h *StatusHistory) error
	InsertPlacement(ctx context.Context, db *gorm.DB, h *PlacementHistory) error
	ListStatus(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]StatusHistory, error)
	ListPlacement(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]PlacementHistory, error)
}

type MonthlyDataRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, d *MonthlyData) error
	Find(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, year, month int) (*MonthlyData, error)
}
