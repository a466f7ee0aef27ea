package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LogRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, log *ServiceLog) error
	DeleteCell(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, date time.Time) (int64, error)
	FindCell(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, date time.Time) (*ServiceLog, error)
	// SumForMonth totals a service's quantities inside [from, to), leaving
	// out any row on excludeDate so a re-entered day is not double-counted
	// against the quota.
	SumForMonth(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, from, to time.Time, excludeDate *time.Time) (decimal.Decimal, error)
	ListMonth(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]ServiceLog, error)
	DeleteMonth(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) (int64, error)
	DeleteDay(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, date time.Time) (int64, error)
	AggregateByService(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]ServiceTotal, error)
}

type LockRepository interface {
	Find(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, year, month int) (*TabelLock, error)
	Insert(ctx context.Context, db *gorm.DB, lock *TabelLock) error
	SetLocked(ctx context.Context, db *gorm.DB, id snowflake.ID, locked bool, lockedBy snowflake.ID, updatedAt time.Time) error
}
