package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ServiceLog is one cell of the tabel: how much of a service one resident
// received on one day. A quantity of zero is never stored, the row is
// deleted instead. PriceAtService freezes the catalog price at write time
// so later price edits cannot rewrite history.
type ServiceLog struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	RecipientID    snowflake.ID    `json:"recipient_id" gorm:"not null;uniqueIndex:ux_service_logs_cell,priority:1"`
	ServiceID      snowflake.ID    `json:"service_id" gorm:"not null;uniqueIndex:ux_service_logs_cell,priority:2"`
	Date           time.Time       `json:"date" gorm:"not null;uniqueIndex:ux_service_logs_cell,priority:3"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:numeric(10,2);not null"`
	PriceAtService decimal.Decimal `json:"price_at_service" gorm:"type:numeric(12,2);not null"`
	ProviderID     snowflake.ID    `json:"provider_id" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null"`
}

func (ServiceLog) TableName() string { return "service_logs" }

// TabelLock freezes one resident's month. No row means unlocked.
type TabelLock struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	RecipientID snowflake.ID `json:"recipient_id" gorm:"not null;uniqueIndex:ux_tabel_locks_scope,priority:1"`
	Year        int          `json:"year" gorm:"not null;uniqueIndex:ux_tabel_locks_scope,priority:2"`
	Month       int          `json:"month" gorm:"not null;uniqueIndex:ux_tabel_locks_scope,priority:3"`
	IsLocked    bool         `json:"is_locked" gorm:"not null;default:true"`
	LockedBy    snowflake.ID `json:"locked_by" gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (TabelLock) TableName() string { return "tabel_locks" }

// ServiceTotal is one row of a per-service month aggregation.
type ServiceTotal struct {
	ServiceID snowflake.ID    `json:"service_id"`
	Total     decimal.Decimal `json:"total"`
}

// MonthRange returns the UTC half-open interval [first day, first day of
// the next month) for range queries over log dates.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// NormalizeDate drops the time-of-day component; log dates are stored as
// UTC midnight so the unique cell constraint compares by calendar day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
