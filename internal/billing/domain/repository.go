package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// AggregateAmounts sums quantity and quantity*price_at_service per
	// service for one resident inside [from, to).
	AggregateAmounts(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]ServiceAmount, error)
}
