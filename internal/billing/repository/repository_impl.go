package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) AggregateAmounts(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]billingdomain.ServiceAmount, error) {
	var rows []billingdomain.ServiceAmount
	err := db.WithContext(ctx).Raw(
		`SELECT service_id,
		        COALESCE(SUM(quantity), 0) AS quantity,
		        COALESCE(SUM(quantity * price_at_service), 0) AS amount
		 FROM service_logs
		 WHERE recipient_id = ? AND date >= ? AND date < ?
		 GROUP BY service_id`,
		recipientID,
		from,
		to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
