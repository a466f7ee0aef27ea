package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type logRepo struct{}

func ProvideLog() tabeldomain.LogRepository {
	return &logRepo{}
}

const logColumns = `id, recipient_id, service_id, date, quantity, price_at_service, provider_id, created_at, updated_at`

func (r *logRepo) Upsert(ctx context.Context, db *gorm.DB, log *tabeldomain.ServiceLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_logs (`+logColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recipient_id, service_id, date)
		 DO UPDATE SET quantity = excluded.quantity,
		               price_at_service = excluded.price_at_service,
		               provider_id = excluded.provider_id,
		               updated_at = excluded.updated_at`,
		log.ID,
		log.RecipientID,
		log.ServiceID,
		log.Date,
		log.Quantity,
		log.PriceAtService,
		log.ProviderID,
		log.CreatedAt,
		log.UpdatedAt,
	).Error
}

func (r *logRepo) DeleteCell(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, date time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM service_logs WHERE recipient_id = ? AND service_id = ? AND date = ?`,
		recipientID,
		serviceID,
		date,
	)
	return result.RowsAffected, result.Error
}

func (r *logRepo) FindCell(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, date time.Time) (*tabeldomain.ServiceLog, error) {
	var log tabeldomain.ServiceLog
	err := db.WithContext(ctx).Raw(
		`SELECT `+logColumns+` FROM service_logs
		 WHERE recipient_id = ? AND service_id = ? AND date = ?`,
		recipientID,
		serviceID,
		date,
	).Scan(&log).Error
	if err != nil {
		return nil, err
	}
	if log.ID == 0 {
		return nil, nil
	}
	return &log, nil
}

func (r *logRepo) SumForMonth(ctx context.Context, db *gorm.DB, recipientID, serviceID snowflake.ID, from, to time.Time, excludeDate *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) AS total FROM service_logs
		 WHERE recipient_id = ? AND service_id = ? AND date >= ? AND date < ?`
	args := []interface{}{recipientID, serviceID, from, to}
	if excludeDate != nil {
		query += ` AND date <> ?`
		args = append(args, *excludeDate)
	}

	var row struct {
		Total decimal.Decimal
	}
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return decimal.Decimal{}, err
	}
	return row.Total, nil
}

func (r *logRepo) ListMonth(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]tabeldomain.ServiceLog, error) {
	var logs []tabeldomain.ServiceLog
	err := db.WithContext(ctx).Raw(
		`SELECT `+logColumns+` FROM service_logs
		 WHERE recipient_id = ? AND date >= ? AND date < ?
		 ORDER BY service_id ASC, date ASC`,
		recipientID,
		from,
		to,
	).Scan(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepo) DeleteMonth(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM service_logs WHERE recipient_id = ? AND date >= ? AND date < ?`,
		recipientID,
		from,
		to,
	)
	return result.RowsAffected, result.Error
}

func (r *logRepo) DeleteDay(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, date time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM service_logs WHERE recipient_id = ? AND date = ?`,
		recipientID,
		date,
	)
	return result.RowsAffected, result.Error
}

func (r *logRepo) AggregateByService(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, from, to time.Time) ([]tabeldomain.ServiceTotal, error) {
	var totals []tabeldomain.ServiceTotal
	err := db.WithContext(ctx).Raw(
		`SELECT service_id, COALESCE(SUM(quantity), 0) AS total FROM service_logs
		 WHERE recipient_id = ? AND date >= ? AND date < ?
		 GROUP BY service_id ORDER BY service_id ASC`,
		recipientID,
		from,
		to,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

type lockRepo struct{}

func ProvideLock() tabeldomain.LockRepository {
	return &lockRepo{}
}

func (r *lockRepo) Find(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, year, month int) (*tabeldomain.TabelLock, error) {
	var lock tabeldomain.TabelLock
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, year, month, is_locked, locked_by, created_at, updated_at
		 FROM tabel_locks WHERE recipient_id = ? AND year = ? AND month = ?`,
		recipientID,
		year,
		month,
	).Scan(&lock).Error
	if err != nil {
		return nil, err
	}
	if lock.ID == 0 {
		return nil, nil
	}
	return &lock, nil
}

func (r *lockRepo) Insert(ctx context.Context, db *gorm.DB, lock *tabeldomain.TabelLock) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tabel_locks (id, recipient_id, year, month, is_locked, locked_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lock.ID,
		lock.RecipientID,
		lock.Year,
		lock.Month,
		lock.IsLocked,
		lock.LockedBy,
		lock.CreatedAt,
		lock.UpdatedAt,
	).Error
}

func (r *lockRepo) SetLocked(ctx context.Context, db *gorm.DB, id snowflake.ID, locked bool, lockedBy snowflake.ID, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tabel_locks SET is_locked = ?, locked_by = ?, updated_at = ? WHERE id = ?`,
		locked,
		lockedBy,
		updatedAt,
		id,
	).Error
}
