package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() residentdomain.Repository {
	return &repo{}
}

const residentColumns = `id, last_name, first_name, middle_name, birth_date, department_id, room, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, res *residentdomain.Resident) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO recipients (`+residentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		res.LastName,
		res.FirstName,
		res.MiddleName,
		res.BirthDate,
		res.DepartmentID,
		res.Room,
		res.CreatedAt,
		res.UpdatedAt,
	).Error
}

func (r *repo) UpdatePlacement(ctx context.Context, db *gorm.DB, res *residentdomain.Resident) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recipients SET department_id = ?, room = ?, updated_at = ? WHERE id = ?`,
		res.DepartmentID,
		res.Room,
		res.UpdatedAt,
		res.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*residentdomain.Resident, error) {
	var res residentdomain.Resident
	err := db.WithContext(ctx).Raw(
		`SELECT `+residentColumns+` FROM recipients WHERE id = ?`,
		id,
	).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	if res.ID == 0 {
		return nil, nil
	}
	return &res, nil
}

func (r *repo) ListByDepartment(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]residentdomain.Resident, error) {
	var residents []residentdomain.Resident
	err := db.WithContext(ctx).Raw(
		`SELECT `+residentColumns+` FROM recipients
		 WHERE department_id = ? ORDER BY last_name ASC, first_name ASC`,
		departmentID,
	).Scan(&residents).Error
	if err != nil {
		return nil, err
	}
	return residents, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]residentdomain.Resident, error) {
	var residents []residentdomain.Resident
	err := db.WithContext(ctx).Raw(
		`SELECT ` + residentColumns + ` FROM recipients ORDER BY last_name ASC, first_name ASC`,
	).Scan(&residents).Error
	if err != nil {
		return nil, err
	}
	return residents, nil
}

type contractRepo struct{}

func ProvideContract() residentdomain.ContractRepository {
	return &contractRepo{}
}

func (r *contractRepo) Insert(ctx context.Context, db *gorm.DB, c *residentdomain.Contract) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contracts (id, recipient_id, number, date_start, date_end, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.RecipientID,
		c.Number,
		c.DateStart,
		c.DateEnd,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *contractRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*residentdomain.Contract, error) {
	var c residentdomain.Contract
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, number, date_start, date_end, is_active, created_at, updated_at
		 FROM contracts WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *contractRepo) ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]residentdomain.Contract, error) {
	var contracts []residentdomain.Contract
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, number, date_start, date_end, is_active, created_at, updated_at
		 FROM contracts WHERE recipient_id = ? ORDER BY date_start DESC`,
		recipientID,
	).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *contractRepo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE contracts SET is_active = ?, updated_at = ? WHERE id = ?`,
		active,
		updatedAt,
		id,
	).Error
}

func (r *contractRepo) ReplaceServices(ctx context.Context, db *gorm.DB, contractID snowflake.ID, links []residentdomain.ContractService) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM contract_services WHERE contract_id = ?`,
		contractID,
	).Error; err != nil {
		return err
	}
	for i := range links {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO contract_services (id, contract_id, service_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			links[i].ID,
			links[i].ContractID,
			links[i].ServiceID,
			links[i].CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *contractRepo) EntitledServiceIDs(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT cs.service_id
		 FROM contract_services cs
		 JOIN contracts c ON c.id = cs.contract_id
		 WHERE c.recipient_id = ? AND c.is_active = ?
		 ORDER BY cs.service_id ASC`,
		recipientID,
		true,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type historyRepo struct{}

func ProvideHistory() residentdomain.HistoryRepository {
	return &historyRepo{}
}

func (r *historyRepo) InsertStatus(ctx context.Context, db *gorm.DB, h *residentdomain.StatusHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO status_history (id, recipient_id, old_department_id, new_department_id, old_status, new_status, reason, changed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.RecipientID,
		h.OldDepartmentID,
		h.NewDepartmentID,
		h.OldStatus,
		h.NewStatus,
		h.Reason,
		h.ChangedBy,
		h.CreatedAt,
	).Error
}

func (r *historyRepo) InsertPlacement(ctx context.Context, db *gorm.DB, h *residentdomain.PlacementHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO placement_history (id, recipient_id, old_department_id, new_department_id, old_room, new_room, old_status, new_status, reason, effective_date, changed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.RecipientID,
		h.OldDepartmentID,
		h.NewDepartmentID,
		h.OldRoom,
		h.NewRoom,
		h.OldStatus,
		h.NewStatus,
		h.Reason,
		h.EffectiveDate,
		h.ChangedBy,
		h.CreatedAt,
	).Error
}

func (r *historyRepo) ListStatus(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]residentdomain.StatusHistory, error) {
	var rows []residentdomain.StatusHistory
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, old_department_id, new_department_id, old_status, new_status, reason, changed_by, created_at
		 FROM status_history WHERE recipient_id = ? ORDER BY created_at DESC, id DESC`,
		recipientID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *historyRepo) ListPlacement(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) ([]residentdomain.PlacementHistory, error) {
	var rows []residentdomain.PlacementHistory
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, old_department_id, new_department_id, old_room, new_room, old_status, new_status, reason, effective_date, changed_by, created_at
		 FROM placement_history WHERE recipient_id = ? ORDER BY created_at DESC, id DESC`,
		recipientID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type monthlyDataRepo struct{}

func ProvideMonthlyData() residentdomain.MonthlyDataRepository {
	return &monthlyDataRepo{}
}

func (r *monthlyDataRepo) Upsert(ctx context.Context, db *gorm.DB, d *residentdomain.MonthlyData) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO monthly_recipient_data (id, recipient_id, year, month, income, pension, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recipient_id, year, month)
		 DO UPDATE SET income = excluded.income, pension = excluded.pension, updated_at = excluded.updated_at`,
		d.ID,
		d.RecipientID,
		d.Year,
		d.Month,
		d.Income,
		d.Pension,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *monthlyDataRepo) Find(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, year, month int) (*residentdomain.MonthlyData, error) {
	var d residentdomain.MonthlyData
	err := db.WithContext(ctx).Raw(
		`SELECT id, recipient_id, year, month, income, pension, created_at, updated_at
		 FROM monthly_recipient_data WHERE recipient_id = ? AND year = ? AND month = ?`,
		recipientID,
		year,
		month,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}
