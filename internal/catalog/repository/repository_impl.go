package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	"gorm.io/gorm"
)

type categoryRepo struct{}

func ProvideCategory() catalogdomain.CategoryRepository {
	return &categoryRepo{}
}

func (r *categoryRepo) Insert(ctx context.Context, db *gorm.DB, c *catalogdomain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_categories (id, code, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.Code,
		c.Name,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Category, error) {
	var c catalogdomain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at
		 FROM service_categories WHERE id = ?`,
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

func (r *categoryRepo) List(ctx context.Context, db *gorm.DB) ([]catalogdomain.Category, error) {
	var categories []catalogdomain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at
		 FROM service_categories ORDER BY code ASC`,
	).Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

type frequencyRepo struct{}

func ProvideFrequency() catalogdomain.FrequencyRepository {
	return &frequencyRepo{}
}

func (r *frequencyRepo) Insert(ctx context.Context, db *gorm.DB, f *catalogdomain.Frequency) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_frequencies (id, name, period_type, times_per_period, is_approximate, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.Name,
		f.Period,
		f.TimesPerPeriod,
		f.IsApproximate,
		f.CreatedAt,
		f.UpdatedAt,
	).Error
}

func (r *frequencyRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Frequency, error) {
	var f catalogdomain.Frequency
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, period_type, times_per_period, is_approximate, created_at, updated_at
		 FROM service_frequencies WHERE id = ?`,
		id,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *frequencyRepo) List(ctx context.Context, db *gorm.DB) ([]catalogdomain.Frequency, error) {
	var frequencies []catalogdomain.Frequency
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, period_type, times_per_period, is_approximate, created_at, updated_at
		 FROM service_frequencies ORDER BY name ASC`,
	).Scan(&frequencies).Error
	if err != nil {
		return nil, err
	}
	return frequencies, nil
}

type serviceRepo struct{}

func ProvideService() catalogdomain.ServiceRepository {
	return &serviceRepo{}
}

const serviceColumns = `id, code, name, category_id, parent_id, frequency_id, price, unit, max_quantity_per_month, is_active, created_at, updated_at`

func (r *serviceRepo) Insert(ctx context.Context, db *gorm.DB, s *catalogdomain.Service) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (`+serviceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.Code,
		s.Name,
		s.CategoryID,
		s.ParentID,
		s.FrequencyID,
		s.Price,
		s.Unit,
		s.MaxQuantityPerMonth,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}

func (r *serviceRepo) Update(ctx context.Context, db *gorm.DB, s *catalogdomain.Service) error {
	return db.WithContext(ctx).Exec(
		`UPDATE services
		 SET name = ?, frequency_id = ?, price = ?, max_quantity_per_month = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name,
		s.FrequencyID,
		s.Price,
		s.MaxQuantityPerMonth,
		s.IsActive,
		s.UpdatedAt,
		s.ID,
	).Error
}

func (r *serviceRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Service, error) {
	var s catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *serviceRepo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*catalogdomain.Service, error) {
	var s catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceColumns+` FROM services WHERE code = ?`,
		code,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *serviceRepo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]catalogdomain.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var services []catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceColumns+` FROM services WHERE id IN ?`,
		ids,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *serviceRepo) List(ctx context.Context, db *gorm.DB) ([]catalogdomain.Service, error) {
	var services []catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT ` + serviceColumns + ` FROM services ORDER BY code ASC`,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

type scheduleRepo struct{}

func ProvideSchedule() catalogdomain.ScheduleRepository {
	return &scheduleRepo{}
}

func (r *scheduleRepo) Upsert(ctx context.Context, db *gorm.DB, sch *catalogdomain.Schedule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_schedules (id, service_id, department_id, weekday, quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (service_id, department_id, weekday)
		 DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		sch.ID,
		sch.ServiceID,
		sch.DepartmentID,
		sch.Weekday,
		sch.Quantity,
		sch.CreatedAt,
		sch.UpdatedAt,
	).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, db *gorm.DB, serviceID, departmentID snowflake.ID, weekday int) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM service_schedules
		 WHERE service_id = ? AND department_id = ? AND weekday = ?`,
		serviceID,
		departmentID,
		weekday,
	).Error
}

func (r *scheduleRepo) ListForDepartment(ctx context.Context, db *gorm.DB, departmentID snowflake.ID) ([]catalogdomain.Schedule, error) {
	var schedules []catalogdomain.Schedule
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, department_id, weekday, quantity, created_at, updated_at
		 FROM service_schedules WHERE department_id = ? ORDER BY service_id ASC, weekday ASC`,
		departmentID,
	).Scan(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}
