package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeriodRepository implements the period store using GORM
type PeriodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) Create(ctx context.Context, period *domain.Period) error {
	return database.FromContext(ctx, r.db).Create(period).Error
}

func (r *PeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Period, error) {
	var period domain.Period
	err := database.FromContext(ctx, r.db).First(&period, "period_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *PeriodRepository) GetByName(ctx context.Context, name string) (*domain.Period, error) {
	var period domain.Period
	err := database.FromContext(ctx, r.db).First(&period, "name = ?", name).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *PeriodRepository) Update(ctx context.Context, period *domain.Period) error {
	return database.FromContext(ctx, r.db).Save(period).Error
}

func (r *PeriodRepository) List(ctx context.Context) ([]*domain.Period, error) {
	var periods []*domain.Period
	if err := database.FromContext(ctx, r.db).Order("start_date desc").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

// ScheduleRepository implements the period schedule store using GORM
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *domain.PeriodSchedule) error {
	return database.FromContext(ctx, r.db).Create(schedule).Error
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error) {
	var schedule domain.PeriodSchedule
	err := database.FromContext(ctx, r.db).Preload("Period").First(&schedule, "period_schedule_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error) {
	var schedule domain.PeriodSchedule
	tx := database.FromContext(ctx, r.db)
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	// No Period preload here; callers that need it use GetByID outside the
	// lock. The locked read stays a single-row query.
	err := tx.First(&schedule, "period_schedule_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *domain.PeriodSchedule) error {
	return database.FromContext(ctx, r.db).Save(schedule).Error
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.FromContext(ctx, r.db).Delete(&domain.PeriodSchedule{}, "period_schedule_id = ?", id).Error
}

func (r *ScheduleRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*domain.PeriodSchedule, error) {
	var schedules []*domain.PeriodSchedule
	err := database.FromContext(ctx, r.db).
		Where("period_id = ?", periodID).
		Order("start_date").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepository) ListByPeriodAndType(ctx context.Context, periodID uuid.UUID, t domain.ScheduleType) ([]*domain.PeriodSchedule, error) {
	var schedules []*domain.PeriodSchedule
	err := database.FromContext(ctx, r.db).
		Where("period_id = ? AND type = ?", periodID, t).
		Order("start_date").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}
