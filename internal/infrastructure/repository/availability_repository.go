package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepository implements the lecturer availability store using GORM
type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) ListByCell(ctx context.Context, lecturerID, scheduleID uuid.UUID, t domain.ScheduleType) ([]*domain.LecturerAvailability, error) {
	var rows []*domain.LecturerAvailability
	err := database.FromContext(ctx, r.db).
		Where("lecturer_id = ? AND period_schedule_id = ? AND type = ?", lecturerID, scheduleID, t).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes one grid cell, keyed on the composite availability index so
// duplicate concurrent saves collapse into one row.
func (r *AvailabilityRepository) Upsert(ctx context.Context, row *domain.LecturerAvailability) error {
	return database.FromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "lecturer_id"},
			{Name: "period_schedule_id"},
			{Name: "type"},
			{Name: "date"},
			{Name: "time_slot"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "updated_at"}),
	}).Create(row).Error
}

func (r *AvailabilityRepository) DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	return database.FromContext(ctx, r.db).
		Delete(&domain.LecturerAvailability{}, "period_schedule_id = ?", scheduleID).Error
}
