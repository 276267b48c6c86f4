package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository implements the lecturer period quota store using GORM
type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) GetCustom(ctx context.Context, lecturerID, periodID uuid.UUID) (*domain.LecturerPeriodQuota, error) {
	var quota domain.LecturerPeriodQuota
	err := database.FromContext(ctx, r.db).
		First(&quota, "lecturer_id = ? AND period_id = ?", lecturerID, periodID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &quota, nil
}

func (r *QuotaRepository) Upsert(ctx context.Context, quota *domain.LecturerPeriodQuota) error {
	return database.FromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "lecturer_id"},
			{Name: "period_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"max_students", "updated_at"}),
	}).Create(quota).Error
}

// AssignmentRepository implements the active supervision assignment store
// using GORM
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.StudentLecturer) error {
	if err := database.FromContext(ctx, r.db).Create(assignment).Error; err != nil {
		return duplicate(err, "student already has an active assignment with this lecturer and role")
	}
	return nil
}

// CountActive counts the capacity consumers for a lecturer in a period.
// A count cannot fence off a concurrent insert under read committed, so
// acceptance transactions lock the lecturer row first and only then call
// this; the lock, not the count, is the serialization point.
func (r *AssignmentRepository) CountActive(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	var count int64
	err := database.FromContext(ctx, r.db).Model(&domain.StudentLecturer{}).
		Where("lecturer_id = ? AND period_id = ? AND status = ? AND role IN ?",
			lecturerID, periodID, "active", []domain.SupervisorRole{domain.RoleSupervisor1, domain.RoleSupervisor2}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *AssignmentRepository) GetActiveByStudentAndLecturer(ctx context.Context, studentID, lecturerID, periodID uuid.UUID) (*domain.StudentLecturer, error) {
	var assignment domain.StudentLecturer
	err := database.FromContext(ctx, r.db).
		First(&assignment, "student_id = ? AND lecturer_id = ? AND period_id = ? AND status = ?",
			studentID, lecturerID, periodID, "active").Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.FromContext(ctx, r.db).Delete(&domain.StudentLecturer{}, "assignment_id = ?", id).Error
}
