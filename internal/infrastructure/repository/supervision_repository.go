package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupervisionApplicationRepository implements the supervision application
// store using GORM
type SupervisionApplicationRepository struct {
	db *gorm.DB
}

func NewSupervisionApplicationRepository(db *gorm.DB) *SupervisionApplicationRepository {
	return &SupervisionApplicationRepository{db: db}
}

func (r *SupervisionApplicationRepository) Create(ctx context.Context, app *domain.SupervisionApplication) error {
	if err := database.FromContext(ctx, r.db).Create(app).Error; err != nil {
		return duplicate(err, "an application to this lecturer for this role already exists")
	}
	return nil
}

func (r *SupervisionApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error) {
	var app domain.SupervisionApplication
	err := database.FromContext(ctx, r.db).First(&app, "application_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *SupervisionApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error) {
	var app domain.SupervisionApplication
	tx := database.FromContext(ctx, r.db)
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&app, "application_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *SupervisionApplicationRepository) Update(ctx context.Context, app *domain.SupervisionApplication) error {
	return database.FromContext(ctx, r.db).Save(app).Error
}

func (r *SupervisionApplicationRepository) ListByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.SupervisionApplication, error) {
	var apps []*domain.SupervisionApplication
	tx := database.FromContext(ctx, r.db).
		Where("student_id = ? AND period_id = ?", studentID, periodID)
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := tx.Order("created_at").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *SupervisionApplicationRepository) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.SupervisionApplication, error) {
	var apps []*domain.SupervisionApplication
	err := database.FromContext(ctx, r.db).
		Where("lecturer_id = ? AND period_id = ?", lecturerID, periodID).
		Order("created_at").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}
