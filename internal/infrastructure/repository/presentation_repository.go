package repository

import (
	"context"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresentationRepository implements the thesis presentation store using GORM
type PresentationRepository struct {
	db *gorm.DB
}

func NewPresentationRepository(db *gorm.DB) *PresentationRepository {
	return &PresentationRepository{db: db}
}

func (r *PresentationRepository) Create(ctx context.Context, p *domain.ThesisPresentation) error {
	return database.FromContext(ctx, r.db).Omit("Examiners").Create(p).Error
}

func (r *PresentationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ThesisPresentation, error) {
	var p domain.ThesisPresentation
	err := database.FromContext(ctx, r.db).
		Preload("Examiners").
		First(&p, "presentation_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PresentationRepository) Update(ctx context.Context, p *domain.ThesisPresentation) error {
	return database.FromContext(ctx, r.db).Omit("Examiners").Save(p).Error
}

func (r *PresentationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := database.FromContext(ctx, r.db)
	if err := tx.Delete(&domain.PresentationExaminer{}, "thesis_presentation_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.ThesisPresentation{}, "presentation_id = ?", id).Error
}

// ListByDate returns the day's presentations with examiners preloaded. The
// listing by itself sees nothing a concurrent transaction has not committed;
// saves lock the parent schedule row before calling this.
func (r *PresentationRepository) ListByDate(ctx context.Context, date time.Time, excludeID *uuid.UUID) ([]*domain.ThesisPresentation, error) {
	var rows []*domain.ThesisPresentation
	tx := database.FromContext(ctx, r.db).
		Preload("Examiners").
		Where("presentation_date = ?", date)
	if excludeID != nil {
		tx = tx.Where("presentation_id <> ?", *excludeID)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PresentationRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error) {
	var rows []*domain.ThesisPresentation
	err := database.FromContext(ctx, r.db).
		Preload("Examiners").
		Where("period_schedule_id = ?", scheduleID).
		Order("presentation_date, start_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PresentationRepository) CountBySchedule(ctx context.Context, scheduleID uuid.UUID) (int, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.ThesisPresentation{}).
		Where("period_schedule_id = ?", scheduleID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *PresentationRepository) DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	tx := database.FromContext(ctx, r.db)
	err := tx.Exec(`DELETE FROM presentation_examiners WHERE thesis_presentation_id IN
		(SELECT presentation_id FROM thesis_presentations WHERE period_schedule_id = ?)`, scheduleID).Error
	if err != nil {
		return err
	}
	return tx.Delete(&domain.ThesisPresentation{}, "period_schedule_id = ?", scheduleID).Error
}

// ReplaceExaminers deletes all examiner rows for the presentation and inserts
// the new set. Full replace, not diff.
func (r *PresentationRepository) ReplaceExaminers(ctx context.Context, presentationID uuid.UUID, examiners []*domain.PresentationExaminer) error {
	tx := database.FromContext(ctx, r.db)
	if err := tx.Delete(&domain.PresentationExaminer{}, "thesis_presentation_id = ?", presentationID).Error; err != nil {
		return err
	}
	for _, e := range examiners {
		if err := tx.Create(e).Error; err != nil {
			return duplicate(err, "lecturer is already on this presentation's panel")
		}
	}
	return nil
}

func (r *PresentationRepository) ListExaminerAssignments(ctx context.Context, lecturerID, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error) {
	var rows []*domain.ThesisPresentation
	err := database.FromContext(ctx, r.db).
		Joins("JOIN presentation_examiners pe ON pe.thesis_presentation_id = thesis_presentations.presentation_id").
		Where("pe.lecturer_id = ? AND thesis_presentations.period_schedule_id = ?", lecturerID, scheduleID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
