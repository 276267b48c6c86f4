package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository implements the student status history store using GORM.
// The trail is append-only: this type deliberately has no update or delete.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, row *domain.StudentStatusHistory) error {
	return database.FromContext(ctx, r.db).Create(row).Error
}

func (r *HistoryRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentStatusHistory, error) {
	var rows []*domain.StudentStatusHistory
	err := database.FromContext(ctx, r.db).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *HistoryRepository) LatestTransitionTo(ctx context.Context, studentID, periodID uuid.UUID, newStatus domain.StudentStatus) (*domain.StudentStatusHistory, error) {
	var row domain.StudentStatusHistory
	err := database.FromContext(ctx, r.db).
		Where("student_id = ? AND period_id = ? AND new_status = ?", studentID, periodID, newStatus).
		Order("created_at desc").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
