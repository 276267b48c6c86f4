package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TopicRepository implements the lecturer topic store using GORM
type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Create(ctx context.Context, topic *domain.LecturerTopic) error {
	return database.FromContext(ctx, r.db).Create(topic).Error
}

func (r *TopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error) {
	var topic domain.LecturerTopic
	err := database.FromContext(ctx, r.db).First(&topic, "topic_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error) {
	var topic domain.LecturerTopic
	tx := database.FromContext(ctx, r.db)
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&topic, "topic_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepository) Update(ctx context.Context, topic *domain.LecturerTopic) error {
	return database.FromContext(ctx, r.db).Save(topic).Error
}

func (r *TopicRepository) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.LecturerTopic, error) {
	var topics []*domain.LecturerTopic
	err := database.FromContext(ctx, r.db).
		Where("lecturer_id = ? AND period_id = ?", lecturerID, periodID).
		Order("created_at").
		Find(&topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *TopicRepository) SetAvailabilityByLecturer(ctx context.Context, lecturerID, periodID uuid.UUID, available, onlyWithQuota bool) error {
	tx := database.FromContext(ctx, r.db).
		Model(&domain.LecturerTopic{}).
		Where("lecturer_id = ? AND period_id = ?", lecturerID, periodID)
	if onlyWithQuota {
		tx = tx.Where("student_quota > 0")
	}
	return tx.Update("is_available", available).Error
}

// TopicApplicationRepository implements the topic application store using GORM
type TopicApplicationRepository struct {
	db *gorm.DB
}

func NewTopicApplicationRepository(db *gorm.DB) *TopicApplicationRepository {
	return &TopicApplicationRepository{db: db}
}

func (r *TopicApplicationRepository) Create(ctx context.Context, app *domain.TopicApplication) error {
	if err := database.FromContext(ctx, r.db).Create(app).Error; err != nil {
		return duplicate(err, "student already has a live topic application in this period")
	}
	return nil
}

func (r *TopicApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error) {
	var app domain.TopicApplication
	err := database.FromContext(ctx, r.db).First(&app, "application_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *TopicApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error) {
	var app domain.TopicApplication
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

func (r *TopicApplicationRepository) Update(ctx context.Context, app *domain.TopicApplication) error {
	return database.FromContext(ctx, r.db).Save(app).Error
}

// GetLiveByStudentAndPeriod enforces the one-live-application-per-period rule
// at read time; the partial unique index in the schema is the storage-level
// backstop.
func (r *TopicApplicationRepository) GetLiveByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID) (*domain.TopicApplication, error) {
	var app domain.TopicApplication
	err := database.FromContext(ctx, r.db).
		First(&app, "student_id = ? AND period_id = ? AND status IN ?",
			studentID, periodID,
			[]domain.ApplicationStatus{domain.ApplicationPending, domain.ApplicationAccepted, domain.ApplicationQuotaFull}).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *TopicApplicationRepository) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.TopicApplication, error) {
	var apps []*domain.TopicApplication
	tx := database.FromContext(ctx, r.db).
		Where("lecturer_id = ? AND period_id = ?", lecturerID, periodID)
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
