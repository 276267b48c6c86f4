package repository

import (
	"context"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentRepository implements the student store using GORM
type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) error {
	return database.FromContext(ctx, r.db).Create(student).Error
}

func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	var student domain.Student
	err := database.FromContext(ctx, r.db).First(&student, "student_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	var student domain.Student
	tx := database.FromContext(ctx, r.db)
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&student, "student_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) Update(ctx context.Context, student *domain.Student) error {
	return database.FromContext(ctx, r.db).Save(student).Error
}

// LecturerRepository implements the lecturer store using GORM
type LecturerRepository struct {
	db *gorm.DB
}

func NewLecturerRepository(db *gorm.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

func (r *LecturerRepository) Create(ctx context.Context, lecturer *domain.Lecturer) error {
	return database.FromContext(ctx, r.db).Create(lecturer).Error
}

func (r *LecturerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error) {
	var lecturer domain.Lecturer
	err := database.FromContext(ctx, r.db).First(&lecturer, "lecturer_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lecturer, nil
}

func (r *LecturerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error) {
	var lecturer domain.Lecturer
	tx := database.FromContext(ctx, r.db)
	if database.InTransaction(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&lecturer, "lecturer_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lecturer, nil
}

func (r *LecturerRepository) List(ctx context.Context) ([]*domain.Lecturer, error) {
	var lecturers []*domain.Lecturer
	if err := database.FromContext(ctx, r.db).Order("name").Find(&lecturers).Error; err != nil {
		return nil, err
	}
	return lecturers, nil
}

// VenueRepository implements the venue store using GORM
type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) Create(ctx context.Context, venue *domain.Venue) error {
	return database.FromContext(ctx, r.db).Create(venue).Error
}

func (r *VenueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Venue, error) {
	var venue domain.Venue
	err := database.FromContext(ctx, r.db).First(&venue, "venue_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &venue, nil
}
