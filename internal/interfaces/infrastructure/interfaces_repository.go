package interfaces

import (
	"context"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"

	"github.com/google/uuid"
)

// TxManager runs fn inside a storage transaction. The transaction handle
// travels in the context; repositories pick it up transparently, so a multi
// repository mutation commits atomically or rolls back entirely.
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	// GetByIDForUpdate locks the row when called inside a transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	Update(ctx context.Context, student *domain.Student) error
}

type LecturerRepository interface {
	Create(ctx context.Context, lecturer *domain.Lecturer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error)
	// GetByIDForUpdate locks the lecturer row when called inside a
	// transaction. Capacity checks take this lock first so concurrent
	// acceptances for the same lecturer serialize on one row.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error)
	List(ctx context.Context) ([]*domain.Lecturer, error)
}

type VenueRepository interface {
	Create(ctx context.Context, venue *domain.Venue) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Venue, error)
}

type PeriodRepository interface {
	Create(ctx context.Context, period *domain.Period) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Period, error)
	GetByName(ctx context.Context, name string) (*domain.Period, error)
	Update(ctx context.Context, period *domain.Period) error
	List(ctx context.Context) ([]*domain.Period, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.PeriodSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error)
	// GetByIDForUpdate locks the schedule row when called inside a
	// transaction. Presentation saves take this lock before checking for
	// conflicts, so concurrent bookings under the schedule serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error)
	Update(ctx context.Context, schedule *domain.PeriodSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*domain.PeriodSchedule, error)
	ListByPeriodAndType(ctx context.Context, periodID uuid.UUID, t domain.ScheduleType) ([]*domain.PeriodSchedule, error)
}

type AvailabilityRepository interface {
	// ListByCell returns stored rows for one lecturer within one schedule and
	// type; cells with no row default to available.
	ListByCell(ctx context.Context, lecturerID, scheduleID uuid.UUID, t domain.ScheduleType) ([]*domain.LecturerAvailability, error)
	Upsert(ctx context.Context, row *domain.LecturerAvailability) error
	DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error
}

type QuotaRepository interface {
	GetCustom(ctx context.Context, lecturerID, periodID uuid.UUID) (*domain.LecturerPeriodQuota, error)
	Upsert(ctx context.Context, quota *domain.LecturerPeriodQuota) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.StudentLecturer) error
	// CountActive counts active supervisions for a lecturer in a period.
	// The count alone cannot serialize concurrent acceptances (a new row is
	// invisible to a plain count under read committed); callers must lock
	// the lecturer row first via LecturerRepository.GetByIDForUpdate.
	CountActive(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	GetActiveByStudentAndLecturer(ctx context.Context, studentID, lecturerID, periodID uuid.UUID) (*domain.StudentLecturer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SupervisionApplicationRepository interface {
	Create(ctx context.Context, app *domain.SupervisionApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error)
	Update(ctx context.Context, app *domain.SupervisionApplication) error
	ListByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.SupervisionApplication, error)
	ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.SupervisionApplication, error)
}

type TopicRepository interface {
	Create(ctx context.Context, topic *domain.LecturerTopic) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error)
	Update(ctx context.Context, topic *domain.LecturerTopic) error
	ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.LecturerTopic, error)
	// SetAvailabilityByLecturer bulk-flips IsAvailable on a lecturer's topics
	// in a period. When onlyWithQuota is set, only topics with remaining
	// student quota are flipped back on.
	SetAvailabilityByLecturer(ctx context.Context, lecturerID, periodID uuid.UUID, available, onlyWithQuota bool) error
}

type TopicApplicationRepository interface {
	Create(ctx context.Context, app *domain.TopicApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error)
	Update(ctx context.Context, app *domain.TopicApplication) error
	GetLiveByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID) (*domain.TopicApplication, error)
	ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.TopicApplication, error)
}

type PresentationRepository interface {
	Create(ctx context.Context, p *domain.ThesisPresentation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ThesisPresentation, error)
	Update(ctx context.Context, p *domain.ThesisPresentation) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDate returns presentations on a date with examiners preloaded.
	// Listing alone cannot fence off a concurrent insert; saves must lock
	// the parent schedule row first via ScheduleRepository.GetByIDForUpdate.
	ListByDate(ctx context.Context, date time.Time, excludeID *uuid.UUID) ([]*domain.ThesisPresentation, error)
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error)
	CountBySchedule(ctx context.Context, scheduleID uuid.UUID) (int, error)
	DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error
	ReplaceExaminers(ctx context.Context, presentationID uuid.UUID, examiners []*domain.PresentationExaminer) error
	ListExaminerAssignments(ctx context.Context, lecturerID, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error)
}

// HistoryRepository is append-only by construction: there is no update or
// delete on purpose.
type HistoryRepository interface {
	Create(ctx context.Context, row *domain.StudentStatusHistory) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentStatusHistory, error)
	// LatestTransitionTo returns the most recent entry that moved the student
	// to newStatus in the period, used to revert on release and failed
	// defenses.
	LatestTransitionTo(ctx context.Context, studentID, periodID uuid.UUID, newStatus domain.StudentStatus) (*domain.StudentStatusHistory, error)
}
