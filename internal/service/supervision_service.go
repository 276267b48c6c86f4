package service

import (
	"context"
	"fmt"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/google/uuid"
)

const supervisionDocumentDir = "supervision_applications"

var _ serviceInterfaces.SupervisionService = (*SupervisionService)(nil)

type SupervisionService struct {
	applicationRepo interfaces.SupervisionApplicationRepository
	assignmentRepo  interfaces.AssignmentRepository
	studentRepo     interfaces.StudentRepository
	lecturerRepo    interfaces.LecturerRepository
	periodRepo      interfaces.PeriodRepository
	historyRepo     interfaces.HistoryRepository
	quotaService    serviceInterfaces.QuotaService
	txManager       interfaces.TxManager
	capacityCache   interfaces.CapacityCache
	fileStore       interfaces.FileStore
	notifier        interfaces.NotificationService
}

func NewSupervisionService(
	applicationRepo interfaces.SupervisionApplicationRepository,
	assignmentRepo interfaces.AssignmentRepository,
	studentRepo interfaces.StudentRepository,
	lecturerRepo interfaces.LecturerRepository,
	periodRepo interfaces.PeriodRepository,
	historyRepo interfaces.HistoryRepository,
	quotaService serviceInterfaces.QuotaService,
	txManager interfaces.TxManager,
	capacityCache interfaces.CapacityCache,
	fileStore interfaces.FileStore,
	notifier interfaces.NotificationService,
) *SupervisionService {
	return &SupervisionService{
		applicationRepo: applicationRepo,
		assignmentRepo:  assignmentRepo,
		studentRepo:     studentRepo,
		lecturerRepo:    lecturerRepo,
		periodRepo:      periodRepo,
		historyRepo:     historyRepo,
		quotaService:    quotaService,
		txManager:       txManager,
		capacityCache:   capacityCache,
		fileStore:       fileStore,
		notifier:        notifier,
	}
}

func (s *SupervisionService) Apply(ctx context.Context, req *serviceInterfaces.ApplySupervisionRequest) (*domain.SupervisionApplication, error) {
	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, domain.ErrNotFound
	}
	lecturer, err := s.lecturerRepo.GetByID(ctx, req.LecturerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lecturer: %w", err)
	}
	if lecturer == nil {
		return nil, domain.ErrNotFound
	}
	period, err := s.periodRepo.GetByID(ctx, req.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return nil, domain.ErrNotFound
	}

	app := &domain.SupervisionApplication{
		StudentID:    req.StudentID,
		LecturerID:   req.LecturerID,
		PeriodID:     req.PeriodID,
		ProposedRole: req.ProposedRole,
		StudentNotes: req.StudentNotes,
		Status:       domain.ApplicationPending,
	}

	if len(req.Document) > 0 && s.fileStore != nil {
		path, err := s.fileStore.Store(ctx, req.Document, supervisionDocumentDir, req.DocumentName)
		if err != nil {
			return nil, fmt.Errorf("failed to store application document: %w", err)
		}
		app.DocumentPath = path
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.notify(ctx, interfaces.NotifyLecturer, req.LecturerID, "New supervision application",
		fmt.Sprintf("Student %s applied for supervision", student.Name))
	logger.Info("Supervision application %s created (student %s -> lecturer %s)",
		app.ApplicationID, req.StudentID, req.LecturerID)
	return app, nil
}

// Accept moves a pending application to accepted. Capacity is checked inside
// the transaction under the lecturer row lock, so two acceptances racing for
// the last slot serialize instead of both passing the guard.
func (s *SupervisionService) Accept(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	if app.LecturerID != actorLecturerID {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	if app.Status != domain.ApplicationPending {
		return domain.Failed("application is %s, only pending applications can be accepted", app.Status), nil
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		app, err := s.applicationRepo.GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}
		if app.Status != domain.ApplicationPending {
			result = domain.Failed("application is %s, only pending applications can be accepted", app.Status)
			return nil
		}

		// Lock the lecturer row before counting capacity. The count cannot
		// serialize concurrent acceptances on its own; the lecturer row is
		// the single point they all queue on.
		if _, err := s.lecturerRepo.GetByIDForUpdate(ctx, app.LecturerID); err != nil {
			return fmt.Errorf("failed to lock lecturer: %w", err)
		}

		capacity, err := s.quotaService.AvailableCapacity(ctx, app.LecturerID, app.PeriodID)
		if err != nil {
			return err
		}
		if capacity <= 0 {
			result = domain.Failed("no remaining supervision capacity in this period")
			return nil
		}

		assignment := &domain.StudentLecturer{
			StudentID:  app.StudentID,
			LecturerID: app.LecturerID,
			PeriodID:   app.PeriodID,
			Role:       app.ProposedRole,
			Status:     "active",
		}
		if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			return err
		}

		if err := s.advanceStudentToSupervised(ctx, app.StudentID, app.PeriodID, app.LecturerID, "Supervisor accepted"); err != nil {
			return err
		}

		app.Status = domain.ApplicationAccepted
		app.LecturerNotes = notes
		if err := s.applicationRepo.Update(ctx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		// The student's other pending applications are superseded, not
		// declined: the student changed supervisor, the lecturers did not
		// reject them.
		siblings, err := s.applicationRepo.ListByStudentAndPeriod(ctx, app.StudentID, app.PeriodID,
			[]domain.ApplicationStatus{domain.ApplicationPending})
		if err != nil {
			return fmt.Errorf("failed to load sibling applications: %w", err)
		}
		for _, sibling := range siblings {
			if sibling.ApplicationID == app.ApplicationID {
				continue
			}
			sibling.Status = domain.ApplicationChanged
			if err := s.applicationRepo.Update(ctx, sibling); err != nil {
				return fmt.Errorf("failed to mark sibling application changed: %w", err)
			}
		}

		result = domain.Succeeded("application accepted")
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	if result.Success {
		s.decrementCapacityHint(ctx, app.LecturerID, app.PeriodID)
		s.notify(ctx, interfaces.NotifyStudent, app.StudentID, "Supervision application accepted",
			"Your supervision application was accepted")
	}
	return result, nil
}

func (s *SupervisionService) Decline(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	if app.LecturerID != actorLecturerID {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	if app.Status != domain.ApplicationPending {
		return domain.Failed("application is %s, only pending applications can be declined", app.Status), nil
	}

	app.Status = domain.ApplicationDeclined
	app.LecturerNotes = notes
	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to update application: %w", err)
	}

	s.notify(ctx, interfaces.NotifyStudent, app.StudentID, "Supervision application declined",
		"Your supervision application was declined")
	return domain.Succeeded("application declined"), nil
}

// advanceStudentToSupervised bumps the student to Supervised when they are
// below it, recording the transition.
func (s *SupervisionService) advanceStudentToSupervised(ctx context.Context, studentID, periodID, lecturerID uuid.UUID, reason string) error {
	student, err := s.studentRepo.GetByIDForUpdate(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to lock student: %w", err)
	}
	if student == nil {
		return domain.ErrNotFound
	}
	if student.Status >= domain.StudentSupervised {
		return nil
	}
	previous := student.Status
	student.Status = domain.StudentSupervised
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to update student status: %w", err)
	}
	history := &domain.StudentStatusHistory{
		StudentID:      studentID,
		PeriodID:       periodID,
		PreviousStatus: previous,
		NewStatus:      domain.StudentSupervised,
		ChangedBy:      &lecturerID,
		Reason:         reason,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func (s *SupervisionService) decrementCapacityHint(ctx context.Context, lecturerID, periodID uuid.UUID) {
	if s.capacityCache == nil {
		return
	}
	if _, err := s.capacityCache.DecrementCapacity(ctx, lecturerID, periodID); err != nil {
		logger.Warn("Capacity cache decrement failed for lecturer %s: %v", lecturerID, err)
	}
}

func (s *SupervisionService) notify(ctx context.Context, kind interfaces.NotificationKind, recipient uuid.UUID, subject, body string) {
	if s.notifier == nil {
		return
	}
	event := interfaces.NotificationEvent{
		Kind:        kind,
		RecipientID: recipient,
		Subject:     subject,
		Body:        body,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Warn("Failed to enqueue notification for %s: %v", recipient, err)
	}
}
