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

const topicDocumentDir = "topic_applications"

var _ serviceInterfaces.TopicService = (*TopicService)(nil)

// TopicService runs the topic application state machine. Acceptance and
// release touch two ledgers at once (topic quota and lecturer capacity);
// every multi-row transition is one transaction, all effects or none.
type TopicService struct {
	topicRepo          interfaces.TopicRepository
	applicationRepo    interfaces.TopicApplicationRepository
	supervisionAppRepo interfaces.SupervisionApplicationRepository
	assignmentRepo     interfaces.AssignmentRepository
	studentRepo        interfaces.StudentRepository
	lecturerRepo       interfaces.LecturerRepository
	periodRepo         interfaces.PeriodRepository
	historyRepo        interfaces.HistoryRepository
	quotaService       serviceInterfaces.QuotaService
	txManager          interfaces.TxManager
	capacityCache      interfaces.CapacityCache
	fileStore          interfaces.FileStore
	notifier           interfaces.NotificationService
}

func NewTopicService(
	topicRepo interfaces.TopicRepository,
	applicationRepo interfaces.TopicApplicationRepository,
	supervisionAppRepo interfaces.SupervisionApplicationRepository,
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
) *TopicService {
	return &TopicService{
		topicRepo:          topicRepo,
		applicationRepo:    applicationRepo,
		supervisionAppRepo: supervisionAppRepo,
		assignmentRepo:     assignmentRepo,
		studentRepo:        studentRepo,
		lecturerRepo:       lecturerRepo,
		periodRepo:         periodRepo,
		historyRepo:        historyRepo,
		quotaService:       quotaService,
		txManager:          txManager,
		capacityCache:      capacityCache,
		fileStore:          fileStore,
		notifier:           notifier,
	}
}

func (s *TopicService) CreateTopic(ctx context.Context, topic *domain.LecturerTopic) error {
	if topic.Topic == "" {
		return domain.NewValidationError("topic title is required")
	}
	if topic.StudentQuota < 0 {
		return domain.NewValidationError("student quota must not be negative, got %d", topic.StudentQuota)
	}
	lecturer, err := s.lecturerRepo.GetByID(ctx, topic.LecturerID)
	if err != nil {
		return fmt.Errorf("failed to load lecturer: %w", err)
	}
	if lecturer == nil {
		return domain.ErrNotFound
	}
	period, err := s.periodRepo.GetByID(ctx, topic.PeriodID)
	if err != nil {
		return fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return domain.ErrNotFound
	}
	topic.IsAvailable = topic.StudentQuota > 0
	if err := s.topicRepo.Create(ctx, topic); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (s *TopicService) Apply(ctx context.Context, req *serviceInterfaces.ApplyTopicRequest) (*domain.TopicApplication, error) {
	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, domain.ErrNotFound
	}
	topic, err := s.topicRepo.GetByID(ctx, req.TopicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic: %w", err)
	}
	if topic == nil {
		return nil, domain.ErrNotFound
	}
	if !topic.IsAvailable {
		return nil, domain.NewValidationError("topic %q is not open for applications", topic.Topic)
	}

	live, err := s.applicationRepo.GetLiveByStudentAndPeriod(ctx, req.StudentID, topic.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to check live applications: %w", err)
	}
	if live != nil {
		return nil, domain.NewConflictError("student already has a live topic application in this period")
	}

	app := &domain.TopicApplication{
		StudentID:    req.StudentID,
		TopicID:      topic.TopicID,
		LecturerID:   topic.LecturerID,
		PeriodID:     topic.PeriodID,
		StudentNotes: req.StudentNotes,
		Status:       domain.ApplicationPending,
	}

	if len(req.Document) > 0 && s.fileStore != nil {
		path, err := s.fileStore.Store(ctx, req.Document, topicDocumentDir, req.DocumentName)
		if err != nil {
			return nil, fmt.Errorf("failed to store application document: %w", err)
		}
		app.DocumentPath = path
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.notify(ctx, interfaces.NotifyLecturer, topic.LecturerID, "New topic application",
		fmt.Sprintf("Student %s applied to topic %q", student.Name, topic.Topic))
	return app, nil
}

// Accept runs the full acceptance cascade: supervisor assignment, dual quota
// decrement, supersession of the student's supervision applications, status
// advance with history, and the quota_full sweep when either ledger reaches
// zero.
func (s *TopicService) Accept(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error) {
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

		topic, err := s.topicRepo.GetByIDForUpdate(ctx, app.TopicID)
		if err != nil {
			return fmt.Errorf("failed to lock topic: %w", err)
		}
		if topic == nil {
			return domain.ErrNotFound
		}
		if topic.StudentQuota <= 0 {
			result = domain.Failed("topic quota is exhausted")
			return nil
		}

		// Lock the lecturer row before counting capacity; concurrent
		// acceptances for the same lecturer serialize on this row, not on
		// the count.
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
		if capacity < topic.StudentQuota {
			result = domain.Failed("insufficient capacity: %d remaining, topic requires %d", capacity, topic.StudentQuota)
			return nil
		}

		assignment := &domain.StudentLecturer{
			StudentID:  app.StudentID,
			LecturerID: app.LecturerID,
			PeriodID:   app.PeriodID,
			Role:       domain.RoleSupervisor1,
			Status:     "active",
		}
		if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
			return err
		}

		topic.StudentQuota--
		if topic.StudentQuota == 0 {
			topic.IsAvailable = false
		}
		if err := s.topicRepo.Update(ctx, topic); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}

		if err := s.supersedeSupervisionApplications(ctx, app.StudentID, app.PeriodID); err != nil {
			return err
		}

		if err := s.assignStudent(ctx, app, topic); err != nil {
			return err
		}

		app.Status = domain.ApplicationAccepted
		app.LecturerNotes = notes
		if err := s.applicationRepo.Update(ctx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		capacityAfter := capacity - 1
		if capacityAfter <= 0 {
			if err := s.topicRepo.SetAvailabilityByLecturer(ctx, app.LecturerID, app.PeriodID, false, false); err != nil {
				return fmt.Errorf("failed to close lecturer topics: %w", err)
			}
		}
		if err := s.sweepQuotaFull(ctx, app, topic, capacityAfter); err != nil {
			return err
		}

		result = domain.Succeeded("application accepted")
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	if result.Success {
		s.decrementCapacityHint(ctx, app.LecturerID, app.PeriodID)
		s.notify(ctx, interfaces.NotifyStudent, app.StudentID, "Topic application accepted",
			"Your topic application was accepted")
	}
	return result, nil
}

func (s *TopicService) Decline(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error) {
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
	s.notify(ctx, interfaces.NotifyStudent, app.StudentID, "Topic application declined",
		"Your topic application was declined")
	return domain.Succeeded("application declined"), nil
}

// Release undoes an acceptance. Five effects, one transaction: assignment
// removed, student status reverted to the value recorded before assignment,
// topic quota and availability restored, the lecturer's topics re-enabled,
// and quota_full siblings unstuck.
func (s *TopicService) Release(ctx context.Context, actorLecturerID, applicationID uuid.UUID, reason string) (domain.TransitionResult, error) {
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
	if app.Status != domain.ApplicationAccepted {
		return domain.Failed("application is %s, only accepted applications can be released", app.Status), nil
	}
	if reason == "" {
		reason = "Supervision released"
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		app, err := s.applicationRepo.GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}
		if app.Status != domain.ApplicationAccepted {
			result = domain.Failed("application is %s, only accepted applications can be released", app.Status)
			return nil
		}

		assignment, err := s.assignmentRepo.GetActiveByStudentAndLecturer(ctx, app.StudentID, app.LecturerID, app.PeriodID)
		if err != nil {
			return fmt.Errorf("failed to load assignment: %w", err)
		}
		if assignment != nil {
			if err := s.assignmentRepo.Delete(ctx, assignment.AssignmentID); err != nil {
				return fmt.Errorf("failed to remove assignment: %w", err)
			}
		}

		if err := s.revertStudent(ctx, app, reason); err != nil {
			return err
		}

		topic, err := s.topicRepo.GetByIDForUpdate(ctx, app.TopicID)
		if err != nil {
			return fmt.Errorf("failed to lock topic: %w", err)
		}
		if topic != nil {
			topic.StudentQuota++
			topic.IsAvailable = true
			if err := s.topicRepo.Update(ctx, topic); err != nil {
				return fmt.Errorf("failed to restore topic quota: %w", err)
			}
		}

		// Capacity is restored, so topics closed by the capacity sweep come
		// back, but only those with quota left.
		if err := s.topicRepo.SetAvailabilityByLecturer(ctx, app.LecturerID, app.PeriodID, true, true); err != nil {
			return fmt.Errorf("failed to reopen lecturer topics: %w", err)
		}

		stuck, err := s.applicationRepo.ListByLecturerAndPeriod(ctx, app.LecturerID, app.PeriodID,
			[]domain.ApplicationStatus{domain.ApplicationQuotaFull})
		if err != nil {
			return fmt.Errorf("failed to load quota_full siblings: %w", err)
		}
		for _, sibling := range stuck {
			sibling.Status = domain.ApplicationPending
			if err := s.applicationRepo.Update(ctx, sibling); err != nil {
				return fmt.Errorf("failed to unstick sibling application: %w", err)
			}
		}

		app.Status = domain.ApplicationDeclined
		app.LecturerNotes = reason
		if err := s.applicationRepo.Update(ctx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		result = domain.Succeeded("supervision released")
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	if result.Success {
		s.incrementCapacityHint(ctx, app.LecturerID, app.PeriodID)
		s.notify(ctx, interfaces.NotifyStudent, app.StudentID, "Supervision released", reason)
		s.notify(ctx, interfaces.NotifyDivisionHead, app.LecturerID, "Supervision released",
			fmt.Sprintf("Lecturer %s released a supervision: %s", app.LecturerID, reason))
	}
	return result, nil
}

// Reopen re-enters a declined application. Not a toggle back to its old
// state: the resulting status is a function of current ledger state.
func (s *TopicService) Reopen(ctx context.Context, actorLecturerID, applicationID uuid.UUID) (domain.TransitionResult, error) {
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
	if app.Status != domain.ApplicationDeclined {
		return domain.Failed("application is %s, only declined applications can be reopened", app.Status), nil
	}

	topic, err := s.topicRepo.GetByID(ctx, app.TopicID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load topic: %w", err)
	}
	if topic == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	capacity, err := s.quotaService.AvailableCapacity(ctx, app.LecturerID, app.PeriodID)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	if capacity <= 0 || capacity < topic.StudentQuota || topic.StudentQuota <= 0 {
		app.Status = domain.ApplicationQuotaFull
	} else {
		app.Status = domain.ApplicationPending
	}
	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to update application: %w", err)
	}
	return domain.Succeeded("application reopened as %s", app.Status), nil
}

// supersedeSupervisionApplications cancels the student's pending supervision
// applications and marks accepted ones changed when a topic acceptance takes
// over.
func (s *TopicService) supersedeSupervisionApplications(ctx context.Context, studentID, periodID uuid.UUID) error {
	apps, err := s.supervisionAppRepo.ListByStudentAndPeriod(ctx, studentID, periodID,
		[]domain.ApplicationStatus{domain.ApplicationPending, domain.ApplicationAccepted})
	if err != nil {
		return fmt.Errorf("failed to load supervision applications: %w", err)
	}
	for _, other := range apps {
		if other.Status == domain.ApplicationPending {
			other.Status = domain.ApplicationCanceled
		} else {
			other.Status = domain.ApplicationChanged
		}
		if err := s.supervisionAppRepo.Update(ctx, other); err != nil {
			return fmt.Errorf("failed to supersede supervision application: %w", err)
		}
	}
	return nil
}

func (s *TopicService) assignStudent(ctx context.Context, app *domain.TopicApplication, topic *domain.LecturerTopic) error {
	student, err := s.studentRepo.GetByIDForUpdate(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("failed to lock student: %w", err)
	}
	if student == nil {
		return domain.ErrNotFound
	}
	student.ThesisTitle = topic.Topic
	if student.Status < domain.StudentSupervised {
		previous := student.Status
		student.Status = domain.StudentSupervised
		history := &domain.StudentStatusHistory{
			StudentID:      app.StudentID,
			PeriodID:       app.PeriodID,
			PreviousStatus: previous,
			NewStatus:      domain.StudentSupervised,
			ChangedBy:      &app.LecturerID,
			Reason:         "Supervisor assigned via topic application acceptance",
		}
		if err := s.historyRepo.Create(ctx, history); err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
	}
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// revertStudent restores the status the student held before the supervisor
// assignment, using the latest history entry for that transition.
func (s *TopicService) revertStudent(ctx context.Context, app *domain.TopicApplication, reason string) error {
	student, err := s.studentRepo.GetByIDForUpdate(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("failed to lock student: %w", err)
	}
	if student == nil {
		return domain.ErrNotFound
	}
	previous := domain.StudentRegistered
	entry, err := s.historyRepo.LatestTransitionTo(ctx, app.StudentID, app.PeriodID, domain.StudentSupervised)
	if err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}
	if entry != nil {
		previous = entry.PreviousStatus
	}

	current := student.Status
	student.Status = previous
	student.ThesisTitle = ""
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to revert student: %w", err)
	}
	history := &domain.StudentStatusHistory{
		StudentID:      app.StudentID,
		PeriodID:       app.PeriodID,
		PreviousStatus: current,
		NewStatus:      previous,
		ChangedBy:      &app.LecturerID,
		Reason:         reason,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// sweepQuotaFull flips sibling pending applications to quota_full when the
// lecturer's capacity or the accepted topic's quota reaches zero.
func (s *TopicService) sweepQuotaFull(ctx context.Context, accepted *domain.TopicApplication, topic *domain.LecturerTopic, capacityAfter int) error {
	if capacityAfter > 0 && topic.StudentQuota > 0 {
		return nil
	}
	pending, err := s.applicationRepo.ListByLecturerAndPeriod(ctx, accepted.LecturerID, accepted.PeriodID,
		[]domain.ApplicationStatus{domain.ApplicationPending})
	if err != nil {
		return fmt.Errorf("failed to load pending siblings: %w", err)
	}
	for _, sibling := range pending {
		if sibling.ApplicationID == accepted.ApplicationID {
			continue
		}
		if capacityAfter > 0 && sibling.TopicID != topic.TopicID {
			continue
		}
		sibling.Status = domain.ApplicationQuotaFull
		if err := s.applicationRepo.Update(ctx, sibling); err != nil {
			return fmt.Errorf("failed to flip sibling to quota_full: %w", err)
		}
	}
	return nil
}

func (s *TopicService) decrementCapacityHint(ctx context.Context, lecturerID, periodID uuid.UUID) {
	if s.capacityCache == nil {
		return
	}
	if _, err := s.capacityCache.DecrementCapacity(ctx, lecturerID, periodID); err != nil {
		logger.Warn("Capacity cache decrement failed for lecturer %s: %v", lecturerID, err)
	}
}

func (s *TopicService) incrementCapacityHint(ctx context.Context, lecturerID, periodID uuid.UUID) {
	if s.capacityCache == nil {
		return
	}
	if _, err := s.capacityCache.IncrementCapacity(ctx, lecturerID, periodID); err != nil {
		logger.Warn("Capacity cache increment failed for lecturer %s: %v", lecturerID, err)
	}
}

func (s *TopicService) notify(ctx context.Context, kind interfaces.NotificationKind, recipient uuid.UUID, subject, body string) {
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
