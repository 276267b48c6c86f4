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

const presentationDocumentDir = "presentations"

var _ serviceInterfaces.PresentationService = (*PresentationService)(nil)

// PresentationService allocates venue/time/examiner panels. It is a pure
// allocation and conflict-check service; the only persisted state is the
// presentation and examiner rows. Conflict checks run twice: once for the
// lecturer picker, and again inside the saving transaction under the
// schedule row lock, so a concurrent save cannot double-book an examiner.
type PresentationService struct {
	presentationRepo interfaces.PresentationRepository
	scheduleRepo     interfaces.ScheduleRepository
	studentRepo      interfaces.StudentRepository
	lecturerRepo     interfaces.LecturerRepository
	venueRepo        interfaces.VenueRepository
	historyRepo      interfaces.HistoryRepository
	txManager        interfaces.TxManager
	fileStore        interfaces.FileStore
	notifier         interfaces.NotificationService
}

func NewPresentationService(
	presentationRepo interfaces.PresentationRepository,
	scheduleRepo interfaces.ScheduleRepository,
	studentRepo interfaces.StudentRepository,
	lecturerRepo interfaces.LecturerRepository,
	venueRepo interfaces.VenueRepository,
	historyRepo interfaces.HistoryRepository,
	txManager interfaces.TxManager,
	fileStore interfaces.FileStore,
	notifier interfaces.NotificationService,
) *PresentationService {
	return &PresentationService{
		presentationRepo: presentationRepo,
		scheduleRepo:     scheduleRepo,
		studentRepo:      studentRepo,
		lecturerRepo:     lecturerRepo,
		venueRepo:        venueRepo,
		historyRepo:      historyRepo,
		txManager:        txManager,
		fileStore:        fileStore,
		notifier:         notifier,
	}
}

// AvailableLecturers returns all lecturers minus those already committed as
// examiner to an overlapping presentation on the same date.
func (s *PresentationService) AvailableLecturers(ctx context.Context, scheduleID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) ([]*domain.Lecturer, error) {
	all, err := s.lecturerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lecturers: %w", err)
	}
	others, err := s.presentationRepo.ListByDate(ctx, date, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load presentations: %w", err)
	}

	busy := make(map[uuid.UUID]bool)
	for _, other := range others {
		if !other.OverlapsTime(startTime, endTime) {
			continue
		}
		for _, examiner := range other.Examiners {
			busy[examiner.LecturerID] = true
		}
	}

	available := make([]*domain.Lecturer, 0, len(all))
	for _, lecturer := range all {
		if !busy[lecturer.LecturerID] {
			available = append(available, lecturer)
		}
	}
	return available, nil
}

func (s *PresentationService) Create(ctx context.Context, req *serviceInterfaces.CreatePresentationRequest) (*domain.ThesisPresentation, domain.TransitionResult, error) {
	schedule, date, err := s.validateRequest(ctx, req)
	if err != nil {
		return nil, domain.TransitionResult{}, err
	}

	presentation := &domain.ThesisPresentation{
		PeriodScheduleID: req.PeriodScheduleID,
		StudentID:        req.StudentID,
		VenueID:          req.VenueID,
		PresentationDate: date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Type:             req.Type,
		Notes:            req.Notes,
	}

	if len(req.Document) > 0 && s.fileStore != nil {
		path, err := s.fileStore.Store(ctx, req.Document, presentationDocumentDir, req.DocumentName)
		if err != nil {
			return nil, domain.TransitionResult{}, fmt.Errorf("failed to store presentation document: %w", err)
		}
		presentation.DocumentPath = path
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		// Lock the schedule row before the conflict scan. The scan cannot
		// see a concurrent uncommitted booking; serializing saves on the
		// parent schedule row closes that window.
		if _, err := s.scheduleRepo.GetByIDForUpdate(ctx, req.PeriodScheduleID); err != nil {
			return fmt.Errorf("failed to lock schedule: %w", err)
		}

		conflict, err := s.findConflict(ctx, req, date, nil)
		if err != nil {
			return err
		}
		if conflict != "" {
			result = domain.Failed("%s", conflict)
			return nil
		}

		if err := s.presentationRepo.Create(ctx, presentation); err != nil {
			return fmt.Errorf("failed to create presentation: %w", err)
		}
		if err := s.presentationRepo.ReplaceExaminers(ctx, presentation.PresentationID, buildExaminers(presentation.PresentationID, req)); err != nil {
			return err
		}
		if err := s.advanceStudentForScheduling(ctx, schedule, req.StudentID, req.Type); err != nil {
			return err
		}
		result = domain.Succeeded("presentation scheduled")
		return nil
	})
	if err != nil {
		return nil, domain.TransitionResult{}, err
	}
	if !result.Success {
		return nil, result, nil
	}

	s.notify(ctx, interfaces.NotifyStudent, req.StudentID, "Presentation scheduled",
		fmt.Sprintf("Your %s presentation is scheduled on %s %s-%s", req.Type, req.Date, req.StartTime, req.EndTime))
	logger.Info("Scheduled %s presentation %s for student %s on %s %s-%s",
		req.Type, presentation.PresentationID, req.StudentID, req.Date, req.StartTime, req.EndTime)
	return presentation, result, nil
}

func (s *PresentationService) Update(ctx context.Context, presentationID uuid.UUID, req *serviceInterfaces.CreatePresentationRequest) (domain.TransitionResult, error) {
	presentation, err := s.presentationRepo.GetByID(ctx, presentationID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load presentation: %w", err)
	}
	if presentation == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	if presentation.Decision != domain.DecisionNone {
		return domain.Failed("presentation already has a recorded decision"), nil
	}

	_, date, err := s.validateRequest(ctx, req)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.scheduleRepo.GetByIDForUpdate(ctx, req.PeriodScheduleID); err != nil {
			return fmt.Errorf("failed to lock schedule: %w", err)
		}

		conflict, err := s.findConflict(ctx, req, date, &presentationID)
		if err != nil {
			return err
		}
		if conflict != "" {
			result = domain.Failed("%s", conflict)
			return nil
		}

		presentation.PeriodScheduleID = req.PeriodScheduleID
		presentation.StudentID = req.StudentID
		presentation.VenueID = req.VenueID
		presentation.PresentationDate = date
		presentation.StartTime = req.StartTime
		presentation.EndTime = req.EndTime
		presentation.Type = req.Type
		presentation.Notes = req.Notes
		presentation.Examiners = nil
		if err := s.presentationRepo.Update(ctx, presentation); err != nil {
			return fmt.Errorf("failed to update presentation: %w", err)
		}
		// Examiner rows are fully replaced, not diffed.
		if err := s.presentationRepo.ReplaceExaminers(ctx, presentationID, buildExaminers(presentationID, req)); err != nil {
			return err
		}
		result = domain.Succeeded("presentation updated")
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}
	return result, nil
}

func (s *PresentationService) Delete(ctx context.Context, presentationID uuid.UUID) error {
	presentation, err := s.presentationRepo.GetByID(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("failed to load presentation: %w", err)
	}
	if presentation == nil {
		return domain.ErrNotFound
	}
	if err := s.presentationRepo.Delete(ctx, presentationID); err != nil {
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	if presentation.DocumentPath != "" && s.fileStore != nil {
		if !s.fileStore.Delete(ctx, presentation.DocumentPath) {
			logger.Warn("Failed to delete presentation document %s", presentation.DocumentPath)
		}
	}
	return nil
}

// RecordDecision is reserved for the lead examiner, only after the end time
// has passed, exactly once per presentation.
func (s *PresentationService) RecordDecision(ctx context.Context, actorLecturerID, presentationID uuid.UUID, decision domain.PresentationDecision, reason string, now time.Time) (domain.TransitionResult, error) {
	if decision != domain.DecisionPass && decision != domain.DecisionFail {
		return domain.TransitionResult{}, domain.NewValidationError("decision must be pass or fail, got %q", decision)
	}

	presentation, err := s.presentationRepo.GetByID(ctx, presentationID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load presentation: %w", err)
	}
	if presentation == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	if !isLeadExaminer(presentation, actorLecturerID) {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	if presentation.Decision != domain.DecisionNone {
		return domain.Failed("decision already recorded as %s", presentation.Decision), nil
	}
	if now.Before(presentationEnd(presentation)) {
		return domain.Failed("presentation has not ended yet"), nil
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		presentation.Decision = decision
		presentation.Examiners = nil
		if err := s.presentationRepo.Update(ctx, presentation); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}
		if err := s.applyDecision(ctx, presentation, actorLecturerID, decision, reason); err != nil {
			return err
		}
		result = domain.Succeeded("decision recorded: %s", decision)
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	s.notify(ctx, interfaces.NotifyStudent, presentation.StudentID, "Presentation decision",
		fmt.Sprintf("Your %s presentation was marked %s", presentation.Type, decision))
	return result, nil
}

func (s *PresentationService) validateRequest(ctx context.Context, req *serviceInterfaces.CreatePresentationRequest) (*domain.PeriodSchedule, time.Time, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, time.Time{}, err
	}
	if req.StartTime >= req.EndTime {
		return nil, time.Time{}, domain.NewValidationError("start time %s is not before end time %s", req.StartTime, req.EndTime)
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, req.PeriodScheduleID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return nil, time.Time{}, domain.ErrNotFound
	}
	if date.Before(schedule.StartDate) || date.After(schedule.EndDate) {
		return nil, time.Time{}, domain.NewValidationError("date %s is outside the schedule window %s",
			req.Date, formatDateRange(schedule.StartDate, schedule.EndDate))
	}
	if req.Type == domain.PresentationProposal && schedule.Type != domain.ScheduleProposalHearing ||
		req.Type == domain.PresentationThesis && schedule.Type != domain.ScheduleThesisDefense {
		return nil, time.Time{}, domain.NewValidationError("%s presentation does not fit a %s schedule", req.Type, schedule.Type)
	}

	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, time.Time{}, domain.ErrNotFound
	}
	venue, err := s.venueRepo.GetByID(ctx, req.VenueID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load venue: %w", err)
	}
	if venue == nil {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return schedule, date, nil
}

// findConflict re-checks examiner and student overlap inside the saving
// transaction. Callers hold the schedule row lock at this point, so no
// concurrent save can insert between the scan and the write.
func (s *PresentationService) findConflict(ctx context.Context, req *serviceInterfaces.CreatePresentationRequest, date time.Time, excludeID *uuid.UUID) (string, error) {
	others, err := s.presentationRepo.ListByDate(ctx, date, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to load presentations for conflict check: %w", err)
	}

	requested := make(map[uuid.UUID]bool)
	if req.LeadExaminerID != nil {
		requested[*req.LeadExaminerID] = true
	}
	for _, id := range req.ExaminerIDs {
		requested[id] = true
	}

	for _, other := range others {
		if !other.OverlapsTime(req.StartTime, req.EndTime) {
			continue
		}
		if other.StudentID == req.StudentID {
			return fmt.Sprintf("student already has a presentation at %s-%s on %s",
				other.StartTime, other.EndTime, req.Date), nil
		}
		for _, examiner := range other.Examiners {
			if requested[examiner.LecturerID] {
				return fmt.Sprintf("lecturer %s is already examining at %s-%s on %s",
					examiner.LecturerID, other.StartTime, other.EndTime, req.Date), nil
			}
		}
	}
	return "", nil
}

func buildExaminers(presentationID uuid.UUID, req *serviceInterfaces.CreatePresentationRequest) []*domain.PresentationExaminer {
	var rows []*domain.PresentationExaminer
	if req.LeadExaminerID != nil {
		rows = append(rows, &domain.PresentationExaminer{
			PresentationID: presentationID,
			LecturerID:     *req.LeadExaminerID,
			IsLeadExaminer: true,
		})
	}
	for _, id := range req.ExaminerIDs {
		if req.LeadExaminerID != nil && id == *req.LeadExaminerID {
			continue
		}
		rows = append(rows, &domain.PresentationExaminer{
			PresentationID: presentationID,
			LecturerID:     id,
		})
	}
	return rows
}

func isLeadExaminer(p *domain.ThesisPresentation, lecturerID uuid.UUID) bool {
	for _, examiner := range p.Examiners {
		if examiner.IsLeadExaminer && examiner.LecturerID == lecturerID {
			return true
		}
	}
	return false
}

func presentationEnd(p *domain.ThesisPresentation) time.Time {
	end := parseMinutes(p.EndTime)
	if end < 0 {
		end = 0
	}
	d := p.PresentationDate
	return time.Date(d.Year(), d.Month(), d.Day(), end/60, end%60, 0, 0, time.UTC)
}

// advanceStudentForScheduling moves the student onto the scheduled status
// when they are at the expected stage; students scheduled out of band keep
// their current status.
func (s *PresentationService) advanceStudentForScheduling(ctx context.Context, schedule *domain.PeriodSchedule, studentID uuid.UUID, t domain.PresentationType) error {
	student, err := s.studentRepo.GetByIDForUpdate(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to lock student: %w", err)
	}
	if student == nil {
		return domain.ErrNotFound
	}

	var from, to domain.StudentStatus
	var reason string
	if t == domain.PresentationProposal {
		from, to = domain.StudentSupervised, domain.StudentProposalScheduled
		reason = "Proposal hearing scheduled"
	} else {
		from, to = domain.StudentProposalPassed, domain.StudentThesisScheduled
		reason = "Thesis defense scheduled"
	}
	if student.Status != from {
		return nil
	}

	student.Status = to
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to update student status: %w", err)
	}
	history := &domain.StudentStatusHistory{
		StudentID:      studentID,
		PeriodID:       schedule.PeriodID,
		PreviousStatus: from,
		NewStatus:      to,
		Reason:         reason,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// applyDecision advances or regresses the student and appends the history
// row carrying the examiner's reason.
func (s *PresentationService) applyDecision(ctx context.Context, p *domain.ThesisPresentation, actorLecturerID uuid.UUID, decision domain.PresentationDecision, reason string) error {
	student, err := s.studentRepo.GetByIDForUpdate(ctx, p.StudentID)
	if err != nil {
		return fmt.Errorf("failed to lock student: %w", err)
	}
	if student == nil {
		return domain.ErrNotFound
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, p.PeriodScheduleID)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return domain.ErrNotFound
	}
	periodID := schedule.PeriodID

	var scheduledAt, passedTo domain.StudentStatus
	if p.Type == domain.PresentationProposal {
		scheduledAt, passedTo = domain.StudentProposalScheduled, domain.StudentProposalPassed
	} else {
		scheduledAt, passedTo = domain.StudentThesisScheduled, domain.StudentThesisPassed
	}

	previous := student.Status
	if decision == domain.DecisionPass {
		student.Status = passedTo
		if reason == "" {
			reason = fmt.Sprintf("%s passed", p.Type)
		}
	} else {
		// Fail reverts to the status held before this presentation was
		// scheduled.
		revert := domain.StudentSupervised
		if p.Type == domain.PresentationThesis {
			revert = domain.StudentProposalPassed
		}
		entry, err := s.historyRepo.LatestTransitionTo(ctx, p.StudentID, periodID, scheduledAt)
		if err != nil {
			return fmt.Errorf("failed to load status history: %w", err)
		}
		if entry != nil {
			revert = entry.PreviousStatus
		}
		student.Status = revert
		if reason == "" {
			reason = fmt.Sprintf("%s failed", p.Type)
		}
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to update student status: %w", err)
	}
	history := &domain.StudentStatusHistory{
		StudentID:      p.StudentID,
		PeriodID:       periodID,
		PreviousStatus: previous,
		NewStatus:      student.Status,
		ChangedBy:      &actorLecturerID,
		Reason:         reason,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func (s *PresentationService) notify(ctx context.Context, kind interfaces.NotificationKind, recipient uuid.UUID, subject, body string) {
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
