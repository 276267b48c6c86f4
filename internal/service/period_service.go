package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// parseDate parses a "2006-01-02" value into a UTC date.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t.UTC(), nil
}

func formatDateRange(start, end time.Time) string {
	return fmt.Sprintf("%s to %s", start.Format(dateLayout), end.Format(dateLayout))
}

// AcademicDefaults are the fallback values applied to a new period when the
// request leaves the daily window, slot or break configuration blank.
type AcademicDefaults struct {
	DefaultQuota        int
	ProposalSlotMinutes int
	ThesisSlotMinutes   int
	DayStart            string
	DayEnd              string
	BreakStart          string
	BreakEnd            string
}

var _ serviceInterfaces.PeriodService = (*PeriodService)(nil)

type PeriodService struct {
	periodRepo       interfaces.PeriodRepository
	scheduleRepo     interfaces.ScheduleRepository
	availabilityRepo interfaces.AvailabilityRepository
	presentationRepo interfaces.PresentationRepository
	studentRepo      interfaces.StudentRepository
	historyRepo      interfaces.HistoryRepository
	txManager        interfaces.TxManager
	notifier         interfaces.NotificationService
	defaults         AcademicDefaults
}

func NewPeriodService(
	periodRepo interfaces.PeriodRepository,
	scheduleRepo interfaces.ScheduleRepository,
	availabilityRepo interfaces.AvailabilityRepository,
	presentationRepo interfaces.PresentationRepository,
	studentRepo interfaces.StudentRepository,
	historyRepo interfaces.HistoryRepository,
	txManager interfaces.TxManager,
	notifier interfaces.NotificationService,
	defaults AcademicDefaults,
) *PeriodService {
	return &PeriodService{
		periodRepo:       periodRepo,
		scheduleRepo:     scheduleRepo,
		availabilityRepo: availabilityRepo,
		presentationRepo: presentationRepo,
		studentRepo:      studentRepo,
		historyRepo:      historyRepo,
		txManager:        txManager,
		notifier:         notifier,
		defaults:         defaults,
	}
}

func (s *PeriodService) CreatePeriod(ctx context.Context, req *serviceInterfaces.CreatePeriodRequest) (*domain.Period, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	registrationEnd, err := parseDate(req.RegistrationEnd)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, domain.NewValidationError("period start date %s is after end date %s",
			req.StartDate, req.EndDate)
	}
	if registrationEnd.After(end) {
		return nil, domain.NewValidationError("registration end %s falls after the period ends", req.RegistrationEnd)
	}

	existing, err := s.periodRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up period name: %w", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("a period named %q already exists", req.Name)
	}

	period := &domain.Period{
		Name:                req.Name,
		StartDate:           start,
		EndDate:             end,
		RegistrationEnd:     registrationEnd,
		DefaultQuota:        req.DefaultQuota,
		ProposalDayStart:    orDefault(req.ProposalDayStart, s.defaults.DayStart),
		ProposalDayEnd:      orDefault(req.ProposalDayEnd, s.defaults.DayEnd),
		ThesisDayStart:      orDefault(req.ThesisDayStart, s.defaults.DayStart),
		ThesisDayEnd:        orDefault(req.ThesisDayEnd, s.defaults.DayEnd),
		ProposalSlotMinutes: orDefaultInt(req.ProposalSlotMinutes, s.defaults.ProposalSlotMinutes),
		ThesisSlotMinutes:   orDefaultInt(req.ThesisSlotMinutes, s.defaults.ThesisSlotMinutes),
		BreakStart:          orDefault(req.BreakStart, s.defaults.BreakStart),
		BreakEnd:            orDefault(req.BreakEnd, s.defaults.BreakEnd),
	}
	if period.DefaultQuota == 0 {
		period.DefaultQuota = s.defaults.DefaultQuota
	}

	if err := s.periodRepo.Create(ctx, period); err != nil {
		return nil, fmt.Errorf("failed to create period: %w", err)
	}
	logger.Info("Created period %s (%s)", period.Name, formatDateRange(start, end))
	return period, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

// ArchivePeriod is terminal: archived_at is set once and never cleared.
func (s *PeriodService) ArchivePeriod(ctx context.Context, periodID uuid.UUID) error {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return domain.ErrNotFound
	}
	if period.ArchivedAt != nil {
		return domain.NewValidationError("period %q is already archived", period.Name)
	}
	now := time.Now().UTC()
	period.ArchivedAt = &now
	if err := s.periodRepo.Update(ctx, period); err != nil {
		return fmt.Errorf("failed to archive period: %w", err)
	}
	logger.Info("Archived period %s", period.Name)
	return nil
}

// PeriodStatus derives the period's lifecycle stage from its dates, its
// schedules and archived_at. Nothing is stored; first match wins.
func (s *PeriodService) PeriodStatus(ctx context.Context, periodID uuid.UUID, now time.Time) (domain.PeriodStatus, error) {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return "", fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return "", domain.ErrNotFound
	}
	schedules, err := s.scheduleRepo.ListByPeriod(ctx, periodID)
	if err != nil {
		return "", fmt.Errorf("failed to load schedules: %w", err)
	}
	return derivePeriodStatus(period, schedules, now), nil
}

func derivePeriodStatus(period *domain.Period, schedules []*domain.PeriodSchedule, now time.Time) domain.PeriodStatus {
	if period.ArchivedAt != nil {
		return domain.PeriodArchived
	}
	if now.Before(period.StartDate) {
		return domain.PeriodUpcoming
	}
	if registrationOpen(period, schedules, now) {
		return domain.PeriodRegistrationOpen
	}
	for _, sc := range schedules {
		if sc.Type == domain.ScheduleProposalHearing && !now.Before(sc.StartDate) && !now.After(sc.EndDate) {
			return domain.PeriodProposalHearing
		}
	}
	for _, sc := range schedules {
		if sc.Type == domain.ScheduleThesisDefense && !now.Before(sc.StartDate) && !now.After(sc.EndDate) {
			return domain.PeriodThesis
		}
	}
	if now.After(period.EndDate) {
		return domain.PeriodCompleted
	}
	return domain.PeriodProposalInProgress
}

// registrationOpen: at least one future proposal hearing exists and now is
// not past registration_end.
func registrationOpen(period *domain.Period, schedules []*domain.PeriodSchedule, now time.Time) bool {
	if now.After(period.RegistrationEnd) {
		return false
	}
	for _, sc := range schedules {
		if sc.Type == domain.ScheduleProposalHearing && sc.StartDate.After(now) {
			return true
		}
	}
	return false
}

func (s *PeriodService) CreateSchedule(ctx context.Context, req *serviceInterfaces.CreateScheduleRequest) (*domain.PeriodSchedule, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, domain.NewValidationError("schedule start date %s is after end date %s",
			req.StartDate, req.EndDate)
	}

	period, err := s.periodRepo.GetByID(ctx, req.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.checkScheduleOverlap(ctx, req.PeriodID, start, end, nil); err != nil {
		return nil, err
	}

	schedule := &domain.PeriodSchedule{
		PeriodID:  req.PeriodID,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Deadline:  deadline,
	}
	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	logger.Info("Created %s schedule %s for period %s", schedule.Type, formatDateRange(start, end), period.Name)
	return schedule, nil
}

func (s *PeriodService) UpdateSchedule(ctx context.Context, scheduleID uuid.UUID, req *serviceInterfaces.UpdateScheduleRequest) (*domain.PeriodSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return nil, domain.ErrNotFound
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, domain.NewValidationError("schedule start date %s is after end date %s",
			req.StartDate, req.EndDate)
	}

	if err := s.checkScheduleOverlap(ctx, schedule.PeriodID, start, end, &scheduleID); err != nil {
		return nil, err
	}

	schedule.StartDate = start
	schedule.EndDate = end
	schedule.Deadline = deadline
	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return schedule, nil
}

// checkScheduleOverlap enforces the per-period non-overlap invariant with
// inclusive boundaries. The failure message names the conflicting range.
func (s *PeriodService) checkScheduleOverlap(ctx context.Context, periodID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	siblings, err := s.scheduleRepo.ListByPeriod(ctx, periodID)
	if err != nil {
		return fmt.Errorf("failed to load sibling schedules: %w", err)
	}
	for _, sibling := range siblings {
		if excludeID != nil && sibling.PeriodScheduleID == *excludeID {
			continue
		}
		if sibling.Overlaps(start, end) {
			return domain.NewValidationError("date range overlaps the existing %s schedule %s",
				sibling.Type, formatDateRange(sibling.StartDate, sibling.EndDate))
		}
	}
	return nil
}

// DeleteSchedule refuses to destroy scheduled presentations unless force is
// set; a forced delete cascades to availability rows and presentations in one
// transaction.
func (s *PeriodService) DeleteSchedule(ctx context.Context, scheduleID uuid.UUID, force bool) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return domain.ErrNotFound
	}

	count, err := s.presentationRepo.CountBySchedule(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to count presentations: %w", err)
	}
	if count > 0 && !force {
		return domain.NewValidationError("schedule has %d scheduled presentation(s); pass force to delete them", count)
	}

	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		if err := s.presentationRepo.DeleteBySchedule(ctx, scheduleID); err != nil {
			return fmt.Errorf("failed to delete presentations: %w", err)
		}
		if err := s.availabilityRepo.DeleteBySchedule(ctx, scheduleID); err != nil {
			return fmt.Errorf("failed to delete availability rows: %w", err)
		}
		if err := s.scheduleRepo.Delete(ctx, scheduleID); err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Deleted schedule %s (%s, %d presentations removed)",
		scheduleID, schedule.Type, count)
	return nil
}

func (s *PeriodService) UpcomingProposalHearings(ctx context.Context, periodID uuid.UUID, now time.Time) ([]*domain.PeriodSchedule, error) {
	schedules, err := s.scheduleRepo.ListByPeriodAndType(ctx, periodID, domain.ScheduleProposalHearing)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal hearings: %w", err)
	}
	var upcoming []*domain.PeriodSchedule
	for _, sc := range schedules {
		if sc.StartDate.After(now) {
			upcoming = append(upcoming, sc)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate.Before(upcoming[j].StartDate)
	})
	return upcoming, nil
}

// RegisterStudent enrolls a student into a period while its registration
// window is open.
func (s *PeriodService) RegisterStudent(ctx context.Context, studentID, periodID uuid.UUID, now time.Time) (domain.TransitionResult, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return domain.TransitionResult{}, domain.ErrNotFound
	}

	status, err := s.PeriodStatus(ctx, periodID, now)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	if status != domain.PeriodRegistrationOpen {
		return domain.Failed("registration for period %q is not open (current stage: %s)", period.Name, status), nil
	}
	if student.PeriodID != nil && *student.PeriodID == periodID {
		return domain.Failed("student is already registered in period %q", period.Name), nil
	}

	var result domain.TransitionResult
	err = s.txManager.Transaction(ctx, func(ctx context.Context) error {
		locked, err := s.studentRepo.GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return fmt.Errorf("failed to lock student: %w", err)
		}
		// A student never moves silently between periods. Registering while
		// the current period still runs is rejected; once that period is
		// completed or archived the move is allowed and recorded in history.
		moved := false
		if locked.PeriodID != nil {
			if *locked.PeriodID == periodID {
				result = domain.Failed("student is already registered in period %q", period.Name)
				return nil
			}
			prevStatus, err := s.PeriodStatus(ctx, *locked.PeriodID, now)
			if err != nil {
				return err
			}
			if prevStatus != domain.PeriodCompleted && prevStatus != domain.PeriodArchived {
				result = domain.Failed("student is already registered in another active period")
				return nil
			}
			moved = true
		}
		previous := locked.Status
		locked.PeriodID = &periodID
		if locked.Status < domain.StudentRegistered {
			locked.Status = domain.StudentRegistered
		}
		if err := s.studentRepo.Update(ctx, locked); err != nil {
			return fmt.Errorf("failed to update student: %w", err)
		}
		if previous != locked.Status || moved {
			reason := fmt.Sprintf("Registered into period %s", period.Name)
			if moved {
				reason = fmt.Sprintf("Re-registered into period %s from a finished period", period.Name)
			}
			history := &domain.StudentStatusHistory{
				StudentID:      studentID,
				PeriodID:       periodID,
				PreviousStatus: previous,
				NewStatus:      locked.Status,
				Reason:         reason,
			}
			if err := s.historyRepo.Create(ctx, history); err != nil {
				return fmt.Errorf("failed to append status history: %w", err)
			}
		}
		result = domain.Succeeded("registered in period %s", period.Name)
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}
	if !result.Success {
		return result, nil
	}

	s.notifyStudent(ctx, studentID, "Registration confirmed",
		fmt.Sprintf("You are registered for period %s", period.Name))
	return result, nil
}

func (s *PeriodService) notifyStudent(ctx context.Context, studentID uuid.UUID, subject, body string) {
	if s.notifier == nil {
		return
	}
	event := interfaces.NotificationEvent{
		Kind:        interfaces.NotifyStudent,
		RecipientID: studentID,
		Subject:     subject,
		Body:        body,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Warn("Failed to enqueue notification for student %s: %v", studentID, err)
	}
}
