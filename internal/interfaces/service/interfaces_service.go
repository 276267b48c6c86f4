package interfaces

import (
	"context"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"

	"github.com/google/uuid"
)

// Request DTOs. Dates arrive as "2006-01-02", times of day as "15:04".

type CreatePeriodRequest struct {
	Name            string `json:"name" validate:"required"`
	StartDate       string `json:"start_date" validate:"required,dateymd"`
	EndDate         string `json:"end_date" validate:"required,dateymd"`
	RegistrationEnd string `json:"registration_end" validate:"required,dateymd"`
	DefaultQuota    int    `json:"default_quota" validate:"gte=0"`
	ProposalDayStart string `json:"proposal_day_start" validate:"omitempty,timehm"`
	ProposalDayEnd   string `json:"proposal_day_end" validate:"omitempty,timehm"`
	ThesisDayStart   string `json:"thesis_day_start" validate:"omitempty,timehm"`
	ThesisDayEnd     string `json:"thesis_day_end" validate:"omitempty,timehm"`
	ProposalSlotMinutes int `json:"proposal_slot_minutes" validate:"omitempty,gt=0"`
	ThesisSlotMinutes   int `json:"thesis_slot_minutes" validate:"omitempty,gt=0"`
	BreakStart       string `json:"break_start" validate:"omitempty,timehm"`
	BreakEnd         string `json:"break_end" validate:"omitempty,timehm"`
}

type CreateScheduleRequest struct {
	PeriodID  uuid.UUID           `json:"period_id" validate:"required"`
	Type      domain.ScheduleType `json:"type" validate:"required,oneof=proposal_hearing thesis_defense"`
	StartDate string              `json:"start_date" validate:"required,dateymd"`
	EndDate   string              `json:"end_date" validate:"required,dateymd"`
	Deadline  string              `json:"deadline" validate:"required,dateymd"`
}

type UpdateScheduleRequest struct {
	StartDate string `json:"start_date" validate:"required,dateymd"`
	EndDate   string `json:"end_date" validate:"required,dateymd"`
	Deadline  string `json:"deadline" validate:"required,dateymd"`
}

type SaveAvailabilityRequest struct {
	LecturerID uuid.UUID           `json:"lecturer_id" validate:"required"`
	ScheduleID uuid.UUID           `json:"schedule_id" validate:"required"`
	Type       domain.ScheduleType `json:"type" validate:"required,oneof=proposal_hearing thesis_defense"`
	// Slots maps "{date}_{timeSlot}" keys to availability flags.
	Slots map[string]bool `json:"slots" validate:"required"`
}

type ApplySupervisionRequest struct {
	StudentID    uuid.UUID             `json:"student_id" validate:"required"`
	LecturerID   uuid.UUID             `json:"lecturer_id" validate:"required"`
	PeriodID     uuid.UUID             `json:"period_id" validate:"required"`
	ProposedRole domain.SupervisorRole `json:"proposed_role" validate:"oneof=0 1"`
	StudentNotes string                `json:"student_notes"`
	Document     []byte                `json:"-"`
	DocumentName string                `json:"-"`
}

type ApplyTopicRequest struct {
	StudentID    uuid.UUID `json:"student_id" validate:"required"`
	TopicID      uuid.UUID `json:"topic_id" validate:"required"`
	StudentNotes string    `json:"student_notes"`
	Document     []byte    `json:"-"`
	DocumentName string    `json:"-"`
}

type CreatePresentationRequest struct {
	PeriodScheduleID uuid.UUID               `json:"period_schedule_id" validate:"required"`
	StudentID        uuid.UUID               `json:"student_id" validate:"required"`
	VenueID          uuid.UUID               `json:"venue_id" validate:"required"`
	Date             string                  `json:"presentation_date" validate:"required,dateymd"`
	StartTime        string                  `json:"start_time" validate:"required,timehm"`
	EndTime          string                  `json:"end_time" validate:"required,timehm"`
	Type             domain.PresentationType `json:"presentation_type" validate:"required,oneof=proposal thesis"`
	Notes            string                  `json:"notes"`
	LeadExaminerID   *uuid.UUID              `json:"lead_examiner_id"`
	ExaminerIDs      []uuid.UUID             `json:"examiner_ids"`
	Document         []byte                  `json:"-"`
	DocumentName     string                  `json:"-"`
}

// Service contracts.

type PeriodService interface {
	CreatePeriod(ctx context.Context, req *CreatePeriodRequest) (*domain.Period, error)
	ArchivePeriod(ctx context.Context, periodID uuid.UUID) error
	PeriodStatus(ctx context.Context, periodID uuid.UUID, now time.Time) (domain.PeriodStatus, error)
	CreateSchedule(ctx context.Context, req *CreateScheduleRequest) (*domain.PeriodSchedule, error)
	UpdateSchedule(ctx context.Context, scheduleID uuid.UUID, req *UpdateScheduleRequest) (*domain.PeriodSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID uuid.UUID, force bool) error
	UpcomingProposalHearings(ctx context.Context, periodID uuid.UUID, now time.Time) ([]*domain.PeriodSchedule, error)
	RegisterStudent(ctx context.Context, studentID, periodID uuid.UUID, now time.Time) (domain.TransitionResult, error)
}

type AvailabilityService interface {
	GenerateTimeSlots(period *domain.Period, t domain.ScheduleType) []string
	ScheduleDates(schedule *domain.PeriodSchedule) []time.Time
	LoadAvailability(ctx context.Context, lecturerID, scheduleID uuid.UUID, t domain.ScheduleType) (map[string]bool, error)
	SaveAvailability(ctx context.Context, actorID uuid.UUID, req *SaveAvailabilityRequest) error
	LockedSlots(ctx context.Context, lecturerID, scheduleID uuid.UUID) (map[string]bool, error)
}

type QuotaService interface {
	EffectiveMax(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	AvailableCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error)
	SetCustomQuota(ctx context.Context, lecturerID, periodID uuid.UUID, maxStudents int) error
}

type SupervisionService interface {
	Apply(ctx context.Context, req *ApplySupervisionRequest) (*domain.SupervisionApplication, error)
	Accept(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error)
	Decline(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error)
}

type TopicService interface {
	CreateTopic(ctx context.Context, topic *domain.LecturerTopic) error
	Apply(ctx context.Context, req *ApplyTopicRequest) (*domain.TopicApplication, error)
	Accept(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error)
	Decline(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error)
	Release(ctx context.Context, actorLecturerID, applicationID uuid.UUID, reason string) (domain.TransitionResult, error)
	Reopen(ctx context.Context, actorLecturerID, applicationID uuid.UUID) (domain.TransitionResult, error)
}

type PresentationService interface {
	AvailableLecturers(ctx context.Context, scheduleID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) ([]*domain.Lecturer, error)
	Create(ctx context.Context, req *CreatePresentationRequest) (*domain.ThesisPresentation, domain.TransitionResult, error)
	Update(ctx context.Context, presentationID uuid.UUID, req *CreatePresentationRequest) (domain.TransitionResult, error)
	Delete(ctx context.Context, presentationID uuid.UUID) error
	RecordDecision(ctx context.Context, actorLecturerID, presentationID uuid.UUID, decision domain.PresentationDecision, reason string, now time.Time) (domain.TransitionResult, error)
}
