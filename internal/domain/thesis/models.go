package domain

import (
	"time"

	"github.com/google/uuid"
)

// Times of day are carried as zero-padded "HH:MM" strings so that
// lexicographic comparison is chronological comparison; dates are carried as
// date-only time.Time values in UTC.

// Student is the thesis-track student record. Status moves only through the
// service layer.
type Student struct {
	StudentID     uuid.UUID     `json:"student_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	StudentNumber string        `json:"student_number" gorm:"unique;not null"`
	Name          string        `json:"name" gorm:"not null"`
	Status        StudentStatus `json:"status" gorm:"not null;default:0"`
	ThesisTitle   string        `json:"thesis_title"`
	PeriodID      *uuid.UUID    `json:"period_id" gorm:"type:uuid"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// Lecturer is a supervising/examining staff member.
type Lecturer struct {
	LecturerID   uuid.UUID `json:"lecturer_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	LecturerCode string    `json:"lecturer_code" gorm:"unique;not null"`
	Name         string    `json:"name" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Venue is a presentation room.
type Venue struct {
	VenueID  uuid.UUID `json:"venue_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name     string    `json:"name" gorm:"not null"`
	Building string    `json:"building"`
}

// Period is an academic term container. Its status is derived from dates and
// schedules, never stored; see PeriodStatusAt.
type Period struct {
	PeriodID        uuid.UUID  `json:"period_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name            string     `json:"name" gorm:"unique;not null"`
	StartDate       time.Time  `json:"start_date" gorm:"not null"`
	EndDate         time.Time  `json:"end_date" gorm:"not null"`
	RegistrationEnd time.Time  `json:"registration_end" gorm:"not null"`
	DefaultQuota    int        `json:"default_quota" gorm:"not null;check:default_quota >= 0"`
	ProposalDayStart string    `json:"proposal_day_start" gorm:"not null;default:'08:00'"`
	ProposalDayEnd   string    `json:"proposal_day_end" gorm:"not null;default:'17:00'"`
	ThesisDayStart   string    `json:"thesis_day_start" gorm:"not null;default:'08:00'"`
	ThesisDayEnd     string    `json:"thesis_day_end" gorm:"not null;default:'17:00'"`
	ProposalSlotMinutes int    `json:"proposal_slot_minutes" gorm:"not null;default:30"`
	ThesisSlotMinutes   int    `json:"thesis_slot_minutes" gorm:"not null;default:45"`
	BreakStart       string    `json:"break_start" gorm:"not null;default:'12:00'"`
	BreakEnd         string    `json:"break_end" gorm:"not null;default:'13:00'"`
	ArchivedAt       *time.Time `json:"archived_at"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// DayWindow returns the daily start/end window and slot width for a schedule
// type.
func (p *Period) DayWindow(t ScheduleType) (start, end string, slotMinutes int) {
	if t == ScheduleThesisDefense {
		return p.ThesisDayStart, p.ThesisDayEnd, p.ThesisSlotMinutes
	}
	return p.ProposalDayStart, p.ProposalDayEnd, p.ProposalSlotMinutes
}

// PeriodSchedule is a dated hearing/defense window inside a period. No two
// schedules of the same period may overlap, boundaries inclusive.
type PeriodSchedule struct {
	PeriodScheduleID uuid.UUID    `json:"period_schedule_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PeriodID         uuid.UUID    `json:"period_id" gorm:"type:uuid;not null;index"`
	Type             ScheduleType `json:"type" gorm:"not null"`
	StartDate        time.Time    `json:"start_date" gorm:"not null"`
	EndDate          time.Time    `json:"end_date" gorm:"not null"`
	Deadline         time.Time    `json:"deadline" gorm:"not null"`
	CreatedAt        time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
	Period           Period       `json:"period,omitempty" gorm:"foreignKey:PeriodID"`
}

// Overlaps reports whether two date ranges intersect, boundaries inclusive.
func (s *PeriodSchedule) Overlaps(start, end time.Time) bool {
	return !s.StartDate.After(end) && !s.EndDate.Before(start)
}

// LecturerAvailability is one cell of a lecturer's self-declared free/busy
// grid. Absence of a row means available.
type LecturerAvailability struct {
	AvailabilityID   uuid.UUID    `json:"availability_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	LecturerID       uuid.UUID    `json:"lecturer_id" gorm:"type:uuid;not null;uniqueIndex:idx_availability_cell"`
	PeriodScheduleID uuid.UUID    `json:"period_schedule_id" gorm:"type:uuid;not null;uniqueIndex:idx_availability_cell"`
	Type             ScheduleType `json:"type" gorm:"not null;uniqueIndex:idx_availability_cell"`
	Date             time.Time    `json:"date" gorm:"not null;uniqueIndex:idx_availability_cell"`
	TimeSlot         string       `json:"time_slot" gorm:"not null;uniqueIndex:idx_availability_cell"`
	IsAvailable      bool         `json:"is_available" gorm:"not null;default:false"`
	CreatedAt        time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// LecturerPeriodQuota overrides Period.DefaultQuota for one lecturer in one
// period. Absence means the default applies.
type LecturerPeriodQuota struct {
	QuotaID     uuid.UUID `json:"quota_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	LecturerID  uuid.UUID `json:"lecturer_id" gorm:"type:uuid;not null;uniqueIndex:idx_lecturer_period_quota"`
	PeriodID    uuid.UUID `json:"period_id" gorm:"type:uuid;not null;uniqueIndex:idx_lecturer_period_quota"`
	MaxStudents int       `json:"max_students" gorm:"not null;check:max_students >= 0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StudentLecturer is an active supervision assignment.
type StudentLecturer struct {
	AssignmentID uuid.UUID      `json:"assignment_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	StudentID    uuid.UUID      `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_student_lecturer_role"`
	LecturerID   uuid.UUID      `json:"lecturer_id" gorm:"type:uuid;not null;uniqueIndex:idx_student_lecturer_role"`
	PeriodID     uuid.UUID      `json:"period_id" gorm:"type:uuid;not null"`
	Role         SupervisorRole `json:"role" gorm:"not null;uniqueIndex:idx_student_lecturer_role"`
	Status       string         `json:"status" gorm:"not null;default:'active'"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// SupervisionApplication is a direct student-to-lecturer supervision request.
type SupervisionApplication struct {
	ApplicationID uuid.UUID         `json:"application_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	StudentID     uuid.UUID         `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_supervision_app"`
	LecturerID    uuid.UUID         `json:"lecturer_id" gorm:"type:uuid;not null;uniqueIndex:idx_supervision_app"`
	PeriodID      uuid.UUID         `json:"period_id" gorm:"type:uuid;not null"`
	ProposedRole  SupervisorRole    `json:"proposed_role" gorm:"not null;uniqueIndex:idx_supervision_app"`
	StudentNotes  string            `json:"student_notes"`
	LecturerNotes string            `json:"lecturer_notes"`
	Status        ApplicationStatus `json:"status" gorm:"not null;default:'pending'"`
	DocumentPath  string            `json:"document_path"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// LecturerTopic is a lecturer-offered thesis subject with its own student
// quota. IsAvailable auto-flips false when the topic quota or the lecturer's
// period capacity reaches zero.
type LecturerTopic struct {
	TopicID      uuid.UUID `json:"topic_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	LecturerID   uuid.UUID `json:"lecturer_id" gorm:"type:uuid;not null;index"`
	PeriodID     uuid.UUID `json:"period_id" gorm:"type:uuid;not null;index"`
	Topic        string    `json:"topic" gorm:"not null"`
	Description  string    `json:"description"`
	StudentQuota int       `json:"student_quota" gorm:"not null;check:student_quota >= 0"`
	IsAvailable  bool      `json:"is_available" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TopicApplication is a student's application to a lecturer-offered topic.
// A student may have only one live application per period.
type TopicApplication struct {
	ApplicationID uuid.UUID         `json:"application_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	StudentID     uuid.UUID         `json:"student_id" gorm:"type:uuid;not null;index"`
	TopicID       uuid.UUID         `json:"topic_id" gorm:"type:uuid;not null;index"`
	LecturerID    uuid.UUID         `json:"lecturer_id" gorm:"type:uuid;not null;index"`
	PeriodID      uuid.UUID         `json:"period_id" gorm:"type:uuid;not null;index"`
	StudentNotes  string            `json:"student_notes"`
	LecturerNotes string            `json:"lecturer_notes"`
	Status        ApplicationStatus `json:"status" gorm:"not null;default:'pending'"`
	DocumentPath  string            `json:"document_path"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// Live reports whether the application occupies the student's single live
// slot for the period.
func (a *TopicApplication) Live() bool {
	switch a.Status {
	case ApplicationPending, ApplicationAccepted, ApplicationQuotaFull:
		return true
	}
	return false
}

// ThesisPresentation is a scheduled proposal hearing or thesis defense.
type ThesisPresentation struct {
	PresentationID   uuid.UUID            `json:"presentation_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PeriodScheduleID uuid.UUID            `json:"period_schedule_id" gorm:"type:uuid;not null;index"`
	StudentID        uuid.UUID            `json:"student_id" gorm:"type:uuid;not null;index"`
	VenueID          uuid.UUID            `json:"venue_id" gorm:"type:uuid;not null"`
	PresentationDate time.Time            `json:"presentation_date" gorm:"not null"`
	StartTime        string               `json:"start_time" gorm:"not null"`
	EndTime          string               `json:"end_time" gorm:"not null"`
	Type             PresentationType     `json:"presentation_type" gorm:"column:presentation_type;not null"`
	Notes            string               `json:"notes"`
	DocumentPath     string               `json:"document_path"`
	Decision         PresentationDecision `json:"decision" gorm:"not null;default:''"`
	CreatedAt        time.Time            `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time            `json:"updated_at" gorm:"autoUpdateTime"`
	Examiners        []PresentationExaminer `json:"examiners,omitempty" gorm:"foreignKey:PresentationID"`
}

// OverlapsTime reports whether the presentation's interval intersects
// [start, end], boundaries inclusive, assuming zero-padded HH:MM strings.
func (p *ThesisPresentation) OverlapsTime(start, end string) bool {
	return p.StartTime <= end && p.EndTime >= start
}

// PresentationExaminer assigns a lecturer to a presentation panel. Exactly
// one row per presentation carries IsLeadExaminer.
type PresentationExaminer struct {
	ExaminerID       uuid.UUID `json:"examiner_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PresentationID   uuid.UUID `json:"presentation_id" gorm:"column:thesis_presentation_id;type:uuid;not null;uniqueIndex:idx_presentation_examiner"`
	LecturerID       uuid.UUID `json:"lecturer_id" gorm:"type:uuid;not null;uniqueIndex:idx_presentation_examiner"`
	IsLeadExaminer   bool      `json:"is_lead_examiner" gorm:"not null;default:false"`
	AttendanceStatus string    `json:"attendance_status"`
	EvaluationScore  *float64  `json:"evaluation_score"`
	Comments         string    `json:"comments"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StudentStatusHistory is the append-only audit trail of student status
// transitions. Rows are never updated or deleted; the type intentionally has
// no UpdatedAt column.
type StudentStatusHistory struct {
	HistoryID      uuid.UUID     `json:"history_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	StudentID      uuid.UUID     `json:"student_id" gorm:"type:uuid;not null;index"`
	PeriodID       uuid.UUID     `json:"period_id" gorm:"type:uuid;not null"`
	PreviousStatus StudentStatus `json:"previous_status" gorm:"not null"`
	NewStatus      StudentStatus `json:"new_status" gorm:"not null"`
	ChangedBy      *uuid.UUID    `json:"changed_by" gorm:"type:uuid"`
	Reason         string        `json:"reason"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
}
