package service

import (
	"context"
	"testing"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/repository"

	"github.com/google/uuid"
)

var testDefaults = AcademicDefaults{
	DefaultQuota:        12,
	ProposalSlotMinutes: 30,
	ThesisSlotMinutes:   45,
	DayStart:            "08:00",
	DayEnd:              "17:00",
	BreakStart:          "12:00",
	BreakEnd:            "13:00",
}

type fixture struct {
	ctx          context.Context
	store        *repository.MockStore
	periods      *PeriodService
	availability *AvailabilityService
	quota        *QuotaService
	supervision  *SupervisionService
	topics       *TopicService
	presentation *PresentationService
}

func newFixture() *fixture {
	store := repository.NewMockStore()
	quota := NewQuotaService(store.Quotas(), store.Assignments(), store.Periods(), nil)
	return &fixture{
		ctx:   context.Background(),
		store: store,
		quota: quota,
		periods: NewPeriodService(
			store.Periods(), store.Schedules(), store.Availability(), store.Presentations(),
			store.Students(), store.History(), store, nil, testDefaults),
		availability: NewAvailabilityService(store.Availability(), store.Schedules(), store.Presentations()),
		supervision: NewSupervisionService(
			store.SupervisionApplications(), store.Assignments(), store.Students(),
			store.Lecturers(), store.Periods(), store.History(), quota, store, nil, nil, nil),
		topics: NewTopicService(
			store.Topics(), store.TopicApplications(), store.SupervisionApplications(),
			store.Assignments(), store.Students(), store.Lecturers(), store.Periods(),
			store.History(), quota, store, nil, nil, nil),
		presentation: NewPresentationService(
			store.Presentations(), store.Schedules(), store.Students(), store.Lecturers(),
			store.Venues(), store.History(), store, nil, nil),
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := parseDate(value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return date
}

func (f *fixture) seedPeriod(t *testing.T, name string, quota int) *domain.Period {
	t.Helper()
	period := &domain.Period{
		Name:                name,
		StartDate:           mustDate(t, "2025-01-01"),
		EndDate:             mustDate(t, "2025-06-30"),
		RegistrationEnd:     mustDate(t, "2025-02-01"),
		DefaultQuota:        quota,
		ProposalDayStart:    "08:00",
		ProposalDayEnd:      "17:00",
		ThesisDayStart:      "08:00",
		ThesisDayEnd:        "17:00",
		ProposalSlotMinutes: 30,
		ThesisSlotMinutes:   45,
		BreakStart:          "12:00",
		BreakEnd:            "13:00",
	}
	if err := f.store.Periods().Create(f.ctx, period); err != nil {
		t.Fatalf("seed period: %v", err)
	}
	return period
}

func (f *fixture) seedSchedule(t *testing.T, periodID uuid.UUID, scheduleType domain.ScheduleType, start, end string) *domain.PeriodSchedule {
	t.Helper()
	schedule := &domain.PeriodSchedule{
		PeriodID:  periodID,
		Type:      scheduleType,
		StartDate: mustDate(t, start),
		EndDate:   mustDate(t, end),
		Deadline:  mustDate(t, start),
	}
	if err := f.store.Schedules().Create(f.ctx, schedule); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return schedule
}

func (f *fixture) seedLecturer(t *testing.T, code string) *domain.Lecturer {
	t.Helper()
	lecturer := &domain.Lecturer{LecturerCode: code, Name: "Lecturer " + code}
	if err := f.store.Lecturers().Create(f.ctx, lecturer); err != nil {
		t.Fatalf("seed lecturer: %v", err)
	}
	return lecturer
}

func (f *fixture) seedStudent(t *testing.T, number string, status domain.StudentStatus, periodID *uuid.UUID) *domain.Student {
	t.Helper()
	student := &domain.Student{
		StudentNumber: number,
		Name:          "Student " + number,
		Status:        status,
		PeriodID:      periodID,
	}
	if err := f.store.Students().Create(f.ctx, student); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func (f *fixture) seedVenue(t *testing.T, name string) *domain.Venue {
	t.Helper()
	venue := &domain.Venue{Name: name, Building: "P"}
	if err := f.store.Venues().Create(f.ctx, venue); err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	return venue
}

func (f *fixture) seedTopic(t *testing.T, lecturerID, periodID uuid.UUID, title string, quota int) *domain.LecturerTopic {
	t.Helper()
	topic := &domain.LecturerTopic{
		LecturerID:   lecturerID,
		PeriodID:     periodID,
		Topic:        title,
		StudentQuota: quota,
		IsAvailable:  quota > 0,
	}
	if err := f.store.Topics().Create(f.ctx, topic); err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	return topic
}

// seedAssignments fills n active supervision slots for the lecturer with
// synthetic students.
func (f *fixture) seedAssignments(t *testing.T, lecturerID, periodID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assignment := &domain.StudentLecturer{
			StudentID:  uuid.New(),
			LecturerID: lecturerID,
			PeriodID:   periodID,
			Role:       domain.RoleSupervisor1,
			Status:     "active",
		}
		if err := f.store.Assignments().Create(f.ctx, assignment); err != nil {
			t.Fatalf("seed assignment %d: %v", i, err)
		}
	}
}

func (f *fixture) capacity(t *testing.T, lecturerID, periodID uuid.UUID) int {
	t.Helper()
	capacity, err := f.quota.AvailableCapacity(f.ctx, lecturerID, periodID)
	if err != nil {
		t.Fatalf("available capacity: %v", err)
	}
	return capacity
}

func (f *fixture) topicByID(t *testing.T, id uuid.UUID) *domain.LecturerTopic {
	t.Helper()
	topic, err := f.store.Topics().GetByID(f.ctx, id)
	if err != nil || topic == nil {
		t.Fatalf("reload topic: %v", err)
	}
	return topic
}

func (f *fixture) studentByID(t *testing.T, id uuid.UUID) *domain.Student {
	t.Helper()
	student, err := f.store.Students().GetByID(f.ctx, id)
	if err != nil || student == nil {
		t.Fatalf("reload student: %v", err)
	}
	return student
}

func (f *fixture) topicAppByID(t *testing.T, id uuid.UUID) *domain.TopicApplication {
	t.Helper()
	app, err := f.store.TopicApplications().GetByID(f.ctx, id)
	if err != nil || app == nil {
		t.Fatalf("reload topic application: %v", err)
	}
	return app
}
