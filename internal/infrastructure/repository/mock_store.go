package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"

	"github.com/google/uuid"
)

// MockStore is an in-memory implementation of every repository interface plus
// the transaction manager, for tests and local demos. All repositories share
// one mutex, so a "transaction" is just the function applied atomically with
// respect to other callers.
type MockStore struct {
	mu sync.RWMutex

	students        map[uuid.UUID]*domain.Student
	lecturers       map[uuid.UUID]*domain.Lecturer
	venues          map[uuid.UUID]*domain.Venue
	periods         map[uuid.UUID]*domain.Period
	schedules       map[uuid.UUID]*domain.PeriodSchedule
	availability    map[uuid.UUID]*domain.LecturerAvailability
	quotas          map[uuid.UUID]*domain.LecturerPeriodQuota
	assignments     map[uuid.UUID]*domain.StudentLecturer
	supervisionApps map[uuid.UUID]*domain.SupervisionApplication
	topics          map[uuid.UUID]*domain.LecturerTopic
	topicApps       map[uuid.UUID]*domain.TopicApplication
	presentations   map[uuid.UUID]*domain.ThesisPresentation
	examiners       map[uuid.UUID][]*domain.PresentationExaminer
	history         []*domain.StudentStatusHistory

	// The shared mutex makes real row locking moot here; these counters let
	// tests assert that services take the locked read on the write path.
	lecturerLocks int
	scheduleLocks int
}

func NewMockStore() *MockStore {
	return &MockStore{
		students:        make(map[uuid.UUID]*domain.Student),
		lecturers:       make(map[uuid.UUID]*domain.Lecturer),
		venues:          make(map[uuid.UUID]*domain.Venue),
		periods:         make(map[uuid.UUID]*domain.Period),
		schedules:       make(map[uuid.UUID]*domain.PeriodSchedule),
		availability:    make(map[uuid.UUID]*domain.LecturerAvailability),
		quotas:          make(map[uuid.UUID]*domain.LecturerPeriodQuota),
		assignments:     make(map[uuid.UUID]*domain.StudentLecturer),
		supervisionApps: make(map[uuid.UUID]*domain.SupervisionApplication),
		topics:          make(map[uuid.UUID]*domain.LecturerTopic),
		topicApps:       make(map[uuid.UUID]*domain.TopicApplication),
		presentations:   make(map[uuid.UUID]*domain.ThesisPresentation),
		examiners:       make(map[uuid.UUID][]*domain.PresentationExaminer),
	}
}

// Transaction applies fn directly; the mock has no rollback, services must
// not write before their guards pass.
func (s *MockStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Students

func (s *MockStore) CreateStudent(ctx context.Context, student *domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&student.StudentID)
	cp := *student
	s.students[student.StudentID] = &cp
	return nil
}

func (s *MockStore) GetStudent(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.students[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *MockStore) UpdateStudent(ctx context.Context, student *domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.StudentID]; !ok {
		return errors.New("student not found")
	}
	cp := *student
	s.students[student.StudentID] = &cp
	return nil
}

type mockStudentRepo struct{ s *MockStore }

func (s *MockStore) Students() *mockStudentRepo { return &mockStudentRepo{s} }

func (r *mockStudentRepo) Create(ctx context.Context, student *domain.Student) error {
	return r.s.CreateStudent(ctx, student)
}
func (r *mockStudentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	return r.s.GetStudent(ctx, id)
}
func (r *mockStudentRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	return r.s.GetStudent(ctx, id)
}
func (r *mockStudentRepo) Update(ctx context.Context, student *domain.Student) error {
	return r.s.UpdateStudent(ctx, student)
}

// Lecturers

type mockLecturerRepo struct{ s *MockStore }

func (s *MockStore) Lecturers() *mockLecturerRepo { return &mockLecturerRepo{s} }

func (r *mockLecturerRepo) Create(ctx context.Context, lecturer *domain.Lecturer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&lecturer.LecturerID)
	cp := *lecturer
	r.s.lecturers[lecturer.LecturerID] = &cp
	return nil
}

func (r *mockLecturerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.lecturers[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *mockLecturerRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lecturer, error) {
	r.s.mu.Lock()
	r.s.lecturerLocks++
	r.s.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *mockLecturerRepo) List(ctx context.Context) ([]*domain.Lecturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Lecturer, 0, len(r.s.lecturers))
	for _, l := range r.s.lecturers {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

// Venues

type mockVenueRepo struct{ s *MockStore }

func (s *MockStore) Venues() *mockVenueRepo { return &mockVenueRepo{s} }

func (r *mockVenueRepo) Create(ctx context.Context, venue *domain.Venue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&venue.VenueID)
	cp := *venue
	r.s.venues[venue.VenueID] = &cp
	return nil
}

func (r *mockVenueRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Venue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if v, ok := r.s.venues[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

// Periods

type mockPeriodRepo struct{ s *MockStore }

func (s *MockStore) Periods() *mockPeriodRepo { return &mockPeriodRepo{s} }

func (r *mockPeriodRepo) Create(ctx context.Context, period *domain.Period) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.periods {
		if p.Name == period.Name {
			return errors.New("duplicate period name")
		}
	}
	ensureID(&period.PeriodID)
	cp := *period
	r.s.periods[period.PeriodID] = &cp
	return nil
}

func (r *mockPeriodRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *mockPeriodRepo) GetByName(ctx context.Context, name string) (*domain.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.periods {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockPeriodRepo) Update(ctx context.Context, period *domain.Period) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.periods[period.PeriodID]; !ok {
		return errors.New("period not found")
	}
	cp := *period
	r.s.periods[period.PeriodID] = &cp
	return nil
}

func (r *mockPeriodRepo) List(ctx context.Context) ([]*domain.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Period, 0, len(r.s.periods))
	for _, p := range r.s.periods {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Schedules

type mockScheduleRepo struct{ s *MockStore }

func (s *MockStore) Schedules() *mockScheduleRepo { return &mockScheduleRepo{s} }

func (r *mockScheduleRepo) Create(ctx context.Context, schedule *domain.PeriodSchedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&schedule.PeriodScheduleID)
	cp := *schedule
	r.s.schedules[schedule.PeriodScheduleID] = &cp
	return nil
}

func (r *mockScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sc, ok := r.s.schedules[id]; ok {
		cp := *sc
		if p, ok := r.s.periods[sc.PeriodID]; ok {
			cp.Period = *p
		}
		return &cp, nil
	}
	return nil, nil
}

func (r *mockScheduleRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PeriodSchedule, error) {
	r.s.mu.Lock()
	r.s.scheduleLocks++
	r.s.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *mockScheduleRepo) Update(ctx context.Context, schedule *domain.PeriodSchedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.schedules[schedule.PeriodScheduleID]; !ok {
		return errors.New("schedule not found")
	}
	cp := *schedule
	cp.Period = domain.Period{}
	r.s.schedules[schedule.PeriodScheduleID] = &cp
	return nil
}

func (r *mockScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.schedules, id)
	return nil
}

func (r *mockScheduleRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*domain.PeriodSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.PeriodSchedule
	for _, sc := range r.s.schedules {
		if sc.PeriodID == periodID {
			cp := *sc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) ListByPeriodAndType(ctx context.Context, periodID uuid.UUID, t domain.ScheduleType) ([]*domain.PeriodSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.PeriodSchedule
	for _, sc := range r.s.schedules {
		if sc.PeriodID == periodID && sc.Type == t {
			cp := *sc
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Availability

type mockAvailabilityRepo struct{ s *MockStore }

func (s *MockStore) Availability() *mockAvailabilityRepo { return &mockAvailabilityRepo{s} }

func (r *mockAvailabilityRepo) ListByCell(ctx context.Context, lecturerID, scheduleID uuid.UUID, t domain.ScheduleType) ([]*domain.LecturerAvailability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.LecturerAvailability
	for _, row := range r.s.availability {
		if row.LecturerID == lecturerID && row.PeriodScheduleID == scheduleID && row.Type == t {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockAvailabilityRepo) Upsert(ctx context.Context, row *domain.LecturerAvailability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.availability {
		if existing.LecturerID == row.LecturerID &&
			existing.PeriodScheduleID == row.PeriodScheduleID &&
			existing.Type == row.Type &&
			existing.Date.Equal(row.Date) &&
			existing.TimeSlot == row.TimeSlot {
			cp := *row
			cp.AvailabilityID = id
			r.s.availability[id] = &cp
			return nil
		}
	}
	ensureID(&row.AvailabilityID)
	cp := *row
	r.s.availability[row.AvailabilityID] = &cp
	return nil
}

func (r *mockAvailabilityRepo) DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, row := range r.s.availability {
		if row.PeriodScheduleID == scheduleID {
			delete(r.s.availability, id)
		}
	}
	return nil
}

// Quotas

type mockQuotaRepo struct{ s *MockStore }

func (s *MockStore) Quotas() *mockQuotaRepo { return &mockQuotaRepo{s} }

func (r *mockQuotaRepo) GetCustom(ctx context.Context, lecturerID, periodID uuid.UUID) (*domain.LecturerPeriodQuota, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, q := range r.s.quotas {
		if q.LecturerID == lecturerID && q.PeriodID == periodID {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockQuotaRepo) Upsert(ctx context.Context, quota *domain.LecturerPeriodQuota) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, q := range r.s.quotas {
		if q.LecturerID == quota.LecturerID && q.PeriodID == quota.PeriodID {
			cp := *quota
			cp.QuotaID = id
			r.s.quotas[id] = &cp
			return nil
		}
	}
	ensureID(&quota.QuotaID)
	cp := *quota
	r.s.quotas[quota.QuotaID] = &cp
	return nil
}

// Assignments

type mockAssignmentRepo struct{ s *MockStore }

func (s *MockStore) Assignments() *mockAssignmentRepo { return &mockAssignmentRepo{s} }

func (r *mockAssignmentRepo) Create(ctx context.Context, assignment *domain.StudentLecturer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.assignments {
		if a.StudentID == assignment.StudentID && a.LecturerID == assignment.LecturerID && a.Role == assignment.Role {
			return domain.NewConflictError("student already has an active assignment with this lecturer and role")
		}
	}
	ensureID(&assignment.AssignmentID)
	cp := *assignment
	r.s.assignments[assignment.AssignmentID] = &cp
	return nil
}

func (r *mockAssignmentRepo) CountActive(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, a := range r.s.assignments {
		if a.LecturerID == lecturerID && a.PeriodID == periodID && a.Status == "active" {
			count++
		}
	}
	return count, nil
}

func (r *mockAssignmentRepo) GetActiveByStudentAndLecturer(ctx context.Context, studentID, lecturerID, periodID uuid.UUID) (*domain.StudentLecturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.assignments {
		if a.StudentID == studentID && a.LecturerID == lecturerID && a.PeriodID == periodID && a.Status == "active" {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockAssignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.assignments, id)
	return nil
}

// Supervision applications

type mockSupervisionRepo struct{ s *MockStore }

func (s *MockStore) SupervisionApplications() *mockSupervisionRepo { return &mockSupervisionRepo{s} }

func (r *mockSupervisionRepo) Create(ctx context.Context, app *domain.SupervisionApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.supervisionApps {
		if a.StudentID == app.StudentID && a.LecturerID == app.LecturerID && a.ProposedRole == app.ProposedRole {
			return domain.NewConflictError("an application to this lecturer for this role already exists")
		}
	}
	ensureID(&app.ApplicationID)
	cp := *app
	r.s.supervisionApps[app.ApplicationID] = &cp
	return nil
}

func (r *mockSupervisionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.supervisionApps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *mockSupervisionRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.SupervisionApplication, error) {
	return r.GetByID(ctx, id)
}

func (r *mockSupervisionRepo) Update(ctx context.Context, app *domain.SupervisionApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.supervisionApps[app.ApplicationID]; !ok {
		return errors.New("application not found")
	}
	cp := *app
	r.s.supervisionApps[app.ApplicationID] = &cp
	return nil
}

func (r *mockSupervisionRepo) ListByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.SupervisionApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.SupervisionApplication
	for _, a := range r.s.supervisionApps {
		if a.StudentID == studentID && a.PeriodID == periodID && statusIn(a.Status, statuses) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockSupervisionRepo) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.SupervisionApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.SupervisionApplication
	for _, a := range r.s.supervisionApps {
		if a.LecturerID == lecturerID && a.PeriodID == periodID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func statusIn(status domain.ApplicationStatus, statuses []domain.ApplicationStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Topics

type mockTopicRepo struct{ s *MockStore }

func (s *MockStore) Topics() *mockTopicRepo { return &mockTopicRepo{s} }

func (r *mockTopicRepo) Create(ctx context.Context, topic *domain.LecturerTopic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&topic.TopicID)
	cp := *topic
	r.s.topics[topic.TopicID] = &cp
	return nil
}

func (r *mockTopicRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.topics[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *mockTopicRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LecturerTopic, error) {
	return r.GetByID(ctx, id)
}

func (r *mockTopicRepo) Update(ctx context.Context, topic *domain.LecturerTopic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.topics[topic.TopicID]; !ok {
		return errors.New("topic not found")
	}
	cp := *topic
	r.s.topics[topic.TopicID] = &cp
	return nil
}

func (r *mockTopicRepo) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID) ([]*domain.LecturerTopic, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.LecturerTopic
	for _, t := range r.s.topics {
		if t.LecturerID == lecturerID && t.PeriodID == periodID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockTopicRepo) SetAvailabilityByLecturer(ctx context.Context, lecturerID, periodID uuid.UUID, available, onlyWithQuota bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.topics {
		if t.LecturerID == lecturerID && t.PeriodID == periodID {
			if onlyWithQuota && t.StudentQuota <= 0 {
				continue
			}
			t.IsAvailable = available
		}
	}
	return nil
}

// Topic applications

type mockTopicApplicationRepo struct{ s *MockStore }

func (s *MockStore) TopicApplications() *mockTopicApplicationRepo {
	return &mockTopicApplicationRepo{s}
}

func (r *mockTopicApplicationRepo) Create(ctx context.Context, app *domain.TopicApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.topicApps {
		if a.StudentID == app.StudentID && a.PeriodID == app.PeriodID && a.Live() {
			return domain.NewConflictError("student already has a live topic application in this period")
		}
	}
	ensureID(&app.ApplicationID)
	cp := *app
	r.s.topicApps[app.ApplicationID] = &cp
	return nil
}

func (r *mockTopicApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.topicApps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *mockTopicApplicationRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TopicApplication, error) {
	return r.GetByID(ctx, id)
}

func (r *mockTopicApplicationRepo) Update(ctx context.Context, app *domain.TopicApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.topicApps[app.ApplicationID]; !ok {
		return errors.New("application not found")
	}
	cp := *app
	r.s.topicApps[app.ApplicationID] = &cp
	return nil
}

func (r *mockTopicApplicationRepo) GetLiveByStudentAndPeriod(ctx context.Context, studentID, periodID uuid.UUID) (*domain.TopicApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.topicApps {
		if a.StudentID == studentID && a.PeriodID == periodID && a.Live() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockTopicApplicationRepo) ListByLecturerAndPeriod(ctx context.Context, lecturerID, periodID uuid.UUID, statuses []domain.ApplicationStatus) ([]*domain.TopicApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.TopicApplication
	for _, a := range r.s.topicApps {
		if a.LecturerID == lecturerID && a.PeriodID == periodID && statusIn(a.Status, statuses) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Presentations

type mockPresentationRepo struct{ s *MockStore }

func (s *MockStore) Presentations() *mockPresentationRepo { return &mockPresentationRepo{s} }

func (r *mockPresentationRepo) Create(ctx context.Context, p *domain.ThesisPresentation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&p.PresentationID)
	cp := *p
	cp.Examiners = nil
	r.s.presentations[p.PresentationID] = &cp
	return nil
}

func (r *mockPresentationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ThesisPresentation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.presentations[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Examiners = r.copyExaminers(id)
	return &cp, nil
}

func (r *mockPresentationRepo) copyExaminers(id uuid.UUID) []domain.PresentationExaminer {
	var out []domain.PresentationExaminer
	for _, e := range r.s.examiners[id] {
		out = append(out, *e)
	}
	return out
}

func (r *mockPresentationRepo) Update(ctx context.Context, p *domain.ThesisPresentation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.presentations[p.PresentationID]; !ok {
		return errors.New("presentation not found")
	}
	cp := *p
	cp.Examiners = nil
	r.s.presentations[p.PresentationID] = &cp
	return nil
}

func (r *mockPresentationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.presentations, id)
	delete(r.s.examiners, id)
	return nil
}

func (r *mockPresentationRepo) ListByDate(ctx context.Context, date time.Time, excludeID *uuid.UUID) ([]*domain.ThesisPresentation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.ThesisPresentation
	for id, p := range r.s.presentations {
		if !p.PresentationDate.Equal(date) {
			continue
		}
		if excludeID != nil && id == *excludeID {
			continue
		}
		cp := *p
		cp.Examiners = r.copyExaminers(id)
		out = append(out, &cp)
	}
	return out, nil
}

func (r *mockPresentationRepo) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.ThesisPresentation
	for id, p := range r.s.presentations {
		if p.PeriodScheduleID == scheduleID {
			cp := *p
			cp.Examiners = r.copyExaminers(id)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockPresentationRepo) CountBySchedule(ctx context.Context, scheduleID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, p := range r.s.presentations {
		if p.PeriodScheduleID == scheduleID {
			count++
		}
	}
	return count, nil
}

func (r *mockPresentationRepo) DeleteBySchedule(ctx context.Context, scheduleID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.presentations {
		if p.PeriodScheduleID == scheduleID {
			delete(r.s.presentations, id)
			delete(r.s.examiners, id)
		}
	}
	return nil
}

func (r *mockPresentationRepo) ReplaceExaminers(ctx context.Context, presentationID uuid.UUID, examiners []*domain.PresentationExaminer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var rows []*domain.PresentationExaminer
	for _, e := range examiners {
		if seen[e.LecturerID] {
			return domain.NewConflictError("lecturer is already on this presentation's panel")
		}
		seen[e.LecturerID] = true
		ensureID(&e.ExaminerID)
		cp := *e
		rows = append(rows, &cp)
	}
	r.s.examiners[presentationID] = rows
	return nil
}

func (r *mockPresentationRepo) ListExaminerAssignments(ctx context.Context, lecturerID, scheduleID uuid.UUID) ([]*domain.ThesisPresentation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.ThesisPresentation
	for id, p := range r.s.presentations {
		if p.PeriodScheduleID != scheduleID {
			continue
		}
		for _, e := range r.s.examiners[id] {
			if e.LecturerID == lecturerID {
				cp := *p
				cp.Examiners = r.copyExaminers(id)
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

// History

type mockHistoryRepo struct{ s *MockStore }

func (s *MockStore) History() *mockHistoryRepo { return &mockHistoryRepo{s} }

func (r *mockHistoryRepo) Create(ctx context.Context, row *domain.StudentStatusHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&row.HistoryID)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	cp := *row
	r.s.history = append(r.s.history, &cp)
	return nil
}

func (r *mockHistoryRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentStatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.StudentStatusHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].StudentID == studentID {
			cp := *r.s.history[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockHistoryRepo) LatestTransitionTo(ctx context.Context, studentID, periodID uuid.UUID, newStatus domain.StudentStatus) (*domain.StudentStatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	// Append order is authoritative; timestamps may collide in fast tests.
	for i := len(r.s.history) - 1; i >= 0; i-- {
		row := r.s.history[i]
		if row.StudentID == studentID && row.PeriodID == periodID && row.NewStatus == newStatus {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

// HistoryLen reports the number of history rows, for append-only assertions
// in tests.
func (s *MockStore) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// LecturerLocks reports how many times a lecturer row was read for update.
func (s *MockStore) LecturerLocks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lecturerLocks
}

// ScheduleLocks reports how many times a schedule row was read for update.
func (s *MockStore) ScheduleLocks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduleLocks
}
