package service

import (
	"errors"
	"testing"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"

	"github.com/google/uuid"
)

func (f *fixture) schedulePresentation(t *testing.T, scheduleID, studentID, venueID uuid.UUID, date, start, end string, lead *uuid.UUID, examiners ...uuid.UUID) *domain.ThesisPresentation {
	t.Helper()
	p, result, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: scheduleID,
		StudentID:        studentID,
		VenueID:          venueID,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		Type:             domain.PresentationProposal,
		LeadExaminerID:   lead,
		ExaminerIDs:      examiners,
	})
	if err != nil || !result.Success {
		t.Fatalf("schedule presentation: err=%v result=%+v", err, result)
	}
	return p
}

func TestPresentationService_AvailableLecturers_ExcludesBusy(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lecturerX := f.seedLecturer(t, "LL001")
	lecturerY := f.seedLecturer(t, "LL002")
	s1 := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	f.schedulePresentation(t, schedule.PeriodScheduleID, s1.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lecturerX.LecturerID)

	// Overlapping slot: X is busy, Y is not.
	available, err := f.presentation.AvailableLecturers(f.ctx, schedule.PeriodScheduleID,
		mustDate(t, "2025-03-03"), "10:30", "11:15", nil)
	if err != nil {
		t.Fatalf("available lecturers: %v", err)
	}
	for _, lecturer := range available {
		if lecturer.LecturerID == lecturerX.LecturerID {
			t.Error("Expected busy lecturer to be excluded")
		}
	}
	found := false
	for _, lecturer := range available {
		if lecturer.LecturerID == lecturerY.LecturerID {
			found = true
		}
	}
	if !found {
		t.Error("Expected free lecturer to be offered")
	}

	// Disjoint slot on the same date: X is free again.
	available, err = f.presentation.AvailableLecturers(f.ctx, schedule.PeriodScheduleID,
		mustDate(t, "2025-03-03"), "11:00", "11:45", nil)
	if err != nil {
		t.Fatalf("available lecturers: %v", err)
	}
	found = false
	for _, lecturer := range available {
		if lecturer.LecturerID == lecturerX.LecturerID {
			found = true
		}
	}
	if !found {
		t.Error("Expected lecturer to be free outside the booked interval")
	}
}

func TestPresentationService_Create_RechecksExaminerConflict(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lecturerX := f.seedLecturer(t, "LL001")
	s1 := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)
	s2 := f.seedStudent(t, "c14210002", domain.StudentSupervised, &period.PeriodID)

	f.schedulePresentation(t, schedule.PeriodScheduleID, s1.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lecturerX.LecturerID)

	// A stale client submits X for an overlapping slot anyway; the save-time
	// re-check rejects it.
	_, result, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        s2.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-03",
		StartTime:        "10:30",
		EndTime:          "11:15",
		Type:             domain.PresentationProposal,
		ExaminerIDs:      []uuid.UUID{lecturerX.LecturerID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Success {
		t.Fatal("Expected double-booked examiner to be rejected at save time")
	}
	if f.studentByID(t, s2.StudentID).Status != domain.StudentSupervised {
		t.Error("Expected rejected save to leave the student status unchanged")
	}
}

func TestPresentationService_Create_LocksScheduleBeforeConflictScan(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lecturerX := f.seedLecturer(t, "LL001")
	s1 := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	locksBefore := f.store.ScheduleLocks()
	f.schedulePresentation(t, schedule.PeriodScheduleID, s1.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lecturerX.LecturerID)

	// The conflict scan cannot see a racing uncommitted booking; the save
	// transaction must serialize on the parent schedule row first.
	if f.store.ScheduleLocks() <= locksBefore {
		t.Error("Expected create to read the schedule row for update before the conflict scan")
	}

	locksBefore = f.store.ScheduleLocks()
	presentations, err := f.store.Presentations().ListBySchedule(f.ctx, schedule.PeriodScheduleID)
	if err != nil || len(presentations) != 1 {
		t.Fatalf("list presentations: err=%v n=%d", err, len(presentations))
	}
	result, err := f.presentation.Update(f.ctx, presentations[0].PresentationID, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        s1.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-04",
		StartTime:        "10:00",
		EndTime:          "10:45",
		Type:             domain.PresentationProposal,
		LeadExaminerID:   &lecturerX.LecturerID,
	})
	if err != nil || !result.Success {
		t.Fatalf("update: err=%v result=%+v", err, result)
	}
	if f.store.ScheduleLocks() <= locksBefore {
		t.Error("Expected update to read the schedule row for update before the conflict scan")
	}
}

func TestPresentationService_Create_RejectsStudentDoubleBooking(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lecturerX := f.seedLecturer(t, "LL001")
	lecturerY := f.seedLecturer(t, "LL002")
	s1 := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	f.schedulePresentation(t, schedule.PeriodScheduleID, s1.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lecturerX.LecturerID)

	_, result, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        s1.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-03",
		StartTime:        "10:45",
		EndTime:          "11:30",
		Type:             domain.PresentationProposal,
		LeadExaminerID:   &lecturerY.LecturerID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Success {
		t.Fatal("Expected overlapping presentation for the same student to be rejected")
	}
}

func TestPresentationService_Create_ValidatesWindowAndType(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	// Outside the schedule window.
	_, _, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        student.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-20",
		StartTime:        "10:00",
		EndTime:          "10:45",
		Type:             domain.PresentationProposal,
		LeadExaminerID:   &lecturer.LecturerID,
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for out-of-window date, got %v", err)
	}

	// Thesis presentation on a proposal-hearing schedule.
	_, _, err = f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        student.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-04",
		StartTime:        "10:00",
		EndTime:          "10:45",
		Type:             domain.PresentationThesis,
		LeadExaminerID:   &lecturer.LecturerID,
	})
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for type mismatch, got %v", err)
	}
}

func TestPresentationService_RecordDecision(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lead := f.seedLecturer(t, "LL001")
	member := f.seedLecturer(t, "LL002")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	p := f.schedulePresentation(t, schedule.PeriodScheduleID, student.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lead.LecturerID, member.LecturerID)

	// Scheduling already advanced the student.
	if f.studentByID(t, student.StudentID).Status != domain.StudentProposalScheduled {
		t.Fatal("Expected student advanced to proposal_scheduled on scheduling")
	}

	after := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	before := time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC)

	// Only the lead examiner may decide.
	if _, err := f.presentation.RecordDecision(f.ctx, member.LecturerID, p.PresentationID, domain.DecisionPass, "", after); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for non-lead examiner, got %v", err)
	}

	// Not before the presentation ends.
	result, err := f.presentation.RecordDecision(f.ctx, lead.LecturerID, p.PresentationID, domain.DecisionPass, "", before)
	if err != nil {
		t.Fatalf("early decision: %v", err)
	}
	if result.Success {
		t.Fatal("Expected decision before end time to fail")
	}

	result, err = f.presentation.RecordDecision(f.ctx, lead.LecturerID, p.PresentationID, domain.DecisionPass, "solid work", after)
	if err != nil {
		t.Fatalf("decision: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected decision to succeed, got %q", result.Message)
	}
	if f.studentByID(t, student.StudentID).Status != domain.StudentProposalPassed {
		t.Error("Expected pass to advance the student to proposal_passed")
	}

	// Exactly once.
	result, err = f.presentation.RecordDecision(f.ctx, lead.LecturerID, p.PresentationID, domain.DecisionFail, "", after)
	if err != nil {
		t.Fatalf("second decision: %v", err)
	}
	if result.Success {
		t.Error("Expected second decision to fail, decisions are terminal")
	}
}

func TestPresentationService_RecordDecision_FailReverts(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lead := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	p := f.schedulePresentation(t, schedule.PeriodScheduleID, student.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lead.LecturerID)

	after := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	result, err := f.presentation.RecordDecision(f.ctx, lead.LecturerID, p.PresentationID, domain.DecisionFail, "needs rework", after)
	if err != nil {
		t.Fatalf("decision: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected decision to succeed, got %q", result.Message)
	}
	if f.studentByID(t, student.StudentID).Status != domain.StudentSupervised {
		t.Error("Expected fail to revert the student to the pre-presentation status")
	}

	entries, err := f.store.History().ListByStudent(f.ctx, student.StudentID)
	if err != nil || len(entries) == 0 {
		t.Fatalf("history: %v", err)
	}
	if entries[0].Reason != "needs rework" {
		t.Errorf("Expected decision reason on the latest history row, got %q", entries[0].Reason)
	}
}

func TestPresentationService_Delete_Cascades(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-08")
	venue := f.seedVenue(t, "P-801")
	lead := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)

	p := f.schedulePresentation(t, schedule.PeriodScheduleID, student.StudentID, venue.VenueID,
		"2025-03-03", "10:00", "10:45", &lead.LecturerID)

	if err := f.presentation.Delete(f.ctx, p.PresentationID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assignments, err := f.store.Presentations().ListExaminerAssignments(f.ctx, lead.LecturerID, schedule.PeriodScheduleID)
	if err != nil {
		t.Fatalf("examiner assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected examiner rows gone with the presentation, got %d", len(assignments))
	}
	if err := f.presentation.Delete(f.ctx, p.PresentationID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on double delete, got %v", err)
	}
}
