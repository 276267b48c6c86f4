package service

import (
	"errors"
	"strings"
	"testing"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
)

func TestPeriodService_CreateSchedule_RejectsOverlap(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")

	_, err := f.periods.CreateSchedule(f.ctx, &serviceInterfaces.CreateScheduleRequest{
		PeriodID:  period.PeriodID,
		Type:      domain.ScheduleThesisDefense,
		StartDate: "2025-03-05",
		EndDate:   "2025-03-15",
		Deadline:  "2025-03-01",
	})
	if err == nil {
		t.Fatal("Expected overlap validation error, got nil")
	}
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(validationErr.Message, "2025-03-01 to 2025-03-10") {
		t.Errorf("Expected message to name the conflicting range, got %q", validationErr.Message)
	}
}

func TestPeriodService_CreateSchedule_InclusiveBoundaryOverlaps(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")

	// Sharing a single boundary day still counts as an overlap.
	_, err := f.periods.CreateSchedule(f.ctx, &serviceInterfaces.CreateScheduleRequest{
		PeriodID:  period.PeriodID,
		Type:      domain.ScheduleThesisDefense,
		StartDate: "2025-03-10",
		EndDate:   "2025-03-20",
		Deadline:  "2025-03-01",
	})
	if err == nil {
		t.Fatal("Expected boundary overlap to be rejected")
	}

	// Adjacent but disjoint is fine.
	_, err = f.periods.CreateSchedule(f.ctx, &serviceInterfaces.CreateScheduleRequest{
		PeriodID:  period.PeriodID,
		Type:      domain.ScheduleThesisDefense,
		StartDate: "2025-03-11",
		EndDate:   "2025-03-20",
		Deadline:  "2025-03-01",
	})
	if err != nil {
		t.Fatalf("Expected disjoint schedule to be accepted, got %v", err)
	}
}

func TestPeriodService_UpdateSchedule_ExcludesItself(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")

	updated, err := f.periods.UpdateSchedule(f.ctx, schedule.PeriodScheduleID, &serviceInterfaces.UpdateScheduleRequest{
		StartDate: "2025-03-02",
		EndDate:   "2025-03-09",
		Deadline:  "2025-02-20",
	})
	if err != nil {
		t.Fatalf("Expected update within own range to succeed, got %v", err)
	}
	if !updated.StartDate.Equal(mustDate(t, "2025-03-02")) {
		t.Errorf("Expected start date to move, got %v", updated.StartDate)
	}
}

func TestPeriodService_PeriodStatus_Derivation(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")
	f.seedSchedule(t, period.PeriodID, domain.ScheduleThesisDefense, "2025-05-01", "2025-05-10")

	cases := []struct {
		name string
		now  string
		want domain.PeriodStatus
	}{
		{"before period start", "2024-12-01", domain.PeriodUpcoming},
		{"registration window", "2025-01-15", domain.PeriodRegistrationOpen},
		{"between registration and hearing", "2025-02-15", domain.PeriodProposalInProgress},
		{"inside hearing window", "2025-03-05", domain.PeriodProposalHearing},
		{"inside defense window", "2025-05-05", domain.PeriodThesis},
		{"after period end", "2025-07-15", domain.PeriodCompleted},
	}
	for _, tc := range cases {
		got, err := f.periods.PeriodStatus(f.ctx, period.PeriodID, mustDate(t, tc.now))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}

	if err := f.periods.ArchivePeriod(f.ctx, period.PeriodID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := f.periods.PeriodStatus(f.ctx, period.PeriodID, mustDate(t, "2025-01-15"))
	if err != nil {
		t.Fatalf("status after archive: %v", err)
	}
	if got != domain.PeriodArchived {
		t.Errorf("Expected archived to win over every other stage, got %s", got)
	}

	if err := f.periods.ArchivePeriod(f.ctx, period.PeriodID); err == nil {
		t.Error("Expected second archive to fail, archive is terminal")
	}
}

func TestPeriodService_DeleteSchedule_GuardsPresentations(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")
	venue := f.seedVenue(t, "P-801")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)
	lead := f.seedLecturer(t, "LL001")

	_, result, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        student.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-03",
		StartTime:        "10:00",
		EndTime:          "10:30",
		Type:             domain.PresentationProposal,
		LeadExaminerID:   &lead.LecturerID,
	})
	if err != nil || !result.Success {
		t.Fatalf("seed presentation: err=%v result=%+v", err, result)
	}

	err = f.periods.DeleteSchedule(f.ctx, schedule.PeriodScheduleID, false)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected delete to be blocked while presentations exist, got %v", err)
	}

	if err := f.periods.DeleteSchedule(f.ctx, schedule.PeriodScheduleID, true); err != nil {
		t.Fatalf("Expected forced delete to succeed, got %v", err)
	}
	count, err := f.store.Presentations().CountBySchedule(f.ctx, schedule.PeriodScheduleID)
	if err != nil {
		t.Fatalf("count presentations: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected forced delete to cascade to presentations, %d left", count)
	}
}

func TestPeriodService_RegisterStudent(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")
	student := f.seedStudent(t, "c14210002", domain.StudentNew, nil)

	result, err := f.periods.RegisterStudent(f.ctx, student.StudentID, period.PeriodID, mustDate(t, "2025-01-15"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected registration to succeed, got %q", result.Message)
	}

	reloaded := f.studentByID(t, student.StudentID)
	if reloaded.Status != domain.StudentRegistered {
		t.Errorf("Expected status registered, got %s", reloaded.Status)
	}
	if reloaded.PeriodID == nil || *reloaded.PeriodID != period.PeriodID {
		t.Error("Expected student to be attached to the period")
	}

	// Registration closes with the registration_end date.
	late := f.seedStudent(t, "c14210003", domain.StudentNew, nil)
	result, err = f.periods.RegisterStudent(f.ctx, late.StudentID, period.PeriodID, mustDate(t, "2025-02-15"))
	if err != nil {
		t.Fatalf("register after close: %v", err)
	}
	if result.Success {
		t.Error("Expected registration after registration_end to fail")
	}
}

func TestPeriodService_RegisterStudent_RejectsMoveFromActivePeriod(t *testing.T) {
	f := newFixture()
	current := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, current.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")
	other := f.seedPeriod(t, "Parallel 2025", 12)
	f.seedSchedule(t, other.PeriodID, domain.ScheduleProposalHearing, "2025-03-15", "2025-03-20")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &current.PeriodID)
	historyBefore := f.store.HistoryLen()

	result, err := f.periods.RegisterStudent(f.ctx, student.StudentID, other.PeriodID, mustDate(t, "2025-01-15"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Success {
		t.Fatal("Expected registration into a second period to fail while the first still runs")
	}

	reloaded := f.studentByID(t, student.StudentID)
	if reloaded.PeriodID == nil || *reloaded.PeriodID != current.PeriodID {
		t.Error("Expected student to stay attached to the original period")
	}
	if f.store.HistoryLen() != historyBefore {
		t.Error("Expected no history entry for a rejected registration")
	}
}

func TestPeriodService_RegisterStudent_MoveFromFinishedPeriodRecorded(t *testing.T) {
	f := newFixture()
	finished := f.seedPeriod(t, "Odd 2025/2026", 12)
	f.seedSchedule(t, finished.PeriodID, domain.ScheduleProposalHearing, "2025-03-01", "2025-03-10")

	next := &domain.Period{
		Name:                "Even 2025/2026",
		StartDate:           mustDate(t, "2025-07-01"),
		EndDate:             mustDate(t, "2025-12-31"),
		RegistrationEnd:     mustDate(t, "2025-08-01"),
		DefaultQuota:        12,
		ProposalDayStart:    "08:00",
		ProposalDayEnd:      "17:00",
		ThesisDayStart:      "08:00",
		ThesisDayEnd:        "17:00",
		ProposalSlotMinutes: 30,
		ThesisSlotMinutes:   45,
		BreakStart:          "12:00",
		BreakEnd:            "13:00",
	}
	if err := f.store.Periods().Create(f.ctx, next); err != nil {
		t.Fatalf("seed next period: %v", err)
	}
	f.seedSchedule(t, next.PeriodID, domain.ScheduleProposalHearing, "2025-09-01", "2025-09-05")

	// The student failed in the finished period; registering into the next
	// one is a recorded move, not a silent overwrite.
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &finished.PeriodID)
	historyBefore := f.store.HistoryLen()

	result, err := f.periods.RegisterStudent(f.ctx, student.StudentID, next.PeriodID, mustDate(t, "2025-07-15"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected registration after the old period finished to succeed, got %q", result.Message)
	}

	reloaded := f.studentByID(t, student.StudentID)
	if reloaded.PeriodID == nil || *reloaded.PeriodID != next.PeriodID {
		t.Error("Expected student to be attached to the new period")
	}
	if f.store.HistoryLen() != historyBefore+1 {
		t.Fatalf("Expected the move to append one history row, got %d extra", f.store.HistoryLen()-historyBefore)
	}
	entries, err := f.store.History().ListByStudent(f.ctx, student.StudentID)
	if err != nil || len(entries) == 0 {
		t.Fatalf("list history: err=%v n=%d", err, len(entries))
	}
	if entries[0].PeriodID != next.PeriodID {
		t.Error("Expected the history row to reference the new period")
	}
	if entries[0].Reason == "" {
		t.Error("Expected the history row to carry a reason for the move")
	}
}
