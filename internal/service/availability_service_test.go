package service

import (
	"errors"
	"testing"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"

	"github.com/google/uuid"
)

func TestAvailabilityService_GenerateTimeSlots(t *testing.T) {
	f := newFixture()
	period := &domain.Period{
		ProposalDayStart:    "08:00",
		ProposalDayEnd:      "10:00",
		ProposalSlotMinutes: 30,
		ThesisDayStart:      "10:00",
		ThesisDayEnd:        "14:00",
		ThesisSlotMinutes:   45,
		BreakStart:          "12:00",
		BreakEnd:            "13:00",
	}

	slots := f.availability.GenerateTimeSlots(period, domain.ScheduleProposalHearing)
	want := []string{"08:00-08:30", "08:30-09:00", "09:00-09:30", "09:30-10:00"}
	if len(slots) != len(want) {
		t.Fatalf("Expected %d proposal slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("Slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}

	// 11:30-12:15 would run into the 12:00 break, so the break marker takes
	// its place and the next slot starts at break end.
	slots = f.availability.GenerateTimeSlots(period, domain.ScheduleThesisDefense)
	want = []string{"10:00-10:45", "10:45-11:30", BreakSlot, "13:00-13:45"}
	if len(slots) != len(want) {
		t.Fatalf("Expected %d thesis slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("Slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}
}

func TestAvailabilityService_GenerateTimeSlots_NoSlotStraddlesBreak(t *testing.T) {
	f := newFixture()
	period := &domain.Period{
		ThesisDayStart:    "08:00",
		ThesisDayEnd:      "17:00",
		ThesisSlotMinutes: 45,
		BreakStart:        "12:00",
		BreakEnd:          "13:00",
	}

	slots := f.availability.GenerateTimeSlots(period, domain.ScheduleThesisDefense)
	want := []string{
		"08:00-08:45", "08:45-09:30", "09:30-10:15", "10:15-11:00", "11:00-11:45",
		BreakSlot,
		"13:00-13:45", "13:45-14:30", "14:30-15:15", "15:15-16:00", "16:00-16:45",
	}
	if len(slots) != len(want) {
		t.Fatalf("Expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("Slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}
	for _, slot := range slots {
		if slot == "11:45-12:30" {
			t.Error("Expected no slot crossing into the break window")
		}
	}
}

func TestAvailabilityService_ScheduleDates_SkipsSundays(t *testing.T) {
	f := newFixture()
	// 2025-03-01 is a Saturday; 2025-03-02 and 2025-03-09 are Sundays.
	schedule := &domain.PeriodSchedule{
		StartDate: mustDate(t, "2025-03-01"),
		EndDate:   mustDate(t, "2025-03-10"),
	}
	dates := f.availability.ScheduleDates(schedule)
	if len(dates) != 8 {
		t.Fatalf("Expected 8 dates (10 days minus 2 Sundays), got %d", len(dates))
	}
	for _, d := range dates {
		if d.Weekday().String() == "Sunday" {
			t.Errorf("Expected no Sundays, got %s", d.Format("2006-01-02"))
		}
	}
}

func TestAvailabilityService_LoadAvailability_DefaultsTrue(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-04")
	lecturer := f.seedLecturer(t, "LL001")

	err := f.availability.SaveAvailability(f.ctx, lecturer.LecturerID, &serviceInterfaces.SaveAvailabilityRequest{
		LecturerID: lecturer.LecturerID,
		ScheduleID: schedule.PeriodScheduleID,
		Type:       domain.ScheduleProposalHearing,
		Slots:      map[string]bool{"2025-03-03_08:00-08:30": false},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	grid, err := f.availability.LoadAvailability(f.ctx, lecturer.LecturerID, schedule.PeriodScheduleID, domain.ScheduleProposalHearing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if grid["2025-03-03_08:00-08:30"] {
		t.Error("Expected explicitly saved cell to be busy")
	}
	if !grid["2025-03-03_08:30-09:00"] {
		t.Error("Expected untouched cell to default to available")
	}
	if !grid["2025-03-04_08:00-08:30"] {
		t.Error("Expected untouched date to default to available")
	}
	if _, ok := grid["2025-03-03_"+BreakSlot]; ok {
		t.Error("Expected break marker to be absent from the grid")
	}
}

func TestAvailabilityService_SaveAvailability_OnlyOwner(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-04")
	lecturer := f.seedLecturer(t, "LL001")

	err := f.availability.SaveAvailability(f.ctx, uuid.New(), &serviceInterfaces.SaveAvailabilityRequest{
		LecturerID: lecturer.LecturerID,
		ScheduleID: schedule.PeriodScheduleID,
		Type:       domain.ScheduleProposalHearing,
		Slots:      map[string]bool{"2025-03-03_08:00-08:30": false},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for non-owner save, got %v", err)
	}
}

func TestAvailabilityService_SaveAvailability_LockedSlotIsNoOp(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	schedule := f.seedSchedule(t, period.PeriodID, domain.ScheduleProposalHearing, "2025-03-03", "2025-03-04")
	venue := f.seedVenue(t, "P-801")
	student := f.seedStudent(t, "c14210001", domain.StudentSupervised, &period.PeriodID)
	lecturer := f.seedLecturer(t, "LL001")

	_, result, err := f.presentation.Create(f.ctx, &serviceInterfaces.CreatePresentationRequest{
		PeriodScheduleID: schedule.PeriodScheduleID,
		StudentID:        student.StudentID,
		VenueID:          venue.VenueID,
		Date:             "2025-03-03",
		StartTime:        "08:00",
		EndTime:          "08:30",
		Type:             domain.PresentationProposal,
		LeadExaminerID:   &lecturer.LecturerID,
	})
	if err != nil || !result.Success {
		t.Fatalf("seed presentation: err=%v result=%+v", err, result)
	}

	locked, err := f.availability.LockedSlots(f.ctx, lecturer.LecturerID, schedule.PeriodScheduleID)
	if err != nil {
		t.Fatalf("locked slots: %v", err)
	}
	if !locked["2025-03-03_08:00-08:30"] {
		t.Fatalf("Expected examiner assignment to lock the slot, got %v", locked)
	}

	// Saving the locked key must be silently ignored, not an error.
	err = f.availability.SaveAvailability(f.ctx, lecturer.LecturerID, &serviceInterfaces.SaveAvailabilityRequest{
		LecturerID: lecturer.LecturerID,
		ScheduleID: schedule.PeriodScheduleID,
		Type:       domain.ScheduleProposalHearing,
		Slots:      map[string]bool{"2025-03-03_08:00-08:30": true},
	})
	if err != nil {
		t.Fatalf("Expected locked-slot save to be a no-op, got %v", err)
	}
	rows, err := f.store.Availability().ListByCell(f.ctx, lecturer.LecturerID, schedule.PeriodScheduleID, domain.ScheduleProposalHearing)
	if err != nil {
		t.Fatalf("list cells: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no availability row written for the locked key, got %d", len(rows))
	}
}
