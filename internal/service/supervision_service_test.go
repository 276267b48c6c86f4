package service

import (
	"errors"
	"testing"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"

	"github.com/google/uuid"
)

func TestSupervisionService_Accept(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	other := f.seedLecturer(t, "LL002")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)

	app, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	sibling, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   other.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	})
	if err != nil {
		t.Fatalf("apply sibling: %v", err)
	}

	result, err := f.supervision.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "ok")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected acceptance to succeed, got %q", result.Message)
	}

	assignment, err := f.store.Assignments().GetActiveByStudentAndLecturer(f.ctx, student.StudentID, lecturer.LecturerID, period.PeriodID)
	if err != nil || assignment == nil {
		t.Fatalf("Expected active assignment to exist, err=%v", err)
	}
	if assignment.Role != domain.RoleSupervisor1 {
		t.Errorf("Expected role supervisor 1, got %d", assignment.Role)
	}

	reloaded := f.studentByID(t, student.StudentID)
	if reloaded.Status != domain.StudentSupervised {
		t.Errorf("Expected student advanced to supervised, got %s", reloaded.Status)
	}
	entries, err := f.store.History().ListByStudent(f.ctx, student.StudentID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one history row, got %d (err=%v)", len(entries), err)
	}
	if entries[0].Reason != "Supervisor accepted" {
		t.Errorf("Expected history reason %q, got %q", "Supervisor accepted", entries[0].Reason)
	}

	// The student's other pending application is superseded.
	reloadedSibling, err := f.store.SupervisionApplications().GetByID(f.ctx, sibling.ApplicationID)
	if err != nil || reloadedSibling == nil {
		t.Fatalf("reload sibling: %v", err)
	}
	if reloadedSibling.Status != domain.ApplicationChanged {
		t.Errorf("Expected sibling application changed, got %s", reloadedSibling.Status)
	}
}

func TestSupervisionService_Accept_ChecksCapacity(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 12)

	app, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	result, err := f.supervision.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if result.Success {
		t.Fatal("Expected acceptance to fail with capacity exhausted")
	}

	// Guard failure leaves the application untouched.
	reloaded, err := f.store.SupervisionApplications().GetByID(f.ctx, app.ApplicationID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloaded.Status != domain.ApplicationPending {
		t.Errorf("Expected application still pending, got %s", reloaded.Status)
	}
	if f.studentByID(t, student.StudentID).Status != domain.StudentRegistered {
		t.Error("Expected student status unchanged on failed acceptance")
	}
}

func TestSupervisionService_Accept_LocksLecturerBeforeCapacityCheck(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 1)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)

	app, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	result, err := f.supervision.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "")
	if err != nil || !result.Success {
		t.Fatalf("accept: err=%v result=%+v", err, result)
	}

	// The capacity count cannot serialize racing acceptances on its own;
	// the acceptance transaction must take the lecturer row lock first.
	if f.store.LecturerLocks() == 0 {
		t.Error("Expected acceptance to read the lecturer row for update before counting capacity")
	}
}

func TestSupervisionService_Accept_OnlyOwner(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)

	app, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := f.supervision.Accept(f.ctx, uuid.New(), app.ApplicationID, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for foreign lecturer, got %v", err)
	}
}

func TestSupervisionService_Decline(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)

	app, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor2,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	result, err := f.supervision.Decline(f.ctx, lecturer.LecturerID, app.ApplicationID, "full this term")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected decline to succeed, got %q", result.Message)
	}

	// Decline is terminal, re-accepting must fail without side effects.
	result, err = f.supervision.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "")
	if err != nil {
		t.Fatalf("accept after decline: %v", err)
	}
	if result.Success {
		t.Error("Expected accept after decline to fail")
	}
}

func TestSupervisionService_Apply_DuplicateRejected(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)

	req := &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   lecturer.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor1,
	}
	if _, err := f.supervision.Apply(f.ctx, req); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := f.supervision.Apply(f.ctx, req)
	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Expected ConflictError for duplicate application, got %v", err)
	}
}
