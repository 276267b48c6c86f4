package service

import (
	"errors"
	"testing"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
)

func TestTopicService_Accept_InsufficientCapacityForTopicQuota(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 11)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 2)

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{
		StudentID: student.StudentID,
		TopicID:   topic.TopicID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Capacity 1 < topic quota 2: the accept fails and nothing moves.
	result, err := f.topics.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if result.Success {
		t.Fatal("Expected acceptance to fail with insufficient capacity")
	}

	if got := f.capacity(t, lecturer.LecturerID, period.PeriodID); got != 1 {
		t.Errorf("Expected capacity unchanged at 1, got %d", got)
	}
	if got := f.topicByID(t, topic.TopicID).StudentQuota; got != 2 {
		t.Errorf("Expected topic quota unchanged at 2, got %d", got)
	}
	if got := f.topicAppByID(t, app.ApplicationID).Status; got != domain.ApplicationPending {
		t.Errorf("Expected application still pending, got %s", got)
	}
	if f.studentByID(t, student.StudentID).Status != domain.StudentRegistered {
		t.Error("Expected student status unchanged on failed acceptance")
	}
}

func TestTopicService_Accept_LastSlotCascades(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	bystander := f.seedStudent(t, "c14210002", domain.StudentRegistered, &period.PeriodID)
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 11)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 1)
	otherTopic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Query planners", 5)

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{
		StudentID: student.StudentID,
		TopicID:   topic.TopicID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	sibling, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{
		StudentID: bystander.StudentID,
		TopicID:   otherTopic.TopicID,
	})
	if err != nil {
		t.Fatalf("apply sibling: %v", err)
	}

	result, err := f.topics.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "ok")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected acceptance to succeed, got %q", result.Message)
	}

	if got := f.capacity(t, lecturer.LecturerID, period.PeriodID); got != 0 {
		t.Errorf("Expected capacity 0 after filling the last slot, got %d", got)
	}
	reloadedTopic := f.topicByID(t, topic.TopicID)
	if reloadedTopic.StudentQuota != 0 {
		t.Errorf("Expected topic quota 0, got %d", reloadedTopic.StudentQuota)
	}
	if reloadedTopic.IsAvailable {
		t.Error("Expected topic to flip unavailable at quota 0")
	}
	if f.topicByID(t, otherTopic.TopicID).IsAvailable {
		t.Error("Expected the lecturer's other topics to close when capacity hit 0")
	}
	if got := f.topicAppByID(t, sibling.ApplicationID).Status; got != domain.ApplicationQuotaFull {
		t.Errorf("Expected sibling application quota_full, got %s", got)
	}

	// Scenario 6: the acceptance advanced the student and recorded why.
	reloadedStudent := f.studentByID(t, student.StudentID)
	if reloadedStudent.Status != domain.StudentSupervised {
		t.Errorf("Expected student supervised, got %s", reloadedStudent.Status)
	}
	if reloadedStudent.ThesisTitle != topic.Topic {
		t.Errorf("Expected thesis title %q, got %q", topic.Topic, reloadedStudent.ThesisTitle)
	}
	entries, err := f.store.History().ListByStudent(f.ctx, student.StudentID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one history row, got %d (err=%v)", len(entries), err)
	}
	if entries[0].PreviousStatus != domain.StudentRegistered || entries[0].NewStatus != domain.StudentSupervised {
		t.Errorf("Expected transition 1->2, got %d->%d", entries[0].PreviousStatus, entries[0].NewStatus)
	}
	if entries[0].Reason != "Supervisor assigned via topic application acceptance" {
		t.Errorf("Unexpected history reason %q", entries[0].Reason)
	}
}

func TestTopicService_Accept_LocksLecturerBeforeCapacityCheck(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 2)

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{
		StudentID: student.StudentID,
		TopicID:   topic.TopicID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	result, err := f.topics.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, "")
	if err != nil || !result.Success {
		t.Fatalf("accept: err=%v result=%+v", err, result)
	}

	// Racing acceptances for one lecturer queue on the lecturer row, not on
	// the assignment count; the transaction must take that lock.
	if f.store.LecturerLocks() == 0 {
		t.Error("Expected acceptance to read the lecturer row for update before counting capacity")
	}
}

func TestTopicService_Release_RestoresEverything(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	bystander := f.seedStudent(t, "c14210002", domain.StudentRegistered, &period.PeriodID)
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 11)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 1)
	otherTopic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Query planners", 5)

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: student.StudentID, TopicID: topic.TopicID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	sibling, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: bystander.StudentID, TopicID: otherTopic.TopicID})
	if err != nil {
		t.Fatalf("apply sibling: %v", err)
	}
	if result, err := f.topics.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, ""); err != nil || !result.Success {
		t.Fatalf("accept: err=%v result=%+v", err, result)
	}
	historyBefore := f.store.HistoryLen()

	result, err := f.topics.Release(f.ctx, lecturer.LecturerID, app.ApplicationID, "Student requested a change")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected release to succeed, got %q", result.Message)
	}

	// Accept then release is the identity on both ledgers.
	if got := f.capacity(t, lecturer.LecturerID, period.PeriodID); got != 1 {
		t.Errorf("Expected capacity restored to 1, got %d", got)
	}
	reloadedTopic := f.topicByID(t, topic.TopicID)
	if reloadedTopic.StudentQuota != 1 || !reloadedTopic.IsAvailable {
		t.Errorf("Expected topic quota restored to 1 and available, got quota=%d available=%v",
			reloadedTopic.StudentQuota, reloadedTopic.IsAvailable)
	}
	if !f.topicByID(t, otherTopic.TopicID).IsAvailable {
		t.Error("Expected the lecturer's other topics to reopen with restored capacity")
	}
	if got := f.topicAppByID(t, sibling.ApplicationID).Status; got != domain.ApplicationPending {
		t.Errorf("Expected quota_full sibling reverted to pending, got %s", got)
	}

	reloadedStudent := f.studentByID(t, student.StudentID)
	if reloadedStudent.Status != domain.StudentRegistered {
		t.Errorf("Expected student reverted to registered, got %s", reloadedStudent.Status)
	}
	if reloadedStudent.ThesisTitle != "" {
		t.Errorf("Expected thesis title cleared, got %q", reloadedStudent.ThesisTitle)
	}

	assignment, err := f.store.Assignments().GetActiveByStudentAndLecturer(f.ctx, student.StudentID, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if assignment != nil {
		t.Error("Expected active assignment removed")
	}

	// History is append-only: the reversion added a row, nothing was erased.
	if got := f.store.HistoryLen(); got != historyBefore+1 {
		t.Errorf("Expected exactly one appended history row, before=%d after=%d", historyBefore, got)
	}
}

func TestTopicService_Reopen_ReevaluatesLedgers(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 2)

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: student.StudentID, TopicID: topic.TopicID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result, err := f.topics.Decline(f.ctx, lecturer.LecturerID, app.ApplicationID, "not this term"); err != nil || !result.Success {
		t.Fatalf("decline: err=%v result=%+v", err, result)
	}

	// Plenty of capacity: reopen lands on pending.
	result, err := f.topics.Reopen(f.ctx, lecturer.LecturerID, app.ApplicationID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected reopen to succeed, got %q", result.Message)
	}
	if got := f.topicAppByID(t, app.ApplicationID).Status; got != domain.ApplicationPending {
		t.Errorf("Expected reopened application pending, got %s", got)
	}

	// Exhaust capacity, decline, reopen again: now it lands on quota_full.
	if result, err := f.topics.Decline(f.ctx, lecturer.LecturerID, app.ApplicationID, ""); err != nil || !result.Success {
		t.Fatalf("second decline: err=%v result=%+v", err, result)
	}
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 12)
	result, err = f.topics.Reopen(f.ctx, lecturer.LecturerID, app.ApplicationID)
	if err != nil {
		t.Fatalf("second reopen: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected reopen to succeed, got %q", result.Message)
	}
	if got := f.topicAppByID(t, app.ApplicationID).Status; got != domain.ApplicationQuotaFull {
		t.Errorf("Expected reopened application quota_full, got %s", got)
	}
}

func TestTopicService_Apply_OneLivePerPeriod(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	topicA := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 2)
	topicB := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Query planners", 2)

	if _, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: student.StudentID, TopicID: topicA.TopicID}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	_, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: student.StudentID, TopicID: topicB.TopicID})
	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Expected ConflictError for second live application, got %v", err)
	}
}

func TestTopicService_Accept_SupersedesSupervisionApplications(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	other := f.seedLecturer(t, "LL002")
	student := f.seedStudent(t, "c14210001", domain.StudentRegistered, &period.PeriodID)
	topic := f.seedTopic(t, lecturer.LecturerID, period.PeriodID, "Distributed tracing", 2)

	pendingApp, err := f.supervision.Apply(f.ctx, &serviceInterfaces.ApplySupervisionRequest{
		StudentID:    student.StudentID,
		LecturerID:   other.LecturerID,
		PeriodID:     period.PeriodID,
		ProposedRole: domain.RoleSupervisor2,
	})
	if err != nil {
		t.Fatalf("supervision apply: %v", err)
	}

	app, err := f.topics.Apply(f.ctx, &serviceInterfaces.ApplyTopicRequest{StudentID: student.StudentID, TopicID: topic.TopicID})
	if err != nil {
		t.Fatalf("topic apply: %v", err)
	}
	if result, err := f.topics.Accept(f.ctx, lecturer.LecturerID, app.ApplicationID, ""); err != nil || !result.Success {
		t.Fatalf("accept: err=%v result=%+v", err, result)
	}

	reloaded, err := f.store.SupervisionApplications().GetByID(f.ctx, pendingApp.ApplicationID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload supervision application: %v", err)
	}
	if reloaded.Status != domain.ApplicationCanceled {
		t.Errorf("Expected pending supervision application canceled, got %s", reloaded.Status)
	}
}
