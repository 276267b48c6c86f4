package domain

// StudentStatus is the closed enumeration of a student's position in the
// thesis lifecycle. Transitions happen only through the service layer and
// every transition is mirrored into StudentStatusHistory.
type StudentStatus int

const (
	StudentNew               StudentStatus = 0
	StudentRegistered        StudentStatus = 1
	StudentSupervised        StudentStatus = 2
	StudentProposalScheduled StudentStatus = 3
	StudentProposalPassed    StudentStatus = 4
	StudentThesisScheduled   StudentStatus = 5
	StudentThesisPassed      StudentStatus = 6
	StudentCompleted         StudentStatus = 7
	StudentGraduated         StudentStatus = 8
)

func (s StudentStatus) String() string {
	switch s {
	case StudentNew:
		return "new"
	case StudentRegistered:
		return "registered"
	case StudentSupervised:
		return "supervised"
	case StudentProposalScheduled:
		return "proposal_scheduled"
	case StudentProposalPassed:
		return "proposal_passed"
	case StudentThesisScheduled:
		return "thesis_scheduled"
	case StudentThesisPassed:
		return "thesis_passed"
	case StudentCompleted:
		return "completed"
	case StudentGraduated:
		return "graduated"
	default:
		return "unknown"
	}
}

// ApplicationStatus covers both supervision and topic application workflows.
// Canceled and Changed are produced only as side effects of a different
// application of the same student being accepted.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationDeclined  ApplicationStatus = "declined"
	ApplicationCanceled  ApplicationStatus = "canceled"
	ApplicationChanged   ApplicationStatus = "changed"
	ApplicationQuotaFull ApplicationStatus = "quota_full"
)

// ScheduleType distinguishes the two dated windows a period may carry.
type ScheduleType string

const (
	ScheduleProposalHearing ScheduleType = "proposal_hearing"
	ScheduleThesisDefense   ScheduleType = "thesis_defense"
)

// PresentationType mirrors ScheduleType on the presentation row itself.
type PresentationType string

const (
	PresentationProposal PresentationType = "proposal"
	PresentationThesis   PresentationType = "thesis"
)

// PresentationDecision is recorded once by the lead examiner after the
// presentation has ended.
type PresentationDecision string

const (
	DecisionNone PresentationDecision = ""
	DecisionPass PresentationDecision = "pass"
	DecisionFail PresentationDecision = "fail"
)

// SupervisorRole on an active assignment or a supervision application.
type SupervisorRole int

const (
	RoleSupervisor1 SupervisorRole = 0
	RoleSupervisor2 SupervisorRole = 1
)

// PeriodStatus is derived from dates and schedules, never stored.
type PeriodStatus string

const (
	PeriodUpcoming           PeriodStatus = "upcoming"
	PeriodRegistrationOpen   PeriodStatus = "registration_open"
	PeriodProposalInProgress PeriodStatus = "proposal_in_progress"
	PeriodProposalHearing    PeriodStatus = "proposal_hearing"
	PeriodThesis             PeriodStatus = "thesis"
	PeriodCompleted          PeriodStatus = "completed"
	PeriodArchived           PeriodStatus = "archived"
)
