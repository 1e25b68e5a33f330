package model

import "time"

// CaseStatus represents the lifecycle state of a complaint case
type CaseStatus string

const (
	CaseStatusOpen          CaseStatus = "OPEN"
	CaseStatusInvestigating CaseStatus = "INVESTIGATING"
	CaseStatusClosed        CaseStatus = "CLOSED"
	CaseStatusArchived      CaseStatus = "ARCHIVED"
)

// ReceptionType describes how the complaint reached the organization
type ReceptionType string

const (
	ReceptionInternalChannel ReceptionType = "internal_channel"
	ReceptionVerbal          ReceptionType = "verbal"
	ReceptionAuthority       ReceptionType = "authority"
)

// InternalAction describes what the organization decided to do with it
type InternalAction string

const (
	ActionInvestigate    InternalAction = "investigate"
	ActionReferAuthority InternalAction = "refer_authority"
	ActionExternalNotice InternalAction = "external_notice"
)

// DayType is the counting policy for a stage duration
type DayType string

const (
	DayTypeContinuous    DayType = "continuous"
	DayTypeBusinessAdmin DayType = "business_administrative"
	DayTypeBusinessCourt DayType = "business_judicial"
	DayTypeNone          DayType = "no_deadline"
)

// CountFrom is the reference point a stage's clock starts from
type CountFrom string

const (
	CountFromCaseStart        CountFrom = "case_start"
	CountFromPreviousStageEnd CountFrom = "previous_stage_end"
	CountFromComplaintDate    CountFrom = "complaint_date"
	CountFromReceptionDate    CountFrom = "reception_date"
	CountFromDayZero          CountFrom = "day_zero"
)

// ExternalTask is a scheduled task owned by the host (interviews, document
// requests) that the timeline buckets into stage windows by due date.
type ExternalTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	DueDate   time.Time `json:"dueDate"`
	Completed bool      `json:"completed"`
}

// Case is the subset of a complaint case the core operates on. The host owns
// persistence; the core only reads snapshots and returns new values.
type Case struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"companyId"`
	CreatedBy        string          `json:"createdBy"`
	CreatedAt        time.Time       `json:"createdAt"`
	ReceptionType    *ReceptionType  `json:"receptionType,omitempty"`
	InternalAction   *InternalAction `json:"internalAction,omitempty"`
	ComplaintDate    *time.Time      `json:"complaintDate,omitempty"`
	ReceptionDate    *time.Time      `json:"receptionDate,omitempty"`
	InvestigatorIDs  []string        `json:"investigatorIds"`
	TimelineProgress map[string]bool `json:"timelineProgress"`
	ExternalTasks    []ExternalTask  `json:"externalTasks,omitempty"`
	Status           CaseStatus      `json:"status"`
	UpdatedAt        time.Time       `json:"updatedAt,omitempty"`
}

// ScopeValue qualifies how far a granted permission reaches
type ScopeValue string

const (
	ScopeAll           ScopeValue = "todos"
	ScopeAssignedOnly  ScopeValue = "asignados"
	ScopeOwnOnly       ScopeValue = "propios"
	ScopeAgendaOwn     ScopeValue = "propia"
	ScopeAgendaCompany ScopeValue = "empresa"
)

// PermissionValue is either a boolean grant or a ScopeValue string
type PermissionValue struct {
	Bool  bool
	Scope ScopeValue
}

// Role is a named permission set within a company
type Role struct {
	ID          string                     `json:"id"`
	CompanyID   string                     `json:"companyId"`
	Name        string                     `json:"name"`
	Permissions map[string]PermissionValue `json:"permissions"`
}

// Actor is an authenticated principal. Super actors carry the synthesized
// maximal role and are not backed by a stored Role row.
type Actor struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	RoleID    string `json:"roleId"`
	Super     bool   `json:"super"`
}

// TriggerPoint identifies a case transition a template can attach to.
// Stage-completion triggers use the stage id itself as the point.
type TriggerPoint string

const (
	TriggerCaseCreated           TriggerPoint = "case_created"
	TriggerCaseClosed            TriggerPoint = "case_closed"
	TriggerInvestigatorsAssigned TriggerPoint = "investigators_assigned"
)

// TriggerTemplate is an installed communication template bound to a trigger
// point. The catalog is host configuration; the core only matches on it.
type TriggerTemplate struct {
	ID           string       `json:"id"`
	CompanyID    string       `json:"companyId"`
	Name         string       `json:"name"`
	TriggerPoint TriggerPoint `json:"triggerPoint"`
	Body         string       `json:"body,omitempty"`
}

// AuditEntry records one successful mutation for the host to persist
type AuditEntry struct {
	CaseID    string    `json:"caseId"`
	ActorID   string    `json:"actorId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
