package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"caseflow/internal/authz"
	"caseflow/internal/calendar"
	"caseflow/internal/db"
	"caseflow/internal/model"
	"caseflow/internal/planconfig"
	"caseflow/internal/progress"
	"caseflow/internal/timeline"
	"caseflow/internal/trigger"
)

var (
	// ErrCaseNotFound covers both a missing row and a case outside the
	// actor's company; callers cannot tell the two apart.
	ErrCaseNotFound = errors.New("service: case not found")
	// ErrForbidden indicates the actor's role does not grant the operation.
	ErrForbidden = errors.New("service: permission denied")
	// ErrCaseClosed rejects mutations on closed or archived cases.
	ErrCaseClosed = errors.New("service: case is closed")
	// ErrIntakeIncomplete indicates the timeline cannot resolve yet because
	// the reception details have not been recorded.
	ErrIntakeIncomplete = errors.New("service: intake not recorded")
)

const (
	// deadlineNotifyLeadDays is how many days before a stage deadline the
	// notification job runs.
	deadlineNotifyLeadDays = 2
	// inactivityReminderAfter is how long a case may sit without audit
	// activity before the reminder job checks on it.
	inactivityReminderAfter = 15 * 24 * time.Hour
)

// EventBus interface for publishing events
type EventBus interface {
	PublishCase(caseID string, event map[string]interface{}) error
	PublishCompany(companyID string, event map[string]interface{}) error
	PublishActor(actorID string, event map[string]interface{}) error
}

// CaseService handles complaint case business logic
type CaseService struct {
	queries   *db.Queries
	plans     *planconfig.Loader
	roles     *RoleService
	holidays  *HolidayService
	templates *TemplateService
	bus       EventBus
	jobClient JobClient
	log       *zap.Logger
	now       func() time.Time
}

func NewCaseService(
	queries *db.Queries,
	plans *planconfig.Loader,
	roles *RoleService,
	holidays *HolidayService,
	templates *TemplateService,
	bus EventBus,
	jobClient JobClient,
	log *zap.Logger,
) *CaseService {
	return &CaseService{
		queries:   queries,
		plans:     plans,
		roles:     roles,
		holidays:  holidays,
		templates: templates,
		bus:       bus,
		jobClient: jobClient,
		log:       log,
		now:       time.Now,
	}
}

// Create opens a new case owned by the actor's company. Creation triggers
// fire only here, never retroactively.
func (s *CaseService) Create(ctx context.Context, actor model.Actor) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseCreate) {
		return model.Case{}, ErrForbidden
	}

	row, err := s.queries.CreateCase(ctx, db.CreateCaseParams{
		ID:        ulid.Make().String(),
		CompanyID: actor.CompanyID,
		CreatedBy: actor.ID,
		Status:    string(model.CaseStatusOpen),
	})
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to create case: %w", err)
	}
	c := caseToModel(row)

	s.persistAudit(ctx, []model.AuditEntry{{
		CaseID: c.ID, ActorID: actor.ID, Action: "case created", Timestamp: s.now(),
	}})

	catalog := s.catalogFor(ctx, c.CompanyID)
	s.publishTriggers(trigger.DetectCreation(c, catalog))
	s.publishCompany(c.CompanyID, map[string]interface{}{
		"type":   "case.created",
		"caseId": c.ID,
	})
	if s.jobClient != nil {
		if err := s.jobClient.ScheduleInactivityReminder(c.ID, s.now().Add(inactivityReminderAfter)); err != nil {
			s.log.Warn("failed to schedule inactivity reminder", zap.String("case_id", c.ID), zap.Error(err))
		}
	}

	s.log.Info("case created", zap.String("case_id", c.ID), zap.String("company_id", c.CompanyID))
	return c, nil
}

// Get returns a case the actor is allowed to see under their list scope.
func (s *CaseService) Get(ctx context.Context, actor model.Actor, id string) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	return s.getVisible(ctx, ev, actor, id)
}

// List returns the company's cases narrowed to the actor's list scope.
func (s *CaseService) List(ctx context.Context, actor model.Actor, limit, offset int) ([]model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return nil, err
	}
	if !ev.HasAny(actor, authz.PermCaseList) {
		return nil, ErrForbidden
	}
	scope := ev.ScopeOf(actor, authz.PermCaseListScope)

	rows, err := s.queries.ListCases(ctx, listParamsFor(scope, actor, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	cases := make([]model.Case, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, caseToModel(row))
	}
	return cases, nil
}

// IntakeInput carries the reception details recorded after creation. Nil
// fields clear the stored value.
type IntakeInput struct {
	ReceptionType  *model.ReceptionType
	InternalAction *model.InternalAction
	ComplaintDate  *time.Time
	ReceptionDate  *time.Time
}

// SetIntake records how the complaint arrived and what the organization
// decided to do. The timeline variant and every deadline derive from this,
// so the deadline jobs are rescheduled afterwards.
func (s *CaseService) SetIntake(ctx context.Context, actor model.Actor, id string, in IntakeInput) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, id)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseEdit) {
		return model.Case{}, ErrForbidden
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, err
	}

	params := db.UpdateIntakeParams{ID: c.ID}
	if in.ReceptionType != nil {
		v := string(*in.ReceptionType)
		params.ReceptionType = &v
	}
	if in.InternalAction != nil {
		v := string(*in.InternalAction)
		params.InternalAction = &v
	}
	if in.ComplaintDate != nil {
		d := calendar.Truncate(*in.ComplaintDate)
		params.ComplaintDate = &d
	}
	if in.ReceptionDate != nil {
		d := calendar.Truncate(*in.ReceptionDate)
		params.ReceptionDate = &d
	}

	row, err := s.queries.UpdateCaseIntake(ctx, params)
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to update intake: %w", err)
	}
	updated := caseToModel(row)

	s.persistAudit(ctx, []model.AuditEntry{{
		CaseID: c.ID, ActorID: actor.ID, Action: "case intake recorded", Timestamp: s.now(),
	}})
	s.publishCase(c.ID, map[string]interface{}{"type": "case.updated", "caseId": c.ID})
	s.scheduleDeadlines(ctx, updated)
	return updated, nil
}

// Timeline resolves the case's stage plan into dated stages.
func (s *CaseService) Timeline(ctx context.Context, actor model.Actor, id string) ([]timeline.ResolvedStage, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.getVisible(ctx, ev, actor, id)
	if err != nil {
		return nil, err
	}
	return s.resolveTimeline(ctx, c)
}

// ToggleStage flips a stage's completion flag and persists the outcome.
// When the completion is intercepted by an installed template the stored
// case is untouched and the result carries the suggested action.
func (s *CaseService) ToggleStage(ctx context.Context, actor model.Actor, caseID, stageID string) (model.Case, progress.ToggleResult, error) {
	return s.mutateProgress(ctx, actor, caseID, func(tr *progress.Tracker, c model.Case, plan timeline.Plan, catalog []model.TriggerTemplate) (progress.ToggleResult, error) {
		return tr.ToggleStage(actor, c, plan, stageID, catalog)
	})
}

// ToggleSubStep flips one sub-step flag, re-deriving the parent stage.
func (s *CaseService) ToggleSubStep(ctx context.Context, actor model.Actor, caseID, stageID string, index int) (model.Case, progress.ToggleResult, error) {
	return s.mutateProgress(ctx, actor, caseID, func(tr *progress.Tracker, c model.Case, plan timeline.Plan, catalog []model.TriggerTemplate) (progress.ToggleResult, error) {
		return tr.ToggleSubStep(actor, c, plan, stageID, index, catalog)
	})
}

// ConfirmStage applies a completion previously deferred behind a template
// and fires the template's trigger event.
func (s *CaseService) ConfirmStage(ctx context.Context, actor model.Actor, caseID, stageID string) (model.Case, progress.ToggleResult, error) {
	var fired []trigger.Event
	c, res, err := s.mutateProgress(ctx, actor, caseID, func(tr *progress.Tracker, c model.Case, plan timeline.Plan, catalog []model.TriggerTemplate) (progress.ToggleResult, error) {
		res, err := tr.ConfirmStage(actor, c, plan, stageID)
		if err != nil {
			return res, err
		}
		if tpl := trigger.StageCompletionTemplate(stageID, catalog); tpl != nil {
			fired = append(fired, trigger.Event{
				CaseID:       c.ID,
				TriggerPoint: model.TriggerPoint(stageID),
				StageID:      stageID,
				Template:     tpl,
			})
		}
		return res, nil
	})
	if err != nil {
		return c, res, err
	}
	s.publishTriggers(fired)
	return c, res, nil
}

// AssignInvestigators replaces the case's investigator set. The first
// transition from none to some fires the assignment trigger and moves an
// open case into investigation.
func (s *CaseService) AssignInvestigators(ctx context.Context, actor model.Actor, caseID string, investigatorIDs []string) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, caseID)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseAssign) {
		return model.Case{}, ErrForbidden
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, err
	}

	before := trigger.SnapshotOf(c)
	row, err := s.queries.UpdateCaseInvestigators(ctx, c.ID, investigatorIDs)
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to assign investigators: %w", err)
	}
	updated := caseToModel(row)
	if updated.Status == model.CaseStatusOpen && len(investigatorIDs) > 0 {
		row, err = s.queries.UpdateCaseStatus(ctx, c.ID, string(model.CaseStatusInvestigating))
		if err != nil {
			return model.Case{}, fmt.Errorf("failed to update case status: %w", err)
		}
		updated = caseToModel(row)
	}

	s.persistAudit(ctx, []model.AuditEntry{{
		CaseID: c.ID, ActorID: actor.ID, Action: "investigators assigned", Timestamp: s.now(),
	}})
	catalog := s.catalogFor(ctx, c.CompanyID)
	s.publishTriggers(trigger.DetectTransition(before, trigger.SnapshotOf(updated), catalog))
	s.publishCase(c.ID, map[string]interface{}{"type": "case.updated", "caseId": c.ID})
	for _, id := range newlyAssigned(before.InvestigatorIDs, updated.InvestigatorIDs) {
		s.publishActor(id, map[string]interface{}{"type": "case.assigned", "caseId": c.ID})
	}
	return updated, nil
}

// newlyAssigned returns the investigators present in after but not before.
func newlyAssigned(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, id := range before {
		seen[id] = true
	}
	added := make([]string, 0, len(after))
	for _, id := range after {
		if !seen[id] {
			added = append(added, id)
		}
	}
	return added
}

// Close moves the case to CLOSED and fires the closure trigger.
func (s *CaseService) Close(ctx context.Context, actor model.Actor, caseID string) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, caseID)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseClose) {
		return model.Case{}, ErrForbidden
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, err
	}

	before := trigger.SnapshotOf(c)
	row, err := s.queries.UpdateCaseStatus(ctx, c.ID, string(model.CaseStatusClosed))
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to close case: %w", err)
	}
	updated := caseToModel(row)

	s.persistAudit(ctx, []model.AuditEntry{{
		CaseID: c.ID, ActorID: actor.ID, Action: "case closed", Timestamp: s.now(),
	}})
	catalog := s.catalogFor(ctx, c.CompanyID)
	s.publishTriggers(trigger.DetectTransition(before, trigger.SnapshotOf(updated), catalog))
	s.publishCase(c.ID, map[string]interface{}{"type": "case.closed", "caseId": c.ID})

	s.log.Info("case closed", zap.String("case_id", c.ID))
	return updated, nil
}

// AddExternalTask records a scheduled task the timeline buckets into stage
// windows by due date.
func (s *CaseService) AddExternalTask(ctx context.Context, actor model.Actor, caseID string, task model.ExternalTask) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, caseID)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseEdit) {
		return model.Case{}, ErrForbidden
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, err
	}

	if task.ID == "" {
		task.ID = ulid.Make().String()
	}
	task.DueDate = calendar.Truncate(task.DueDate)
	tasks := append(append([]model.ExternalTask{}, c.ExternalTasks...), task)

	row, err := s.queries.UpdateCaseExternalTasks(ctx, c.ID, tasks)
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to add external task: %w", err)
	}
	s.persistAudit(ctx, []model.AuditEntry{{
		CaseID: c.ID, ActorID: actor.ID, Action: fmt.Sprintf("external task %q added", task.Title), Timestamp: s.now(),
	}})
	s.publishCase(c.ID, map[string]interface{}{"type": "case.updated", "caseId": c.ID})
	return caseToModel(row), nil
}

// SetExternalTaskCompleted marks one external task done or pending.
func (s *CaseService) SetExternalTaskCompleted(ctx context.Context, actor model.Actor, caseID, taskID string, completed bool) (model.Case, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, caseID)
	if err != nil {
		return model.Case{}, err
	}
	if !ev.HasAny(actor, authz.PermCaseEdit) {
		return model.Case{}, ErrForbidden
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, err
	}

	tasks := append([]model.ExternalTask{}, c.ExternalTasks...)
	found := false
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Completed = completed
			found = true
			break
		}
	}
	if !found {
		return model.Case{}, fmt.Errorf("external task %q: %w", taskID, ErrCaseNotFound)
	}

	row, err := s.queries.UpdateCaseExternalTasks(ctx, c.ID, tasks)
	if err != nil {
		return model.Case{}, fmt.Errorf("failed to update external task: %w", err)
	}
	s.publishCase(c.ID, map[string]interface{}{"type": "case.updated", "caseId": c.ID})
	return caseToModel(row), nil
}

// AuditLog lists the case's audit entries, newest first.
func (s *CaseService) AuditLog(ctx context.Context, actor model.Actor, caseID string, limit, offset int) ([]db.AuditEntry, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.getVisible(ctx, ev, actor, caseID); err != nil {
		return nil, err
	}
	return s.queries.ListAuditByCase(ctx, caseID, limit, offset)
}

// deferredCarriesFlip reports whether an awaiting-confirmation result still
// changed the progress map. Deferring a whole-stage toggle stores nothing,
// but deferring the parent after the last sub-step still carries that
// sub-step's flip, which must not be lost if the actor abandons the
// suggested action. The tracker audits exactly the mutating cases.
func deferredCarriesFlip(res progress.ToggleResult) bool {
	return len(res.Audit) > 0
}

// mutateProgress runs one tracker operation against the latest snapshot and
// persists the result when it changed the progress map, including the
// sub-step flip of a deferred parent completion.
func (s *CaseService) mutateProgress(ctx context.Context, actor model.Actor, caseID string, op func(*progress.Tracker, model.Case, timeline.Plan, []model.TriggerTemplate) (progress.ToggleResult, error)) (model.Case, progress.ToggleResult, error) {
	ev, err := s.roles.Evaluator(ctx)
	if err != nil {
		return model.Case{}, progress.ToggleResult{}, err
	}
	c, err := s.getVisible(ctx, ev, actor, caseID)
	if err != nil {
		return model.Case{}, progress.ToggleResult{}, err
	}
	if err := ensureMutable(c); err != nil {
		return model.Case{}, progress.ToggleResult{}, err
	}

	variant, ok := timeline.SelectVariant(c.ReceptionType, c.InternalAction)
	if !ok {
		return model.Case{}, progress.ToggleResult{}, ErrIntakeIncomplete
	}
	plan, err := s.plans.Plan(variant)
	if err != nil {
		return model.Case{}, progress.ToggleResult{}, err
	}
	catalog := s.catalogFor(ctx, c.CompanyID)

	tracker := progress.NewTracker(ev, s.now)
	res, err := op(tracker, c, plan, catalog)
	if err != nil {
		return model.Case{}, progress.ToggleResult{}, err
	}

	if res.Outcome == progress.OutcomeAwaitingConfirmation && !deferredCarriesFlip(res) {
		// Nothing changed; the caller surfaces the suggested template.
		return c, res, nil
	}

	row, err := s.queries.UpdateCaseProgress(ctx, c.ID, res.Progress)
	if err != nil {
		return model.Case{}, progress.ToggleResult{}, fmt.Errorf("failed to update progress: %w", err)
	}
	updated := caseToModel(row)
	s.persistAudit(ctx, res.Audit)
	s.publishCase(c.ID, map[string]interface{}{"type": "case.progress_updated", "caseId": c.ID})
	return updated, res, nil
}

// resolveTimeline selects the plan variant from the intake details and
// resolves it against the company calendar.
func (s *CaseService) resolveTimeline(ctx context.Context, c model.Case) ([]timeline.ResolvedStage, error) {
	variant, ok := timeline.SelectVariant(c.ReceptionType, c.InternalAction)
	if !ok {
		return nil, ErrIntakeIncomplete
	}
	plan, err := s.plans.Plan(variant)
	if err != nil {
		return nil, err
	}
	cal, err := s.holidays.Calendar(ctx, c.CompanyID)
	if err != nil {
		return nil, err
	}
	return timeline.Resolve(c, plan, cal, s.now())
}

// scheduleDeadlines enqueues notification and overdue jobs for every dated
// pending stage. Handlers re-check the case before acting, so stale jobs
// from earlier schedules are harmless.
func (s *CaseService) scheduleDeadlines(ctx context.Context, c model.Case) {
	if s.jobClient == nil {
		return
	}
	stages, err := s.resolveTimeline(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrIntakeIncomplete) {
			s.log.Warn("failed to resolve timeline for scheduling", zap.String("case_id", c.ID), zap.Error(err))
		}
		return
	}
	for _, st := range schedulableStages(stages) {
		notifyAt := st.EndDate.AddDate(0, 0, -deadlineNotifyLeadDays)
		if err := s.jobClient.ScheduleStageDeadlineNotification(c.ID, st.StageID, notifyAt); err != nil {
			s.log.Warn("failed to schedule deadline notification", zap.String("case_id", c.ID), zap.Error(err))
		}
		overdueAt := st.EndDate.AddDate(0, 0, 1)
		if err := s.jobClient.ScheduleStageOverdueCheck(c.ID, st.StageID, overdueAt); err != nil {
			s.log.Warn("failed to schedule overdue check", zap.String("case_id", c.ID), zap.Error(err))
		}
	}
}

// schedulableStages keeps the pending stages that carry a real deadline.
func schedulableStages(stages []timeline.ResolvedStage) []timeline.ResolvedStage {
	out := make([]timeline.ResolvedStage, 0, len(stages))
	for _, st := range stages {
		if st.IsCompleted || st.Duration <= 0 || st.DayType == model.DayTypeNone {
			continue
		}
		out = append(out, st)
	}
	return out
}

// getVisible loads a case and applies the actor's list scope. A case in
// another company reads as not found.
func (s *CaseService) getVisible(ctx context.Context, ev *authz.Evaluator, actor model.Actor, id string) (model.Case, error) {
	row, err := s.queries.GetCaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Case{}, ErrCaseNotFound
		}
		return model.Case{}, fmt.Errorf("failed to get case: %w", err)
	}
	c := caseToModel(row)
	if c.CompanyID != actor.CompanyID && !actor.Super {
		return model.Case{}, ErrCaseNotFound
	}
	if !ev.HasAny(actor, authz.PermCaseList) {
		return model.Case{}, ErrForbidden
	}
	if !caseInScope(ev.ScopeOf(actor, authz.PermCaseListScope), actor, c) {
		return model.Case{}, ErrForbidden
	}
	return c, nil
}

// caseInScope applies a list scope to one case.
func caseInScope(scope model.ScopeValue, actor model.Actor, c model.Case) bool {
	switch scope {
	case model.ScopeAll:
		return true
	case model.ScopeAssignedOnly:
		for _, id := range c.InvestigatorIDs {
			if id == actor.ID {
				return true
			}
		}
		return false
	default:
		// Own-only, and the floor for any unrecognized scope.
		return c.CreatedBy == actor.ID
	}
}

// listParamsFor translates a list scope into query filters.
func listParamsFor(scope model.ScopeValue, actor model.Actor, limit, offset int) db.ListCasesParams {
	p := db.ListCasesParams{CompanyID: actor.CompanyID, Limit: limit, Offset: offset}
	switch scope {
	case model.ScopeAll:
	case model.ScopeAssignedOnly:
		p.AssignedTo = actor.ID
	default:
		p.CreatedBy = actor.ID
	}
	return p
}

func ensureMutable(c model.Case) error {
	if c.Status == model.CaseStatusClosed || c.Status == model.CaseStatusArchived {
		return ErrCaseClosed
	}
	return nil
}

func caseToModel(row db.Case) model.Case {
	c := model.Case{
		ID:               row.ID,
		CompanyID:        row.CompanyID,
		CreatedBy:        row.CreatedBy,
		CreatedAt:        row.CreatedAt,
		InvestigatorIDs:  row.InvestigatorIDs,
		TimelineProgress: row.TimelineProgress,
		ExternalTasks:    row.ExternalTasks,
		Status:           model.CaseStatus(row.Status),
		UpdatedAt:        row.UpdatedAt,
	}
	if row.ReceptionType != nil {
		v := model.ReceptionType(*row.ReceptionType)
		c.ReceptionType = &v
	}
	if row.InternalAction != nil {
		v := model.InternalAction(*row.InternalAction)
		c.InternalAction = &v
	}
	c.ComplaintDate = row.ComplaintDate
	c.ReceptionDate = row.ReceptionDate
	if c.InvestigatorIDs == nil {
		c.InvestigatorIDs = []string{}
	}
	if c.TimelineProgress == nil {
		c.TimelineProgress = map[string]bool{}
	}
	return c
}

func (s *CaseService) catalogFor(ctx context.Context, companyID string) []model.TriggerTemplate {
	catalog, err := s.templates.Catalog(ctx, companyID)
	if err != nil {
		s.log.Warn("failed to load template catalog", zap.String("company_id", companyID), zap.Error(err))
		return nil
	}
	return catalog
}

func (s *CaseService) persistAudit(ctx context.Context, entries []model.AuditEntry) {
	if len(entries) == 0 {
		return
	}
	rows := make([]db.AuditEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, db.AuditEntry{
			ID:        ulid.Make().String(),
			CaseID:    e.CaseID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			CreatedAt: e.Timestamp,
		})
	}
	if err := s.queries.InsertAuditEntries(ctx, rows); err != nil {
		s.log.Warn("failed to persist audit entries", zap.Error(err))
	}
}

func (s *CaseService) publishTriggers(events []trigger.Event) {
	for _, e := range events {
		evt := map[string]interface{}{
			"type":         "trigger.fired",
			"triggerPoint": string(e.TriggerPoint),
		}
		if e.StageID != "" {
			evt["stageId"] = e.StageID
		}
		if e.Template != nil {
			evt["templateId"] = e.Template.ID
			evt["templateName"] = e.Template.Name
		}
		s.publishCase(e.CaseID, evt)
	}
}

func (s *CaseService) publishCase(caseID string, event map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishCase(caseID, event); err != nil {
		s.log.Warn("failed to publish case event", zap.String("case_id", caseID), zap.Error(err))
	}
}

func (s *CaseService) publishCompany(companyID string, event map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishCompany(companyID, event); err != nil {
		s.log.Warn("failed to publish company event", zap.String("company_id", companyID), zap.Error(err))
	}
}

func (s *CaseService) publishActor(actorID string, event map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishActor(actorID, event); err != nil {
		s.log.Warn("failed to publish actor event", zap.String("actor_id", actorID), zap.Error(err))
	}
}
