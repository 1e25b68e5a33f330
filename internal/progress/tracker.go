package progress

import (
	"errors"
	"fmt"
	"time"

	"caseflow/internal/authz"
	"caseflow/internal/model"
	"caseflow/internal/timeline"
	"caseflow/internal/trigger"
)

// ErrPrerequisiteNotMet indicates a completion attempt on a stage whose
// predecessor is still pending. No state is mutated.
var ErrPrerequisiteNotMet = errors.New("progress: previous stage not completed")

// ErrPermissionDenied indicates the actor lacks the mark-stages capability.
// No state is mutated.
var ErrPermissionDenied = errors.New("progress: actor may not mark timeline stages")

// Authorizer is the slice of the permission evaluator the tracker needs.
type Authorizer interface {
	HasAny(actor model.Actor, keys ...string) bool
}

// Outcome tags a toggle result.
type Outcome int

const (
	// OutcomeApplied means the new progress map carries the toggle.
	OutcomeApplied Outcome = iota
	// OutcomeAwaitingConfirmation means a completion was intercepted by an
	// installed template: the stage stays pending until ConfirmStage runs.
	OutcomeAwaitingConfirmation
)

// ToggleResult is what the host persists after a toggle: the new progress
// map, the audit entries to append, and any trigger events that fired. The
// input case is never mutated.
type ToggleResult struct {
	Outcome         Outcome
	Progress        map[string]bool
	Audit           []model.AuditEntry
	PendingTriggers []trigger.Event
}

// Tracker drives stage and sub-step completion. It is stateless between
// calls; every method takes the latest case snapshot and returns new values.
type Tracker struct {
	authz Authorizer
	now   func() time.Time
}

// NewTracker builds a tracker. now is injected for audit timestamps; nil
// falls back to the wall clock.
func NewTracker(a Authorizer, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{authz: a, now: now}
}

// ToggleStage flips a stage's completion flag. Completing a stage cascades
// the flag onto every sub-step; un-completing cascades as well, mass-toggle
// wins over individual sub-step state. A completion whose stage id matches
// an installed template is not applied: the result is AwaitingConfirmation
// carrying the trigger event, and the host calls ConfirmStage once the
// suggested action is done.
func (t *Tracker) ToggleStage(actor model.Actor, c model.Case, plan timeline.Plan, stageID string, catalog []model.TriggerTemplate) (ToggleResult, error) {
	if !t.authz.HasAny(actor, authz.CapabilityMarkStages...) {
		return ToggleResult{}, ErrPermissionDenied
	}
	idx := plan.StageIndex(stageID)
	if idx < 0 {
		return ToggleResult{}, fmt.Errorf("%w: unknown stage %q", timeline.ErrConfiguration, stageID)
	}
	st := plan.Stages[idx]

	completing := !c.TimelineProgress[stageID]
	if completing {
		if err := t.checkPrerequisite(c, plan, idx); err != nil {
			return ToggleResult{}, err
		}
		if tpl := trigger.StageCompletionTemplate(stageID, catalog); tpl != nil {
			return ToggleResult{
				Outcome:  OutcomeAwaitingConfirmation,
				Progress: copyProgress(c.TimelineProgress),
				PendingTriggers: []trigger.Event{{
					CaseID:       c.ID,
					TriggerPoint: model.TriggerPoint(stageID),
					StageID:      stageID,
					Template:     tpl,
				}},
			}, nil
		}
	}

	next := copyProgress(c.TimelineProgress)
	next[stageID] = completing
	for i := range st.SubSteps {
		next[timeline.SubStepKey(stageID, i)] = completing
	}

	action := fmt.Sprintf("stage %q marked pending", st.Name)
	if completing {
		action = fmt.Sprintf("stage %q marked completed", st.Name)
	}
	return ToggleResult{
		Outcome:  OutcomeApplied,
		Progress: next,
		Audit:    t.audit(c.ID, actor.ID, action),
	}, nil
}

// ToggleSubStep flips one sub-step flag and re-derives the parent stage as
// the AND over its sub-steps. When the derivation would newly complete a
// stage with an installed template, the sub-step flip is applied but the
// parent stays pending behind the confirmation gate.
func (t *Tracker) ToggleSubStep(actor model.Actor, c model.Case, plan timeline.Plan, stageID string, index int, catalog []model.TriggerTemplate) (ToggleResult, error) {
	if !t.authz.HasAny(actor, authz.CapabilityMarkStages...) {
		return ToggleResult{}, ErrPermissionDenied
	}
	idx := plan.StageIndex(stageID)
	if idx < 0 {
		return ToggleResult{}, fmt.Errorf("%w: unknown stage %q", timeline.ErrConfiguration, stageID)
	}
	st := plan.Stages[idx]
	if index < 0 || index >= len(st.SubSteps) {
		return ToggleResult{}, fmt.Errorf("%w: stage %q has no sub-step %d", timeline.ErrConfiguration, stageID, index)
	}

	key := timeline.SubStepKey(stageID, index)
	completing := !c.TimelineProgress[key]
	if completing && !c.TimelineProgress[stageID] {
		if err := t.checkPrerequisite(c, plan, idx); err != nil {
			return ToggleResult{}, err
		}
	}

	next := copyProgress(c.TimelineProgress)
	next[key] = completing

	allDone := true
	for i := range st.SubSteps {
		if !next[timeline.SubStepKey(stageID, i)] {
			allDone = false
			break
		}
	}

	result := ToggleResult{Outcome: OutcomeApplied, Progress: next}
	sub := st.SubSteps[index]
	action := fmt.Sprintf("sub-step %q of stage %q marked pending", sub.Name, st.Name)
	if completing {
		action = fmt.Sprintf("sub-step %q of stage %q marked completed", sub.Name, st.Name)
	}

	switch {
	case allDone && !c.TimelineProgress[stageID]:
		if tpl := trigger.StageCompletionTemplate(stageID, catalog); tpl != nil {
			result.Outcome = OutcomeAwaitingConfirmation
			result.PendingTriggers = []trigger.Event{{
				CaseID:       c.ID,
				TriggerPoint: model.TriggerPoint(stageID),
				StageID:      stageID,
				Template:     tpl,
			}}
		} else {
			next[stageID] = true
		}
	case !allDone:
		next[stageID] = false
	}

	result.Audit = t.audit(c.ID, actor.ID, action)
	return result, nil
}

// ConfirmStage applies a completion that ToggleStage or ToggleSubStep
// deferred behind a template. The suggested action is done (or explicitly
// skipped by the actor), so the stage and its sub-steps complete without
// re-running trigger detection.
func (t *Tracker) ConfirmStage(actor model.Actor, c model.Case, plan timeline.Plan, stageID string) (ToggleResult, error) {
	if !t.authz.HasAny(actor, authz.CapabilityMarkStages...) {
		return ToggleResult{}, ErrPermissionDenied
	}
	idx := plan.StageIndex(stageID)
	if idx < 0 {
		return ToggleResult{}, fmt.Errorf("%w: unknown stage %q", timeline.ErrConfiguration, stageID)
	}
	st := plan.Stages[idx]
	if !c.TimelineProgress[stageID] {
		if err := t.checkPrerequisite(c, plan, idx); err != nil {
			return ToggleResult{}, err
		}
	}

	next := copyProgress(c.TimelineProgress)
	next[stageID] = true
	for i := range st.SubSteps {
		next[timeline.SubStepKey(stageID, i)] = true
	}
	return ToggleResult{
		Outcome:  OutcomeApplied,
		Progress: next,
		Audit:    t.audit(c.ID, actor.ID, fmt.Sprintf("stage %q completion confirmed", st.Name)),
	}, nil
}

// checkPrerequisite enforces the forward gate: stage N completes only after
// stage N-1. Un-completing never needs unlocking, so callers only invoke
// this on the pending-to-completed direction.
func (t *Tracker) checkPrerequisite(c model.Case, plan timeline.Plan, idx int) error {
	if idx == 0 {
		return nil
	}
	prev := plan.Stages[idx-1]
	if !c.TimelineProgress[prev.ID] {
		return fmt.Errorf("%w: %q before %q", ErrPrerequisiteNotMet, prev.Name, plan.Stages[idx].Name)
	}
	return nil
}

func (t *Tracker) audit(caseID, actorID, action string) []model.AuditEntry {
	return []model.AuditEntry{{
		CaseID:    caseID,
		ActorID:   actorID,
		Action:    action,
		Timestamp: t.now(),
	}}
}

func copyProgress(p map[string]bool) map[string]bool {
	next := make(map[string]bool, len(p))
	for k, v := range p {
		next[k] = v
	}
	return next
}
