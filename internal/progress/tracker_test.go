package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/model"
	"caseflow/internal/timeline"
)

// allowAll grants every capability; denyAll grants none.
type allowAll struct{}

func (allowAll) HasAny(model.Actor, ...string) bool { return true }

type denyAll struct{}

func (denyAll) HasAny(model.Actor, ...string) bool { return false }

func fixedNow() time.Time {
	return time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)
}

func testPlan() timeline.Plan {
	return timeline.Plan{
		Variant: timeline.VariantInternalInvestigation,
		Stages: []timeline.StageDefinition{
			{ID: "reception", Name: "Reception", DayType: model.DayTypeNone, CountFrom: model.CountFromCaseStart},
			{ID: "initial_steps", Name: "Initial Steps", Duration: 3, DayType: model.DayTypeBusinessAdmin, CountFrom: model.CountFromPreviousStageEnd,
				SubSteps: []timeline.SubStepDefinition{
					{ID: "acknowledge", Name: "Acknowledge receipt"},
					{ID: "appoint", Name: "Appoint investigators"},
				}},
			{ID: "closure", Name: "Closure", Duration: 10, DayType: model.DayTypeBusinessAdmin, CountFrom: model.CountFromPreviousStageEnd},
		},
	}
}

func testCase(progress map[string]bool) model.Case {
	if progress == nil {
		progress = map[string]bool{}
	}
	return model.Case{
		ID:               "case-1",
		CreatedAt:        time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		TimelineProgress: progress,
	}
}

var actor = model.Actor{ID: "u-1", CompanyID: "co-1", RoleID: "r-1"}

func TestToggleStage_CompletesAndCascades(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"reception": true})

	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, res.Progress["initial_steps"])
	assert.True(t, res.Progress["initial_steps_0"])
	assert.True(t, res.Progress["initial_steps_1"])

	require.Len(t, res.Audit, 1)
	assert.Equal(t, "case-1", res.Audit[0].CaseID)
	assert.Equal(t, "u-1", res.Audit[0].ActorID)
	assert.Equal(t, fixedNow(), res.Audit[0].Timestamp)

	// Input snapshot untouched.
	assert.False(t, c.TimelineProgress["initial_steps"])
}

func TestToggleStage_UncompleteCascadesToo(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{
		"reception": true, "initial_steps": true,
		"initial_steps_0": true, "initial_steps_1": true,
	})

	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", nil)
	require.NoError(t, err)
	assert.False(t, res.Progress["initial_steps"])
	assert.False(t, res.Progress["initial_steps_0"])
	assert.False(t, res.Progress["initial_steps_1"])
}

func TestToggleStage_PrerequisiteGate(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)

	// Predecessor pending, target pending: blocked, nothing returned.
	_, err := tr.ToggleStage(actor, testCase(nil), testPlan(), "initial_steps", nil)
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)

	// Predecessor done: allowed.
	c := testCase(map[string]bool{"reception": true})
	_, err = tr.ToggleStage(actor, c, testPlan(), "initial_steps", nil)
	assert.NoError(t, err)

	// Un-completing never needs the prerequisite.
	c = testCase(map[string]bool{"initial_steps": true})
	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", nil)
	require.NoError(t, err)
	assert.False(t, res.Progress["initial_steps"])

	// First stage has no predecessor.
	_, err = tr.ToggleStage(actor, testCase(nil), testPlan(), "reception", nil)
	assert.NoError(t, err)
}

func TestToggleStage_PermissionDenied(t *testing.T) {
	tr := NewTracker(denyAll{}, fixedNow)

	_, err := tr.ToggleStage(actor, testCase(nil), testPlan(), "reception", nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestToggleStage_UnknownStage(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)

	_, err := tr.ToggleStage(actor, testCase(nil), testPlan(), "nope", nil)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)
}

func TestToggleStage_DeferredBehindTemplate(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"reception": true})
	catalog := []model.TriggerTemplate{
		{ID: "tpl-1", Name: "Investigation opened notice", TriggerPoint: "initial_steps"},
	}

	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", catalog)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAwaitingConfirmation, res.Outcome)
	// Nothing applied yet: the deadline is not "met" until the suggested
	// communication goes out.
	assert.False(t, res.Progress["initial_steps"])
	assert.Empty(t, res.Audit)
	require.Len(t, res.PendingTriggers, 1)
	assert.Equal(t, "tpl-1", res.PendingTriggers[0].Template.ID)

	// The follow-up confirmation applies it without re-triggering.
	confirmed, err := tr.ConfirmStage(actor, c, testPlan(), "initial_steps")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, confirmed.Outcome)
	assert.True(t, confirmed.Progress["initial_steps"])
	assert.True(t, confirmed.Progress["initial_steps_0"])
	assert.Empty(t, confirmed.PendingTriggers)
	require.Len(t, confirmed.Audit, 1)
}

func TestToggleStage_TemplateOnOtherStageDoesNotDefer(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"reception": true})
	catalog := []model.TriggerTemplate{
		{ID: "tpl-1", TriggerPoint: "closure"},
	}

	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", catalog)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
}

func TestToggleStage_UncompleteIgnoresTemplates(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"initial_steps": true})
	catalog := []model.TriggerTemplate{{ID: "tpl-1", TriggerPoint: "initial_steps"}}

	res, err := tr.ToggleStage(actor, c, testPlan(), "initial_steps", catalog)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.False(t, res.Progress["initial_steps"])
}

func TestToggleSubStep_DerivesParentAsAND(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"reception": true})

	res, err := tr.ToggleSubStep(actor, c, testPlan(), "initial_steps", 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Progress["initial_steps_0"])
	assert.False(t, res.Progress["initial_steps"])

	c.TimelineProgress = res.Progress
	res, err = tr.ToggleSubStep(actor, c, testPlan(), "initial_steps", 1, nil)
	require.NoError(t, err)
	assert.True(t, res.Progress["initial_steps_1"])
	assert.True(t, res.Progress["initial_steps"], "parent derives complete once every sub-step is")
}

func TestToggleSubStep_ReopeningChildReopensParent(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{
		"reception": true, "initial_steps": true,
		"initial_steps_0": true, "initial_steps_1": true,
	})

	res, err := tr.ToggleSubStep(actor, c, testPlan(), "initial_steps", 1, nil)
	require.NoError(t, err)
	assert.False(t, res.Progress["initial_steps_1"])
	assert.False(t, res.Progress["initial_steps"])
	assert.True(t, res.Progress["initial_steps_0"], "sibling untouched")
}

func TestToggleSubStep_LastChildDeferredBehindTemplate(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)
	c := testCase(map[string]bool{"reception": true, "initial_steps_0": true})
	catalog := []model.TriggerTemplate{{ID: "tpl-1", TriggerPoint: "initial_steps"}}

	res, err := tr.ToggleSubStep(actor, c, testPlan(), "initial_steps", 1, catalog)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAwaitingConfirmation, res.Outcome)
	assert.True(t, res.Progress["initial_steps_1"], "checklist state keeps the flip")
	assert.False(t, res.Progress["initial_steps"], "parent completion waits for confirmation")
	require.Len(t, res.PendingTriggers, 1)
}

func TestToggleSubStep_BoundsAndGuards(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)

	_, err := tr.ToggleSubStep(actor, testCase(nil), testPlan(), "initial_steps", 5, nil)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)

	_, err = tr.ToggleSubStep(actor, testCase(nil), testPlan(), "initial_steps", 0, nil)
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)

	trDeny := NewTracker(denyAll{}, fixedNow)
	_, err = trDeny.ToggleSubStep(actor, testCase(nil), testPlan(), "initial_steps", 0, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestConfirmStage_Guards(t *testing.T) {
	tr := NewTracker(allowAll{}, fixedNow)

	_, err := tr.ConfirmStage(actor, testCase(nil), testPlan(), "initial_steps")
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)

	trDeny := NewTracker(denyAll{}, fixedNow)
	_, err = trDeny.ConfirmStage(actor, testCase(nil), testPlan(), "initial_steps")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
