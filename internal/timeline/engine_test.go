package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/calendar"
	"caseflow/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func testPlan() Plan {
	return Plan{
		Variant: VariantInternalInvestigation,
		Stages: []StageDefinition{
			{ID: "reception", Name: "Reception", Duration: 0, DayType: model.DayTypeNone, CountFrom: model.CountFromCaseStart},
			{ID: "initial_steps", Name: "Initial Steps", Duration: 3, DayType: model.DayTypeBusinessAdmin, CountFrom: model.CountFromPreviousStageEnd,
				SubSteps: []SubStepDefinition{
					{ID: "acknowledge", Name: "Acknowledge receipt"},
					{ID: "appoint", Name: "Appoint investigators"},
				}},
			{ID: "investigation", Name: "Investigation", Duration: 90, DayType: model.DayTypeContinuous, CountFrom: model.CountFromPreviousStageEnd},
		},
	}
}

func testCase() model.Case {
	return model.Case{
		ID:               "case-1",
		CompanyID:        "co-1",
		CreatedAt:        date(2025, 7, 10), // Thursday
		TimelineProgress: map[string]bool{},
	}
}

func TestResolve_PreviousStageEndChain(t *testing.T) {
	cal := calendar.New([]time.Time{date(2025, 7, 16)})
	now := date(2025, 7, 10)

	stages, err := Resolve(testCase(), testPlan(), cal, now)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	// Zero-duration reception collapses onto the creation date.
	assert.Equal(t, date(2025, 7, 10), stages[0].StartDate)
	assert.Equal(t, date(2025, 7, 10), stages[0].EndDate)

	// Initial steps chain from reception's end: Fri 11th counts, the
	// weekend skips, Mon 14th and Tue 15th count.
	assert.Equal(t, date(2025, 7, 10), stages[1].StartDate)
	assert.Equal(t, date(2025, 7, 15), stages[1].EndDate)

	// Continuous investigation runs 90 calendar days from there.
	assert.Equal(t, date(2025, 7, 15), stages[2].StartDate)
	assert.Equal(t, date(2025, 10, 13), stages[2].EndDate)
}

func TestResolve_FirstStagePreviousEndFallsBackToCaseStart(t *testing.T) {
	cal := calendar.New(nil)
	plan := Plan{
		Variant: VariantInternalInvestigation,
		Stages: []StageDefinition{
			{ID: "only", Name: "Only", Duration: 5, DayType: model.DayTypeContinuous, CountFrom: model.CountFromPreviousStageEnd},
		},
	}

	stages, err := Resolve(testCase(), plan, cal, date(2025, 7, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 10), stages[0].StartDate)
}

func TestResolve_CountFromKeyDates(t *testing.T) {
	cal := calendar.New(nil)
	c := testCase()
	c.ComplaintDate = datePtr(2025, 7, 1)
	c.ReceptionDate = datePtr(2025, 7, 7) // Monday

	plan := Plan{
		Variant: VariantReferredAuthority,
		Stages: []StageDefinition{
			{ID: "a", Name: "A", Duration: 1, DayType: model.DayTypeContinuous, CountFrom: model.CountFromComplaintDate},
			{ID: "b", Name: "B", Duration: 1, DayType: model.DayTypeContinuous, CountFrom: model.CountFromReceptionDate},
			{ID: "c", Name: "C", Duration: 10, DayType: model.DayTypeBusinessAdmin, CountFrom: model.CountFromDayZero},
		},
	}

	stages, err := Resolve(c, plan, cal, date(2025, 7, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 1), stages[0].StartDate)
	assert.Equal(t, date(2025, 7, 7), stages[1].StartDate)
	// Day zero sits three business days past reception: Tue, Wed, Thu.
	assert.Equal(t, date(2025, 7, 10), stages[2].StartDate)
}

func TestResolve_MissingKeyDatesFallBackToCreation(t *testing.T) {
	cal := calendar.New(nil)
	plan := Plan{
		Variant: VariantInternalInvestigation,
		Stages: []StageDefinition{
			{ID: "a", Name: "A", Duration: 1, DayType: model.DayTypeContinuous, CountFrom: model.CountFromComplaintDate},
			{ID: "b", Name: "B", Duration: 1, DayType: model.DayTypeContinuous, CountFrom: model.CountFromReceptionDate},
		},
	}

	stages, err := Resolve(testCase(), plan, cal, date(2025, 7, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 10), stages[0].StartDate)
	assert.Equal(t, date(2025, 7, 10), stages[1].StartDate)
}

func TestResolve_CompletionDoesNotMoveDates(t *testing.T) {
	cal := calendar.New([]time.Time{date(2025, 7, 16)})
	c := testCase()
	base, err := Resolve(c, testPlan(), cal, date(2025, 7, 10))
	require.NoError(t, err)

	c.TimelineProgress = map[string]bool{"reception": true, "initial_steps": true}
	marked, err := Resolve(c, testPlan(), cal, date(2025, 7, 10))
	require.NoError(t, err)

	for i := range base {
		assert.Equal(t, base[i].StartDate, marked[i].StartDate)
		assert.Equal(t, base[i].EndDate, marked[i].EndDate)
	}
	assert.True(t, marked[1].IsCompleted)
}

func TestResolve_Overdue(t *testing.T) {
	cal := calendar.New(nil)
	c := testCase()

	// A week past the initial-steps deadline and nothing marked.
	stages, err := Resolve(c, testPlan(), cal, date(2025, 7, 22))
	require.NoError(t, err)
	assert.True(t, stages[1].IsOverdue)
	assert.False(t, stages[2].IsOverdue)

	// The deadline day itself is still on time.
	stages, err = Resolve(c, testPlan(), cal, date(2025, 7, 15))
	require.NoError(t, err)
	assert.False(t, stages[1].IsOverdue)

	// Completed stages are never overdue, however late.
	c.TimelineProgress = map[string]bool{"initial_steps": true}
	stages, err = Resolve(c, testPlan(), cal, date(2026, 1, 1))
	require.NoError(t, err)
	assert.False(t, stages[1].IsOverdue)

	// No-deadline stages are never overdue either.
	stages, err = Resolve(c, testPlan(), cal, date(2026, 1, 1))
	require.NoError(t, err)
	assert.False(t, stages[0].IsOverdue)
}

func TestResolve_ExternalTaskBucketing(t *testing.T) {
	cal := calendar.New(nil)
	c := testCase()
	c.ExternalTasks = []model.ExternalTask{
		{ID: "t1", DueDate: date(2025, 7, 10)},  // start boundary of initial steps
		{ID: "t2", DueDate: date(2025, 7, 15)},  // end boundary
		{ID: "t3", DueDate: date(2025, 7, 20)},  // inside investigation window
		{ID: "t4", DueDate: date(2026, 7, 20)},  // beyond every window
	}

	stages, err := Resolve(c, testPlan(), cal, date(2025, 7, 10))
	require.NoError(t, err)

	ids := func(tasks []model.ExternalTask) []string {
		var out []string
		for _, tk := range tasks {
			out = append(out, tk.ID)
		}
		return out
	}
	assert.Equal(t, []string{"t1", "t2"}, ids(stages[1].ExternalTasks))
	assert.Equal(t, []string{"t2", "t3"}, ids(stages[2].ExternalTasks))
}

func TestResolve_SubStepStatuses(t *testing.T) {
	cal := calendar.New(nil)
	c := testCase()
	c.TimelineProgress = map[string]bool{"initial_steps_1": true}

	stages, err := Resolve(c, testPlan(), cal, date(2025, 7, 10))
	require.NoError(t, err)
	require.Len(t, stages[1].SubSteps, 2)
	assert.False(t, stages[1].SubSteps[0].IsCompleted)
	assert.True(t, stages[1].SubSteps[1].IsCompleted)
}

func TestPlanValidate(t *testing.T) {
	plan := testPlan()
	require.NoError(t, plan.Validate())

	dup := testPlan()
	dup.Stages = append(dup.Stages, dup.Stages[0])
	assert.ErrorIs(t, dup.Validate(), ErrConfiguration)

	badDay := testPlan()
	badDay.Stages[0].DayType = "lunar"
	assert.ErrorIs(t, badDay.Validate(), ErrConfiguration)

	badRule := testPlan()
	badRule.Stages[0].CountFrom = "moon_phase"
	assert.ErrorIs(t, badRule.Validate(), ErrConfiguration)

	empty := Plan{Variant: VariantInternalInvestigation}
	assert.ErrorIs(t, empty.Validate(), ErrConfiguration)
}

func TestSelectVariant(t *testing.T) {
	rt := func(v model.ReceptionType) *model.ReceptionType { return &v }
	ia := func(v model.InternalAction) *model.InternalAction { return &v }

	_, ok := SelectVariant(nil, nil)
	assert.False(t, ok)

	v, ok := SelectVariant(rt(model.ReceptionInternalChannel), nil)
	require.True(t, ok)
	assert.Equal(t, VariantInternalInvestigation, v)

	v, ok = SelectVariant(rt(model.ReceptionInternalChannel), ia(model.ActionReferAuthority))
	require.True(t, ok)
	assert.Equal(t, VariantReferredAuthority, v)

	v, ok = SelectVariant(rt(model.ReceptionAuthority), ia(model.ActionInvestigate))
	require.True(t, ok)
	assert.Equal(t, VariantExternalNotice, v)
}
