package timeline

import (
	"errors"
	"fmt"
	"time"

	"caseflow/internal/calendar"
	"caseflow/internal/model"
)

// ErrConfiguration indicates a malformed stage plan. It is raised at plan
// load; if a malformed plan reaches Resolve anyway the whole resolution
// aborts with no partial result.
var ErrConfiguration = errors.New("timeline: invalid stage plan")

// dayZeroGrace is the statutory grace period before the authority-notified
// clock starts counting: three administrative business days from reception.
const dayZeroGrace = 3

// SubStepResult is the completion status of one checklist child.
type SubStepResult struct {
	SubStepID   string `json:"subStepId"`
	Name        string `json:"name"`
	IsCompleted bool   `json:"isCompleted"`
}

// ResolvedStage is the computed window and status of one stage. It is
// derived output, never persisted.
type ResolvedStage struct {
	StageID       string               `json:"stageId"`
	Name          string               `json:"name"`
	StartDate     time.Time            `json:"startDate"`
	EndDate       time.Time            `json:"endDate"`
	DayType       model.DayType        `json:"dayType"`
	Duration      int                  `json:"duration"`
	IsCompleted   bool                 `json:"isCompleted"`
	IsOverdue     bool                 `json:"isOverdue"`
	SubSteps      []SubStepResult      `json:"subSteps,omitempty"`
	ExternalTasks []model.ExternalTask `json:"externalTasks,omitempty"`
}

// SubStepKey is the progress-map key for the i-th sub-step of a stage.
func SubStepKey(stageID string, i int) string {
	return fmt.Sprintf("%s_%d", stageID, i)
}

// Resolve computes the deadline window for every stage of the plan against
// the case's origin dates. now is injected so overdue status stays
// deterministic under test; date arithmetic itself never consults it.
//
// Completion flags do not affect date arithmetic: the cumulative end used by
// previous_stage_end rules is always the computed end of the prior stage.
func Resolve(c model.Case, plan Plan, cal *calendar.BusinessCalendar, now time.Time) ([]ResolvedStage, error) {
	resolved := make([]ResolvedStage, 0, len(plan.Stages))
	var prevEnd time.Time

	for i, st := range plan.Stages {
		start, err := stageStart(c, st, i, prevEnd, cal)
		if err != nil {
			return nil, err
		}
		end, err := calendar.ComputeEndDate(start, st.Duration, st.DayType, cal)
		if err != nil {
			if errors.Is(err, calendar.ErrUnknownDayType) {
				return nil, fmt.Errorf("%w: stage %q: %v", ErrConfiguration, st.ID, err)
			}
			return nil, err
		}

		completed := c.TimelineProgress[st.ID]
		rs := ResolvedStage{
			StageID:     st.ID,
			Name:        st.Name,
			StartDate:   start,
			EndDate:     end,
			DayType:     st.DayType,
			Duration:    st.Duration,
			IsCompleted: completed,
			IsOverdue:   !completed && st.DayType != model.DayTypeNone && calendar.Truncate(now).After(end),
		}
		for j, sub := range st.SubSteps {
			rs.SubSteps = append(rs.SubSteps, SubStepResult{
				SubStepID:   sub.ID,
				Name:        sub.Name,
				IsCompleted: c.TimelineProgress[SubStepKey(st.ID, j)],
			})
		}
		rs.ExternalTasks = matchTasks(c.ExternalTasks, start, end)

		resolved = append(resolved, rs)
		prevEnd = end
	}
	return resolved, nil
}

func stageStart(c model.Case, st StageDefinition, idx int, prevEnd time.Time, cal *calendar.BusinessCalendar) (time.Time, error) {
	switch st.CountFrom {
	case model.CountFromCaseStart:
		return calendar.Truncate(c.CreatedAt), nil
	case model.CountFromComplaintDate:
		return calendar.Truncate(orCreated(c.ComplaintDate, c)), nil
	case model.CountFromReceptionDate:
		return calendar.Truncate(orCreated(c.ReceptionDate, c)), nil
	case model.CountFromDayZero:
		base := orCreated(c.ReceptionDate, c)
		return calendar.ComputeEndDate(base, dayZeroGrace, model.DayTypeBusinessAdmin, cal)
	case model.CountFromPreviousStageEnd:
		// The first stage has no predecessor; fall back to case start.
		if idx == 0 || prevEnd.IsZero() {
			return calendar.Truncate(c.CreatedAt), nil
		}
		return prevEnd, nil
	default:
		return time.Time{}, fmt.Errorf("%w: stage %q has unknown count-from rule %q", ErrConfiguration, st.ID, st.CountFrom)
	}
}

func orCreated(d *time.Time, c model.Case) time.Time {
	if d != nil {
		return *d
	}
	return c.CreatedAt
}

func matchTasks(tasks []model.ExternalTask, start, end time.Time) []model.ExternalTask {
	var matched []model.ExternalTask
	for _, t := range tasks {
		due := calendar.Truncate(t.DueDate)
		if calendar.SameDate(due, start) || calendar.SameDate(due, end) || (due.After(start) && due.Before(end)) {
			matched = append(matched, t)
		}
	}
	return matched
}
