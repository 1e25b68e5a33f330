package trigger

import (
	"caseflow/internal/model"
)

// Snapshot is the slice of case state the detector compares. Callers hand
// in the before and after images around a mutation; for stage completions
// the after image is the intended state, captured before the mutation is
// applied, so completion can be deferred behind the suggested action.
type Snapshot struct {
	CaseID          string
	Status          model.CaseStatus
	InvestigatorIDs []string
	StageCompleted  map[string]bool
}

// Event is one fired trigger, carrying the matched template when the
// catalog installs one for the point.
type Event struct {
	CaseID       string                 `json:"caseId"`
	TriggerPoint model.TriggerPoint     `json:"triggerPoint"`
	StageID      string                 `json:"stageId,omitempty"`
	Template     *model.TriggerTemplate `json:"template,omitempty"`
}

// SnapshotOf extracts a detector snapshot from a case.
func SnapshotOf(c model.Case) Snapshot {
	s := Snapshot{
		CaseID:          c.ID,
		Status:          c.Status,
		InvestigatorIDs: append([]string(nil), c.InvestigatorIDs...),
		StageCompleted:  make(map[string]bool, len(c.TimelineProgress)),
	}
	for k, v := range c.TimelineProgress {
		s.StageCompleted[k] = v
	}
	return s
}

// DetectTransition evaluates every transition rule independently against a
// before/after pair and returns the fired events. Each rule fires at most
// once per invocation; several may fire on the same transition.
func DetectTransition(before, after Snapshot, catalog []model.TriggerTemplate) []Event {
	var events []Event

	// Investigators first assigned: only the empty-to-nonempty transition
	// counts; reshuffling an already-staffed case fires nothing.
	if len(before.InvestigatorIDs) == 0 && len(after.InvestigatorIDs) > 0 {
		events = append(events, Event{
			CaseID:       after.CaseID,
			TriggerPoint: model.TriggerInvestigatorsAssigned,
			Template:     findTemplate(catalog, model.TriggerInvestigatorsAssigned),
		})
	}

	if before.Status != model.CaseStatusClosed && after.Status == model.CaseStatusClosed {
		events = append(events, Event{
			CaseID:       after.CaseID,
			TriggerPoint: model.TriggerCaseClosed,
			Template:     findTemplate(catalog, model.TriggerCaseClosed),
		})
	}

	for stageID, done := range after.StageCompleted {
		if !done || before.StageCompleted[stageID] {
			continue
		}
		if tpl := findTemplate(catalog, model.TriggerPoint(stageID)); tpl != nil {
			events = append(events, Event{
				CaseID:       after.CaseID,
				TriggerPoint: model.TriggerPoint(stageID),
				StageID:      stageID,
				Template:     tpl,
			})
		}
	}

	return events
}

// DetectCreation fires the case-created trigger. There is no before image
// at creation, so the caller signals it explicitly.
func DetectCreation(c model.Case, catalog []model.TriggerTemplate) []Event {
	return []Event{{
		CaseID:       c.ID,
		TriggerPoint: model.TriggerCaseCreated,
		Template:     findTemplate(catalog, model.TriggerCaseCreated),
	}}
}

// StageCompletionTemplate returns the installed template for a stage id, if
// any. The progress tracker consults this before applying a completion so
// the toggle can be deferred behind the suggested communication.
func StageCompletionTemplate(stageID string, catalog []model.TriggerTemplate) *model.TriggerTemplate {
	return findTemplate(catalog, model.TriggerPoint(stageID))
}

func findTemplate(catalog []model.TriggerTemplate, point model.TriggerPoint) *model.TriggerTemplate {
	for i := range catalog {
		if catalog[i].TriggerPoint == point {
			return &catalog[i]
		}
	}
	return nil
}
