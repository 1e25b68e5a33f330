package timeline

import (
	"fmt"

	"caseflow/internal/calendar"
	"caseflow/internal/model"
)

// Variant identifies one of the configured procedural flows. Exactly one
// variant is active per case, selected from its intake fields.
type Variant string

const (
	VariantInternalInvestigation Variant = "internal_investigation"
	VariantReferredAuthority     Variant = "referred_authority"
	VariantExternalNotice        Variant = "external_notice"
)

// Variants lists every known flow variant.
var Variants = []Variant{
	VariantInternalInvestigation,
	VariantReferredAuthority,
	VariantExternalNotice,
}

// SubStepDefinition is a checklist child of a stage. Its duration and day
// type are carried from configuration but take no part in date computation;
// only the parent stage's window is scheduled.
type SubStepDefinition struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Duration int           `json:"duration"`
	DayType  model.DayType `json:"dayType"`
}

// StageDefinition is one deadline-bearing phase of a procedural flow.
type StageDefinition struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Duration  int                 `json:"duration"`
	DayType   model.DayType       `json:"dayType"`
	CountFrom model.CountFrom     `json:"countFrom"`
	SubSteps  []SubStepDefinition `json:"subSteps,omitempty"`
}

// Plan is an ordered stage sequence for one flow variant.
type Plan struct {
	Variant Variant           `json:"variant"`
	Stages  []StageDefinition `json:"stages"`
}

var knownDayTypes = map[model.DayType]bool{
	model.DayTypeContinuous:    true,
	model.DayTypeBusinessAdmin: true,
	model.DayTypeBusinessCourt: true,
	model.DayTypeNone:          true,
}

var knownCountFrom = map[model.CountFrom]bool{
	model.CountFromCaseStart:        true,
	model.CountFromPreviousStageEnd: true,
	model.CountFromComplaintDate:    true,
	model.CountFromReceptionDate:    true,
	model.CountFromDayZero:          true,
}

// Validate checks the structural invariants a plan must hold before it can
// be resolved: unique stage ids, known day types and count-from rules, and
// durations within the supported range. Runs at load time so Resolve never
// sees a malformed plan.
func (p Plan) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: plan %q has no stages", ErrConfiguration, p.Variant)
	}
	seen := make(map[string]bool, len(p.Stages))
	for i, st := range p.Stages {
		if st.ID == "" {
			return fmt.Errorf("%w: stage %d of plan %q has empty id", ErrConfiguration, i, p.Variant)
		}
		if seen[st.ID] {
			return fmt.Errorf("%w: duplicate stage id %q in plan %q", ErrConfiguration, st.ID, p.Variant)
		}
		seen[st.ID] = true
		if !knownDayTypes[st.DayType] {
			return fmt.Errorf("%w: stage %q has unknown day type %q", ErrConfiguration, st.ID, st.DayType)
		}
		if !knownCountFrom[st.CountFrom] {
			return fmt.Errorf("%w: stage %q has unknown count-from rule %q", ErrConfiguration, st.ID, st.CountFrom)
		}
		if st.Duration < 0 || st.Duration > calendar.MaxDuration {
			return fmt.Errorf("%w: stage %q duration %d out of range", ErrConfiguration, st.ID, st.Duration)
		}
		for j, sub := range st.SubSteps {
			if sub.ID == "" {
				return fmt.Errorf("%w: sub-step %d of stage %q has empty id", ErrConfiguration, j, st.ID)
			}
			if sub.DayType != "" && !knownDayTypes[sub.DayType] {
				return fmt.Errorf("%w: sub-step %q has unknown day type %q", ErrConfiguration, sub.ID, sub.DayType)
			}
		}
	}
	return nil
}

// Stage returns the definition with the given id, if present.
func (p Plan) Stage(id string) (StageDefinition, bool) {
	for _, st := range p.Stages {
		if st.ID == id {
			return st, true
		}
	}
	return StageDefinition{}, false
}

// StageIndex returns the position of a stage id within the plan, or -1.
func (p Plan) StageIndex(id string) int {
	for i, st := range p.Stages {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// SelectVariant maps a case's intake fields to the flow variant governing
// its timeline. A case without a reception type has no resolvable timeline
// yet and yields ok=false.
func SelectVariant(receptionType *model.ReceptionType, internalAction *model.InternalAction) (Variant, bool) {
	if receptionType == nil {
		return "", false
	}
	if *receptionType == model.ReceptionAuthority {
		return VariantExternalNotice, true
	}
	if internalAction != nil {
		switch *internalAction {
		case model.ActionReferAuthority:
			return VariantReferredAuthority, true
		case model.ActionExternalNotice:
			return VariantExternalNotice, true
		}
	}
	return VariantInternalInvestigation, true
}
