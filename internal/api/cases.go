package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/auth"
	"caseflow/internal/model"
	"caseflow/internal/progress"
	"caseflow/internal/service"
)

func (d Dependencies) createCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	c, err := d.Cases.Create(r.Context(), actor)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (d Dependencies) listCases(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}
	limit, offset := pagination(r)

	cases, err := d.Cases.List(r.Context(), actor, limit, offset)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": cases})
}

func (d Dependencies) getCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	c, err := d.Cases.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

type intakeRequest struct {
	ReceptionType  *model.ReceptionType  `json:"receptionType,omitempty"`
	InternalAction *model.InternalAction `json:"internalAction,omitempty"`
	ComplaintDate  *time.Time            `json:"complaintDate,omitempty"`
	ReceptionDate  *time.Time            `json:"receptionDate,omitempty"`
}

func (d Dependencies) setIntake(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Cases.SetIntake(r.Context(), actor, chi.URLParam(r, "id"), service.IntakeInput{
		ReceptionType:  req.ReceptionType,
		InternalAction: req.InternalAction,
		ComplaintDate:  req.ComplaintDate,
		ReceptionDate:  req.ReceptionDate,
	})
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d Dependencies) getTimeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	stages, err := d.Cases.Timeline(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"stages": stages})
}

func (d Dependencies) toggleStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	c, res, err := d.Cases.ToggleStage(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "stageID"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, toggleBody(c, res))
}

func (d Dependencies) toggleSubStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid sub-step index", d.Log)
		return
	}

	c, res, err := d.Cases.ToggleSubStep(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "stageID"), index)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, toggleBody(c, res))
}

func (d Dependencies) confirmStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	c, res, err := d.Cases.ConfirmStage(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "stageID"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, toggleBody(c, res))
}

func (d Dependencies) assignInvestigators(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req struct {
		InvestigatorIDs []string `json:"investigatorIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Cases.AssignInvestigators(r.Context(), actor, chi.URLParam(r, "id"), req.InvestigatorIDs)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d Dependencies) closeCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	c, err := d.Cases.Close(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d Dependencies) addExternalTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var task model.ExternalTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if task.DueDate.IsZero() {
		WriteError(w, http.StatusBadRequest, "invalid_request", "dueDate required", d.Log)
		return
	}

	c, err := d.Cases.AddExternalTask(r.Context(), actor, chi.URLParam(r, "id"), task)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (d Dependencies) completeExternalTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req struct {
		Completed *bool `json:"completed,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
			return
		}
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	c, err := d.Cases.SetExternalTaskCompleted(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "taskID"), completed)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d Dependencies) caseAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}
	limit, offset := pagination(r)

	entries, err := d.Cases.AuditLog(r.Context(), actor, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	items := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]interface{}{
			"id":        e.ID,
			"actorId":   e.ActorID,
			"action":    e.Action,
			"createdAt": e.CreatedAt.Format(time.RFC3339),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func toggleBody(c model.Case, res progress.ToggleResult) map[string]interface{} {
	body := map[string]interface{}{
		"progress": c.TimelineProgress,
		"status":   "APPLIED",
	}
	if res.Outcome == progress.OutcomeAwaitingConfirmation {
		body["status"] = "AWAITING_CONFIRMATION"
		if len(res.PendingTriggers) > 0 && res.PendingTriggers[0].Template != nil {
			body["suggestedTemplateId"] = res.PendingTriggers[0].Template.ID
			body["suggestedTemplateName"] = res.PendingTriggers[0].Template.Name
		}
	}
	return body
}

func pagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
