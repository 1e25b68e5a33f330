package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/auth"
	"caseflow/internal/model"
)

func (d Dependencies) listHolidays(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	holidays, err := d.Holidays.List(r.Context(), actor.CompanyID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}

	items := make([]map[string]interface{}, 0, len(holidays))
	for _, h := range holidays {
		items = append(items, map[string]interface{}{
			"id":   h.ID,
			"day":  h.Day.Format("2006-01-02"),
			"name": h.Name,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (d Dependencies) createHoliday(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req struct {
		Day  string `json:"day"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	day, err := time.Parse("2006-01-02", req.Day)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "day must be YYYY-MM-DD", d.Log)
		return
	}

	h, err := d.Holidays.Create(r.Context(), actor.CompanyID, day, req.Name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":   h.ID,
		"day":  h.Day.Format("2006-01-02"),
		"name": h.Name,
	})
}

func (d Dependencies) deleteHoliday(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.GetActor(r.Context()); !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	if err := d.Holidays.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Holiday not found", d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) getRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	role, err := d.Roles.Get(r.Context(), actor.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Role not found", d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, role)
}

func (d Dependencies) createRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req struct {
		Name        string                           `json:"name"`
		Permissions map[string]model.PermissionValue `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name required", d.Log)
		return
	}

	role, err := d.Roles.Create(r.Context(), actor.CompanyID, req.Name, req.Permissions)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, role)
}

func (d Dependencies) listTemplates(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	catalog, err := d.Templates.Catalog(r.Context(), actor.CompanyID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": catalog})
}

func (d Dependencies) createTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", d.Log)
		return
	}

	var req struct {
		Name         string `json:"name"`
		TriggerPoint string `json:"triggerPoint"`
		Body         string `json:"body,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Name == "" || req.TriggerPoint == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name and triggerPoint required", d.Log)
		return
	}

	t, err := d.Templates.Create(r.Context(), actor.CompanyID, req.Name, model.TriggerPoint(req.TriggerPoint), req.Body)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}
