package authz

import (
	"go.uber.org/zap"

	"caseflow/internal/model"
)

// Evaluator answers permission queries against a directory of roles keyed
// by (company, role). It never errors on a query: unknown roles resolve to
// an empty grant and missing scope keys fall back to the catalog default,
// failing toward least privilege in both directions.
type Evaluator struct {
	roles map[string]map[string]model.Role
	log   *zap.Logger
}

// NewEvaluator indexes the supplied roles. Role documents carrying keys
// outside the closed catalog are flagged once here, with the stray keys kept
// as stored so a later catalog addition picks them up.
func NewEvaluator(roles []model.Role, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	idx := make(map[string]map[string]model.Role)
	for _, r := range roles {
		for key := range r.Permissions {
			if _, ok := Catalog[key]; !ok {
				log.Warn("Role grants unknown permission key",
					zap.String("role_id", r.ID),
					zap.String("company_id", r.CompanyID),
					zap.String("key", key),
				)
			}
		}
		byRole := idx[r.CompanyID]
		if byRole == nil {
			byRole = make(map[string]model.Role)
			idx[r.CompanyID] = byRole
		}
		byRole[r.ID] = r
	}
	return &Evaluator{roles: idx, log: log}
}

// Effective resolves the actor's full permission map. Super actors receive
// the synthesized maximal grant regardless of company. An unknown company or
// role yields an empty map, never an error.
func (e *Evaluator) Effective(actor model.Actor) map[string]model.PermissionValue {
	if actor.Super {
		return MaximalGrant()
	}
	byRole, ok := e.roles[actor.CompanyID]
	if !ok {
		return map[string]model.PermissionValue{}
	}
	role, ok := byRole[actor.RoleID]
	if !ok {
		return map[string]model.PermissionValue{}
	}
	out := make(map[string]model.PermissionValue, len(role.Permissions))
	for k, v := range role.Permissions {
		out[k] = v
	}
	return out
}

// HasAny reports whether any of the given keys resolves truthy for the
// actor. Disjunction is intentional: capability checks list every historical
// name of a permission and pass if one applies.
func (e *Evaluator) HasAny(actor model.Actor, keys ...string) bool {
	perms := e.Effective(actor)
	for _, key := range keys {
		if v, ok := perms[key]; ok && v.Truthy() {
			return true
		}
	}
	return false
}

// ScopeOf returns the actor's stored scope for a key, or the catalog's
// fail-closed default when the role leaves it unset.
func (e *Evaluator) ScopeOf(actor model.Actor, key string) model.ScopeValue {
	entry, known := Catalog[key]
	perms := e.Effective(actor)
	if v, ok := perms[key]; ok && v.IsScope() {
		return v.Scope
	}
	if known {
		return entry.Default
	}
	return ""
}
