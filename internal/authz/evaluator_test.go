package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/model"
)

func testRoles() []model.Role {
	return []model.Role{
		{
			ID:        "investigator",
			CompanyID: "co-1",
			Name:      "Investigator",
			Permissions: map[string]model.PermissionValue{
				PermCaseList:           model.BoolValue(true),
				PermCaseListScope:      model.ScopedValue(model.ScopeAssignedOnly),
				PermTimelineMarkStages: model.BoolValue(true),
			},
		},
		{
			ID:        "viewer",
			CompanyID: "co-1",
			Name:      "Viewer",
			Permissions: map[string]model.PermissionValue{
				PermCaseList: model.BoolValue(true),
				PermCaseEdit: model.BoolValue(false),
			},
		},
		{
			ID:        "legacy-manager",
			CompanyID: "co-1",
			Name:      "Manager (pre-rename)",
			Permissions: map[string]model.PermissionValue{
				PermTimelineManage: model.BoolValue(true),
			},
		},
	}
}

func TestEffective_KnownRole(t *testing.T) {
	e := NewEvaluator(testRoles(), nil)
	actor := model.Actor{ID: "u-1", CompanyID: "co-1", RoleID: "investigator"}

	perms := e.Effective(actor)
	assert.True(t, perms[PermCaseList].Truthy())
	assert.Equal(t, model.ScopeAssignedOnly, perms[PermCaseListScope].Scope)
}

func TestEffective_UnknownRoleOrCompanyDeniesByDefault(t *testing.T) {
	e := NewEvaluator(testRoles(), nil)

	assert.Empty(t, e.Effective(model.Actor{CompanyID: "co-1", RoleID: "ghost"}))
	assert.Empty(t, e.Effective(model.Actor{CompanyID: "co-9", RoleID: "investigator"}))
}

func TestEffective_SuperActorGetsMaximalGrant(t *testing.T) {
	e := NewEvaluator(nil, nil)
	super := model.Actor{ID: "boss", Super: true}

	perms := e.Effective(super)
	require.Len(t, perms, len(Catalog))
	assert.True(t, perms[PermCaseClose].Bool)
	assert.Equal(t, model.ScopeAll, perms[PermCaseListScope].Scope)
	assert.Equal(t, model.ScopeAgendaCompany, perms[PermAgendaScope].Scope)
}

func TestHasAny_Disjunction(t *testing.T) {
	e := NewEvaluator(testRoles(), nil)
	legacy := model.Actor{CompanyID: "co-1", RoleID: "legacy-manager"}

	// The renamed key is absent but the legacy one grants; either suffices.
	assert.True(t, e.HasAny(legacy, CapabilityMarkStages...))
	assert.False(t, e.HasAny(legacy, PermCaseList))

	viewer := model.Actor{CompanyID: "co-1", RoleID: "viewer"}
	assert.False(t, e.HasAny(viewer, CapabilityMarkStages...))
	// An explicit false grant stays false even listed alongside absent keys.
	assert.False(t, e.HasAny(viewer, PermCaseEdit, PermCaseClose))
	assert.True(t, e.HasAny(viewer, PermCaseEdit, PermCaseList))
}

func TestScopeOf(t *testing.T) {
	e := NewEvaluator(testRoles(), nil)

	inv := model.Actor{CompanyID: "co-1", RoleID: "investigator"}
	assert.Equal(t, model.ScopeAssignedOnly, e.ScopeOf(inv, PermCaseListScope))

	// Unset scope falls toward least privilege.
	viewer := model.Actor{CompanyID: "co-1", RoleID: "viewer"}
	assert.Equal(t, model.ScopeAssignedOnly, e.ScopeOf(viewer, PermCaseListScope))
	assert.Equal(t, model.ScopeAgendaOwn, e.ScopeOf(viewer, PermAgendaScope))

	// Unknown keys have no scope at all.
	assert.Equal(t, model.ScopeValue(""), e.ScopeOf(viewer, "no_such_key"))
}

func TestNewEvaluator_WarnsOnUnknownKeys(t *testing.T) {
	roles := []model.Role{{
		ID:        "odd",
		CompanyID: "co-1",
		Permissions: map[string]model.PermissionValue{
			"casos_clave_retirada": model.BoolValue(true),
		},
	}}

	// Stray keys are a load-time warning, kept as stored so a later catalog
	// addition picks them up without reloading roles.
	e := NewEvaluator(roles, nil)
	actor := model.Actor{CompanyID: "co-1", RoleID: "odd"}
	assert.True(t, e.HasAny(actor, "casos_clave_retirada"))
	assert.False(t, e.HasAny(actor, PermCaseList))
}
