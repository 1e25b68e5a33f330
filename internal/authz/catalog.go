package authz

import "caseflow/internal/model"

// Permission keys. The catalog is closed: stored roles may only use keys
// listed here, anything else is flagged at load time. Key names follow the
// complaint-channel product vocabulary.
const (
	PermCaseList            = "casos_ver_listado"
	PermCaseListScope       = "casos_listado_alcance"
	PermCaseCreate          = "casos_crear"
	PermCaseEdit            = "casos_editar"
	PermCaseClose           = "casos_cerrar"
	PermCaseAssign          = "casos_asignar_investigadores"
	PermTimelineMarkStages  = "timeline_marcar_etapas"
	PermTimelineManage      = "casos_gestionar_timeline" // legacy name, still honored
	PermAgendaScope         = "agenda_alcance"
	PermCommunicationsSend  = "comunicaciones_enviar"
	PermReportsView         = "informes_ver"
)

// CapabilityMarkStages is the key set checked before any timeline toggle.
// Older role documents grant the legacy key; either one suffices.
var CapabilityMarkStages = []string{PermTimelineMarkStages, PermTimelineManage}

// Kind distinguishes boolean grants from scope-qualified ones.
type Kind int

const (
	KindBool Kind = iota
	KindScope
)

// Entry describes one catalog key: its kind and, for scoped keys, the
// allowed values ordered narrowest first plus the fail-closed default
// returned when a role leaves the key unset.
type Entry struct {
	Key     string
	Kind    Kind
	Scopes  []model.ScopeValue // narrowest first; empty for KindBool
	Default model.ScopeValue
}

// Broadest returns the widest scope for the key.
func (e Entry) Broadest() model.ScopeValue {
	if len(e.Scopes) == 0 {
		return ""
	}
	return e.Scopes[len(e.Scopes)-1]
}

// Catalog is the closed permission-key set, indexed by key.
var Catalog = map[string]Entry{
	PermCaseList:           {Key: PermCaseList, Kind: KindBool},
	PermCaseListScope:      {Key: PermCaseListScope, Kind: KindScope, Scopes: []model.ScopeValue{model.ScopeOwnOnly, model.ScopeAssignedOnly, model.ScopeAll}, Default: model.ScopeAssignedOnly},
	PermCaseCreate:         {Key: PermCaseCreate, Kind: KindBool},
	PermCaseEdit:           {Key: PermCaseEdit, Kind: KindBool},
	PermCaseClose:          {Key: PermCaseClose, Kind: KindBool},
	PermCaseAssign:         {Key: PermCaseAssign, Kind: KindBool},
	PermTimelineMarkStages: {Key: PermTimelineMarkStages, Kind: KindBool},
	PermTimelineManage:     {Key: PermTimelineManage, Kind: KindBool},
	PermAgendaScope:        {Key: PermAgendaScope, Kind: KindScope, Scopes: []model.ScopeValue{model.ScopeAgendaOwn, model.ScopeAgendaCompany}, Default: model.ScopeAgendaOwn},
	PermCommunicationsSend: {Key: PermCommunicationsSend, Kind: KindBool},
	PermReportsView:        {Key: PermReportsView, Kind: KindBool},
}

// MaximalGrant is the synthesized permission set of the super actor: every
// boolean key granted, every scoped key at its broadest value.
func MaximalGrant() map[string]model.PermissionValue {
	grant := make(map[string]model.PermissionValue, len(Catalog))
	for key, entry := range Catalog {
		if entry.Kind == KindScope {
			grant[key] = model.ScopedValue(entry.Broadest())
		} else {
			grant[key] = model.BoolValue(true)
		}
	}
	return grant
}
