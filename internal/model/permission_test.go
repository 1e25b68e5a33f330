package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionValueDecodesRoleDocument(t *testing.T) {
	doc := []byte(`{
		"casos_crear": true,
		"casos_cerrar": false,
		"casos_listado_alcance": "asignados"
	}`)

	var perms map[string]PermissionValue
	require.NoError(t, json.Unmarshal(doc, &perms))

	assert.True(t, perms["casos_crear"].Truthy())
	assert.False(t, perms["casos_cerrar"].Truthy())
	assert.True(t, perms["casos_listado_alcance"].IsScope())
	assert.Equal(t, ScopeAssignedOnly, perms["casos_listado_alcance"].Scope)
}

func TestPermissionValueRejectsOtherShapes(t *testing.T) {
	var v PermissionValue
	assert.Error(t, json.Unmarshal([]byte(`42`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"nested": true}`), &v))
}

func TestPermissionValueEncodesStoredShape(t *testing.T) {
	out, err := json.Marshal(map[string]PermissionValue{
		"casos_crear":           BoolValue(true),
		"casos_listado_alcance": ScopedValue(ScopeAll),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"casos_crear": true, "casos_listado_alcance": "todos"}`, string(out))
}
